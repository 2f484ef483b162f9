// Package mocks provides mock implementations for testing the SSO bridge.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockDirectoryClient(ctrl)
//	client.EXPECT().Connect(gomock.Any()).Return(session, nil)
package mocks

// Generate mocks for DirectoryClient and DirectorySession from internal/ports.
// DirectoryClient: Connect. DirectorySession: Bind, Search, Close.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_mock.go github.com/target/sso-bridge/internal/ports DirectoryClient,DirectorySession

// Generate mock for TokenStore from internal/ports.
// TokenStore: Lookup, Rotate.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/target/sso-bridge/internal/ports TokenStore
