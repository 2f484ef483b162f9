package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	mockauth "github.com/target/sso-bridge/internal/mocks/auth"
	"github.com/target/sso-bridge/internal/service"
)

func newTestContext(stdin string) (*commandContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
	}, &out
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Usage: ssobridge-admin <command> [flags]"))
	for name := range commands() {
		assert.Contains(t, out, name)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	ctx, out := newTestContext("")
	require.NoError(t, runHashPassword(ctx, []string{"--password", "mypassword"}))
	hashed := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hashed, "{SSHA}"))

	t.Run("match", func(t *testing.T) {
		ctx, out := newTestContext("")
		require.NoError(t, runVerifyPassword(ctx, []string{"--hash", hashed, "--password", "mypassword"}))
		assert.Equal(t, "match\n", out.String())
	})

	t.Run("mismatch", func(t *testing.T) {
		ctx, out := newTestContext("")
		require.Error(t, runVerifyPassword(ctx, []string{"--hash", hashed, "--password", "nope"}))
		assert.Equal(t, "mismatch\n", out.String())
	})

	t.Run("password from stdin", func(t *testing.T) {
		ctx, out := newTestContext("mypassword\n")
		require.NoError(t, runVerifyPassword(ctx, []string{"--hash", hashed}))
		assert.Equal(t, "match\n", out.String())
	})

	t.Run("hash required", func(t *testing.T) {
		ctx, _ := newTestContext("")
		require.Error(t, runVerifyPassword(ctx, []string{"--password", "x"}))
	})
}

func TestHashPassword_EmptyStdin(t *testing.T) {
	ctx, _ := newTestContext("")
	require.Error(t, runHashPassword(ctx, nil))
}

func TestLegacyBcrypt(t *testing.T) {
	a, err := legacyBcrypt([]byte("mypassword"))
	require.NoError(t, err)
	assert.Len(t, a, 32)

	again, err := legacyBcrypt([]byte("mypassword"))
	require.NoError(t, err)
	assert.Equal(t, a, again)

	other, err := legacyBcrypt([]byte("mypassword2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	_, err = legacyBcrypt(nil)
	require.Error(t, err)
	_, err = legacyBcrypt(bytes.Repeat([]byte("a"), maxBcryptKeyLen+1))
	require.Error(t, err)
	_, err = legacyBcrypt(bytes.Repeat([]byte("a"), maxBcryptKeyLen))
	require.NoError(t, err)
}

func TestRunGenPass(t *testing.T) {
	ctx, out := newTestContext("")
	require.NoError(t, runGenPass(ctx, []string{"--pass", "secret"}))
	want, err := legacyBcrypt([]byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "crypted pass: "+want+"\n", out.String())
}

func TestLookupToken(t *testing.T) {
	kv := mockauth.NewMemoryKV()
	store := service.NewTokenStore(service.TokenStoreOptions{KV: kv})
	token, err := store.Rotate(context.Background(), "euler", "dc=example,dc=com")
	require.NoError(t, err)

	t.Run("known token", func(t *testing.T) {
		ctx, out := newTestContext("")
		require.NoError(t, lookupToken(ctx, kv, token))
		var got lookupOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, lookupOutput{Token: token, Valid: true, UID: "euler", DN: "dc=example,dc=com"}, got)
	})

	t.Run("unknown token", func(t *testing.T) {
		ctx, out := newTestContext("")
		unknown := strings.Repeat("x", domainauth.TokenLength)
		require.NoError(t, lookupToken(ctx, kv, unknown))
		var got lookupOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.False(t, got.Valid)
		assert.Empty(t, got.UID)
	})

	t.Run("token required", func(t *testing.T) {
		ctx, _ := newTestContext("")
		require.Error(t, runLookupToken(ctx, nil))
	})
}
