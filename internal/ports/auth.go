package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
)

// DirectoryClient opens sessions against a directory service.
type DirectoryClient interface {
	// Connect establishes a new, unbound directory session.
	Connect(ctx context.Context) (DirectorySession, error)
}

// SearchRequest groups parameters for a directory search.
type SearchRequest struct {
	BaseDN string
	Scope  domainauth.SearchScope
	// Filter is optional; adapters match every object when empty.
	Filter string
}

// DirectorySession is a single connection to the directory.
type DirectorySession interface {
	// Bind authenticates the session as dn.
	Bind(ctx context.Context, dn, password string) error

	// Search returns matching entries. A missing base object is reported as an
	// error matching domainauth.ErrNoSuchObject.
	Search(ctx context.Context, req SearchRequest) ([]domainauth.DirectoryEntry, error)

	Close() error
}

// KVStore is an ordered key/value backend with atomic batches.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// NewBatch starts an empty batch. Nothing is applied until Commit.
	NewBatch() Batch
}

// Batch queues writes that Commit applies as one atomic unit.
type Batch interface {
	Put(key, value string)
	Delete(key string)
	// Commit applies every queued op, or none of them.
	Commit(ctx context.Context) error
	// Len reports the number of queued ops.
	Len() int
}

// TokenStore maps issued tokens to identities.
type TokenStore interface {
	// Lookup resolves token. A miss is (zero, false, nil), not an error.
	Lookup(ctx context.Context, token string) (domainauth.Identity, bool, error)

	// Rotate issues a new token for uid, atomically replacing any previous one.
	Rotate(ctx context.Context, uid, dn string) (string, error)
}
