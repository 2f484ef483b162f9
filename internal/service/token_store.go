package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
)

// dnKeyPrefix prefixes the side entry holding a token's distinguished name.
const dnKeyPrefix = "dn_"

// TokenStoreOptions groups dependencies for TokenStore.
type TokenStoreOptions struct {
	KV ports.KVStore
	// Generate overrides token generation (tests). Defaults to domainauth.GenerateToken.
	Generate func() (string, error)
}

// TokenStore keeps token <-> identity mappings in a KVStore.
//
// Layout per live session: token -> uid, uid -> token, dn_<token> -> dn.
// All three entries are written, and the previous triple for the same uid
// deleted, in a single batch commit.
type TokenStore struct {
	kv       ports.KVStore
	generate func() (string, error)
	locks    *keyedMutex
}

var _ ports.TokenStore = (*TokenStore)(nil)

// NewTokenStore constructs a TokenStore.
func NewTokenStore(opts TokenStoreOptions) *TokenStore {
	gen := opts.Generate
	if gen == nil {
		gen = domainauth.GenerateToken
	}
	return &TokenStore{
		kv:       opts.KV,
		generate: gen,
		locks:    newKeyedMutex(),
	}
}

func dnKey(token string) string { return dnKeyPrefix + token }

// Lookup resolves a token to its identity.
// A token whose dn side entry is missing is treated as no session.
func (s *TokenStore) Lookup(ctx context.Context, token string) (domainauth.Identity, bool, error) {
	if token == "" {
		return domainauth.Identity{}, false, nil
	}

	uid, ok, err := s.kv.Get(ctx, token)
	if err != nil {
		return domainauth.Identity{}, false, fmt.Errorf("get token: %w", err)
	}
	if !ok {
		return domainauth.Identity{}, false, nil
	}

	dn, ok, err := s.kv.Get(ctx, dnKey(token))
	if err != nil {
		return domainauth.Identity{}, false, fmt.Errorf("get token dn: %w", err)
	}
	if !ok {
		return domainauth.Identity{}, false, nil
	}

	return domainauth.Identity{UID: uid, DN: dn}, true, nil
}

// Rotate issues a new token for uid and retires the previous one in the same commit.
// Rotations for the same uid are serialized; different uids proceed independently.
func (s *TokenStore) Rotate(ctx context.Context, uid, dn string) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}

	token, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	unlock := s.locks.Lock(uid)
	defer unlock()

	old, hasOld, err := s.kv.Get(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("get previous token: %w", err)
	}

	batch := s.kv.NewBatch()
	if hasOld && old != "" {
		batch.Delete(old)
		batch.Delete(dnKey(old))
	}
	batch.Put(token, uid)
	batch.Put(uid, token)
	batch.Put(dnKey(token), dn)

	if err := batch.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit token rotation: %w", err)
	}

	return token, nil
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is held and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
