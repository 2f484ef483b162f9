package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"maps"
	"sync"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	"github.com/target/sso-bridge/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.KVStore    = (*MemoryKV)(nil)
	_ ports.Batch      = (*MemoryBatch)(nil)
	_ ports.TokenStore = (*StaticTokenStore)(nil)
)

// MemoryKV is a map-backed KVStore whose batches commit under one lock.
// The *Err fields inject failures.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string

	GetErr    error
	PutErr    error
	DeleteErr error
	CommitErr error

	commits int
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key, value string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) NewBatch() ports.Batch {
	return &MemoryBatch{kv: m}
}

// Snapshot returns a copy of the current contents.
func (m *MemoryKV) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// Commits returns the number of successful batch commits.
func (m *MemoryKV) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

type memoryOp struct {
	key    string
	value  string
	delete bool
}

// MemoryBatch queues ops for MemoryKV.
type MemoryBatch struct {
	kv  *MemoryKV
	ops []memoryOp
}

func (b *MemoryBatch) Put(key, value string) {
	b.ops = append(b.ops, memoryOp{key: key, value: value})
}

func (b *MemoryBatch) Delete(key string) {
	b.ops = append(b.ops, memoryOp{key: key, delete: true})
}

func (b *MemoryBatch) Len() int { return len(b.ops) }

func (b *MemoryBatch) Commit(_ context.Context) error {
	if b.kv.CommitErr != nil {
		return b.kv.CommitErr
	}
	b.kv.mu.Lock()
	defer b.kv.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.kv.data, op.key)
			continue
		}
		b.kv.data[op.key] = op.value
	}
	b.kv.commits++
	return nil
}

// StaticTokenStore is a TokenStore double with overridable behavior.
type StaticTokenStore struct {
	LookupFunc func(ctx context.Context, token string) (domainauth.Identity, bool, error)
	RotateFunc func(ctx context.Context, uid, dn string) (string, error)

	mu     sync.Mutex
	tokens map[string]domainauth.Identity
}

// NewStaticTokenStore creates a StaticTokenStore preloaded with tokens.
func NewStaticTokenStore(tokens map[string]domainauth.Identity) *StaticTokenStore {
	if tokens == nil {
		tokens = make(map[string]domainauth.Identity)
	}
	return &StaticTokenStore{tokens: tokens}
}

func (s *StaticTokenStore) Lookup(ctx context.Context, token string) (domainauth.Identity, bool, error) {
	if s.LookupFunc != nil {
		return s.LookupFunc(ctx, token)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	return id, ok, nil
}

func (s *StaticTokenStore) Rotate(ctx context.Context, uid, dn string) (string, error) {
	if s.RotateFunc != nil {
		return s.RotateFunc(ctx, uid, dn)
	}
	tok, err := domainauth.GenerateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]domainauth.Identity)
	}
	for k, v := range s.tokens {
		if v.UID == uid {
			delete(s.tokens, k)
		}
	}
	s.tokens[tok] = domainauth.Identity{UID: uid, DN: dn}
	return tok, nil
}
