package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	mocks "github.com/target/sso-bridge/internal/mocks/auth"
	"golang.org/x/sync/errgroup"
)

const testDN = "dc=example,dc=com"

func sequentialTokens(prefix string) func() (string, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n), nil
	}
}

func TestTokenStore_RotateWritesTriple(t *testing.T) {
	kv := mocks.NewMemoryKV()
	store := NewTokenStore(TokenStoreOptions{KV: kv, Generate: sequentialTokens("tok")})

	token, err := store.Rotate(context.Background(), "euler", testDN)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	assert.Equal(t, map[string]string{
		"tok1":    "euler",
		"euler":   "tok1",
		"dn_tok1": testDN,
	}, kv.Snapshot())
	assert.Equal(t, 1, kv.Commits())
}

func TestTokenStore_RotateRetiresPrevious(t *testing.T) {
	kv := mocks.NewMemoryKV()
	store := NewTokenStore(TokenStoreOptions{KV: kv, Generate: sequentialTokens("tok")})
	ctx := context.Background()

	first, err := store.Rotate(ctx, "euler", testDN)
	require.NoError(t, err)
	second, err := store.Rotate(ctx, "euler", "dc=other")
	require.NoError(t, err)

	_, ok, err := store.Lookup(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok, "old token must no longer resolve")

	id, ok, err := store.Lookup(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domainauth.Identity{UID: "euler", DN: "dc=other"}, id)

	assert.Len(t, kv.Snapshot(), 3)
	assert.Equal(t, 2, kv.Commits())
}

func TestTokenStore_RealTokens(t *testing.T) {
	store := NewTokenStore(TokenStoreOptions{KV: mocks.NewMemoryKV()})

	token, err := store.Rotate(context.Background(), "euler", testDN)
	require.NoError(t, err)
	assert.Len(t, token, domainauth.TokenLength)
}

func TestTokenStore_LookupMisses(t *testing.T) {
	kv := mocks.NewMemoryKV()
	store := NewTokenStore(TokenStoreOptions{KV: kv})
	ctx := context.Background()

	_, ok, err := store.Lookup(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Lookup(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	// A token without its dn side entry is not a session.
	require.NoError(t, kv.Put(ctx, "orphan", "euler"))
	_, ok, err = store.Lookup(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup backend failure", func(t *testing.T) {
		kv := mocks.NewMemoryKV()
		kv.GetErr = errors.New("io")
		_, _, err := NewTokenStore(TokenStoreOptions{KV: kv}).Lookup(ctx, "tok")
		require.Error(t, err)
	})

	t.Run("commit failure issues no token", func(t *testing.T) {
		kv := mocks.NewMemoryKV()
		store := NewTokenStore(TokenStoreOptions{KV: kv, Generate: sequentialTokens("tok")})
		first, err := store.Rotate(ctx, "euler", testDN)
		require.NoError(t, err)

		kv.CommitErr = errors.New("disk full")
		token, err := store.Rotate(ctx, "euler", testDN)
		require.Error(t, err)
		assert.Empty(t, token)

		kv.CommitErr = nil
		_, ok, err := store.Lookup(ctx, first)
		require.NoError(t, err)
		assert.True(t, ok, "previous token stays valid after a failed rotation")
	})

	t.Run("generator failure", func(t *testing.T) {
		store := NewTokenStore(TokenStoreOptions{
			KV:       mocks.NewMemoryKV(),
			Generate: func() (string, error) { return "", errors.New("entropy") },
		})
		_, err := store.Rotate(ctx, "euler", testDN)
		require.Error(t, err)
	})

	t.Run("empty uid", func(t *testing.T) {
		_, err := NewTokenStore(TokenStoreOptions{KV: mocks.NewMemoryKV()}).Rotate(ctx, "", testDN)
		require.Error(t, err)
	})
}

func TestTokenStore_ConcurrentRotationsLeaveOneLiveToken(t *testing.T) {
	kv := mocks.NewMemoryKV()
	store := NewTokenStore(TokenStoreOptions{KV: kv})
	ctx := context.Background()

	const rounds = 50
	issued := make([]string, rounds)

	var g errgroup.Group
	for i := range rounds {
		g.Go(func() error {
			tok, err := store.Rotate(ctx, "euler", testDN)
			issued[i] = tok
			return err
		})
	}
	require.NoError(t, g.Wait())

	live := 0
	for _, tok := range issued {
		if _, ok, err := store.Lookup(ctx, tok); err == nil && ok {
			live++
		}
	}
	assert.Equal(t, 1, live)

	current, ok, err := kv.Get(ctx, "euler")
	require.NoError(t, err)
	require.True(t, ok)
	id, ok, err := store.Lookup(ctx, current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "euler", id.UID)

	assert.Len(t, kv.Snapshot(), 3)
	assert.Zero(t, store.locks.size(), "idle identity locks are released")
}

func TestTokenStore_IndependentIdentities(t *testing.T) {
	store := NewTokenStore(TokenStoreOptions{KV: mocks.NewMemoryKV()})
	ctx := context.Background()

	g, gctx := errgroup.WithContext(ctx)
	users := []string{"euler", "gauss", "riemann", "noether"}
	for _, uid := range users {
		g.Go(func() error {
			_, err := store.Rotate(gctx, uid, testDN)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, uid := range users {
		tok, ok, err := store.kv.Get(ctx, uid)
		require.NoError(t, err)
		require.True(t, ok)
		id, ok, err := store.Lookup(ctx, tok)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uid, id.UID)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("euler")

	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		release := k.Lock("euler")
		close(acquired)
		release()
	}()

	// A different key is not blocked.
	other := k.Lock("gauss")
	other()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key acquired while held")
	default:
	}

	unlock()
	<-acquired
	<-done
	assert.Zero(t, k.size())
}
