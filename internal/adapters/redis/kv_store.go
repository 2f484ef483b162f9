// Package redis provides Redis-based adapters for the SSO bridge.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/target/sso-bridge/internal/ports"
)

// DefaultKeyPrefix namespaces every key written by KVStore.
const DefaultKeyPrefix = "ssobridge:"

// KVStore is a Redis-backed ports.KVStore.
// Batches commit inside MULTI/EXEC so readers never observe a partial batch.
type KVStore struct {
	client redis.UniversalClient
	prefix string
}

var (
	_ ports.KVStore = (*KVStore)(nil)
	_ ports.Batch   = (*batch)(nil)
)

// NewKVStore creates a Redis KV store with the default key prefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return NewKVStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewKVStoreWithPrefix creates a Redis KV store with a custom key prefix.
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string) *KVStore {
	return &KVStore{
		client: client,
		prefix: prefix,
	}
}

// HashTagPrefix turns prefix into a Redis Cluster hash tag ("ssobridge:"
// becomes "{ssobridge}:") so all keys of one batch hash to the same slot and
// MULTI/EXEC does not fail with CROSSSLOT. Every token then shares one slot.
// A prefix that already carries a non-empty tag is returned unchanged.
func HashTagPrefix(prefix string) string {
	if open := strings.IndexByte(prefix, '{'); open >= 0 {
		if end := strings.IndexByte(prefix[open+1:], '}'); end > 0 {
			return prefix
		}
	}
	name := strings.Trim(prefix, ":{}")
	if name == "" {
		name = strings.TrimSuffix(DefaultKeyPrefix, ":")
	}
	return "{" + name + "}:"
}

func (s *KVStore) key(k string) string { return s.prefix + k }

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (s *KVStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *KVStore) NewBatch() ports.Batch {
	return &batch{store: s}
}

type batchOp struct {
	key    string
	value  string
	delete bool
}

type batch struct {
	store *KVStore
	ops   []batchOp
}

func (b *batch) Put(key, value string) {
	b.ops = append(b.ops, batchOp{key: key, value: value})
}

func (b *batch) Delete(key string) {
	b.ops = append(b.ops, batchOp{key: key, delete: true})
}

func (b *batch) Len() int { return len(b.ops) }

func (b *batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	_, err := b.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range b.ops {
			if op.delete {
				pipe.Del(ctx, b.store.key(op.key))
				continue
			}
			pipe.Set(ctx, b.store.key(op.key), op.value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch commit: %w", err)
	}
	return nil
}
