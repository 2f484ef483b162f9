// Package badger provides an embedded, on-disk ports.KVStore backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/target/sso-bridge/internal/ports"
)

// Options controls how the store is opened.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// KVStore is a BadgerDB-backed ports.KVStore.
// Batches commit in a single read-write transaction.
type KVStore struct {
	db *badgerdb.DB
}

var (
	_ ports.KVStore = (*KVStore)(nil)
	_ ports.Batch   = (*batch)(nil)
)

// Open opens (creating if needed) the store described by opts.
func Open(opts Options) (*KVStore, error) {
	var bo badgerdb.Options
	if opts.InMemory {
		bo = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("badger: path is required")
		}
		bo = badgerdb.DefaultOptions(opts.Path)
	}
	bo = bo.WithLogger(newLogAdapter(opts.Logger))

	db, err := badgerdb.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *KVStore) Close() error {
	return s.db.Close()
}

// Healthcheck verifies a read transaction can be started.
func (s *KVStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		val   string
		found bool
	)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = string(v)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("badger get: %w", err)
	}
	return val, found, nil
}

func (s *KVStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	}); err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

func (s *KVStore) NewBatch() ports.Batch {
	return &batch{db: s.db}
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

type batch struct {
	db  *badgerdb.DB
	ops []batchOp
}

func (b *batch) Put(key, value string) {
	b.ops = append(b.ops, batchOp{key: []byte(key), value: []byte(value)})
}

func (b *batch) Delete(key string) {
	b.ops = append(b.ops, batchOp{key: []byte(key), delete: true})
}

func (b *batch) Len() int { return len(b.ops) }

func (b *batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		for _, op := range b.ops {
			if op.delete {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger batch commit: %w", err)
	}
	return nil
}

// logAdapter routes badger's printf-style logging into slog.
type logAdapter struct {
	log *slog.Logger
}

func newLogAdapter(l *slog.Logger) badgerdb.Logger {
	if l == nil {
		l = slog.Default()
	}
	return &logAdapter{log: l.With("component", "badger")}
}

func (a *logAdapter) Errorf(format string, args ...interface{}) {
	a.log.Error(fmt.Sprintf(format, args...))
}

func (a *logAdapter) Warningf(format string, args ...interface{}) {
	a.log.Warn(fmt.Sprintf(format, args...))
}

func (a *logAdapter) Infof(format string, args ...interface{}) {
	a.log.Debug(fmt.Sprintf(format, args...))
}

func (a *logAdapter) Debugf(format string, args ...interface{}) {
	a.log.Debug(fmt.Sprintf(format, args...))
}
