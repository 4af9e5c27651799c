// Package kv wraps BadgerDB as the durable key/value store used by the
// normalization cache and the budget governor. Badger provides the
// per-record TTL both consumers rely on.
package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pantryops/restock/internal/common"
)

// Config holds configuration for the store.
type Config struct {
	Logger   *slog.Logger
	Path     string
	InMemory bool // no disk persistence; used by tests
}

// Store is a thin, app-shaped layer over a Badger database.
type Store struct {
	db        *badger.DB
	stopGC    chan struct{}
	closeOnce sync.Once
}

// badgerLogger adapts slog.Logger to Badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates and opens the store at the configured path, or in memory.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: kv path is required", common.ErrMissingConfig)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create kv directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}

	s := &Store{db: db, stopGC: make(chan struct{})}
	if !cfg.InMemory {
		go s.runGC()
	}

	return s, nil
}

// Get returns the value for key, or common.ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get failed: %w", err)
	}
	return value, nil
}

// Set stores value under key. A zero ttl means the entry never expires.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("kv set failed: %w", err)
	}
	return nil
}

// Update applies a read-modify-write to key within one transaction. fn
// receives nil when the key is absent. The returned value replaces the
// stored one, preserving ttl semantics of Set.
func (s *Store) Update(key string, ttl time.Duration, fn func(old []byte) ([]byte, error)) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var old []byte
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First write for this key.
		case err != nil:
			return err
		default:
			old, err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
		}

		updated, err := fn(old)
		if err != nil {
			return err
		}

		entry := badger.NewEntry([]byte(key), updated)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("kv update failed: %w", err)
	}
	return nil
}

// Scan iterates all entries under prefix, invoking fn for each. Iteration
// stops on the first error from fn.
func (s *Store) Scan(prefix string, fn func(key string, value []byte) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(string(item.Key()), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv scan failed: %w", err)
	}
	return nil
}

// runGC periodically reclaims value log space.
func (s *Store) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// Badger asks callers to loop until GC finds nothing to do.
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Close stops background work and closes the database. Safe to call more
// than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopGC)
		err = s.db.Close()
	})
	return err
}
