package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// Options tunes the underlying Pebble database.
type Options struct {
	CacheSize    int64         // CacheSize is the block cache size in bytes
	MemTableSize uint64        // MemTableSize is the size of one memtable in bytes
	SyncInterval time.Duration // SyncInterval is the period of background WAL syncs
}

// DefaultOptions returns options sized for a single validator process.
func DefaultOptions() Options {
	return Options{
		CacheSize:    32 << 20,
		MemTableSize: 16 << 20,
		SyncInterval: 100 * time.Millisecond,
	}
}

// Op is a single write of an atomic batch.
// A nil Value deletes Key.
type Op struct {
	Key   []byte // Key is the key to write
	Value []byte // Value is the new value, or nil to delete
}

// Storage is the key-value store holding chain state.
// Writes are not synced individually: a background goroutine
// flushes the WAL every SyncInterval and on Close.
type Storage struct {
	db       *pebble.DB
	cache    *pebble.Cache
	stopSync chan struct{}
	wg       sync.WaitGroup
}

// Open opens (or creates) a store at path.
func Open(path string, opts Options) (*Storage, error) {
	cache := pebble.NewCache(opts.CacheSize)

	db, err := pebble.Open(path, &pebble.Options{
		Cache:                       cache,
		MemTableSize:                opts.MemTableSize,
		MemTableStopWritesThreshold: 2,
	})
	if err != nil {
		cache.Unref()
		return nil, fmt.Errorf("open pebble at %s:\n%w", path, err)
	}

	s := &Storage{
		db:       db,
		cache:    cache,
		stopSync: make(chan struct{}),
	}

	if opts.SyncInterval > 0 {
		s.startSyncLoop(opts.SyncInterval)
	}

	return s, nil
}

// Get returns a copy of the value stored at key, or nil if absent.
func (s *Storage) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %x:\n%w", key, err)
	}
	defer closer.Close()

	return append([]byte(nil), value...), nil
}

// Set stores value at key.
func (s *Storage) Set(key, value []byte) error {
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return fmt.Errorf("set %x:\n%w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Storage) Delete(key []byte) error {
	if err := s.db.Delete(key, pebble.NoSync); err != nil {
		return fmt.Errorf("delete %x:\n%w", key, err)
	}
	return nil
}

// Apply writes ops atomically: either all of them land or none.
func (s *Storage) Apply(ops []Op) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		var err error
		if op.Value == nil {
			err = batch.Delete(op.Key, nil)
		} else {
			err = batch.Set(op.Key, op.Value, nil)
		}

		if err != nil {
			return fmt.Errorf("stage %x:\n%w", op.Key, err)
		}
	}

	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("commit batch of %d ops:\n%w", len(ops), err)
	}

	return nil
}

// IteratePrefix calls fn for every key starting with prefix, in key order.
// The slices passed to fn are only valid during the call.
// An error returned by fn stops the scan and is returned as is.
func (s *Storage) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("open iterator:\n%w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return fmt.Errorf("read %x:\n%w", iter.Key(), err)
		}

		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}

	return iter.Error()
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
// Returns nil (unbounded) for an empty or all-0xFF prefix.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}

	return nil
}

// Close stops background syncing, flushes the WAL and closes the database.
func (s *Storage) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	defer s.cache.Unref()

	if err := s.sync(); err != nil {
		s.db.Close()
		return fmt.Errorf("final sync:\n%w", err)
	}

	return s.db.Close()
}

func (s *Storage) startSyncLoop(interval time.Duration) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	}()
}

// sync forces the WAL to disk.
func (s *Storage) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}
