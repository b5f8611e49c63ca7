// Package badgerstore provides an embedded, on-disk store.Store backed by
// BadgerDB (the ternarybob-quaero stack's embedded-storage choice),
// operating directly on *badger.DB transactions rather than through a
// higher-level holder library, since jobflow's keyspace (uuid, index) is
// simple enough not to need one.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/xperrylinn/jobflow/store"
)

// Store is the BadgerDB store.Store implementation.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) a BadgerDB database at dir and returns a
// Store wrapping it.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open *badger.DB.
func New(db *badger.DB) *Store { return &Store{db: db} }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func recordKey(uuid string, index int) []byte {
	return []byte(fmt.Sprintf("rec/%s/%020d", uuid, index))
}

func latestKey(uuid string) []byte {
	return []byte(fmt.Sprintf("latest/%s", uuid))
}

type document struct {
	Output      any            `json:"output"`
	CompletedAt int64          `json:"completedAt"`
	Metadata    map[string]any `json:"metadata"`
}

// GetOutput implements store.Store. which is store.Latest (or nil) for the
// highest-index record, or an int for an exact index.
func (s *Store) GetOutput(_ context.Context, uuid string, which any, _ bool) (any, error) {
	index, err := s.resolveIndex(uuid, which)
	if err != nil {
		return nil, err
	}

	var doc document
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(uuid, index))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, &store.ErrNotFound{UUID: uuid, Which: which}
	}
	if err != nil {
		return nil, fmt.Errorf("badgerstore: get: %w", err)
	}
	return doc.Output, nil
}

func (s *Store) resolveIndex(uuid string, which any) (int, error) {
	if idx, ok := which.(int); ok {
		return idx, nil
	}

	var index int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestKey(uuid))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := strconv.Atoi(string(val))
			if err != nil {
				return err
			}
			index = parsed
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, &store.ErrNotFound{UUID: uuid, Which: which}
	}
	if err != nil {
		return 0, fmt.Errorf("badgerstore: resolve latest: %w", err)
	}
	return index, nil
}

// Update implements store.Store: upsert keyed by (uuid, index), advancing
// the uuid's latest-index pointer within the same transaction so
// "latest" reads never observe a partially-written generation.
func (s *Store) Update(_ context.Context, rec store.Record, _ store.DataSelector) error {
	doc := document{
		Output:      rec.Output,
		CompletedAt: rec.CompletedAt.UnixNano(),
		Metadata:    rec.Metadata,
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("badgerstore: encode: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.UUID, rec.Index), encoded); err != nil {
			return err
		}

		current := -1
		if item, err := txn.Get(latestKey(rec.UUID)); err == nil {
			if err := item.Value(func(val []byte) error {
				parsed, err := strconv.Atoi(string(val))
				if err != nil {
					return err
				}
				current = parsed
				return nil
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if rec.Index > current {
			if err := txn.Set(latestKey(rec.UUID), []byte(strconv.Itoa(rec.Index))); err != nil {
				return err
			}
		}
		return nil
	})
}
