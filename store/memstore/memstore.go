// Package memstore provides an in-memory reference implementation of
// store.Store, adapted from the locking/versioning patterns of the
// aggregate repository: a mutex-guarded map keyed by uuid, holding the
// ordered generations of each job's output.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xperrylinn/jobflow/store"
)

// Store is a concurrency-safe, process-local store.Store. It is the default
// backend for tests and small single-process runs.
type Store struct {
	mu      sync.RWMutex
	records map[string][]store.Record // keyed by uuid, ordered by Index ascending
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string][]store.Record)}
}

// GetOutput implements store.Store.
func (s *Store) GetOutput(_ context.Context, uuid string, which any, _ bool) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gens, ok := s.records[uuid]
	if !ok || len(gens) == 0 {
		return nil, &store.ErrNotFound{UUID: uuid, Which: which}
	}

	if which == store.Latest || which == nil {
		return gens[len(gens)-1].Output, nil
	}

	idx, ok := which.(int)
	if !ok {
		return nil, fmt.Errorf("memstore: unsupported which value %v (%T)", which, which)
	}
	for _, rec := range gens {
		if rec.Index == idx {
			return rec.Output, nil
		}
	}
	return nil, &store.ErrNotFound{UUID: uuid, Which: which}
}

// Update implements store.Store. save is accepted for interface
// conformance; memstore always keeps the full output in memory, so it has
// no separate "extended storage" tier to gate.
func (s *Store) Update(_ context.Context, rec store.Record, _ store.DataSelector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gens := s.records[rec.UUID]
	for i, existing := range gens {
		if existing.Index == rec.Index {
			gens[i] = rec
			s.records[rec.UUID] = gens
			return nil
		}
	}

	gens = append(gens, rec)
	sort.Slice(gens, func(i, j int) bool { return gens[i].Index < gens[j].Index })
	s.records[rec.UUID] = gens
	return nil
}

// Delete removes every generation recorded for uuid. It exists for tests
// that exercise missing-reference behaviour (spec scenario S2).
func (s *Store) Delete(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, uuid)
}

// LatestIndex returns the highest recorded generation index for uuid, and
// whether any record exists at all.
func (s *Store) LatestIndex(uuid string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gens, ok := s.records[uuid]
	if !ok || len(gens) == 0 {
		return 0, false
	}
	return gens[len(gens)-1].Index, true
}
