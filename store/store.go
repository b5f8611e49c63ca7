// Package store declares the persistent output store interface consumed by
// the job and refwalk packages. The store itself — durability, replication,
// backend choice — is an external collaborator; this package only fixes the
// contract jobflow's core needs from it (§6 of the specification).
package store

import (
	"context"
	"time"
)

// Latest selects the highest-index record for a uuid. Pass an int index to
// GetOutput to select a specific generation instead.
const Latest = "latest"

// DataSelector marks which parts of a job's output should be flagged for
// extended persistence by the store (spec's `data` job field / `save`
// update parameter). The zero value selects nothing; All selects the whole
// output; Keys selects named sub-values.
type DataSelector struct {
	all  bool
	keys map[string]struct{}
}

// DataAll returns a DataSelector that marks the entire output.
func DataAll() DataSelector { return DataSelector{all: true} }

// DataNone returns a DataSelector that marks nothing (the zero value).
func DataNone() DataSelector { return DataSelector{} }

// DataKeys returns a DataSelector that marks the named sub-values only.
func DataKeys(keys ...string) DataSelector {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return DataSelector{keys: set}
}

// All reports whether the whole output is selected.
func (d DataSelector) All() bool { return d.all }

// Has reports whether the named key is selected.
func (d DataSelector) Has(key string) bool {
	if d.all {
		return true
	}
	_, ok := d.keys[key]
	return ok
}

// Empty reports whether the selector marks nothing at all.
func (d DataSelector) Empty() bool { return !d.all && len(d.keys) == 0 }

// Record is a persisted job record as described in §6: the composite key
// (uuid, index), the job's decoded output, completion time, and the
// opaque metadata the job carried.
type Record struct {
	UUID        string
	Index       int
	Output      any
	CompletedAt time.Time
	Metadata    map[string]any
}

// Store is the persistent key/value collaborator the job pipeline depends
// on. Implementations must tolerate concurrent reads and writes keyed by
// (uuid, index); a "latest" read must observe the highest-index record
// present at the moment of the query.
type Store interface {
	// GetOutput returns the decoded output of the record for uuid. which is
	// either Latest or a specific generation index. If load is false,
	// implementations may return a lazy/unloaded handle instead of the full
	// value; jobflow's core always passes load=true.
	GetOutput(ctx context.Context, uuid string, which any, load bool) (any, error)

	// Update upserts rec keyed by (uuid, index). save marks which parts of
	// the output the backend should additionally persist in extended
	// storage (e.g. a blob store), if it supports that distinction.
	Update(ctx context.Context, rec Record, save DataSelector) error
}

// ErrNotFound is returned by Store implementations when no record exists
// for the requested (uuid, which).
type ErrNotFound struct {
	UUID  string
	Which any
}

func (e *ErrNotFound) Error() string {
	return "store: no output found for uuid " + e.UUID
}
