// Package refwalk implements the Reference Walker: finding References inside
// arbitrary nested job inputs/outputs and resolving them against a store,
// with per-walk caching so that multiple projections of the same uuid incur
// at most one store fetch (spec §4.2, testable property 3).
package refwalk

import (
	"context"

	"github.com/xperrylinn/jobflow/ref"
	"github.com/xperrylinn/jobflow/store"
)

// Decoder revives domain objects out of materialised store values before
// projection is applied (spec §4.1 step 4). It stands in for the
// serialization framework, which is an external collaborator out of this
// module's scope; a nil Decoder is the identity decode.
type Decoder interface {
	Decode(uuid string, value any) (any, error)
}

// Resolve implements the single-reference resolution algorithm of §4.1:
// fetch-if-absent, missing-policy, recursive nested resolution, decode,
// re-cache, then apply r's own projection chain.
func Resolve(ctx context.Context, r ref.Reference, st store.Store, cache *Cache, onMissing OnMissing, dec Decoder) (any, error) {
	if cache == nil {
		cache = NewCache()
	}
	uuid := r.UUID()

	if !cache.Has(uuid) && st != nil {
		lock := cache.lockFor(uuid)
		lock.Lock()
		if !cache.Has(uuid) {
			if val, err := st.GetOutput(ctx, uuid, store.Latest, true); err == nil {
				cache.Set(uuid, val)
			}
			// On lookup failure the cache is left untouched (spec step 1);
			// the missing-value handling below decides what happens next.
		}
		lock.Unlock()
	}

	if !cache.Has(uuid) {
		switch onMissing {
		case OnMissingNone:
			return nil, nil
		case OnMissingPass:
			return r, nil
		default:
			return nil, &ref.UnresolvedReferenceError{UUID: uuid}
		}
	}

	raw, _ := cache.Get(uuid)

	if !cache.beginResolving(uuid) {
		// Re-entrant resolution of the same uuid: the cached values form a
		// cycle across uuids (spec §9, Cyclic reference resolution).
		if onMissing == OnMissingPass {
			return raw, nil
		}
		return nil, &ref.CycleError{UUID: uuid}
	}
	defer cache.endResolving(uuid)

	resolved, err := FindAndResolveReferences(ctx, raw, st, cache, onMissing, dec)
	if err != nil {
		return nil, err
	}

	decoded := resolved
	if dec != nil {
		decoded, err = dec.Decode(uuid, decoded)
		if err != nil {
			return nil, err
		}
	}

	cache.Set(uuid, decoded)

	return r.Project(decoded)
}

// ResolveReferences groups references by uuid, issues at most one store
// fetch per distinct uuid, then resolves each reference (including its
// projection chain) against the shared cache. The result maps each
// reference's Key() to its resolved value (Reference is not itself a valid
// Go map key, since it embeds a slice).
func ResolveReferences(ctx context.Context, refs []ref.Reference, st store.Store, cache *Cache, onMissing OnMissing, dec Decoder) (map[string]any, error) {
	if cache == nil {
		cache = NewCache()
	}

	fetched := make(map[string]bool, len(refs))
	for _, r := range refs {
		if fetched[r.UUID()] {
			continue
		}
		fetched[r.UUID()] = true
		if !cache.Has(r.UUID()) && st != nil {
			lock := cache.lockFor(r.UUID())
			lock.Lock()
			if !cache.Has(r.UUID()) {
				if val, err := st.GetOutput(ctx, r.UUID(), store.Latest, true); err == nil {
					cache.Set(r.UUID(), val)
				}
			}
			lock.Unlock()
		}
	}

	out := make(map[string]any, len(refs))
	for _, r := range refs {
		val, err := Resolve(ctx, r, st, cache, onMissing, dec)
		if err != nil {
			return nil, err
		}
		out[r.Key()] = val
	}
	return out, nil
}

// FindAndResolveReferences walks value and returns it with every embedded
// Reference replaced by its resolved value; the container shape (maps,
// slices) is preserved. Trivial inputs (a bare Reference, or a primitive)
// short-circuit without allocating.
func FindAndResolveReferences(ctx context.Context, value any, st store.Store, cache *Cache, onMissing OnMissing, dec Decoder) (any, error) {
	if cache == nil {
		cache = NewCache()
	}

	switch v := value.(type) {
	case ref.Reference:
		return Resolve(ctx, v, st, cache, onMissing, dec)
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return value, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			resolved, err := FindAndResolveReferences(ctx, elem, st, cache, onMissing, dec)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			resolved, err := FindAndResolveReferences(ctx, elem, st, cache, onMissing, dec)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}

	// Opaque domain values may still contain References once serialised
	// (spec §4.2), but without the (out-of-scope) serialization framework we
	// cannot splice a resolved value back into an arbitrary struct shape.
	// Such values are returned unchanged; job authors that need references
	// inside a custom type should carry them in a map/slice field instead.
	return value, nil
}
