package refwalk

import (
	"encoding/json"
	"reflect"

	"github.com/buger/jsonparser"

	"github.com/xperrylinn/jobflow/ref"
)

// FindReferences walks arbitrarily nested maps/sequences/scalars and
// returns the set of distinct References found, deduplicated by Key().
// Primitives (numbers, strings, booleans, nil) short-circuit immediately.
// Any other scalar is serialised through jsonparser's tagged-record scanner
// first, so References embedded inside domain objects are still found.
func FindReferences(value any) ([]ref.Reference, error) {
	found, err := findAll(value)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(found))
	out := make([]ref.Reference, 0, len(found))
	for _, r := range found {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// FindOrdered walks the same way as FindReferences but preserves encounter
// order and does not deduplicate; it supplements spec.md's set-returning
// find_references with the order-preserving tuple form the Python original
// also exposes (find_and_get_references), used by graph builders that care
// about projection multiplicity per edge.
func FindOrdered(value any) ([]ref.Reference, error) {
	return findAll(value)
}

func findAll(value any) ([]ref.Reference, error) {
	switch v := value.(type) {
	case ref.Reference:
		return []ref.Reference{v}, nil
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return nil, nil
	case map[string]any:
		var out []ref.Reference
		for _, elem := range v {
			found, err := findAll(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		return out, nil
	case []any:
		var out []ref.Reference
		for _, elem := range v {
			found, err := findAll(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		return out, nil
	}

	return findInOpaqueValue(value)
}

// findInOpaqueValue handles anything that is not a Reference, a primitive,
// or one of the two generic container shapes the walker understands
// natively: slices/arrays and maps with other element/key types still walk
// structurally via reflection, and everything else (custom structs, domain
// values) is serialised to JSON and scanned for tagged OutputReference
// records with jsonparser, mirroring the Python original's
// jsanitize-then-find_key_value two-step.
func findInOpaqueValue(value any) ([]ref.Reference, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Invalid:
		return nil, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return findAll(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		var out []ref.Reference
		for i := 0; i < rv.Len(); i++ {
			found, err := findAll(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		return out, nil
	case reflect.Map:
		var out []ref.Reference
		iter := rv.MapRange()
		for iter.Next() {
			found, err := findAll(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		}
		return out, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		// Not every opaque value is JSON-serialisable (e.g. funcs, chans).
		// Such values cannot carry a Reference, so treat them like a
		// primitive rather than failing the whole walk.
		return nil, nil
	}

	var out []ref.Reference
	if err := scanTagged(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scanTagged recursively scans raw JSON bytes for objects tagged
// {"@class": "OutputReference", ...}, decoding each one found into a
// ref.Reference. It never descends into the fields of a reference object
// itself.
func scanTagged(data []byte, out *[]ref.Reference) error {
	switch firstNonSpace(data) {
	case '{':
		isRef := false
		if class, err := jsonparser.GetString(data, "@class"); err == nil && class == ref.ClassTag {
			isRef = true
		}
		if isRef {
			var r ref.Reference
			if err := json.Unmarshal(data, &r); err == nil {
				*out = append(*out, r)
			}
			return nil
		}
		return jsonparser.ObjectEach(data, func(_ []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
			if dataType == jsonparser.Object || dataType == jsonparser.Array {
				return scanTagged(value, out)
			}
			return nil
		})
	case '[':
		var walkErr error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if walkErr != nil {
				return
			}
			if dataType == jsonparser.Object || dataType == jsonparser.Array {
				walkErr = scanTagged(value, out)
			}
		})
		if err != nil {
			return err
		}
		return walkErr
	}
	return nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
