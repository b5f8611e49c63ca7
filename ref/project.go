package ref

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

var errStepNotFound = errors.New("step not found")

// Project applies the Reference's projection steps, in order, to an already
// materialised value. It is pure: it never touches a store or cache. Each
// step first tries container-style indexing (map key or sequence index),
// then falls back to struct field access (field names are matched
// case-insensitively, so a "sum" step reaches an exported Sum field); if
// neither succeeds the step fails with a *ProjectionError.
func (r Reference) Project(value any) (any, error) {
	cur := value
	for _, step := range r.attributes {
		next, err := applyStep(cur, step)
		if err != nil {
			return nil, &ProjectionError{UUID: r.uuid, Step: step, Err: err}
		}
		cur = next
	}
	return cur, nil
}

func applyStep(v any, s Step) (any, error) {
	if out, ok := tryIndex(v, s); ok {
		return out, nil
	}
	if out, ok := tryField(v, s); ok {
		return out, nil
	}
	return nil, errStepNotFound
}

func tryIndex(v any, s Step) (any, bool) {
	switch vv := v.(type) {
	case map[string]any:
		if s.Kind == FieldStep {
			val, ok := vv[s.Field]
			return val, ok
		}
		val, ok := vv[strconv.Itoa(s.Index)]
		return val, ok
	case []any:
		if s.Kind == IndexStep && s.Index >= 0 && s.Index < len(vv) {
			return vv[s.Index], true
		}
		return nil, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(keyFor(rv.Type().Key(), s))
		if !key.IsValid() {
			return nil, false
		}
		val := rv.MapIndex(key)
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Slice, reflect.Array:
		if s.Kind != IndexStep || s.Index < 0 || s.Index >= rv.Len() {
			return nil, false
		}
		return rv.Index(s.Index).Interface(), true
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, false
		}
		return tryIndex(rv.Elem().Interface(), s)
	}
	return nil, false
}

func keyFor(t reflect.Type, s Step) any {
	if s.Kind == FieldStep {
		if t.Kind() == reflect.String {
			return reflect.ValueOf(s.Field).Convert(t).Interface()
		}
		return nil
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(strconv.Itoa(s.Index)).Convert(t).Interface()
	}
	if t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64 {
		return reflect.ValueOf(s.Index).Convert(t).Interface()
	}
	return nil
}

func tryField(v any, s Step) (any, bool) {
	name := s.Field
	if s.Kind == IndexStep {
		name = strconv.Itoa(s.Index)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	field := rv.FieldByNameFunc(func(candidate string) bool {
		return strings.EqualFold(candidate, name)
	})
	if !field.IsValid() {
		return nil, false
	}
	return field.Interface(), true
}
