// Package schema implements the structural output-schema description
// referenced by ref.Reference and applied by the response normaliser
// (spec §4.1, §4.4). A Schema names the fields a resolved output is
// expected to carry and, when bound to a Go prototype type, can instantiate
// one from a decoded map value and validate it.
package schema

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Field describes one declared field of a Schema.
type Field struct {
	Name     string
	Required bool
}

// Schema is an immutable structural description. Zero value is usable as
// "no fields declared"; use New to build one with fields attached.
type Schema struct {
	name      string
	fields    map[string]Field
	order     []string
	prototype reflect.Type
}

// New returns a Schema with the given name and fields.
func New(name string, fields ...Field) *Schema {
	s := &Schema{name: name, fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}
	return s
}

// WithPrototype returns a copy of s bound to a Go type: resolved outputs
// already assignable to that type are considered to satisfy the schema
// as-is, and map-shaped outputs are decoded into a new value of that type
// via Instantiate. prototype must be a struct or a pointer to struct.
func (s *Schema) WithPrototype(prototype any) *Schema {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	clone := *s
	clone.prototype = t
	return &clone
}

// Name returns the schema's display name.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// HasField reports whether name is a declared field of the schema,
// satisfying ref.Schema so Reference.Field/At can gate their first step.
func (s *Schema) HasField(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s.fields[name]
	return ok
}

// Fields returns the declared field names in declaration order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Satisfies reports whether value already conforms to the schema without
// needing instantiation: nil schema accepts anything, a bound prototype
// accepts assignable values directly.
func (s *Schema) Satisfies(value any) bool {
	if s == nil {
		return true
	}
	if s.prototype == nil {
		return false
	}
	vt := reflect.TypeOf(value)
	for vt != nil && vt.Kind() == reflect.Ptr {
		vt = vt.Elem()
	}
	return vt == s.prototype
}

// Instantiate builds a value of the schema's bound prototype type from a
// map-shaped value, validating required fields along the way. If no
// prototype is bound, Instantiate only checks that every required field is
// present in the map and returns the map unchanged.
func (s *Schema) Instantiate(value map[string]any) (any, error) {
	if s == nil {
		return value, nil
	}
	for name, f := range s.fields {
		if !f.Required {
			continue
		}
		if _, ok := value[name]; !ok {
			return nil, fmt.Errorf("schema %q: missing required field %q", s.name, name)
		}
	}

	if s.prototype == nil {
		return value, nil
	}

	out := reflect.New(s.prototype).Interface()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("schema %q: building decoder: %w", s.name, err)
	}
	if err := dec.Decode(value); err != nil {
		return nil, fmt.Errorf("schema %q: decoding into %s: %w", s.name, s.prototype, err)
	}
	if err := validate.Struct(out); err != nil {
		return nil, fmt.Errorf("schema %q: validating %s: %w", s.name, s.prototype, err)
	}
	return reflect.ValueOf(out).Elem().Interface(), nil
}
