package ref

import (
	"encoding/json"
	"fmt"
)

// ClassTag is the value of the "@class" discriminator written into a
// serialised Reference, used by the Reference Walker to spot embedded
// references inside decoded output values without knowing their shape ahead
// of time.
const ClassTag = "OutputReference"

// namedSchema is satisfied by schema implementations that can describe
// themselves for the wire form's output_schema key (spec §6:
// {@module,@class,uuid,attributes,output_schema?}). A schema attached to a
// Reference that doesn't implement this is serialised as null — the same
// as no schema at all — since the wire form is only ever a hint for
// downstream readers, never re-parsed back into a live Schema by this codec.
type namedSchema interface {
	Name() string
	Fields() []string
}

type wireSchema struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

type wireReference struct {
	Module       string      `json:"@module"`
	Class        string      `json:"@class"`
	UUID         string      `json:"uuid"`
	Attributes   []any       `json:"attributes"`
	OutputSchema *wireSchema `json:"output_schema"`
}

// MarshalJSON renders the Reference as the tagged record described in
// spec §6: {"@module", "@class": "OutputReference", "uuid", "attributes",
// "output_schema"}. attributes is the bare array of field names (string)
// and indices (int) the original reference.py emits, not a tagged-step
// record — a step is either a string or an int, never both.
func (r Reference) MarshalJSON() ([]byte, error) {
	attrs := make([]any, len(r.attributes))
	for i, a := range r.attributes {
		if a.Kind == IndexStep {
			attrs[i] = a.Index
		} else {
			attrs[i] = a.Field
		}
	}
	var ws *wireSchema
	if ns, ok := r.schema.(namedSchema); ok {
		ws = &wireSchema{Name: ns.Name(), Fields: ns.Fields()}
	}
	return json.Marshal(wireReference{
		Module:       "github.com/xperrylinn/jobflow/ref",
		Class:        ClassTag,
		UUID:         r.uuid,
		Attributes:   attrs,
		OutputSchema: ws,
	})
}

// UnmarshalJSON restores a Reference from its tagged-record form. Round-trip
// with MarshalJSON is exact for (uuid, attributes); output_schema is
// descriptive only and is never revived into a live Schema — any schema the
// caller needs re-attached must be supplied again via WithSchema.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var w wireReference
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	if w.Class != ClassTag {
		return fmt.Errorf("decode reference: unexpected @class %q", w.Class)
	}
	attrs := make([]Step, len(w.Attributes))
	for i, a := range w.Attributes {
		switch v := a.(type) {
		case string:
			attrs[i] = Step{Kind: FieldStep, Field: v}
		case float64:
			attrs[i] = Step{Kind: IndexStep, Index: int(v)}
		default:
			return fmt.Errorf("decode reference: attribute %d has unexpected type %T", i, a)
		}
	}
	r.uuid = w.UUID
	r.attributes = attrs
	r.schema = nil
	return nil
}

// IsReferenceTag reports whether a decoded JSON object (as
// map[string]any) is a tagged OutputReference record.
func IsReferenceTag(m map[string]any) bool {
	class, ok := m["@class"].(string)
	return ok && class == ClassTag
}

// FromTagged decodes a tagged record (already unmarshalled into
// map[string]any, e.g. by encoding/json into `any`) into a Reference.
func FromTagged(m map[string]any) (Reference, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Reference{}, fmt.Errorf("re-encode tagged reference: %w", err)
	}
	var r Reference
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reference{}, err
	}
	return r, nil
}
