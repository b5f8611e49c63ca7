// Package ref defines OutputReference, the symbolic handle to a job's future
// output, along with the projection chain that is applied once the output is
// resolved.
package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is a single projection step: either a string field/key or an integer
// index. Only one of the two is meaningful; Kind says which.
type Step struct {
	Kind  StepKind
	Field string
	Index int
}

// StepKind distinguishes field/key steps from index steps.
type StepKind int

const (
	// FieldStep projects a named attribute or map key.
	FieldStep StepKind = iota
	// IndexStep projects a sequence position.
	IndexStep
)

func (s Step) String() string {
	if s.Kind == IndexStep {
		return strconv.Itoa(s.Index)
	}
	return s.Field
}

// Reference is an immutable symbolic handle to the future output of a Job:
// a uuid plus an ordered sequence of projection steps. Constructing a
// Reference never mutates an existing one — Field and At return new values.
type Reference struct {
	uuid       string
	attributes []Step
	schema     Schema
}

// Schema is the structural description attached to a Reference's declared
// output. It restricts which first-step projections are legal. A nil Schema
// means no restriction.
type Schema interface {
	// HasField reports whether name is a declared field of the schema.
	HasField(name string) bool
}

// New constructs a Reference for the given job uuid with no projection steps.
func New(uuid string) Reference {
	return Reference{uuid: uuid}
}

// WithSchema returns a copy of the Reference with the given output schema
// attached. It does not mutate the receiver.
func (r Reference) WithSchema(s Schema) Reference {
	r.schema = s
	return r
}

// UUID returns the uuid of the job this Reference points to.
func (r Reference) UUID() string { return r.uuid }

// Attributes returns the ordered projection steps of the Reference. The
// returned slice must not be mutated by the caller.
func (r Reference) Attributes() []Step { return r.attributes }

// Schema returns the attached output schema, or nil if none was set.
func (r Reference) Schema() Schema { return r.schema }

// Field projects the named field/key onto this Reference's uuid and returns
// the resulting Reference. If a schema is attached and this would be the
// first projection step, the field is validated against it; an invalid
// first-step projection returns a *SchemaProjectionError.
func (r Reference) Field(name string) (Reference, error) {
	if len(r.attributes) == 0 && r.schema != nil && !r.schema.HasField(name) {
		return Reference{}, &SchemaProjectionError{UUID: r.uuid, Step: name}
	}
	return r.appendStep(Step{Kind: FieldStep, Field: name}), nil
}

// MustField is like Field but panics on error. Intended for call sites that
// already know the projection is valid (e.g. schema-less references).
func (r Reference) MustField(name string) Reference {
	out, err := r.Field(name)
	if err != nil {
		panic(err)
	}
	return out
}

// At projects the given sequence index onto this Reference's uuid. As with
// Field, the first step is schema-validated when a schema is attached; a
// structural schema declares named fields only, so an index as the first
// step on a schema-bearing reference is always rejected.
func (r Reference) At(index int) (Reference, error) {
	if len(r.attributes) == 0 && r.schema != nil {
		return Reference{}, &SchemaProjectionError{UUID: r.uuid, Step: strconv.Itoa(index)}
	}
	return r.appendStep(Step{Kind: IndexStep, Index: index}), nil
}

// MustAt is like At but panics on error.
func (r Reference) MustAt(index int) Reference {
	out, err := r.At(index)
	if err != nil {
		panic(err)
	}
	return out
}

func (r Reference) appendStep(s Step) Reference {
	attrs := make([]Step, len(r.attributes)+1)
	copy(attrs, r.attributes)
	attrs[len(r.attributes)] = s
	return Reference{uuid: r.uuid, attributes: attrs, schema: r.schema}
}

// SetUUID returns a clone of the Reference with its uuid rewritten. Used by
// replace-continuation to preserve output identity across a Job replacement.
func (r Reference) SetUUID(uuid string) Reference {
	r.uuid = uuid
	return r
}

// Key returns a stable string uniquely identifying (uuid, attributes). Two
// References are Equal iff their Key is equal; Key is therefore also usable
// as a Go map key, which Reference itself is not (it embeds a slice).
func (r Reference) Key() string {
	var b strings.Builder
	b.WriteString(r.uuid)
	for _, a := range r.attributes {
		b.WriteByte('\x1f')
		if a.Kind == IndexStep {
			b.WriteByte('#')
			b.WriteString(strconv.Itoa(a.Index))
		} else {
			b.WriteByte('.')
			b.WriteString(a.Field)
		}
	}
	return b.String()
}

// Equal reports whether two References have the same uuid and elementwise
// equal projection sequences.
func (r Reference) Equal(other Reference) bool {
	return r.Key() == other.Key()
}

// String returns a debug representation, e.g. OutputReference(1234, "key", 0).
func (r Reference) String() string {
	if len(r.attributes) == 0 {
		return fmt.Sprintf("OutputReference(%s)", r.uuid)
	}
	parts := make([]string, len(r.attributes))
	for i, a := range r.attributes {
		if a.Kind == IndexStep {
			parts[i] = strconv.Itoa(a.Index)
		} else {
			parts[i] = strconv.Quote(a.Field)
		}
	}
	return fmt.Sprintf("OutputReference(%s, %s)", r.uuid, strings.Join(parts, ", "))
}

// IsZero reports whether r is the zero Reference (no uuid assigned).
func (r Reference) IsZero() bool { return r.uuid == "" }
