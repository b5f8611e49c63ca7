package ref_test

import (
	"encoding/json"
	"testing"

	"github.com/xperrylinn/jobflow/ref"
)

func TestFieldAndAtChain(t *testing.T) {
	r := ref.New("1234")
	chained := r.MustField("key").MustAt(0).MustField("value")

	want := ref.New("1234").MustField("key").MustAt(0).MustField("value")
	if !chained.Equal(want) {
		t.Fatalf("chained reference %v does not equal %v", chained, want)
	}

	// Projection purity: the receiver is never mutated by chaining.
	if len(r.Attributes()) != 0 {
		t.Fatalf("New() reference should carry no attributes, got %v", r.Attributes())
	}
}

func TestEqualityAndKeyAreConsistent(t *testing.T) {
	a := ref.New("abc").MustField("x")
	b := ref.New("abc").MustField("x")
	c := ref.New("abc").MustField("y")

	if !a.Equal(b) {
		t.Fatalf("references with identical uuid/attributes should be equal")
	}
	if a.Key() != b.Key() {
		t.Fatalf("Key() should be stable and consistent with equality")
	}
	if a.Equal(c) {
		t.Fatalf("references with different attributes should not be equal")
	}
}

type stubSchema struct{ fields map[string]bool }

func (s stubSchema) HasField(name string) bool { return s.fields[name] }

func TestSchemaGatesOnlyFirstStep(t *testing.T) {
	schema := stubSchema{fields: map[string]bool{"a": true, "b": true}}
	r := ref.New("1234").WithSchema(schema)

	if _, err := r.Field("c"); err == nil {
		t.Fatalf("expected SchemaProjectionError for undeclared field c")
	}

	first, err := r.Field("a")
	if err != nil {
		t.Fatalf("declared field a should be projectable: %v", err)
	}

	// Only the first step is schema-gated; downstream steps are unrestricted.
	if _, err := first.At(0); err != nil {
		t.Fatalf("second step should not be schema-gated: %v", err)
	}
	if _, err := first.Field("anything"); err != nil {
		t.Fatalf("second step should not be schema-gated: %v", err)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	r := ref.New("job-1").MustField("sum").MustAt(2)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out ref.Reference
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !r.Equal(out) {
		t.Fatalf("round-tripped reference %v does not equal original %v", out, r)
	}
}

// The wire form matches spec §6: attributes is a bare array of strings/ints
// (not a tagged {"field"|"index"} record), and output_schema is present
// (null when no schema is attached).
func TestWireShapeMatchesSpec(t *testing.T) {
	r := ref.New("job-1").MustField("sum").MustAt(2)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal into raw map: %v", err)
	}

	if raw["@class"] != ref.ClassTag {
		t.Fatalf("expected @class %q, got %v", ref.ClassTag, raw["@class"])
	}
	outputSchema, hasKey := raw["output_schema"]
	if !hasKey {
		t.Fatalf("expected output_schema key to be present")
	}
	if outputSchema != nil {
		t.Fatalf("expected output_schema null for a schema-less reference, got %v", outputSchema)
	}

	attrs, ok := raw["attributes"].([]any)
	if !ok {
		t.Fatalf("expected attributes to decode as a JSON array, got %T", raw["attributes"])
	}
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0] != "sum" {
		t.Fatalf("expected first attribute to be the bare string \"sum\", got %#v", attrs[0])
	}
	if attrs[1] != float64(2) {
		t.Fatalf("expected second attribute to be the bare number 2, got %#v", attrs[1])
	}
}

func TestProjectTriesIndexThenField(t *testing.T) {
	r := ref.New("x").MustField("sum")

	out, err := r.Project(map[string]any{"sum": 5, "product": 6})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if out != 5 {
		t.Fatalf("expected 5, got %v", out)
	}

	type payload struct{ Sum int }
	out, err = r.Project(payload{Sum: 9})
	if err != nil {
		t.Fatalf("project onto struct: %v", err)
	}
	if out != 9 {
		t.Fatalf("expected 9, got %v", out)
	}
}
