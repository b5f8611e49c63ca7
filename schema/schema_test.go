package schema_test

import (
	"testing"

	"github.com/xperrylinn/jobflow/schema"
)

type sumProduct struct {
	Sum     int `mapstructure:"sum" validate:"required"`
	Product int `mapstructure:"product"`
}

func TestHasFieldGatesDeclaredFieldsOnly(t *testing.T) {
	s := schema.New("compute", schema.Field{Name: "sum"}, schema.Field{Name: "product"})
	if !s.HasField("sum") {
		t.Fatalf("expected sum to be declared")
	}
	if s.HasField("other") {
		t.Fatalf("expected other to be undeclared")
	}
}

func TestNilSchemaAcceptsEverything(t *testing.T) {
	var s *schema.Schema
	if !s.HasField("anything") {
		t.Fatalf("nil schema should not gate any field")
	}
	if !s.Satisfies(42) {
		t.Fatalf("nil schema should satisfy any value")
	}
}

func TestInstantiateDecodesIntoPrototype(t *testing.T) {
	s := schema.New("compute",
		schema.Field{Name: "sum", Required: true},
		schema.Field{Name: "product"},
	).WithPrototype(sumProduct{})

	out, err := s.Instantiate(map[string]any{"sum": 5, "product": 6})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	got, ok := out.(sumProduct)
	if !ok {
		t.Fatalf("expected sumProduct, got %T", out)
	}
	if got.Sum != 5 || got.Product != 6 {
		t.Fatalf("unexpected decoded value: %+v", got)
	}
}

func TestInstantiateFailsOnMissingRequiredField(t *testing.T) {
	s := schema.New("compute", schema.Field{Name: "sum", Required: true})

	if _, err := s.Instantiate(map[string]any{"product": 6}); err == nil {
		t.Fatalf("expected error for missing required field")
	}
}

func TestSatisfiesAssignablePrototype(t *testing.T) {
	s := schema.New("compute").WithPrototype(sumProduct{})
	if !s.Satisfies(sumProduct{Sum: 1, Product: 2}) {
		t.Fatalf("expected value of bound prototype type to satisfy schema")
	}
	if s.Satisfies(42) {
		t.Fatalf("expected int not to satisfy a sumProduct-bound schema")
	}
}
