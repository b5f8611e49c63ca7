package response_test

import (
	"testing"

	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/schema"
)

func TestFromJobReturnsWrapsBareValue(t *testing.T) {
	r, err := response.FromJobReturns(6, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Output != 6 {
		t.Fatalf("expected output 6, got %v", r.Output)
	}
}

func TestFromJobReturnsAppliesSchemaOnlyWhenNoRestart(t *testing.T) {
	s := schema.New("out", schema.Field{Name: "sum", Required: true})

	withoutRestart := response.New(map[string]any{"sum": 5})
	got, err := response.FromJobReturns(withoutRestart, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.Output.(map[string]any); !ok {
		t.Fatalf("expected schema-checked map output, got %T", got.Output)
	}

	withRestart := response.New(nil, response.WithRestart("some-job"))
	got, err = response.FromJobReturns(withRestart, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != withRestart {
		t.Fatalf("expected restart response to pass through unmodified")
	}
}

func TestFromJobReturnsRejectsMixedSequence(t *testing.T) {
	mixed := []any{response.New(1), 2}
	if _, err := response.FromJobReturns(mixed, nil); err == nil {
		t.Fatalf("expected MixedResponseError")
	}
}

func TestFromJobReturnsMissingOutputError(t *testing.T) {
	s := schema.New("out", schema.Field{Name: "sum", Required: true})
	if _, err := response.FromJobReturns(nil, s); err == nil {
		t.Fatalf("expected MissingOutputError for nil output against a schema")
	}
}

func TestFromJobReturnsSchemaMismatch(t *testing.T) {
	s := schema.New("out").WithPrototype(struct{ X int }{})
	if _, err := response.FromJobReturns("not a mapping", s); err == nil {
		t.Fatalf("expected SchemaMismatchError for a non-mapping, non-satisfying value")
	}
}
