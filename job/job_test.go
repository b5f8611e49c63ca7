package job_test

import (
	"context"
	"testing"

	"github.com/xperrylinn/jobflow/job"
	"github.com/xperrylinn/jobflow/ref"
	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/schema"
	"github.com/xperrylinn/jobflow/store"
	"github.com/xperrylinn/jobflow/store/memstore"
)

func init() {
	job.Register("test.arith", "add", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		a, _ := args[0].(int)
		b, _ := args[1].(int)
		return a + b, nil
	})
	job.Register("test.arith", "compute", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		a, _ := args[0].(int)
		b, _ := args[1].(int)
		return map[string]any{"sum": a + b, "product": a * b}, nil
	})
}

func add(a, b any) *job.Job {
	return job.New(job.ModuleSource("test.arith"), "add", []any{a, b}, nil)
}

func compute(a, b any) *job.Job {
	return job.New(job.ModuleSource("test.arith"), "compute", []any{a, b}, nil)
}

func TestOutputUUIDMatchesJobUUID(t *testing.T) {
	j := add(1, 2)
	if j.Output().UUID() != j.UUID() {
		t.Fatalf("expected output.uuid == job.uuid")
	}
}

// S1: add(1,2) then add(j1.output, 3); resolving j2's output yields 6.
func TestScenarioS1ChainedAddition(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	j1 := add(1, 2)
	if _, err := j1.Run(ctx, st); err != nil {
		t.Fatalf("run j1: %v", err)
	}

	j2 := add(j1.Output(), 3)
	if _, err := j2.Run(ctx, st); err != nil {
		t.Fatalf("run j2: %v", err)
	}

	got, err := st.GetOutput(ctx, j2.UUID(), store.Latest, true)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}

// S3: compute(2,3). c.output["sum"] -> 5, c.output["product"] -> 6.
func TestScenarioS3MultiFieldProjection(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	c := compute(2, 3)
	if _, err := c.Run(ctx, st); err != nil {
		t.Fatalf("run compute: %v", err)
	}

	sumRef := c.Output().MustField("sum")
	productRef := c.Output().MustField("product")

	raw, err := st.GetOutput(ctx, c.UUID(), store.Latest, true)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	sum, err := sumRef.Project(raw)
	if err != nil {
		t.Fatalf("project sum: %v", err)
	}
	product, err := productRef.Project(raw)
	if err != nil {
		t.Fatalf("project product: %v", err)
	}
	if sum != 5 || product != 6 {
		t.Fatalf("unexpected sum=%v product=%v", sum, product)
	}
}

// S5: a function returning [Response(output=1), 2] fails normalisation and
// writes nothing to the store.
func TestScenarioS5MixedReturnFails(t *testing.T) {
	job.Register("test.mixed", "mixedReturn", func(context.Context, []any, map[string]any) (any, error) {
		return []any{response.New(1), 2}, nil
	})

	st := memstore.New()
	ctx := context.Background()

	bad := job.New(job.ModuleSource("test.mixed"), "mixedReturn", nil, nil)

	if _, err := bad.Run(ctx, st); err == nil {
		t.Fatalf("expected MixedResponseError")
	}
	if _, err := st.GetOutput(ctx, bad.UUID(), store.Latest, true); err == nil {
		t.Fatalf("expected no record to have been written for a failed normalisation")
	}
}

func TestOutputSchemaGatesFirstProjectionStep(t *testing.T) {
	s := schema.New("compute", schema.Field{Name: "sum"}, schema.Field{Name: "product"})
	c := job.New(job.ModuleSource("test.arith"), "compute", []any{2, 3}, nil, job.WithOutputSchema(s))

	if _, err := c.Output().Field("missing"); err == nil {
		t.Fatalf("expected SchemaProjectionError for undeclared field")
	}
	if _, err := c.Output().Field("sum"); err != nil {
		t.Fatalf("expected declared field to pass schema gate: %v", err)
	}
}

func TestUpdateKwargsShallowMerge(t *testing.T) {
	j := job.New(job.ModuleSource("test.arith"), "add", nil, map[string]any{"a": 1})
	j.UpdateKwargs(map[string]any{"b": 2}, job.UpdateFilter{}, false)
	if j.Kwargs()["a"] != 1 || j.Kwargs()["b"] != 2 {
		t.Fatalf("unexpected kwargs after update: %+v", j.Kwargs())
	}
}

func TestUpdateKwargsDictMod(t *testing.T) {
	j := job.New(job.ModuleSource("test.arith"), "add", nil, map[string]any{"count": 1})
	j.UpdateKwargs([]job.DictMod{{Op: job.OpInc, Key: "count", Value: 5}}, job.UpdateFilter{}, true)
	if j.Kwargs()["count"] != 6 {
		t.Fatalf("expected count incremented to 6, got %v", j.Kwargs()["count"])
	}
}

func TestInputReferencesGrouped(t *testing.T) {
	upstream := ref.New("u1")
	j := job.New(job.ModuleSource("test.arith"), "add",
		[]any{upstream.MustField("a"), upstream.MustField("b")}, nil)

	grouped, err := j.InputReferencesGrouped()
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(grouped["u1"]) != 2 {
		t.Fatalf("expected 2 references grouped under u1, got %d", len(grouped["u1"]))
	}
}
