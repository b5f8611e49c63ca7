package runner_test

import (
	"context"
	"testing"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/job"
	"github.com/xperrylinn/jobflow/metrics"
	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/runner"
	"github.com/xperrylinn/jobflow/store"
	"github.com/xperrylinn/jobflow/store/memstore"
)

func init() {
	job.Register("test.runner", "add", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		a, _ := args[0].(int)
		b, _ := args[1].(int)
		return a + b, nil
	})
	job.Register("test.runner", "restartToDouble", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		n, _ := args[0].(int)
		return response.New(nil, response.WithRestart(
			job.New(job.ModuleSource("test.runner"), "add", []any{n, n}, nil),
		)), nil
	})
	job.Register("test.runner", "stopsFlow", func(_ context.Context, _ []any, _ map[string]any) (any, error) {
		return response.New("halted", response.WithStopFlow()), nil
	})
}

func add(a, b any) *job.Job {
	return job.New(job.ModuleSource("test.runner"), "add", []any{a, b}, nil)
}

func TestRunExecutesDependentWaves(t *testing.T) {
	st := memstore.New()
	j1 := add(1, 2)
	j2 := add(j1.Output(), 10)
	f := flow.New(j1, j2)

	r := runner.New(st)
	result, err := r.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Ran) != 2 {
		t.Fatalf("expected 2 jobs ran, got %d", len(result.Ran))
	}

	got, err := st.GetOutput(context.Background(), j2.UUID(), store.Latest, true)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if got != 13 {
		t.Fatalf("expected 13, got %v", got)
	}
}

func TestRunFollowsRestartDirective(t *testing.T) {
	st := memstore.New()
	j := job.New(job.ModuleSource("test.runner"), "restartToDouble", []any{7}, nil)
	f := flow.New(j)

	r := runner.New(st)
	result, err := r.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Ran) != 2 {
		t.Fatalf("expected original + successor to have run, got %d", len(result.Ran))
	}

	got, err := st.GetOutput(context.Background(), j.UUID(), store.Latest, true)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if got != 14 {
		t.Fatalf("expected 14 (7+7) at the bumped generation, got %v", got)
	}
}

func TestRunStopsFlowOnDirective(t *testing.T) {
	st := memstore.New()
	stopper := job.New(job.ModuleSource("test.runner"), "stopsFlow", nil, nil)
	// never depends on stopper's output, so the scheduler places it in a
	// later wave rather than running it concurrently with stopper.
	never := add(stopper.Output(), 1)
	f := flow.New(stopper, never)

	r := runner.New(st)
	result, err := r.Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Stopped {
		t.Fatalf("expected Stopped=true")
	}

	if _, err := st.GetOutput(context.Background(), never.UUID(), store.Latest, true); err == nil {
		t.Fatalf("expected the sibling job to never have run")
	}
}

func TestRunRecordsJobDuration(t *testing.T) {
	st := memstore.New()
	j1 := add(1, 2)
	j2 := add(j1.Output(), 10)
	f := flow.New(j1, j2)

	provider := metrics.NewBasicProvider()
	r := runner.New(st, runner.WithMetrics(provider))
	if _, err := r.Run(context.Background(), f); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap := provider.Histogram("jobflow.job.duration").(*metrics.BasicHistogram).Snapshot()
	if snap.Count != 2 {
		t.Fatalf("expected duration recorded for both jobs, got count=%d", snap.Count)
	}
	if snap.Sum < 0 {
		t.Fatalf("expected non-negative total duration, got %v", snap.Sum)
	}
}
