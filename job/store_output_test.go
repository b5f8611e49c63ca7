package job_test

import (
	"context"
	"testing"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/job"
	"github.com/xperrylinn/jobflow/refwalk"
	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/store/memstore"
)

func init() {
	job.Register("test.restart", "replaceWithFlow", func(context.Context, []any, map[string]any) (any, error) {
		upstream := compute(7, 8)
		f := flow.New(upstream).WithOutput(upstream.Output().MustField("sum"))
		return response.New(nil, response.WithRestart(f)), nil
	})
}

// Flow-shaped replace-continuation: the restart Flow designates
// upstream.output["sum"] as its output, so replace-continuation must graft
// a trailing store_output job under the original's uuid at index+1 that
// simply persists a reference to that designated output. Resolving the
// original uuid chains through the stored reference into the upstream
// job's actual value.
func TestReplaceContinuationWithDesignatedFlowOutput(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	original := job.New(job.ModuleSource("test.restart"), "replaceWithFlow", nil, nil)
	resp, err := original.Run(ctx, st)
	if err != nil {
		t.Fatalf("run original: %v", err)
	}

	f, ok := resp.Restart.(*flow.Flow)
	if !ok {
		t.Fatalf("expected restart to remain a *flow.Flow, got %T", resp.Restart)
	}
	if f.Len() != 2 {
		t.Fatalf("expected upstream job plus trailing store_output, got %d members", f.Len())
	}

	for _, runner := range f.Jobs() {
		runnable, ok := runner.(*job.Job)
		if !ok {
			t.Fatalf("expected a *job.Job runner, got %T", runner)
		}
		if _, err := runnable.Run(ctx, st); err != nil {
			t.Fatalf("run flow member %s: %v", runnable.Name(), err)
		}
	}

	trailing := f.Jobs()[1].(*job.Job)
	if trailing.UUID() != original.UUID() {
		t.Fatalf("expected trailing store_output to claim the original uuid")
	}

	got, err := refwalk.Resolve(ctx, original.Output(), st, nil, refwalk.OnMissingError, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 15 {
		t.Fatalf("expected 15 (7+8), got %v", got)
	}
}
