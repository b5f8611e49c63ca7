// Package runner drives a flow's jobs to completion against a Store,
// dispatching jobs whose reference inputs are satisfied through a
// ygrebnov/workers pool, and interpreting the Response directives
// (restart, addition, detour, stop_children, stop_flow) emitted by each
// completed job. It corresponds to no single spec component; the core
// package only defines what a Job returns, never who drives it.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ygrebnov/workers"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/internal/log"
	"github.com/xperrylinn/jobflow/metrics"
	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/store"
)

// Executable is the subset of job.Job the runner depends on: it can
// report its identity (for dependency ordering, via flow.Runner) and
// run itself against a Store.
type Executable interface {
	flow.Runner
	Run(ctx context.Context, st store.Store) (*response.Response, error)
}

// dependent is implemented by jobs that can report the uuids of the
// outputs their inputs reference (job.Job does). Jobs that don't
// implement it are scheduled with no intra-flow ordering constraint.
type dependent interface {
	InputUUIDs() ([]string, error)
}

// Runner executes Flows against a Store.
type Runner struct {
	store       store.Store
	jobMetrics  metrics.JobMetrics
	concurrency uint
	stopOnError bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics attaches a metrics.Provider the Runner records job-run
// instruments against. Defaults to a no-op provider.
func WithMetrics(p metrics.Provider) Option {
	return func(r *Runner) { r.jobMetrics = metrics.NewJobMetrics(p) }
}

// WithConcurrency caps the number of jobs the Runner executes at once
// within a single wave (0, the default, means unbounded/dynamic).
func WithConcurrency(n uint) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithStopOnError cancels remaining work in the current wave as soon as
// one job in it returns an error.
func WithStopOnError() Option {
	return func(r *Runner) { r.stopOnError = true }
}

// New constructs a Runner against st.
func New(st store.Store, opts ...Option) *Runner {
	r := &Runner{store: st, jobMetrics: metrics.NewJobMetrics(nil)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarises a completed flow run.
type Result struct {
	Ran     []Executable
	Stopped bool
}

// Run executes f to completion, honoring replace-continuation,
// additions, detours, and the two stop directives. It schedules jobs in
// waves: within a wave, every job whose declared input uuids are all
// either outside the flow or already completed earlier in this run is
// eligible, and eligible jobs in a wave execute concurrently.
func (r *Runner) Run(ctx context.Context, f *flow.Flow) (*Result, error) {
	pending := toExecutables(f.Jobs())
	done := map[string]bool{}
	result := &Result{}

	for len(pending) > 0 {
		wave, rest, err := r.nextWave(pending, done)
		if err != nil {
			return result, err
		}
		if len(wave) == 0 {
			return result, fmt.Errorf("runner: no job in the remaining flow has its dependencies satisfied (cycle or missing upstream)")
		}

		outcomes, err := r.runWave(ctx, wave)
		if err != nil && r.stopOnError {
			return result, err
		}

		stopFlow := false
		var additions []Executable
		var restarts []Executable
		for i, exec := range wave {
			result.Ran = append(result.Ran, exec)
			done[exec.GetUUID()] = true

			oc := outcomes[i]
			if oc.err != nil {
				log.L().WithError(oc.err).WithFields(map[string]any{"uuid": exec.GetUUID()}).Warn("runner: job failed")
				continue
			}
			if oc.resp == nil {
				continue
			}
			if oc.resp.StopFlow {
				stopFlow = true
			}
			if oc.resp.StopChildren {
				// The jobs in this wave have already executed concurrently
				// by the time their Responses are inspected, so
				// stop_children is interpreted as cancelling every job
				// still queued for a later wave rather than the (already
				// run) siblings sharing this one.
				rest = nil
			}
			if succ, ok := asExecutable(oc.resp.Restart); ok {
				restarts = append(restarts, succ...)
			}
			if succ, ok := asExecutable(oc.resp.Addition); ok {
				additions = append(additions, succ...)
			}
			if succ, ok := asExecutable(oc.resp.Detour); ok {
				restarts = append(succ, restarts...)
			}
		}

		if stopFlow {
			result.Stopped = true
			return result, nil
		}

		pending = append(append(restarts, additions...), rest...)
	}

	return result, nil
}

type outcome struct {
	resp *response.Response
	err  error
}

// runWave executes wave concurrently via workers.ForEach, grounded on
// ygrebnov-workers' ExampleForEach pattern: a fixed or dynamic pool
// fanning out a per-item function and joining errors.
func (r *Runner) runWave(ctx context.Context, wave []Executable) ([]outcome, error) {
	outcomes := make([]outcome, len(wave))

	opts := []workers.Option{}
	if r.concurrency > 0 {
		opts = append(opts, workers.WithFixedPool(r.concurrency))
	}
	if r.stopOnError {
		opts = append(opts, workers.WithStopOnError())
	}

	err := workers.ForEach(ctx, indices(len(wave)), func(c context.Context, i int) error {
		exec := wave[i]
		r.jobMetrics.Started.Add(1)
		r.jobMetrics.InFlight.Add(1)
		start := time.Now()
		resp, runErr := exec.Run(c, r.store)
		r.jobMetrics.Duration.Record(time.Since(start).Seconds())
		r.jobMetrics.InFlight.Add(-1)
		if runErr != nil {
			r.jobMetrics.Failed.Add(1)
		} else {
			r.jobMetrics.Finished.Add(1)
		}
		outcomes[i] = outcome{resp: resp, err: runErr}
		return runErr
	}, opts...)

	return outcomes, err
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// nextWave partitions pending into the jobs eligible to run now (every
// input uuid is either outside this flow's pending set or already
// done) and the rest, left for a later wave.
func (r *Runner) nextWave(pending []Executable, done map[string]bool) ([]Executable, []Executable, error) {
	pendingUUIDs := map[string]bool{}
	for _, exec := range pending {
		pendingUUIDs[exec.GetUUID()] = true
	}

	var wave, rest []Executable
	for _, exec := range pending {
		ready := true
		if dep, ok := exec.(dependent); ok {
			uuids, err := dep.InputUUIDs()
			if err != nil {
				return nil, nil, err
			}
			for _, u := range uuids {
				if u == exec.GetUUID() {
					continue
				}
				if pendingUUIDs[u] && !done[u] {
					ready = false
					break
				}
			}
		}
		if ready {
			wave = append(wave, exec)
		} else {
			rest = append(rest, exec)
		}
	}
	return wave, rest, nil
}

func toExecutables(runners []flow.Runner) []Executable {
	out := make([]Executable, 0, len(runners))
	for _, rn := range runners {
		if exec, ok := rn.(Executable); ok {
			out = append(out, exec)
		}
	}
	return out
}

// asExecutable normalises a Response directive value (nil, a single
// Executable, or a *flow.Flow) into a slice of Executables.
func asExecutable(v any) ([]Executable, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case *flow.Flow:
		return toExecutables(t.Jobs()), true
	case Executable:
		return []Executable{t}, true
	default:
		return nil, false
	}
}
