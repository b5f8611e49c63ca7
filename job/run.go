package job

import (
	"context"
	"fmt"
	"time"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/internal/log"
	"github.com/xperrylinn/jobflow/refwalk"
	"github.com/xperrylinn/jobflow/response"
	"github.com/xperrylinn/jobflow/store"
)

// Run executes the job's pipeline against st (spec §4.3, run(store) ->
// Response):
//  1. publish this job (and, if configured, st) on the ambient slot;
//  2. resolve references in args/kwargs if configured to;
//  3. resolve the callable from the job's source;
//  4. invoke it;
//  5. normalise the return value into a Response;
//  6. rewrite any restart via replace-continuation;
//  7. persist a record keyed by (uuid, index);
//  8. return the Response. The ambient slot is scoped to step 2-4 via a
//     derived context, so it is cleared on every exit path including a
//     panic unwinding through the callable.
func (j *Job) Run(ctx context.Context, st store.Store) (*response.Response, error) {
	logger := log.L().WithFields(map[string]any{"job": j.name, "uuid": j.uuid, "index": j.index})
	logger.Info("starting job")

	runCtx := withCurrent(ctx, j, st, j.config.ExposeStore)

	args, kwargs, err := j.resolvedInputs(runCtx, st)
	if err != nil {
		logger.WithError(err).Warn("job failed")
		return nil, err
	}

	fn, err := j.resolveCallable()
	if err != nil {
		logger.WithError(err).Warn("job failed")
		return nil, err
	}

	raw, err := fn(runCtx, args, kwargs)
	if err != nil {
		logger.WithError(err).Warn("job failed")
		return nil, err
	}

	resp, err := response.FromJobReturns(raw, j.outputSchema)
	if err != nil {
		logger.WithError(err).Warn("job failed")
		return nil, err
	}

	if resp.HasRestart() {
		rewritten, err := j.prepareRestart(resp.Restart)
		if err != nil {
			logger.WithError(err).Warn("job failed")
			return nil, err
		}
		resp.Restart = rewritten
	}

	rec := store.Record{
		UUID:        j.uuid,
		Index:       j.index,
		Output:      resp.Output,
		CompletedAt: time.Now().UTC(),
		Metadata:    j.metadata,
	}
	if err := st.Update(ctx, rec, j.data); err != nil {
		logger.WithError(err).Warn("job failed")
		return nil, fmt.Errorf("job: persisting output: %w", err)
	}

	logger.Info("finished job")
	return resp, nil
}

// resolvedInputs applies the Reference Walker to args/kwargs when the
// job's config requests it (spec §4.3 step 2); otherwise raw References
// are passed through verbatim to the callable.
func (j *Job) resolvedInputs(ctx context.Context, st store.Store) ([]any, map[string]any, error) {
	if !j.config.ResolveReferences {
		return j.args, j.kwargs, nil
	}

	cache := refwalk.NewCache()

	resolvedArgs, err := refwalk.FindAndResolveReferences(ctx, any(j.args), st, cache, j.config.OnMissingReferences, nil)
	if err != nil {
		return nil, nil, err
	}
	resolvedKwargsAny, err := refwalk.FindAndResolveReferences(ctx, any(j.kwargs), st, cache, j.config.OnMissingReferences, nil)
	if err != nil {
		return nil, nil, err
	}

	args, _ := resolvedArgs.([]any)
	kwargs, _ := resolvedKwargsAny.(map[string]any)
	return args, kwargs, nil
}

// resolveCallable implements spec §4.3 step 3: a MakerSource binds method
// on the maker and passes the maker as the first positional argument; a
// ModuleSource looks up (module, function) in the process-global
// registry.
func (j *Job) resolveCallable() (Function, error) {
	switch src := j.source.(type) {
	case MakerSource:
		bound, err := src.Maker.Bind(j.method)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			withMaker := append([]any{src.Maker}, args...)
			return bound(ctx, withMaker, kwargs)
		}, nil
	case ModuleSource:
		return Lookup(string(src), j.method)
	default:
		return nil, &CallableNotFoundError{Function: j.method}
	}
}

// prepareRestart implements spec §4.3's replace-continuation: it rewrites
// the successor work so that it claims the current job's uuid at the next
// generation, preserving the invariant that downstream consumers
// referencing the original uuid see a value at (uuid, index+1) without
// ever changing their references.
func (j *Job) prepareRestart(restart any) (any, error) {
	switch r := restart.(type) {
	case *Job:
		successor := r.withIdentity(j.uuid, j.index+1)
		successor = successor.withMergedMetadata(j.metadata)
		successor = successor.withInheritedSchema(j.outputSchema)
		return successor, nil

	case *flow.Flow:
		if output, ok := r.Output(); ok {
			trailing := StoreOutput(output,
				WithName(j.name),
				WithMetadata(j.metadata),
				WithOutputSchema(j.outputSchema),
				WithConfig(j.config),
			).withIdentity(j.uuid, j.index+1)
			return r.Append(trailing), nil
		}
		return r, nil

	case []*Job:
		return j.prepareRestart(flow.New(jobRunners(r)...))

	default:
		return restart, nil
	}
}

func jobRunners(jobs []*Job) []flow.Runner {
	out := make([]flow.Runner, len(jobs))
	for i, job := range jobs {
		out[i] = job
	}
	return out
}
