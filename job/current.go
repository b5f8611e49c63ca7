package job

import (
	"context"

	"github.com/xperrylinn/jobflow/store"
)

// ambient current-job slot (spec §5). Implemented as task-local storage
// via context.Context rather than a global mutable variable: Run derives a
// child context carrying the current job (and, if requested, the store)
// only for the duration of the callable invocation, so the slot is
// automatically cleared on every exit path — normal return, error return,
// or panic unwinding past the call — simply because nothing outside that
// subtree ever observes the derived context.
type currentKey struct{}
type storeKey struct{}

// Current returns the Job currently executing on ctx's call tree, if any.
func Current(ctx context.Context) (*Job, bool) {
	j, ok := ctx.Value(currentKey{}).(*Job)
	return j, ok
}

// CurrentStore returns the store published on ctx, if the running job's
// config requested store exposure.
func CurrentStore(ctx context.Context) (store.Store, bool) {
	s, ok := ctx.Value(storeKey{}).(store.Store)
	return s, ok
}

func withCurrent(ctx context.Context, j *Job, st store.Store, expose bool) context.Context {
	ctx = context.WithValue(ctx, currentKey{}, j)
	if expose {
		ctx = context.WithValue(ctx, storeKey{}, st)
	}
	return ctx
}
