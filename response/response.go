// Package response implements the post-execution control record (spec
// §4.4): the normalisation of raw job-function returns into a Response,
// schema application on the output, and the directive fields that steer
// replace-continuation and sibling control.
//
// Restart, Detour and Addition are typed as any rather than *job.Job or
// *flow.Flow: response only depends on schema, and job depends on
// response, so a concrete job.Job field here would close an import cycle.
// The job package type-switches these fields when it consumes a Response.
package response

import (
	"reflect"

	"github.com/xperrylinn/jobflow/schema"
)

// Response is the runner-facing result of a job's execution.
type Response struct {
	Output any

	// Restart, Detour and Addition carry successor work: a single runnable
	// job or a *flow.Flow, left untyped to avoid the response<->job cycle.
	Restart  any
	Detour   any
	Addition any

	StoredData map[string]any

	StopChildren bool
	StopFlow     bool
}

// Option configures a Response built via New.
type Option func(*Response)

// WithRestart sets the restart directive.
func WithRestart(restart any) Option { return func(r *Response) { r.Restart = restart } }

// WithDetour sets the detour directive.
func WithDetour(detour any) Option { return func(r *Response) { r.Detour = detour } }

// WithAddition sets the addition directive.
func WithAddition(addition any) Option { return func(r *Response) { r.Addition = addition } }

// WithStoredData attaches an auxiliary payload for the runner.
func WithStoredData(data map[string]any) Option {
	return func(r *Response) { r.StoredData = data }
}

// WithStopChildren marks the response as halting sibling jobs spawned by
// the same parent.
func WithStopChildren() Option { return func(r *Response) { r.StopChildren = true } }

// WithStopFlow marks the response as halting the entire enclosing flow.
func WithStopFlow() Option { return func(r *Response) { r.StopFlow = true } }

// New constructs a Response around output, applying any directive options.
func New(output any, opts ...Option) *Response {
	r := &Response{Output: output}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasRestart reports whether r carries a restart directive.
func (r *Response) HasRestart() bool { return r != nil && r.Restart != nil }

// FromJobReturns normalises a raw function return value into a Response,
// applying schema to the output (spec §4.4):
//   - an already-constructed *Response has its Output schema-applied only
//     when it carries no restart (a replacement produces the real output
//     later);
//   - a sequence containing a *Response anywhere fails with
//     MixedResponseError;
//   - anything else is wrapped as New(applySchema(value, s)).
func FromJobReturns(value any, s *schema.Schema) (*Response, error) {
	if resp, ok := value.(*Response); ok {
		if resp.HasRestart() {
			return resp, nil
		}
		out, err := applySchema(resp.Output, s)
		if err != nil {
			return nil, err
		}
		clone := *resp
		clone.Output = out
		return &clone, nil
	}

	if containsResponse(value) {
		return nil, &MixedResponseError{}
	}

	out, err := applySchema(value, s)
	if err != nil {
		return nil, err
	}
	return New(out), nil
}

func containsResponse(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if _, ok := rv.Index(i).Interface().(*Response); ok {
				return true
			}
		}
	}
	return false
}

// applySchema implements spec §4.4's "Schema application": no schema or an
// already-satisfying value passes through unchanged; nil fails with
// MissingOutputError; a map is instantiated against the schema; anything
// else fails with SchemaMismatchError.
func applySchema(value any, s *schema.Schema) (any, error) {
	if s == nil || s.Satisfies(value) {
		return value, nil
	}
	if value == nil {
		return nil, &MissingOutputError{Schema: s.Name()}
	}
	if m, ok := value.(map[string]any); ok {
		return s.Instantiate(m)
	}
	return nil, &SchemaMismatchError{Schema: s.Name(), Value: value}
}
