// Package flow implements the minimal Flow aggregate: an ordered collection
// of runnable work with an optional designated output. It exists so that
// response.Response and the job package's replace-continuation logic can
// describe "a job returned a flow of further work" without job importing
// flow and flow importing job — flow only depends on ref.
package flow

import "github.com/xperrylinn/jobflow/ref"

// Runner is anything a Flow can carry as a member: a Job in the full
// pipeline sense, satisfied without flow depending on the job package.
type Runner interface {
	GetUUID() string
	GetIndex() int
}

// Flow is an ordered list of Runners together with the Reference the flow
// as a whole designates as its output, if any (spec §4.3, Replace-continuation
// — "If restart is a Flow that designates an output").
type Flow struct {
	jobs   []Runner
	output *ref.Reference
}

// New returns a Flow wrapping jobs in order, with no designated output.
func New(jobs ...Runner) *Flow {
	return &Flow{jobs: append([]Runner(nil), jobs...)}
}

// WithOutput returns a copy of f designating output as the flow's result
// reference.
func (f *Flow) WithOutput(output ref.Reference) *Flow {
	clone := *f
	clone.output = &output
	return &clone
}

// Jobs returns the flow's members in order.
func (f *Flow) Jobs() []Runner {
	out := make([]Runner, len(f.jobs))
	copy(out, f.jobs)
	return out
}

// Append returns a copy of f with r appended as a trailing member, used by
// replace-continuation to graft a synthetic store_output job onto a
// restart Flow (spec §4.3).
func (f *Flow) Append(r Runner) *Flow {
	clone := *f
	clone.jobs = append(append([]Runner(nil), f.jobs...), r)
	return &clone
}

// Output returns the flow's designated output reference, if any.
func (f *Flow) Output() (ref.Reference, bool) {
	if f == nil || f.output == nil {
		return ref.Reference{}, false
	}
	return *f.output, true
}

// Len reports the number of members in the flow.
func (f *Flow) Len() int {
	if f == nil {
		return 0
	}
	return len(f.jobs)
}
