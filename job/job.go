// Package job implements the deferred-call abstraction: identity, inputs
// that may contain References, its runtime execution pipeline (reference
// resolution, callable invocation, response normalisation, output
// persistence), and the update/introspection operations built on top of it
// (spec §4.3).
package job

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/internal/log"
	"github.com/xperrylinn/jobflow/ref"
	"github.com/xperrylinn/jobflow/refwalk"
	"github.com/xperrylinn/jobflow/schema"
	"github.com/xperrylinn/jobflow/store"
)

// Job is a deferred call: identity, inputs, configuration, and a Reference
// to its own future output (spec §3).
type Job struct {
	uuid   string
	index  int
	name   string
	source Source
	method string

	args   []any
	kwargs map[string]any

	outputSchema *schema.Schema
	data         store.DataSelector
	metadata     map[string]any
	config       Config
	host         string

	output ref.Reference
}

// Option configures a Job at construction time.
type Option func(*Job)

// WithName overrides the Job's display name.
func WithName(name string) Option { return func(j *Job) { j.name = name } }

// WithOutputSchema attaches a structural description to the Job's output
// Reference (spec §4.1, Construction).
func WithOutputSchema(s *schema.Schema) Option {
	return func(j *Job) { j.outputSchema = s }
}

// WithData sets the persistence selector for the Job's output.
func WithData(selector store.DataSelector) Option {
	return func(j *Job) { j.data = selector }
}

// WithMetadata attaches an opaque key/value bag propagated to outputs.
func WithMetadata(metadata map[string]any) Option {
	return func(j *Job) { j.metadata = metadata }
}

// WithConfig overrides the Job's JobConfig (default: DefaultConfig()).
func WithConfig(cfg Config) Option { return func(j *Job) { j.config = cfg } }

// WithHost records the uuid of the enclosing flow, if any.
func WithHost(host string) Option { return func(j *Job) { j.host = host } }

// New constructs a Job bound to source/method with the given positional
// and keyword inputs (spec §4.3, Construction). The Job's output Reference
// is initialised to Reference(uuid, schema=output_schema); the invariant
// output.uuid == uuid holds from construction onward and across every
// replace-continuation rewrite.
func New(source Source, method string, args []any, kwargs map[string]any, opts ...Option) *Job {
	j := &Job{
		uuid:   uuid.NewString(),
		index:  1,
		source: source,
		method: method,
		args:   args,
		kwargs: kwargs,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.name == "" {
		j.name = sourceName(source)
	}
	j.output = newOutputRef(j.uuid, j.outputSchema)

	warnIfInputsCarryWholeJobOrFlow(j)

	return j
}

func newOutputRef(id string, s *schema.Schema) ref.Reference {
	r := ref.New(id)
	if s != nil {
		r = r.WithSchema(s)
	}
	return r
}

// warnIfInputsCarryWholeJobOrFlow implements spec §4.3's Post-construction
// check: passing a whole Job or Flow as an input (instead of its .Output
// reference) very rarely does what the caller intended, since the
// callable never receives that Job's resolved output, it receives the Job
// value itself.
func warnIfInputsCarryWholeJobOrFlow(j *Job) {
	check := func(v any) {
		switch v.(type) {
		case *Job, *flow.Flow:
			log.L().WithFields(map[string]any{
				"job":  j.name,
				"uuid": j.uuid,
			}).Warn("job input carries a whole Job/Flow instead of its output reference")
		}
	}
	for _, v := range j.args {
		check(v)
	}
	for _, v := range j.kwargs {
		check(v)
	}
}

// GetUUID implements flow.Runner.
func (j *Job) GetUUID() string { return j.uuid }

// GetIndex implements flow.Runner.
func (j *Job) GetIndex() int { return j.index }

// UUID returns the job's identity.
func (j *Job) UUID() string { return j.uuid }

// Index returns the job's generation number.
func (j *Job) Index() int { return j.index }

// Name returns the job's display label.
func (j *Job) Name() string { return j.name }

// Output returns the Reference to this job's future output. Invariant:
// Output().UUID() == UUID() always holds.
func (j *Job) Output() ref.Reference { return j.output }

// Metadata returns the job's opaque key/value bag.
func (j *Job) Metadata() map[string]any { return j.metadata }

// Config returns the job's JobConfig.
func (j *Job) Config() Config { return j.config }

// Host returns the uuid of the enclosing flow, if any.
func (j *Job) Host() string { return j.host }

// Args returns the job's positional inputs.
func (j *Job) Args() []any { return j.args }

// Kwargs returns the job's keyword inputs.
func (j *Job) Kwargs() map[string]any { return j.kwargs }

// InputReferences returns the unique references discovered in the job's
// args and kwargs (spec §4.3, Derived views).
func (j *Job) InputReferences() ([]ref.Reference, error) {
	return refwalk.FindReferences([]any{j.args, j.kwargs})
}

// InputUUIDs returns the distinct uuids of InputReferences.
func (j *Job) InputUUIDs() ([]string, error) {
	refs, err := j.InputReferences()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(refs))
	var out []string
	for _, r := range refs {
		if _, ok := seen[r.UUID()]; ok {
			continue
		}
		seen[r.UUID()] = struct{}{}
		out = append(out, r.UUID())
	}
	return out, nil
}

// InputReferencesGrouped groups InputReferences by their source uuid.
func (j *Job) InputReferencesGrouped() (map[string][]ref.Reference, error) {
	refs, err := j.InputReferences()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]ref.Reference)
	for _, r := range refs {
		out[r.UUID()] = append(out[r.UUID()], r)
	}
	return out, nil
}

// Edge describes the projection paths a single upstream uuid contributes
// to this job's inputs, for Graph's multi-edge view.
type Edge struct {
	UUID  string
	Paths []ref.Reference
}

// Graph returns a single-node, multi-edge view of this job's inputs: one
// Edge per distinct upstream uuid, carrying every projection path that
// originates there (spec §4.3, Derived views).
func (j *Job) Graph() ([]Edge, error) {
	grouped, err := j.InputReferencesGrouped()
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(grouped))
	for uuid, paths := range grouped {
		out = append(out, Edge{UUID: uuid, Paths: paths})
	}
	return out, nil
}

// withIdentity returns a copy of j with its uuid and index rewritten and
// its output Reference recomputed so the output.uuid == uuid invariant
// keeps holding; used by replace-continuation.
func (j *Job) withIdentity(newUUID string, newIndex int) *Job {
	clone := *j
	clone.uuid = newUUID
	clone.index = newIndex
	clone.output = newOutputRef(newUUID, clone.outputSchema)
	return &clone
}

// withMergedMetadata returns a copy of j whose metadata is the union of
// j's own metadata and base, with base's values winning on key conflicts
// (spec §4.3, Replace-continuation: "current wins on conflict" — j here is
// always the *successor* at the call site, and base is the current job's
// metadata, so base must overlay j's own values, not the other way round).
func (j *Job) withMergedMetadata(base map[string]any) *Job {
	merged := make(map[string]any, len(base)+len(j.metadata))
	for k, v := range j.metadata {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	clone := *j
	clone.metadata = merged
	return &clone
}

// withInheritedSchema returns a copy of j using fallback as its output
// schema if j has none of its own, recomputing the output Reference to
// match (spec §4.3, Replace-continuation: "inherit the current output
// schema if the successor has none").
func (j *Job) withInheritedSchema(fallback *schema.Schema) *Job {
	if j.outputSchema != nil {
		return j
	}
	clone := *j
	clone.outputSchema = fallback
	clone.output = newOutputRef(clone.uuid, fallback)
	return &clone
}

func (j *Job) String() string {
	return fmt.Sprintf("Job(%s#%d %s)", j.uuid, j.index, j.name)
}
