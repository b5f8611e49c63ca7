package job

import (
	"context"

	"github.com/xperrylinn/jobflow/ref"
	"github.com/xperrylinn/jobflow/refwalk"
)

const storeOutputModule = "jobflow.job.store_output"

func init() {
	Register(storeOutputModule, "store_output", func(_ context.Context, args []any, _ map[string]any) (any, error) {
		if len(args) == 0 {
			return nil, nil
		}
		return args[0], nil
	})
}

// StoreOutput builds the store_output built-in (spec §4.4): a job-factory
// whose function just returns its single argument unchanged. It is used by
// replace-continuation to graft a trailing persistence step onto a restart
// Flow that designates an output, under the original job's uuid at the
// next generation.
//
// It runs with resolve_references=false and on_missing=NONE: the argument
// is stored literally, including when it is itself an (unresolved)
// Reference into the flow's designated output — resolution of the outer
// uuid then chains through that embedded reference automatically (spec
// §4.1 step 3, "recursively resolve any references nested inside it"),
// which is what makes the replace-continuation invariant hold without
// store_output ever touching the store itself.
func StoreOutput(output ref.Reference, opts ...Option) *Job {
	j := New(ModuleSource(storeOutputModule), "store_output", []any{output}, nil, opts...)
	// store_output's own resolve policy always wins over any inherited
	// config passed in via opts (e.g. WithConfig(current.Config()) from
	// replace-continuation): only manager_config/expose_store should carry
	// over, never resolve_references/on_missing.
	inherited := j.config
	j.config = Config{
		ResolveReferences:   false,
		OnMissingReferences: refwalk.OnMissingNone,
		ManagerConfig:       inherited.ManagerConfig,
		ExposeStore:         inherited.ExposeStore,
	}
	return j
}
