package job

import "github.com/xperrylinn/jobflow/refwalk"

// Config holds the JobConfig options of spec §6.
type Config struct {
	// ResolveReferences, if true, invokes the Reference Walker on the
	// job's args/kwargs before the callable is invoked.
	ResolveReferences bool
	// OnMissingReferences is the walker's missing-value policy.
	OnMissingReferences refwalk.OnMissing
	// ManagerConfig is opaque, forwarded to the dispatch manager and never
	// interpreted by this package.
	ManagerConfig map[string]any
	// ExposeStore, if true, also publishes the store handle on the
	// ambient slot during execution.
	ExposeStore bool
}

// DefaultConfig returns the spec §6 defaults: resolve references, fail
// loudly on a missing reference, no store exposure.
func DefaultConfig() Config {
	return Config{
		ResolveReferences:   true,
		OnMissingReferences: refwalk.OnMissingError,
	}
}
