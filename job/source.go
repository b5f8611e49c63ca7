package job

// Source identifies where a Job's callable comes from: either a registered
// module path (looked up by (module, function) in the process-global
// registry) or an owned Maker bound at run time (spec §3,
// function_source).
type Source interface {
	isSource()
}

// ModuleSource names a module path whose (module, function) pair must be
// registered via Register before a Job using it can run.
type ModuleSource string

func (ModuleSource) isSource() {}

// MakerSource wraps a configured-callable value. The Job's function_name
// selects the method bound on it at run time.
type MakerSource struct {
	Maker Maker
}

func (MakerSource) isSource() {}

// sourceName returns the display name a Source contributes when a Job has
// no explicit name (spec §3, Job.name default).
func sourceName(s Source) string {
	switch v := s.(type) {
	case ModuleSource:
		return string(v)
	case MakerSource:
		return v.Maker.MakerName()
	default:
		return ""
	}
}
