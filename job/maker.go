package job

// Maker is a configured-callable value serving as a Job's function_source:
// it carries its own state (e.g. an API client, a bound resource) and
// exposes methods selectable by name (spec §3, Job.function_source;
// §4.3 Construction, "a configured-callable").
type Maker interface {
	// MakerName identifies the maker's kind, used as the display name
	// fallback and as the callable-identity key for update_maker_kwargs
	// filtering (source, name).
	MakerName() string
	// Bind resolves method on the maker into an invocable Function. The
	// maker itself is passed as the first positional argument when the
	// bound function is called (spec §4.3 step 3).
	Bind(method string) (Function, error)
}

// KwargMaker is the common case of a Maker whose state is a plain keyword
// bag mutable via UpdateKwargs-style operations (spec §4.3,
// update_maker_kwargs). Concrete makers embed it to get shallow-merge
// updates for free; dict-mod updates through Job.UpdateMakerKwargs apply
// only to a *KwargMaker used directly as the maker.
type KwargMaker struct {
	Name   string
	Kwargs map[string]any
}

// MakerName implements Maker.
func (m *KwargMaker) MakerName() string { return m.Name }

// UpdateKwargs shallow-merges updates into the maker's kwargs.
func (m *KwargMaker) UpdateKwargs(updates map[string]any) {
	if m.Kwargs == nil {
		m.Kwargs = make(map[string]any, len(updates))
	}
	for k, v := range updates {
		m.Kwargs[k] = v
	}
}
