package job

import "strings"

// DictModOp names one operator of the declarative dict-modification
// language used when update_kwargs/update_maker_kwargs are called with
// dict_mod=true (spec §9).
type DictModOp string

const (
	// OpSet assigns a key unconditionally.
	OpSet DictModOp = "set"
	// OpUnset removes a key.
	OpUnset DictModOp = "unset"
	// OpInc adds a numeric delta to an existing (or zero) int value.
	OpInc DictModOp = "inc"
	// OpPush appends a value to a slice-valued key, creating it if absent.
	OpPush DictModOp = "push"
	// OpPull removes every occurrence of a value from a slice-valued key.
	OpPull DictModOp = "pull"
)

// DictMod is one operation of a dict-mod update.
type DictMod struct {
	Op    DictModOp
	Key   string
	Value any
}

// ApplyDictMod applies mods to a copy of kwargs in order and returns the
// result; kwargs itself is left untouched.
func ApplyDictMod(kwargs map[string]any, mods []DictMod) map[string]any {
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		out[k] = v
	}
	for _, m := range mods {
		switch m.Op {
		case OpSet:
			out[m.Key] = m.Value
		case OpUnset:
			delete(out, m.Key)
		case OpInc:
			cur, _ := out[m.Key].(int)
			delta, _ := m.Value.(int)
			out[m.Key] = cur + delta
		case OpPush:
			list, _ := out[m.Key].([]any)
			out[m.Key] = append(list, m.Value)
		case OpPull:
			list, _ := out[m.Key].([]any)
			filtered := make([]any, 0, len(list))
			for _, elem := range list {
				if elem != m.Value {
					filtered = append(filtered, elem)
				}
			}
			out[m.Key] = filtered
		}
	}
	return out
}

// UpdateFilter gates which jobs an update_kwargs/update_maker_kwargs call
// applies to.
type UpdateFilter struct {
	// NameSubstring, if non-empty, requires the job's name to contain it.
	NameSubstring string
	// Source, if non-empty, requires an exact (module-or-maker-name, method)
	// match against the job's callable identity.
	Source *SourceFilter
}

// SourceFilter exact-matches a job's callable identity.
type SourceFilter struct {
	Name   string
	Method string
}

func (f UpdateFilter) matches(j *Job) bool {
	if f.NameSubstring != "" && !strings.Contains(j.name, f.NameSubstring) {
		return false
	}
	if f.Source != nil {
		if sourceName(j.source) != f.Source.Name || j.method != f.Source.Method {
			return false
		}
	}
	return true
}

// UpdateKwargs applies updates to the job's function_kwargs, gated by
// filter (spec §4.3, update_kwargs). When dictMod is true, updates is
// interpreted as a []DictMod rather than a shallow-merge map.
func (j *Job) UpdateKwargs(updates any, filter UpdateFilter, dictMod bool) {
	if !filter.matches(j) {
		return
	}
	if dictMod {
		mods, _ := updates.([]DictMod)
		j.kwargs = ApplyDictMod(j.kwargs, mods)
		return
	}
	merge, _ := updates.(map[string]any)
	if j.kwargs == nil {
		j.kwargs = make(map[string]any, len(merge))
	}
	for k, v := range merge {
		j.kwargs[k] = v
	}
}

// UpdateMakerKwargs delegates the same update semantics into the job's
// Maker, if its source is a MakerSource and the maker supports kwarg
// updates (spec §4.3, update_maker_kwargs). With dictMod, the mods are
// applied only when the maker is a *KwargMaker itself; a maker that merely
// embeds KwargMaker is left unchanged. nested has no effect: the update is
// applied to the top maker only, never to makers nested in its kwargs.
func (j *Job) UpdateMakerKwargs(updates any, filter UpdateFilter, nested, dictMod bool) {
	src, ok := j.source.(MakerSource)
	if !ok || !filter.matches(j) {
		return
	}
	updatable, ok := src.Maker.(interface {
		UpdateKwargs(map[string]any)
	})
	if !ok {
		return
	}
	if dictMod {
		mods, _ := updates.([]DictMod)
		km, ok := src.Maker.(*KwargMaker)
		if !ok {
			return
		}
		km.Kwargs = ApplyDictMod(km.Kwargs, mods)
		return
	}
	merge, _ := updates.(map[string]any)
	updatable.UpdateKwargs(merge)
	_ = nested // not acted on; see the doc comment
}
