package ref

// Revive walks a value freshly decoded from JSON (maps/slices/primitives,
// as produced by encoding/json into `any`) and converts every tagged
// OutputReference record back into a Reference, recursively. Serialized
// Store backends decode their persisted documents into generic Go values
// first; without this pass a Reference embedded in a stored output would
// come back as an inert map instead of something Resolve/FindReferences
// recognise.
func Revive(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if IsReferenceTag(v) {
			if r, err := FromTagged(v); err == nil {
				return r
			}
		}
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = Revive(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Revive(elem)
		}
		return out
	default:
		return value
	}
}
