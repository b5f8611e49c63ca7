package response

import "fmt"

// MixedResponseError is returned by FromJobReturns when a Response value is
// found alongside other values in a sequence return (spec §4.4, §8 S5).
type MixedResponseError struct{}

func (e *MixedResponseError) Error() string {
	return "response: a Response must not be mixed with other values in a sequence return"
}

// SchemaMismatchError is returned when a non-nil, non-mapping value fails to
// satisfy a declared output schema.
type SchemaMismatchError struct {
	Schema string
	Value  any
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("response: value %#v does not satisfy schema %q", e.Value, e.Schema)
}

// MissingOutputError is returned when a schema is declared but the job
// produced a nil output.
type MissingOutputError struct {
	Schema string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("response: schema %q requires an output, got none", e.Schema)
}
