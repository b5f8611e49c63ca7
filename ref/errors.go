package ref

import "fmt"

// SchemaProjectionError is returned when the first projection step applied
// to a schema-bearing Reference is not one of the schema's declared fields.
type SchemaProjectionError struct {
	UUID string
	Step string
}

func (e *SchemaProjectionError) Error() string {
	return fmt.Sprintf("reference %s: %q is not a field of the attached output schema", e.UUID, e.Step)
}

// ProjectionError is returned when a projection step fails to resolve
// against the materialised value, either because it is not indexable or
// because the field/index does not exist.
type ProjectionError struct {
	UUID string
	Step Step
	Err  error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("reference %s: projection step %v failed: %v", e.UUID, e.Step, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// UnresolvedReferenceError is returned when a Reference's uuid cannot be
// found in the store or cache and the resolution policy is OnMissingError.
type UnresolvedReferenceError struct {
	UUID string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("could not resolve reference: %s not in store or cache", e.UUID)
}

// CycleError is returned when resolving a Reference would require
// re-entering the resolution of a uuid that is already being resolved on the
// same cache, i.e. the cached values form a cycle across uuids.
type CycleError struct {
	UUID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected while resolving reference %s", e.UUID)
}
