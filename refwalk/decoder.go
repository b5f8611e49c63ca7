package refwalk

import "github.com/xperrylinn/jobflow/ref"

// ReviveDecoder is a Decoder for Store backends that round-trip values
// through JSON (mongostore, badgerstore, rediskvstore): it converts any
// tagged OutputReference record surfacing inside a freshly-unmarshalled
// value back into a ref.Reference, so that FindAndResolveReferences can
// keep chaining through nested references the way it already does for
// backends (like memstore) that never lose the Go type in the first
// place.
type ReviveDecoder struct{}

// Decode implements Decoder.
func (ReviveDecoder) Decode(_ string, value any) (any, error) {
	return ref.Revive(value), nil
}
