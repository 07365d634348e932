// Package projection turns raw synchronized records into the UI-ready
// shapes the scheduling views consume. Projectors are pure: same records
// and context in, same projected records out, in a deterministic order.
package projection

// Context carries the cross-dataset lookups a projector may need. Lookups
// read already-synchronized in-memory state and never reach the remote
// store.
type Context struct {
	// LookupDisplayName resolves a personnel id to its current display
	// name. The second return is false when the person is unknown.
	LookupDisplayName func(id string) (string, bool)
}

// DisplayName resolves an id, tolerating a nil lookup.
func (c Context) DisplayName(id string) (string, bool) {
	if c.LookupDisplayName == nil {
		return "", false
	}
	return c.LookupDisplayName(id)
}
