// ABOUTME: Process-local unique identifiers for in-flight client items.

package ids

import "sync/atomic"

// ID is an opaque comparable identifier, unique within the process. It
// carries no ordering semantics beyond uniqueness.
type ID uint64

var counter atomic.Uint64

// Next returns a fresh process-unique ID.
func Next() ID {
	return ID(counter.Add(1))
}
