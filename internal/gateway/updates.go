// ABOUTME: Update variants the Supervisor publishes to the embedding app.

package gateway

import (
	"github.com/quaddle/quaddle-go/internal/model"
	"github.com/quaddle/quaddle-go/internal/wire"
)

// Update is a notification from the Supervisor. The set is sealed; see
// the package documentation for the per-epoch ordering guarantees.
type Update interface {
	isUpdate()
}

// Connected reports a successful dial and identify. It carries the
// command handle for the new connection epoch and the session identity
// the server assigned.
type Connected struct {
	Handle    *Handle
	SessionID string
	User      model.User
}

// Event wraps a protocol event received while connected.
type Event struct {
	Event wire.Event
}

// ReceiveError reports a single frame that could not be decoded. The
// connection stays up.
type ReceiveError struct {
	Err error
}

// ConnectionError reports a failed dial, a failed handshake, or a
// transport failure while connected. A fresh connection attempt follows.
type ConnectionError struct {
	Err error
}

// Disconnected reports a clean close by the peer. A fresh connection
// attempt follows.
type Disconnected struct{}

func (Connected) isUpdate()       {}
func (Event) isUpdate()           {}
func (ReceiveError) isUpdate()    {}
func (ConnectionError) isUpdate() {}
func (Disconnected) isUpdate()    {}
