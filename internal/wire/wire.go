// ABOUTME: Wire codec for the Quaddle gateway JSON protocol.
// ABOUTME: Defines outgoing command and incoming event frames and their encoding.

package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quaddle/quaddle-go/internal/model"
)

// ErrBinaryFrame reports a binary frame on the gateway channel. The
// protocol is text-only; a binary frame is a protocol violation, not
// something to ignore.
var ErrBinaryFrame = errors.New("unexpected binary frame on gateway channel")

// DecodeError reports a frame that could not be decoded as a protocol
// event. One bad frame does not invalidate the connection it arrived on.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string { return "decoding gateway frame: " + e.err.Error() }

func (e *DecodeError) Unwrap() error { return e.err }

// Outgoing is a command frame sent by the client. Every variant encodes
// to exactly one text frame carrying an "op" discriminator.
type Outgoing interface {
	op() string
}

// Identify authenticates the connection during the handshake.
type Identify struct {
	Token string `json:"token"`
}

func (Identify) op() string { return "identify" }

// Subscribe asks the server to start delivering events for a channel.
// The server does not acknowledge it; a failure surfaces later as an
// error event on the shared stream.
type Subscribe struct {
	ChannelID model.ChannelID `json:"channel_id"`
}

func (Subscribe) op() string { return "subscribe" }

// Encode renders an outgoing command as one JSON text frame.
func Encode(msg Outgoing) ([]byte, error) {
	switch m := msg.(type) {
	case Identify:
		return json.Marshal(struct {
			Op string `json:"op"`
			Identify
		}{m.op(), m})
	case Subscribe:
		return json.Marshal(struct {
			Op string `json:"op"`
			Subscribe
		}{m.op(), m})
	default:
		return nil, fmt.Errorf("unencodable outgoing message %T", msg)
	}
}

// Event is a frame sent by the server, discriminated by its "event"
// field. The set is open: tags this client does not know decode to
// Unknown instead of failing, so server-side additions degrade to no-ops.
type Event interface {
	event() string
}

// Ready completes a successful identify handshake and carries the
// session identity.
type Ready struct {
	SessionID string     `json:"session_id"`
	User      model.User `json:"user"`
}

func (Ready) event() string { return "ready" }

// ErrorEvent reports a server-side failure, either as the handshake
// response or asynchronously during a session.
type ErrorEvent struct {
	Reason string `json:"reason"`
}

func (ErrorEvent) event() string { return "error" }

// MessageCreate announces a new message in a subscribed channel.
type MessageCreate struct {
	Message model.Message `json:"message"`
}

func (MessageCreate) event() string { return "message_create" }

// Unknown carries an event tag this client does not recognize, with the
// raw frame preserved for callers that want to inspect it.
type Unknown struct {
	Name    string
	Payload json.RawMessage
}

func (u Unknown) event() string { return u.Name }

// Decode parses one text frame into an incoming event.
func Decode(frame []byte) (Event, error) {
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &DecodeError{err: err}
	}
	if env.Event == "" {
		return nil, &DecodeError{err: errors.New("missing event discriminator")}
	}

	switch env.Event {
	case "ready":
		var ev Ready
		if err := json.Unmarshal(frame, &ev); err != nil {
			return nil, &DecodeError{err: err}
		}
		return ev, nil
	case "error":
		var ev ErrorEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			return nil, &DecodeError{err: err}
		}
		return ev, nil
	case "message_create":
		var ev MessageCreate
		if err := json.Unmarshal(frame, &ev); err != nil {
			return nil, &DecodeError{err: err}
		}
		return ev, nil
	default:
		raw := make(json.RawMessage, len(frame))
		copy(raw, frame)
		return Unknown{Name: env.Event, Payload: raw}, nil
	}
}
