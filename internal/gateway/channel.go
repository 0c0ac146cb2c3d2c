// ABOUTME: Channel wraps one live gateway websocket.
// ABOUTME: Handles dialing, the identify handshake, and typed frame I/O.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/quaddle/quaddle-go/internal/model"
	"github.com/quaddle/quaddle-go/internal/wire"
)

// gatewayPath is the fixed path segment appended to the service endpoint
// to reach the websocket upgrade route.
const gatewayPath = "app"

var (
	// ErrInvalidEndpoint reports an endpoint that cannot accept path
	// segments. This is a configuration error: it is never retried.
	ErrInvalidEndpoint = errors.New("invalid quaddle endpoint")

	// ErrUnexpectedEvent reports a non-ready, non-error frame arriving as
	// the identify response.
	ErrUnexpectedEvent = errors.New("unexpected event during identify")

	// ErrUnexpectedClose reports the peer closing the socket before the
	// identify response arrived.
	ErrUnexpectedClose = errors.New("gateway closed before identify completed")

	// ErrClosed is returned by Next exactly once when the peer closes the
	// socket cleanly. The channel must not be read again after it.
	ErrClosed = errors.New("gateway channel closed")
)

// ServerError is an error event the server sent in response to identify.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string { return "gateway error: " + e.Reason }

// EndpointURL validates a service endpoint and resolves the gateway
// upgrade URL against it. Endpoints must be hierarchical http(s) or
// ws(s) URLs with a host.
func EndpointURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Opaque != "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q cannot accept path segments", ErrInvalidEndpoint, endpoint)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	return u.JoinPath(gatewayPath).String(), nil
}

// Channel owns one live gateway socket. It is created by Dial, used by at
// most one reader and one writer at a time, and disposed with Close.
type Channel struct {
	conn *websocket.Conn
}

// Dial connects to the gateway of the Quaddle instance at endpoint,
// performing the websocket upgrade against the endpoint's app route with
// the given User-Agent.
func Dial(ctx context.Context, endpoint, userAgent string) (*Channel, error) {
	target, err := EndpointURL(endpoint)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	conn, _, err := websocket.Dial(ctx, target, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dialing gateway: %w", err)
	}

	return &Channel{conn: conn}, nil
}

// Identify authenticates the connection. It sends the identify command
// and awaits exactly one frame in response: ready on success, error on
// rejection. No other traffic may be interleaved during this call.
func (c *Channel) Identify(ctx context.Context, token string) (string, model.User, error) {
	if err := c.Send(ctx, wire.Identify{Token: token}); err != nil {
		return "", model.User{}, err
	}

	ev, err := c.Next(ctx)
	if errors.Is(err, ErrClosed) {
		return "", model.User{}, ErrUnexpectedClose
	}
	if err != nil {
		return "", model.User{}, err
	}

	switch ev := ev.(type) {
	case wire.Ready:
		return ev.SessionID, ev.User, nil
	case wire.ErrorEvent:
		return "", model.User{}, &ServerError{Reason: ev.Reason}
	default:
		return "", model.User{}, fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
	}
}

// Subscribe sends a subscribe command for the channel. Fire and forget:
// server-side failures surface later as an error event on the stream.
func (c *Channel) Subscribe(ctx context.Context, id model.ChannelID) error {
	return c.Send(ctx, wire.Subscribe{ChannelID: id})
}

// Send encodes msg and pushes it as one text frame. It may block until
// the socket has buffer capacity.
func (c *Channel) Send(ctx context.Context, msg wire.Outgoing) error {
	frame, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("writing gateway frame: %w", err)
	}
	return nil
}

// Next decodes the next incoming event. A clean close by the peer yields
// ErrClosed, after which the channel is exhausted. A frame that cannot be
// decoded yields *wire.DecodeError (or wire.ErrBinaryFrame) without
// invalidating the socket; any other error is a transport failure.
func (c *Channel) Next(ctx context.Context) (wire.Event, error) {
	typ, frame, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, ErrClosed
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading gateway frame: %w", err)
	}
	if typ != websocket.MessageText {
		return nil, wire.ErrBinaryFrame
	}
	return wire.Decode(frame)
}

// Close initiates the websocket close handshake. Best effort: close-time
// failures are swallowed.
func (c *Channel) Close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
