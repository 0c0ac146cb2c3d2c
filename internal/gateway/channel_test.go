// ABOUTME: Tests for Channel dialing, the identify handshake, and frame I/O.
// ABOUTME: Runs against an in-process websocket server.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quaddle/quaddle-go/internal/model"
	"github.com/quaddle/quaddle-go/internal/wire"
)

// testServer is an in-process gateway endpoint. Every upgraded connection
// is delivered on conns along with the request that carried it.
type testServer struct {
	srv      *httptest.Server
	conns    chan *websocket.Conn
	requests chan *http.Request
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		conns:    make(chan *websocket.Conn, 8),
		requests: make(chan *http.Request, 8),
	}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests <- r.Clone(context.Background())
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- c
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

// accept waits for the next client connection to arrive.
func (ts *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ts.conns:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a gateway connection")
		return nil
	}
}

// readFrame reads one text frame from the server side of a connection.
func readFrame(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	typ, data, err := c.Read(ctx)
	require.NoError(t, err, "reading client frame")
	require.Equal(t, websocket.MessageText, typ)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// writeFrame writes one text frame from the server side of a connection.
func writeFrame(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte(frame)))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
		wantErr  bool
	}{
		{"bare host", "http://localhost:8080", "http://localhost:8080/app", false},
		{"with base path", "https://example.com/quaddle", "https://example.com/quaddle/app", false},
		{"ws scheme", "ws://example.com", "ws://example.com/app", false},
		{"opaque url", "mailto:user@example.com", "", true},
		{"no host", "/just/a/path", "", true},
		{"bad scheme", "ftp://example.com", "", true},
		{"unparsable", "http://exa mple.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointURL(tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialUpgradesAppRoute(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "quaddle-go test")
	require.NoError(t, err)
	defer ch.Close()

	req := <-ts.requests
	assert.Equal(t, "/app", req.URL.Path)
	assert.Equal(t, "quaddle-go test", req.Header.Get("User-Agent"))

	// Exactly one upgrade request per attempt.
	assert.Empty(t, ts.requests)

	ts.accept(t).Close(websocket.StatusNormalClosure, "")
}

func TestDialInvalidEndpoint(t *testing.T) {
	_, err := Dial(testContext(t), "mailto:user@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestIdentifyReady(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)
	go func() {
		frame := readFrame(t, server)
		assert.Equal(t, "identify", frame["op"])
		assert.Equal(t, "sekrit", frame["token"])
		writeFrame(t, server, `{"event":"ready","session_id":"s1","user":{"id":1,"name":"alice"}}`)
	}()

	sessionID, user, err := ch.Identify(ctx, "sekrit")
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)
	assert.Equal(t, model.User{ID: 1, Name: "alice"}, user)
}

func TestIdentifyRejected(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)
	go func() {
		readFrame(t, server)
		writeFrame(t, server, `{"event":"error","reason":"invalid token"}`)
	}()

	_, _, err = ch.Identify(ctx, "wrong")
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "invalid token", serr.Reason)
}

func TestIdentifyUnexpectedEvent(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)
	go func() {
		readFrame(t, server)
		writeFrame(t, server, `{"event":"message_create","message":{"id":1,"author":{"id":1,"name":"a"},"channel":1,"content":"hi"}}`)
	}()

	_, _, err = ch.Identify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}

func TestIdentifyUnexpectedClose(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)
	go func() {
		readFrame(t, server)
		server.Close(websocket.StatusNormalClosure, "bye")
	}()

	_, _, err = ch.Identify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnexpectedClose)
}

func TestSubscribeFrame(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)
	require.NoError(t, ch.Subscribe(ctx, model.ChannelID(7)))

	frame := readFrame(t, server)
	assert.Equal(t, "subscribe", frame["op"])
	assert.Equal(t, float64(7), frame["channel_id"])
}

// A binary frame or an undecodable text frame spoils only itself; the
// channel keeps producing afterwards.
func TestNextRecoversFromBadFrames(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	server := ts.accept(t)

	writeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, server.Write(writeCtx, websocket.MessageBinary, []byte{0x01, 0x02}))

	_, err = ch.Next(ctx)
	assert.ErrorIs(t, err, wire.ErrBinaryFrame)

	writeFrame(t, server, `{"event":`)
	_, err = ch.Next(ctx)
	var de *wire.DecodeError
	assert.ErrorAs(t, err, &de)

	writeFrame(t, server, `{"event":"error","reason":"still here"}`)
	ev, err := ch.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, wire.ErrorEvent{Reason: "still here"}, ev)
}

func TestNextPeerClose(t *testing.T) {
	ts := newTestServer(t)
	ctx := testContext(t)

	ch, err := Dial(ctx, ts.srv.URL, "")
	require.NoError(t, err)
	defer ch.Close()

	ts.accept(t).Close(websocket.StatusNormalClosure, "done")

	_, err = ch.Next(ctx)
	assert.True(t, errors.Is(err, ErrClosed), "want ErrClosed, got %v", err)
}
