// ABOUTME: Supervisor owns the gateway connection lifecycle.
// ABOUTME: Dial, identify, pump, reconnect — forever, until cancelled.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quaddle/quaddle-go/internal/wire"
)

// defaultUpdateBuffer is the capacity of the update stream returned by Run.
const defaultUpdateBuffer = 50

// Options tunes a Supervisor. The zero value reconnects immediately with
// no backoff and uses the default queue and buffer sizes.
type Options struct {
	// UserAgent is sent with every gateway upgrade request.
	UserAgent string

	// ReconnectWait is the delay before redialing after a failed attempt
	// or a lost connection. It doubles after consecutive failures up to
	// MaxReconnectWait and resets after a successful handshake. Zero
	// retries immediately.
	ReconnectWait time.Duration

	// MaxReconnectWait caps the doubling. Zero means uncapped.
	MaxReconnectWait time.Duration

	// QueueSize bounds each epoch's command queue.
	QueueSize int

	// Buffer is the capacity of the update stream.
	Buffer int

	// Logger receives connection lifecycle logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// Supervisor keeps a gateway session alive across failures. It holds no
// mutable state shared with callers: commands come in through per-epoch
// queues and everything going out rides the update stream.
type Supervisor struct {
	endpoint string
	token    string
	opts     Options
	logger   *slog.Logger
}

// NewSupervisor validates the endpoint and returns a supervisor that will
// authenticate with token. The endpoint and token are immutable for the
// supervisor's lifetime. An endpoint that cannot accept path segments is
// rejected here, at startup, rather than retried.
func NewSupervisor(endpoint, token string, opts Options) (*Supervisor, error) {
	if _, err := EndpointURL(endpoint); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultUpdateBuffer
	}

	return &Supervisor{
		endpoint: endpoint,
		token:    token,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Run starts the connection loop and returns its update stream. The loop
// never stops on its own; cancelling ctx closes the active socket, ends
// the loop, and closes the stream.
func (s *Supervisor) Run(ctx context.Context) <-chan Update {
	out := make(chan Update, s.opts.Buffer)
	go s.run(ctx, out)
	return out
}

func (s *Supervisor) run(ctx context.Context, out chan Update) {
	defer close(out)

	wait := s.opts.ReconnectWait
	for ctx.Err() == nil {
		ch, err := Dial(ctx, s.endpoint, s.opts.UserAgent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("gateway dial failed", "endpoint", s.endpoint, "err", err)
			s.deliver(ctx, out, ConnectionError{Err: err})
			wait = s.backoff(ctx, wait)
			continue
		}

		sessionID, user, err := ch.Identify(ctx, s.token)
		if err != nil {
			ch.Close()
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("gateway identify failed", "err", err)
			s.deliver(ctx, out, ConnectionError{Err: err})
			wait = s.backoff(ctx, wait)
			continue
		}
		wait = s.opts.ReconnectWait

		q := newQueue(s.opts.QueueSize)
		s.logger.Info("gateway connected", "session_id", sessionID, "user", user.Name)
		s.deliver(ctx, out, Connected{Handle: &Handle{q: q}, SessionID: sessionID, User: user})

		s.pump(ctx, ch, q, out)

		q.close()
		ch.Close()
	}
}

// readResult is one pull from the socket: an event or the error that
// ended the pull.
type readResult struct {
	ev  wire.Event
	err error
}

// recoverable reports whether a read error spoils only the one frame it
// arrived on rather than the whole connection.
func recoverable(err error) bool {
	var de *wire.DecodeError
	return errors.As(err, &de) || errors.Is(err, wire.ErrBinaryFrame)
}

// pump multiplexes incoming gateway events against queued outgoing
// commands until the connection dies. Socket reads happen on their own
// goroutine so the select below stays fair between the two directions.
// Exactly one Disconnected or ConnectionError is published per epoch,
// except when ctx is cancelled, which publishes nothing.
func (s *Supervisor) pump(ctx context.Context, ch *Channel, q *queue, out chan Update) {
	readCtx, stopReads := context.WithCancel(ctx)
	defer stopReads()

	reads := make(chan readResult)
	go func() {
		defer close(reads)
		for {
			ev, err := ch.Next(readCtx)
			select {
			case reads <- readResult{ev: ev, err: err}:
			case <-readCtx.Done():
				return
			}
			if err != nil && !recoverable(err) {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case r, ok := <-reads:
			if !ok {
				return
			}
			switch {
			case r.err == nil:
				s.offer(out, Event{Event: r.ev})
			case recoverable(r.err):
				s.logger.Warn("dropping undecodable gateway frame", "err", r.err)
				s.offer(out, ReceiveError{Err: r.err})
			case errors.Is(r.err, ErrClosed):
				s.logger.Info("gateway closed by peer")
				s.deliver(ctx, out, Disconnected{})
				return
			default:
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("gateway receive failed", "err", r.err)
				s.deliver(ctx, out, ConnectionError{Err: r.err})
				return
			}

		case cmd := <-q.cmds:
			if err := ch.Send(ctx, cmd); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("gateway send failed", "err", err)
				s.deliver(ctx, out, ConnectionError{Err: err})
				return
			}
		}
	}
}

// deliver publishes a lifecycle update, waiting for the consumer unless
// the supervisor is being torn down. Lifecycle updates are never dropped.
func (s *Supervisor) deliver(ctx context.Context, out chan Update, u Update) {
	select {
	case out <- u:
	case <-ctx.Done():
	}
}

// offer publishes a steady-state update without blocking the pump. If the
// consumer has stalled and the stream is full, the update is dropped.
func (s *Supervisor) offer(out chan Update, u Update) {
	select {
	case out <- u:
	default:
		s.logger.Warn("update stream full, dropping update", "update", fmt.Sprintf("%T", u))
	}
}

// backoff waits out the reconnect delay and returns the next one.
func (s *Supervisor) backoff(ctx context.Context, wait time.Duration) time.Duration {
	if wait <= 0 {
		return 0
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}

	next := wait * 2
	if max := s.opts.MaxReconnectWait; max > 0 && next > max {
		next = max
	}
	return next
}
