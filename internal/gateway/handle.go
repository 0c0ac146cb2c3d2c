// ABOUTME: Handle is the enqueue endpoint callers use to submit commands.
// ABOUTME: Valid for one connection epoch; reports false once torn down.

package gateway

import (
	"sync"

	"github.com/quaddle/quaddle-go/internal/model"
	"github.com/quaddle/quaddle-go/internal/wire"
)

// defaultQueueSize bounds the per-connection command queue. Commands
// submitted while the queue is full are dropped (Send reports false).
const defaultQueueSize = 64

// queue is the multi-producer/single-consumer command queue owned by one
// connection epoch. The supervisor pump is the only consumer.
type queue struct {
	cmds chan wire.Outgoing
	done chan struct{}
	once sync.Once
}

func newQueue(size int) *queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &queue{
		cmds: make(chan wire.Outgoing, size),
		done: make(chan struct{}),
	}
}

// close invalidates every handle pointing at the queue. Commands still
// buffered are discarded with the connection.
func (q *queue) close() {
	q.once.Do(func() { close(q.done) })
}

// Handle submits outbound commands to one connection epoch. It may be
// copied and shared across goroutines; all copies are invalidated
// together when the connection goes away.
type Handle struct {
	q *queue
}

// Send enqueues msg for delivery over the gateway. It never blocks. A
// false return means the message was not delivered: the connection is
// gone, or the queue is full. Callers treat false as "try again after the
// next Connected", not as an error to propagate.
func (h *Handle) Send(msg wire.Outgoing) bool {
	select {
	case <-h.q.done:
		return false
	default:
	}
	select {
	case h.q.cmds <- msg:
		return true
	case <-h.q.done:
		return false
	default:
		return false
	}
}

// Subscribe enqueues a subscribe command for the channel.
func (h *Handle) Subscribe(id model.ChannelID) bool {
	return h.Send(wire.Subscribe{ChannelID: id})
}
