package playback

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

// Dispatcher serializes button handling through a single actor goroutine.
// Presses that arrive while a handler is still running queue up in order
// instead of racing on the persisted state; the listener itself never
// blocks on a handler.
type Dispatcher struct {
	ops chan op

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

type op struct {
	name string
	fn   func() error
}

// NewDispatcher creates a dispatcher with the given queue depth and starts
// its actor goroutine.
func NewDispatcher(queueDepth int) *Dispatcher {
	if queueDepth <= 0 {
		queueDepth = 8
	}
	d := &Dispatcher{
		ops:     make(chan op, queueDepth),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue queues a handler for serialized execution without blocking.
// Returns false when the queue is full or the dispatcher is closed; the
// press is dropped with a log line in that case.
func (d *Dispatcher) Enqueue(name string, fn func() error) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case d.ops <- op{name: name, fn: fn}:
		return true
	default:
		zlog.Warn().Str("op", name).Msg("dispatch: queue full, dropping press")
		return false
	}
}

// Close stops the actor. Presses still queued are dropped; the handler
// running at the time of the call finishes first.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	<-d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.done:
			return
		case o := <-d.ops:
			if err := o.fn(); err != nil {
				zlog.Error().Err(err).Str("op", o.name).Msg("dispatch: handler failed")
			}
		}
	}
}
