package buttons

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// Handler receives one call per accepted press.
type Handler interface {
	PlayPause() error
	Next() error
	Prev() error
}

// Dispatch queues a handler invocation without blocking; the bool reports
// whether it was accepted. Matches playback.Dispatcher.Enqueue.
type Dispatch func(name string, fn func() error) bool

// Listener consumes provider events, enforces a per-button minimum press
// spacing and forwards accepted presses to the dispatcher. Two presses
// inside the handler's own run time still serialize through the dispatcher
// rather than racing on the persisted state.
type Listener struct {
	provider    Provider
	dispatch    Dispatch
	handler     Handler
	minInterval time.Duration

	last map[Button]time.Time
}

// NewListener creates a listener.
func NewListener(provider Provider, dispatch Dispatch, handler Handler, minInterval time.Duration) *Listener {
	return &Listener{
		provider:    provider,
		dispatch:    dispatch,
		handler:     handler,
		minInterval: minInterval,
		last:        make(map[Button]time.Time),
	}
}

// Run consumes events until ctx is done or the provider's channel closes.
func (l *Listener) Run(ctx context.Context) error {
	zlog.Info().Dur("min_interval", l.minInterval).Msg("buttons: listener started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-l.provider.Events():
			if !ok {
				return nil
			}
			l.handle(ev)
		}
	}
}

func (l *Listener) handle(ev Event) {
	if last, seen := l.last[ev.Button]; seen && ev.At.Sub(last) < l.minInterval {
		zlog.Debug().Stringer("button", ev.Button).Msg("buttons: press inside guard interval, ignored")
		return
	}
	l.last[ev.Button] = ev.At

	var fn func() error
	switch ev.Button {
	case ButtonPlayPause:
		fn = l.handler.PlayPause
	case ButtonNext:
		fn = l.handler.Next
	case ButtonPrev:
		fn = l.handler.Prev
	default:
		return
	}

	zlog.Debug().Stringer("button", ev.Button).Msg("buttons: press accepted")
	l.dispatch(ev.Button.String(), fn)
}
