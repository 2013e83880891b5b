//go:build linux

package buttons

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// edgeWaitTimeout bounds each edge wait so pin goroutines notice shutdown.
const edgeWaitTimeout = 500 * time.Millisecond

var timeNow = time.Now

// PinConfig names the BCM pins wired to the three buttons.
type PinConfig struct {
	PlayPause string // e.g. "GPIO17"
	Next      string // e.g. "GPIO27"
	Prev      string // e.g. "GPIO22"
}

// GPIOProvider delivers press events from pull-up GPIO inputs. Buttons pull
// the pin to ground when pressed, so a falling edge is a press.
type GPIOProvider struct {
	pins   map[Button]gpio.PinIO
	events chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

// NewGPIOProvider initializes the GPIO host driver and configures the three
// button pins as pull-up edge-triggered inputs.
func NewGPIOProvider(cfg PinConfig) (Provider, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "gpio host init failed")
	}

	pins := make(map[Button]gpio.PinIO, 3)
	for button, name := range map[Button]string{
		ButtonPlayPause: cfg.PlayPause,
		ButtonNext:      cfg.Next,
		ButtonPrev:      cfg.Prev,
	} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, errors.Newf("gpio pin %s not found", name)
		}
		if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, errors.Wrapf(err, "failed to configure pin %s", name)
		}
		pins[button] = pin
	}

	return &GPIOProvider{
		pins:   pins,
		events: make(chan Event, 8),
		closed: make(chan struct{}),
	}, nil
}

// Start launches one edge-wait goroutine per pin and blocks until ctx is
// done.
func (p *GPIOProvider) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for button, pin := range p.pins {
		wg.Add(1)
		go func(b Button, pin gpio.PinIO) {
			defer wg.Done()
			p.watch(ctx, b, pin)
		}(button, pin)
	}

	<-ctx.Done()
	p.Close()
	wg.Wait()
	return ctx.Err()
}

// Events returns the press event channel.
func (p *GPIOProvider) Events() <-chan Event {
	return p.events
}

// Close stops event delivery.
func (p *GPIOProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	return nil
}

func (p *GPIOProvider) watch(ctx context.Context, b Button, pin gpio.PinIO) {
	zlog.Debug().Stringer("button", b).Str("pin", pin.Name()).Msg("buttons: watching pin")
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closed:
			return
		default:
		}

		// Bounded wait so the goroutine notices shutdown; -1 would block
		// forever on an idle pin.
		if !pin.WaitForEdge(edgeWaitTimeout) {
			continue
		}
		if pin.Read() != gpio.Low {
			continue
		}

		select {
		case p.events <- Event{Button: b, At: timeNow()}:
		case <-p.closed:
			return
		default:
			zlog.Warn().Stringer("button", b).Msg("buttons: event buffer full, press dropped")
		}
	}
}
