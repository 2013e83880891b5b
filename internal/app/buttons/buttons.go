// Package buttons provides the physical button event listener. The
// capability provider delivers already-debounced discrete press events; this
// package guards against double-fires and dispatches handlers without ever
// blocking on them.
package buttons

import (
	"context"
	"time"
)

// Button identifies one of the three physical buttons.
type Button int

const (
	ButtonPlayPause Button = iota
	ButtonNext
	ButtonPrev
)

// String returns the button's name.
func (b Button) String() string {
	switch b {
	case ButtonPlayPause:
		return "play-pause"
	case ButtonNext:
		return "next"
	case ButtonPrev:
		return "prev"
	default:
		return "unknown"
	}
}

// Event represents a single press.
type Event struct {
	Button Button
	At     time.Time
}

// Provider delivers press events from some capability source (GPIO on the
// device, a fake in tests).
type Provider interface {
	// Start begins delivering events until ctx is done.
	Start(ctx context.Context) error
	// Events returns the press event channel.
	Events() <-chan Event
	// Close releases the provider's resources.
	Close() error
}
