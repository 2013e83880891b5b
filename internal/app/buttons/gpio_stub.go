//go:build !linux

package buttons

import "github.com/cockroachdb/errors"

// PinConfig names the BCM pins wired to the three buttons.
type PinConfig struct {
	PlayPause string
	Next      string
	Prev      string
}

// NewGPIOProvider is only available on linux; the appliance target is a
// Raspberry Pi. Off-device builds must run with buttons disabled.
func NewGPIOProvider(cfg PinConfig) (Provider, error) {
	return nil, errors.New("gpio buttons are only supported on linux")
}
