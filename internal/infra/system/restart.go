// Package system provides the restart invocation behind the reboot trigger
// protocol.
package system

import (
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	zlog "github.com/rs/zerolog/log"
)

// Restarter reboots the device.
type Restarter interface {
	Restart() error
}

// LogindRestarter reboots through logind on the system bus, falling back to
// reboot(8) when the bus is unavailable (e.g. minimal images without
// systemd-logind).
type LogindRestarter struct{}

// Restart implements Restarter.
func (LogindRestarter) Restart() error {
	if err := rebootViaLogind(); err != nil {
		zlog.Warn().Err(err).Msg("system: logind reboot failed, falling back to reboot(8)")
		return rebootViaCommand()
	}
	return nil
}

func rebootViaLogind() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Wrap(err, "failed to connect to system bus")
	}
	defer conn.Close()

	obj := conn.Object("org.freedesktop.login1", "/org/freedesktop/login1")
	// false: no interactive polkit prompt; this is a headless appliance.
	call := obj.Call("org.freedesktop.login1.Manager.Reboot", 0, false)
	if call.Err != nil {
		return errors.Wrap(call.Err, "login1 Reboot call failed")
	}
	return nil
}

func rebootViaCommand() error {
	out, err := exec.Command("reboot").CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "reboot command failed: %s", out)
	}
	return nil
}
