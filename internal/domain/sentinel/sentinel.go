// Package sentinel implements the reboot trigger file. The file's exact
// textual content, not its presence, encodes the signal: the caregiver arms
// it by removing the dash in front of the trigger word on the second line.
package sentinel

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// TriggerToken is the exact second-line content (after trimming) that arms
// the trigger.
const TriggerToken = "Reboot"

// DefaultContent is the disarmed two-line template. The leading "–" on the
// second line is the disarm marker.
const DefaultContent = `### Remove the "–" before Reboot to reboot the soundbox. ###
– Reboot
`

// Ensure creates the sentinel with its disarmed default when absent.
func Ensure(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat sentinel %s", path)
	}
	return Disarm(path)
}

// IsArmed reports whether the caregiver has armed the trigger: the second
// line, after trimming, equals exactly the trigger token. A malformed or
// unreadable sentinel is never armed.
func IsArmed(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read sentinel %s", path)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return false, nil
	}
	return strings.TrimSpace(lines[1]) == TriggerToken, nil
}

// Disarm rewrites the sentinel to its disarmed default. Callers honoring a
// trigger must call this strictly before any restart side effect, so a crash
// mid-restart cannot re-fire the trigger on next boot.
func Disarm(path string) error {
	if err := os.WriteFile(path, []byte(DefaultContent), 0666); err != nil {
		return errors.Wrapf(err, "failed to write sentinel %s", path)
	}
	return nil
}
