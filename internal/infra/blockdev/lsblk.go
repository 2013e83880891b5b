// Package blockdev provides removable block device discovery and
// mount/unmount operations for the content synchronizer.
package blockdev

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Device represents one entry of lsblk's JSON tree.
type Device struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Removable  Flag     `json:"rm"`
	Mountpoint string   `json:"mountpoint"`
	Children   []Device `json:"children"`
}

// Flag tolerates the two encodings lsblk has used for boolean columns:
// native JSON booleans and the older "0"/"1" strings.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte(`"1"`)), bytes.Equal(data, []byte("1")):
		*f = true
	default:
		*f = false
	}
	return nil
}

type lsblkOutput struct {
	BlockDevices []Device `json:"blockdevices"`
}

// Enumerator finds candidate removable volumes.
type Enumerator interface {
	// FindRemovable returns the device path of the first removable,
	// unmounted partition, or "" when none is present.
	FindRemovable(ctx context.Context) (string, error)
}

// LsblkEnumerator shells out to lsblk for device discovery.
type LsblkEnumerator struct{}

// FindRemovable implements Enumerator.
func (LsblkEnumerator) FindRemovable(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "lsblk", "-J", "-o", "NAME,PATH,RM,MOUNTPOINT").Output()
	if err != nil {
		return "", errors.Wrap(err, "lsblk failed")
	}

	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to parse lsblk output")
	}

	return findRemovable(parsed.BlockDevices), nil
}

// findRemovable walks the device tree for a removable, unmounted partition.
// Partitions are distinguished from whole disks by the trailing digit in the
// kernel name (sda1, mmcblk0p1).
func findRemovable(devices []Device) string {
	for _, d := range devices {
		if bool(d.Removable) && isPartitionName(d.Name) && d.Mountpoint == "" {
			return d.Path
		}
		if found := findRemovable(d.Children); found != "" {
			return found
		}
	}
	return ""
}

func isPartitionName(name string) bool {
	if name == "" {
		return false
	}
	runes := []rune(name)
	return unicode.IsDigit(runes[len(runes)-1])
}
