package blockdev

import (
	"context"
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Mounter mounts and unmounts removable volumes.
type Mounter interface {
	Mount(ctx context.Context, device, target string) error
	Unmount(ctx context.Context, target string) error
	// Flush asks the kernel to write dirty pages out, best effort. Called
	// before unmount and before any restart.
	Flush(ctx context.Context)
}

// ExecMounter shells out to mount(8)/umount(8).
type ExecMounter struct{}

// Mount creates the target directory if needed and mounts the device with a
// permissive umask so the caregiver's machine can edit the manifest later.
func (ExecMounter) Mount(ctx context.Context, device, target string) error {
	if err := os.MkdirAll(target, 0755); err != nil {
		return errors.Wrapf(err, "failed to create mountpoint %s", target)
	}

	out, err := exec.CommandContext(ctx, "mount", "-o", "umask=000", device, target).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "mount %s at %s failed: %s", device, target, out)
	}
	return nil
}

// Unmount unmounts the volume at target.
func (ExecMounter) Unmount(ctx context.Context, target string) error {
	out, err := exec.CommandContext(ctx, "umount", target).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "umount %s failed: %s", target, out)
	}
	return nil
}

// Flush implements Mounter.
func (ExecMounter) Flush(ctx context.Context) {
	if err := exec.CommandContext(ctx, "sync").Run(); err != nil {
		zlog.Warn().Err(err).Msg("blockdev: sync failed")
	}
}
