package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/gimelg/accessible-soundbox/internal/infra/blockdev"
	"github.com/gimelg/accessible-soundbox/internal/infra/oplog"
)

// Watcher polls for removable volume insertions and drives the per-insertion
// pass. A handled device is remembered so the same inserted medium is not
// reprocessed every tick; removal clears the memory so the next insertion is
// treated as new.
type Watcher struct {
	enum       blockdev.Enumerator
	mounter    blockdev.Mounter
	pass       *Pass
	interval   time.Duration
	mountpoint string
	oplog      *oplog.Log

	lastDevice string
}

// NewWatcher creates a media watcher.
func NewWatcher(
	enum blockdev.Enumerator,
	mounter blockdev.Mounter,
	pass *Pass,
	interval time.Duration,
	mountpoint string,
	log *oplog.Log,
) *Watcher {
	return &Watcher{
		enum:       enum,
		mounter:    mounter,
		pass:       pass,
		interval:   interval,
		mountpoint: mountpoint,
		oplog:      log,
	}
}

// Run polls until ctx is done. Cancellation is only observed between ticks:
// an in-flight mount→process→unmount sequence always completes, so shutdown
// never leaves a volume mounted or a manifest half-written.
func (w *Watcher) Run(ctx context.Context) error {
	zlog.Info().Dur("interval", w.interval).Str("mountpoint", w.mountpoint).Msg("sync: media watcher started")
	w.oplog.Note("media watcher started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("sync: media watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			// The pass itself must survive cancellation mid-flight.
			w.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Tick runs a single detection pass. Exposed for the CLI's sync-once.
func (w *Watcher) Tick(ctx context.Context) {
	device, err := w.enum.FindRemovable(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("sync: device enumeration failed")
		return
	}

	if device == "" {
		if w.lastDevice != "" {
			zlog.Info().Str("device", w.lastDevice).Msg("sync: device removed")
			w.oplog.Note("device removed: " + w.lastDevice)
			w.lastDevice = ""
		}
		return
	}

	if device == w.lastDevice {
		return
	}

	w.handleDevice(ctx, device)
}

// handleDevice mounts the new device, runs the pass and unmounts. Any
// failure is logged and the device is NOT recorded as handled, so the next
// tick retries. Errors never crash the watcher.
func (w *Watcher) handleDevice(ctx context.Context, device string) {
	passID := uuid.NewString()[:8]
	log := zlog.With().Str("device", device).Str("pass", passID).Logger()
	log.Info().Msg("sync: new device detected")

	if err := w.mounter.Mount(ctx, device, w.mountpoint); err != nil {
		log.Error().Err(err).Msg("sync: mount failed")
		w.oplog.Error("mount", err)
		return
	}
	w.oplog.Mounted(device, w.mountpoint)

	rebooting, passErr := w.pass.Run(ctx, w.mountpoint)
	if passErr != nil {
		log.Error().Err(passErr).Msg("sync: pass failed")
		w.oplog.Error("pass", passErr)
	}
	if rebooting {
		// The restart is in flight; leave the volume mounted for the dying
		// system and stop touching it.
		w.lastDevice = device
		return
	}

	w.mounter.Flush(ctx)

	if err := w.mounter.Unmount(ctx, w.mountpoint); err != nil {
		log.Error().Err(err).Msg("sync: unmount failed")
		w.oplog.Error("unmount", err)
		return
	}
	w.oplog.Unmounted(device)

	if passErr != nil {
		// Not recorded as handled: the next tick retries the insertion.
		return
	}

	log.Info().Msg("sync: device handled")
	w.lastDevice = device
}
