// Package media provides the removable-media content synchronizer: it polls
// for an inserted volume, mounts it, applies the caregiver's add/delete
// requests, rewrites the manifest and unmounts again.
package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/gimelg/accessible-soundbox/internal/domain/library"
	"github.com/gimelg/accessible-soundbox/internal/domain/manifest"
	"github.com/gimelg/accessible-soundbox/internal/domain/sentinel"
	"github.com/gimelg/accessible-soundbox/internal/infra/config"
	"github.com/gimelg/accessible-soundbox/internal/infra/oplog"
	"github.com/gimelg/accessible-soundbox/internal/infra/speech"
	"github.com/gimelg/accessible-soundbox/internal/infra/system"
)

// Flusher asks the kernel to persist dirty pages, best effort.
type Flusher func(ctx context.Context)

// Pass runs the per-insertion workflow against a mounted volume root.
type Pass struct {
	contentDir   string
	manifestName string
	sentinelName string
	addDirName   string
	messages     config.MessagesConfig

	speaker   speech.Speaker
	restarter system.Restarter
	flush     Flusher
	oplog     *oplog.Log
}

// NewPass creates the per-insertion workflow.
func NewPass(
	cfg *config.Config,
	speaker speech.Speaker,
	restarter system.Restarter,
	flush Flusher,
	log *oplog.Log,
) *Pass {
	return &Pass{
		contentDir:   cfg.Content.Dir,
		manifestName: cfg.Sync.ManifestName,
		sentinelName: cfg.Sync.SentinelName,
		addDirName:   cfg.Sync.AddDirName,
		messages:     cfg.Messages,
		speaker:      speaker,
		restarter:    restarter,
		flush:        flush,
		oplog:        log,
	}
}

// Run processes the mounted volume at root. It returns rebooting=true when a
// reboot trigger was honored; the caller must then skip the rest of its own
// sequence (the restart is already in flight).
func (p *Pass) Run(ctx context.Context, root string) (rebooting bool, err error) {
	// Reboot check always comes first: a caregiver asking for a restart
	// must not wait behind a long copy.
	rebooting, err = p.checkReboot(ctx, root)
	if err != nil || rebooting {
		return rebooting, err
	}

	p.importAdds(filepath.Join(root, p.addDirName))
	p.applyDeletions(filepath.Join(root, p.manifestName))

	return false, p.rewriteManifest(filepath.Join(root, p.manifestName))
}

// checkReboot ensures the sentinel exists and honors an armed trigger.
// Disarm happens strictly before the restart invocation, so a power cut
// mid-restart cannot produce a reboot loop.
func (p *Pass) checkReboot(ctx context.Context, root string) (bool, error) {
	path := filepath.Join(root, p.sentinelName)

	if err := sentinel.Ensure(path); err != nil {
		return false, errors.Wrap(err, "failed to ensure reboot sentinel")
	}

	armed, err := sentinel.IsArmed(path)
	if err != nil {
		return false, errors.Wrap(err, "failed to read reboot sentinel")
	}
	if !armed {
		return false, nil
	}

	zlog.Info().Msg("sync: reboot trigger detected")
	p.oplog.RebootTriggered()

	if err := sentinel.Disarm(path); err != nil {
		// Without a successful disarm the trigger would re-fire on next
		// boot; refuse to restart.
		return false, errors.Wrap(err, "failed to disarm reboot sentinel")
	}

	p.speaker.Say(p.messages.Rebooting)
	p.flush(ctx)

	if err := p.restarter.Restart(); err != nil {
		// Logged, not retried: the sentinel is already disarmed, so a stuck
		// device simply fails to reboot until manual intervention.
		zlog.Error().Err(err).Msg("sync: restart invocation failed")
		p.oplog.Error("restart", err)
	}
	return true, nil
}

// importAdds copies every non-hidden regular file from the volume's add
// directory into the content library. Sources stay in place; reinsertion of
// the same medium is idempotent.
func (p *Pass) importAdds(addDir string) {
	f, err := os.Open(addDir)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		zlog.Warn().Err(err).Msg("sync: failed to open add directory")
		p.oplog.Error("add", err)
		return
	}
	dirents, err := f.ReadDir(-1)
	f.Close()
	if err != nil && len(dirents) == 0 {
		zlog.Warn().Err(err).Msg("sync: failed to read add directory")
		p.oplog.Error("add", err)
		return
	}

	added := false
	for _, de := range dirents {
		name := de.Name()
		if strings.HasPrefix(name, ".") || !de.Type().IsRegular() {
			continue
		}
		if err := library.CopyIn(filepath.Join(addDir, name), p.contentDir); err != nil {
			zlog.Error().Err(err).Str("file", name).Msg("sync: copy failed")
			p.oplog.Error("add", err)
			continue
		}
		zlog.Info().Str("file", name).Msg("sync: added")
		p.oplog.Added(name)
		added = true
	}

	if added {
		p.speaker.Say(p.messages.Added)
	}
}

// applyDeletions deletes the files the caregiver listed in the manifest's
// Deletion section. Names that match nothing are silently ignored.
func (p *Pass) applyDeletions(manifestPath string) {
	requests, err := manifest.Load(manifestPath)
	if err != nil {
		// Protocol tolerance: a malformed manifest never aborts the pass.
		zlog.Warn().Err(err).Msg("sync: manifest parse error, continuing with partial result")
		p.oplog.Error("manifest", err)
	}
	if len(requests) == 0 {
		return
	}

	zlog.Info().Strs("files", requests).Msg("sync: deletion requested")

	deleted := false
	for _, name := range requests {
		removed, err := library.Remove(name, p.contentDir)
		if err != nil {
			zlog.Error().Err(err).Str("file", name).Msg("sync: delete failed")
			p.oplog.Error("delete", err)
			continue
		}
		if removed {
			p.oplog.Deleted(name)
			deleted = true
		}
	}

	if deleted {
		p.speaker.Say(p.messages.Deleted)
	}
}

// rewriteManifest regenerates the full Inventory and an empty Deletion
// section for the caregiver's next edit.
func (p *Pass) rewriteManifest(manifestPath string) error {
	names, err := library.Names(p.contentDir)
	if err != nil {
		return errors.Wrap(err, "failed to enumerate content for manifest")
	}
	if err := manifest.Save(manifestPath, names); err != nil {
		return err
	}
	zlog.Info().Int("entries", len(names)).Msg("sync: manifest rewritten")
	return nil
}
