package playback

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/gimelg/accessible-soundbox/internal/domain/library"
)

// Engine is the subset of the control channel the controller drives.
type Engine interface {
	LoadList(path string, appendMode bool) error
	PauseToggle() error
	Step(n int) error
}

// Controller evaluates one button press against the persisted state and the
// audio engine. It holds no state of its own: every press is a fresh
// evaluation of the same contract, and the persisted token is the single
// source of truth for which direction the engine's pause toggle represents.
type Controller struct {
	store        *Store
	engine       Engine
	contentDir   string
	playlistPath string
}

// NewController creates a playback controller.
func NewController(store *Store, eng Engine, contentDir, playlistPath string) *Controller {
	return &Controller{
		store:        store,
		engine:       eng,
		contentDir:   contentDir,
		playlistPath: playlistPath,
	}
}

// PlayPause handles a Play-Pause press.
//
// The persisted state is written immediately AFTER the engine command
// succeeds and never before: the engine's pause state is a bare toggle, so
// persisting first would let a failed command desynchronize the label from
// the engine.
func (c *Controller) PlayPause() error {
	state, ok, err := c.store.Get()
	if err != nil {
		return errors.Wrap(err, "failed to read playback state")
	}

	switch {
	case ok && state == StatePlaying:
		if err := c.engine.PauseToggle(); err != nil {
			return err
		}
		zlog.Info().Msg("playback: paused")
		return c.store.Set(StatePaused)

	case ok && state == StatePaused:
		if err := c.engine.PauseToggle(); err != nil {
			return err
		}
		zlog.Info().Msg("playback: resumed")
		return c.store.Set(StatePlaying)

	default:
		// Never played, stopped, or an unrecognized token: start fresh.
		return c.startFresh()
	}
}

// Next handles a Next press: step the engine's sequence forward. The engine
// does not wrap around, and the persisted state is engine-driven here, so it
// stays unchanged.
func (c *Controller) Next() error {
	return c.engine.Step(1)
}

// Prev handles a Previous press: step the engine's sequence backward.
func (c *Controller) Prev() error {
	return c.engine.Step(-1)
}

// startFresh snapshots the content directory, hands the engine a new play
// sequence and starts at the first entry.
func (c *Controller) startFresh() error {
	entries, err := library.Snapshot(c.contentDir)
	if errors.Is(err, library.ErrNoContent) {
		zlog.Info().Str("dir", c.contentDir).Msg("playback: no content, ignoring play press")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to snapshot content directory")
	}

	if err := library.WritePlaylist(entries, c.playlistPath); err != nil {
		return err
	}

	if err := c.engine.LoadList(c.playlistPath, false); err != nil {
		return err
	}

	zlog.Info().Int("entries", len(entries)).Str("first", entries[0].Name).Msg("playback: started")
	return c.store.Set(StatePlaying)
}
