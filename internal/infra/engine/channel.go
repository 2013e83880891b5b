// Package engine provides the one-directional control channel toward the
// external audio engine. Commands are line-oriented and fire-and-forget:
// nothing is ever read back from the engine.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// ErrNoEndpoint indicates the control endpoint does not exist. This is a
// fatal precondition for the invocation; callers must not retry.
var ErrNoEndpoint = errors.New("control endpoint does not exist")

// ErrWriteTimeout indicates the engine did not consume the command within the
// configured bound. The endpoint exists but has no active reader yet.
var ErrWriteTimeout = errors.New("control channel write timed out")

// Channel writes commands to the audio engine's control FIFO.
type Channel struct {
	endpoint     string
	writeTimeout time.Duration
}

// New creates a control channel for the given endpoint.
// writeTimeout bounds how long a single write may block waiting for the
// engine to consume it; zero means block indefinitely.
func New(endpoint string, writeTimeout time.Duration) *Channel {
	return &Channel{endpoint: endpoint, writeTimeout: writeTimeout}
}

// LoadFile replaces (or appends to, when appendMode) the engine's current
// play sequence with a single file.
func (c *Channel) LoadFile(path string, appendMode bool) error {
	return c.send(fmt.Sprintf("loadfile %s %d", Quote(path), boolFlag(appendMode)))
}

// LoadList replaces (or appends to, when appendMode) the engine's current
// play sequence with the contents of a playlist file.
func (c *Channel) LoadList(path string, appendMode bool) error {
	return c.send(fmt.Sprintf("loadlist %s %d", Quote(path), boolFlag(appendMode)))
}

// PauseToggle flips the engine between paused and playing. The engine tracks
// its pause state as a single toggle; the caller's persisted label is the
// only record of which direction this flip represents.
func (c *Channel) PauseToggle() error {
	return c.send("pause")
}

// Stop stops playback.
func (c *Channel) Stop() error {
	return c.send("stop")
}

// Step moves the play sequence position by n (typically +1 or -1). The
// engine does not wrap around at either end.
func (c *Channel) Step(n int) error {
	return c.send(fmt.Sprintf("pt_step %+d", n))
}

// WaitForEndpoint blocks until the control endpoint exists or ctx is done.
// The engine is started by its own service unit; at boot this daemon must
// not race it.
func (c *Channel) WaitForEndpoint(ctx context.Context) error {
	if _, err := os.Stat(c.endpoint); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create endpoint watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.endpoint)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(c.endpoint))
	}

	// Re-check after adding the watch: the FIFO may have appeared in between.
	if _, err := os.Stat(c.endpoint); err == nil {
		return nil
	}

	zlog.Info().Str("endpoint", c.endpoint).Msg("engine: waiting for control endpoint")
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "engine endpoint did not appear")
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("endpoint watcher closed")
			}
			if ev.Op.Has(fsnotify.Create) && ev.Name == c.endpoint {
				return nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("endpoint watcher closed")
			}
			zlog.Warn().Err(werr).Msg("engine: endpoint watcher error")
		}
	}
}

// send writes a single command line to the endpoint.
func (c *Channel) send(cmd string) error {
	if _, err := os.Stat(c.endpoint); err != nil {
		return errors.Wrapf(ErrNoEndpoint, "%s", c.endpoint)
	}

	if c.writeTimeout <= 0 {
		return c.write(cmd)
	}

	// Opening a FIFO for writing blocks until the engine opens the read end.
	// Bound that wait so a stalled engine surfaces as an error instead of
	// wedging the caller.
	done := make(chan error, 1)
	go func() {
		done <- c.write(cmd)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(c.writeTimeout):
		return errors.Wrapf(ErrWriteTimeout, "command %q", cmd)
	}
}

func (c *Channel) write(cmd string) error {
	f, err := os.OpenFile(c.endpoint, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to open control endpoint %s", c.endpoint)
	}
	defer f.Close()

	if _, err := f.WriteString(cmd + "\n"); err != nil {
		return errors.Wrapf(err, "failed to write command %q", cmd)
	}

	zlog.Debug().Str("command", cmd).Msg("engine: command sent")
	return nil
}

// Quote wraps a path argument in double quotes, escaping backslashes and
// embedded quotes so paths with spaces or quote characters cannot
// desynchronize the line protocol.
func Quote(path string) string {
	var b strings.Builder
	b.Grow(len(path) + 2)
	b.WriteByte('"')
	for _, r := range path {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func boolFlag(v bool) int {
	if v {
		return 1
	}
	return 0
}
