// Package oplog provides the caregiver-facing operation log: an append-only,
// timestamped record of content and media events, kept separate from the
// daemon's own log so it stays readable after the fact.
package oplog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Log writes operation events to an append-only file.
type Log struct {
	logger zerolog.Logger
	closer io.Closer
}

// Open opens (creating if needed) the operation log at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create operation log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open operation log")
	}
	return &Log{
		logger: zerolog.New(f).With().Timestamp().Logger(),
		closer: f,
	}, nil
}

// NewNop returns a Log that discards all events.
func NewNop() *Log {
	return &Log{logger: zerolog.Nop()}
}

// Added records a file imported into the content library.
func (l *Log) Added(name string) {
	l.logger.Info().Str("event", "added").Str("file", name).Send()
}

// Deleted records a file removed from the content library.
func (l *Log) Deleted(name string) {
	l.logger.Info().Str("event", "deleted").Str("file", name).Send()
}

// Mounted records a removable volume being mounted.
func (l *Log) Mounted(device, target string) {
	l.logger.Info().Str("event", "mounted").Str("device", device).Str("target", target).Send()
}

// Unmounted records a removable volume being unmounted.
func (l *Log) Unmounted(device string) {
	l.logger.Info().Str("event", "unmounted").Str("device", device).Send()
}

// RebootTriggered records an honored reboot sentinel.
func (l *Log) RebootTriggered() {
	l.logger.Info().Str("event", "reboot_triggered").Send()
}

// Note records a free-form operational message.
func (l *Log) Note(msg string) {
	l.logger.Info().Str("event", "note").Msg(msg)
}

// Error records a failed operation.
func (l *Log) Error(stage string, err error) {
	l.logger.Error().Str("event", "error").Str("stage", stage).Err(err).Send()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
