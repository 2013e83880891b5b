package playback

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Store persists the playback state as a single token in a small file. It is
// the only state shared between button presses; every press re-reads it.
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the persisted state token. The second return is false when no
// state has been persisted since the last Clear.
func (s *Store) Get() (State, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read state file %s", s.path)
	}
	return State(strings.TrimSpace(string(data))), true, nil
}

// Set persists the state token atomically (write-then-rename), so a crash
// mid-write can never leave a torn token behind.
func (s *Store) Set(state State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	tmp, err := os.CreateTemp(dir, ".playback-state-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp state file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(state.String() + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write state")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp state file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to persist state to %s", s.path)
	}
	return nil
}

// Clear removes any persisted state. Called unconditionally at boot so the
// device always starts from "never played" and cannot auto-play on power-up.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to clear state file %s", s.path)
	}
	return nil
}
