// Package library provides the on-device content library: directory
// snapshots for playback and the add/remove operations used by the
// removable-media synchronizer.
package library

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoContent indicates the content directory holds no playable entries.
// Callers must treat a playback (re)load as a no-op.
var ErrNoContent = errors.New("no playable content")

// Entry represents a single playable file.
type Entry struct {
	Path string // Absolute path
	Name string // File name
}

// Snapshot enumerates the non-hidden regular files directly in dir, in the
// order the filesystem returns them. The order is deliberately not sorted:
// playback order is the enumeration order. Entries that vanish mid-scan are
// tolerated; this is a best-effort single pass.
func Snapshot(dir string) ([]Entry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open content directory %s", dir)
	}
	defer f.Close()

	// File.ReadDir (unlike os.ReadDir) does not sort.
	dirents, err := f.ReadDir(-1)
	if err != nil && len(dirents) == 0 {
		return nil, errors.Wrapf(err, "failed to read content directory %s", dir)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		if !include(de) {
			continue
		}
		entries = append(entries, Entry{
			Path: filepath.Join(dir, de.Name()),
			Name: de.Name(),
		})
	}

	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrNoContent, "%s", dir)
	}
	return entries, nil
}

// Names returns the sorted names of all playable files in dir. An absent or
// empty directory yields an empty slice; this feeds the manifest Inventory,
// which must always be writable.
func Names(dir string) ([]string, error) {
	entries, err := Snapshot(dir)
	if errors.Is(err, ErrNoContent) || errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names, nil
}

// WritePlaylist writes the play sequence to path, one entry path per line.
// The resulting file is what gets handed to the audio engine.
func WritePlaylist(entries []Entry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create playlist directory")
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Path)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "failed to write playlist %s", path)
	}
	return nil
}

// CopyIn copies src into dir, overwriting any same-named file. The source is
// left in place so the operation stays idempotent on repeated insertion.
func CopyIn(src, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create content directory %s", dir)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", src)
	}

	dst := filepath.Join(dir, filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to finish copy of %s", src)
	}
	return nil
}

// Remove deletes the file with the given name from dir. Returns false when
// no such file exists; requesting deletion of an absent name is not an error.
func Remove(name, dir string) (bool, error) {
	target := filepath.Join(dir, name)
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to delete %s", target)
	}
	return true, nil
}

// include reports whether a directory entry belongs in the library: regular
// files only, excluding hidden names and macOS "._" sidecar files (both
// start with a dot, but the sidecar prefix is called out because removable
// media written on macOS is the common case here).
func include(de os.DirEntry) bool {
	name := de.Name()
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "._") {
		return false
	}
	return de.Type().IsRegular()
}
