// Package manifest implements the caregiver-facing library manifest: a plain
// text file on the removable volume with an Inventory section regenerated on
// every sync pass and a Deletion section the caregiver edits by hand.
package manifest

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	inventoryHeader = "Inventory:"
	deletionHeader  = "Deletion:"
)

// ParseDeletions scans a caregiver-edited manifest and returns the file
// names requested for deletion. Lines belong to whichever section header was
// most recently seen (case-insensitive prefix match). Inside the Deletion
// section, blank lines and lines starting with "." or "#" are ignored; every
// other line is an exact file name. A scan error returns what was parsed so
// far together with the error; callers log and carry on.
func ParseDeletions(r io.Reader) ([]string, error) {
	var deletions []string
	section := ""

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "inventory"):
			section = "inventory"
			continue
		case strings.HasPrefix(lower, "deletion"):
			section = "deletion"
			continue
		}

		if line == "" || section != "deletion" {
			continue
		}
		if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "#") {
			continue
		}
		deletions = append(deletions, line)
	}

	if err := sc.Err(); err != nil {
		return deletions, errors.Wrap(err, "failed to scan manifest")
	}
	return deletions, nil
}

// Write writes a fresh manifest: the full Inventory followed by an
// always-present, empty Deletion section for the caregiver to fill in.
func Write(w io.Writer, names []string) error {
	var b strings.Builder
	b.WriteString(inventoryHeader + "\n")
	for _, name := range names {
		b.WriteString(name + "\n")
	}
	b.WriteString("\n" + deletionHeader + "\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}
	return nil
}

// Load reads the deletion requests from the manifest at path. An absent
// manifest means no deletions.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer f.Close()

	return ParseDeletions(f)
}

// Save rewrites the manifest at path with the given inventory.
func Save(path string, names []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return errors.Wrapf(err, "failed to create manifest %s", path)
	}

	if err := Write(f, names); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to finish manifest %s", path)
}
