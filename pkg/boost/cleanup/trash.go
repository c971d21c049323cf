// Package cleanup removes stale temporary files. Entries are moved to the
// desktop trash where a trash tool is available and deleted otherwise.
package cleanup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yaklabco/stave/pkg/sh"
)

// Trasher disposes of one path.
type Trasher interface {
	Trash(path string) error
}

// SystemTrash moves paths to the platform trash, falling back to deletion.
type SystemTrash struct{}

// Trash implements Trasher.
func (SystemTrash) Trash(path string) error {
	return MoveToTrash(path)
}

// Delete removes paths permanently.
type Delete struct{}

// Trash implements Trasher.
func (Delete) Trash(path string) error {
	return remove(path)
}

// MoveToTrash moves a file or directory to the system trash: Finder on
// macOS, gio or trash-put on Linux. Elsewhere, or when no tool succeeds,
// the path is deleted.
func MoveToTrash(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	var attempts [][]string
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, abs)
		attempts = [][]string{{"osascript", "-e", script}}
	case "linux":
		attempts = [][]string{{"gio", "trash", abs}, {"trash-put", abs}}
	}

	for _, argv := range attempts {
		if ran, err := sh.Exec(nil, nil, io.Discard, io.Discard, argv[0], argv[1:]...); ran && err == nil {
			if _, statErr := os.Lstat(abs); os.IsNotExist(statErr) {
				return nil
			}
		}
	}
	return remove(abs)
}

func remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}
