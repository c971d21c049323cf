package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileStore treats scope as a directory and key as a file inside it, the
// layout of sysfs and procfs tunables such as
// /sys/devices/system/cpu/cpu0/cpufreq/scaling_governor.
type FileStore struct {
	root string
	log  Logger
}

// NewFileStore returns a FileStore. A non-empty root is prefixed to every
// scope, which lets tests point the store at a temporary tree.
func NewFileStore(root string, log Logger) *FileStore {
	return &FileStore{root: root, log: orDiscard(log)}
}

func (s *FileStore) path(scope, key string) string {
	return filepath.Join(s.root, scope, key)
}

func (s *FileStore) Write(scope, key, value string) bool {
	p := s.path(scope, key)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		s.log.Warn("settings write failed", "path", p, "error", err)
		return false
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		s.log.Warn("settings write failed", "path", p, "error", err)
		return false
	}
	s.log.Debug("settings written", "path", p, "value", value)
	return true
}

func (s *FileStore) Read(scope, key, def string) string {
	if v, ok := s.Lookup(scope, key); ok {
		return v
	}
	return def
}

func (s *FileStore) Lookup(scope, key string) (string, bool) {
	data, err := os.ReadFile(s.path(scope, key))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Delete removes the file. Kernel tunables cannot be removed, so Delete on
// them fails and the caller should write the previous value instead.
func (s *FileStore) Delete(scope, key string) bool {
	p := s.path(scope, key)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		s.log.Warn("settings delete failed", "path", p, "error", err)
		return false
	}
	return true
}
