package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupVersion is the current backup file format.
const BackupVersion = 1

// Key addresses one setting.
type Key struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
}

// Saved is the value a setting had before boost changed it. Present=false
// records that the value did not exist, so Restore deletes it.
type Saved struct {
	Key
	Value   string `json:"value,omitempty"`
	Present bool   `json:"present"`
}

// BackupFile is the on-disk backup document.
type BackupFile struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Saved   `json:"entries"`
}

// Backup records the current values of keys in scope to path. See BackupKeys.
func Backup(store Store, scope string, keys []string, path string) error {
	ks := make([]Key, len(keys))
	for i, k := range keys {
		ks[i] = Key{Scope: scope, Name: k}
	}
	return BackupKeys(store, ks, path)
}

// BackupKeys records the current values of keys to path before they are
// overwritten. Keys already recorded in an existing backup keep their
// original value, so repeated runs never capture boost's own writes.
func BackupKeys(store Store, keys []Key, path string) error {
	now := time.Now().UTC()
	doc, err := LoadBackup(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		doc = &BackupFile{Version: BackupVersion, CreatedAt: now}
	case err != nil:
		return err
	}

	known := make(map[Key]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		known[e.Key] = true
	}

	added := 0
	for _, k := range keys {
		if known[k] {
			continue
		}
		v, ok := lookup(store, k.Scope, k.Name)
		doc.Entries = append(doc.Entries, Saved{Key: k, Value: v, Present: ok})
		known[k] = true
		added++
	}
	if added == 0 && err == nil {
		return nil
	}

	doc.UpdatedAt = now
	return writeBackup(path, doc)
}

// Current reads the present value of every key, recording absence.
func Current(store Store, keys []Key) []Saved {
	out := make([]Saved, 0, len(keys))
	for _, k := range keys {
		v, ok := lookup(store, k.Scope, k.Name)
		out = append(out, Saved{Key: k, Value: v, Present: ok})
	}
	return out
}

// LoadBackup reads a backup file. A missing file yields an error matching
// os.ErrNotExist.
func LoadBackup(path string) (*BackupFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc BackupFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse backup %s: %w", path, err)
	}
	if doc.Version > BackupVersion {
		return nil, fmt.Errorf("backup %s has unsupported version %d", path, doc.Version)
	}
	return &doc, nil
}

// Restore re-applies every saved value: present values are written back
// and absent ones deleted. It is idempotent and leaves the backup file in
// place. Every entry is attempted; the error lists those that failed.
func Restore(store Store, path string) error {
	doc, err := LoadBackup(path)
	if err != nil {
		return err
	}

	var errs []error
	for _, e := range doc.Entries {
		if e.Present {
			if cur, ok := lookup(store, e.Scope, e.Name); ok && cur == e.Value {
				continue
			}
			if !store.Write(e.Scope, e.Name, e.Value) {
				errs = append(errs, fmt.Errorf("restore %s\\%s", e.Scope, e.Name))
			}
			continue
		}
		if _, ok := lookup(store, e.Scope, e.Name); !ok {
			continue
		}
		if !store.Delete(e.Scope, e.Name) {
			errs = append(errs, fmt.Errorf("delete %s\\%s", e.Scope, e.Name))
		}
	}
	return errors.Join(errs...)
}

func writeBackup(path string, doc *BackupFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
