package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTrasher struct {
	paths []string
	fail  map[string]bool
}

func (r *recordingTrasher) Trash(path string) error {
	if r.fail[filepath.Base(path)] {
		return errors.New("in use")
	}
	r.paths = append(r.paths, path)
	return os.RemoveAll(path)
}

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	ts := time.Now().Add(-d)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestTempFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "old.tmp")
	require.NoError(t, os.WriteFile(oldFile, make([]byte, 100), 0o644))
	age(t, oldFile, 10*24*time.Hour)

	newFile := filepath.Join(dir, "new.tmp")
	require.NoError(t, os.WriteFile(newFile, make([]byte, 50), 0o644))

	oldDir := filepath.Join(dir, "old-dir")
	require.NoError(t, os.MkdirAll(filepath.Join(oldDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(oldDir, "a"), make([]byte, 30), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(oldDir, "nested", "b"), make([]byte, 20), 0o644))
	age(t, oldDir, 10*24*time.Hour)

	locked := filepath.Join(dir, "locked.tmp")
	require.NoError(t, os.WriteFile(locked, make([]byte, 5), 0o644))
	age(t, locked, 10*24*time.Hour)

	tr := &recordingTrasher{fail: map[string]bool{"locked.tmp": true}}
	res, err := TempFiles(context.Background(), dir, Options{MaxAge: 7 * 24 * time.Hour, Trasher: tr})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, uint64(150), res.Bytes)

	assert.NoFileExists(t, oldFile)
	assert.NoDirExists(t, oldDir)
	assert.FileExists(t, newFile)
	assert.FileExists(t, locked)
}

func TestTempFilesDryRun(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "stale")
	require.NoError(t, os.WriteFile(f, make([]byte, 10), 0o644))
	age(t, f, time.Hour)

	tr := &recordingTrasher{}
	res, err := TempFiles(context.Background(), dir, Options{MaxAge: time.Minute, Trasher: tr, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, uint64(10), res.Bytes)
	assert.Empty(t, tr.paths)
	assert.FileExists(t, f)
}

func TestTempFilesMissingDir(t *testing.T) {
	_, err := TempFiles(context.Background(), filepath.Join(t.TempDir(), "absent"), Options{})
	assert.Error(t, err)
}

func TestTempFilesCanceled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TempFiles(ctx, dir, Options{Trasher: &recordingTrasher{}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one"), make([]byte, 7), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "two"), make([]byte, 13), 0o644))

	size, err := DirSize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), size)
}

func TestDeleteTrasher(t *testing.T) {
	f := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.WriteFile(f, nil, 0o644))

	require.NoError(t, Delete{}.Trash(f))
	assert.NoFileExists(t, f)
}

func TestMoveToTrashMissing(t *testing.T) {
	err := MoveToTrash(filepath.Join(t.TempDir(), "nonexistent"))
	assert.Error(t, err)
}

func TestMoveToTrashRemovesPath(t *testing.T) {
	f := filepath.Join(t.TempDir(), "trash-me.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	require.NoError(t, MoveToTrash(f))
	assert.NoFileExists(t, f)
}
