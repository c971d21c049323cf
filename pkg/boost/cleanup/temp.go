package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Result summarizes a cleanup pass.
type Result struct {
	// Removed is the number of top-level entries disposed of.
	Removed int `json:"removed" yaml:"removed"`

	// Skipped counts entries that were too new to remove.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Failed counts entries that could not be removed, usually because
	// another process holds them open.
	Failed int `json:"failed" yaml:"failed"`

	// Bytes is the total size of the removed entries.
	Bytes uint64 `json:"bytes" yaml:"bytes"`
}

// Options configures TempFiles.
type Options struct {
	// MaxAge is the minimum age of an entry's modification time.
	MaxAge time.Duration

	// Trasher disposes of entries. Nil uses SystemTrash.
	Trasher Trasher

	// DryRun measures without removing anything.
	DryRun bool

	// Now overrides the clock for tests.
	Now func() time.Time
}

// TempFiles removes entries directly under dir whose modification time is
// older than opts.MaxAge. A directory counts as one entry and its size is
// the sum of the files beneath it. Failures on individual entries are
// counted, not returned.
func TempFiles(ctx context.Context, dir string, opts Options) (Result, error) {
	if opts.Trasher == nil {
		opts.Trasher = SystemTrash{}
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().Add(-opts.MaxAge)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", dir, err)
	}

	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			res.Skipped++
			continue
		}

		path := filepath.Join(dir, e.Name())
		size := uint64(info.Size())
		if e.IsDir() {
			size, err = DirSize(ctx, path)
			if err != nil && errors.Is(err, context.Canceled) {
				return res, err
			}
		}

		if !opts.DryRun {
			if err := opts.Trasher.Trash(path); err != nil {
				res.Failed++
				continue
			}
		}
		res.Removed++
		res.Bytes += size
	}
	return res, nil
}

// DirSize sums the sizes of regular files under root. Unreadable entries
// are skipped.
func DirSize(ctx context.Context, root string) (uint64, error) {
	var total atomic.Uint64
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, root, func(_ string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil || !d.Type().IsRegular() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // entry vanished mid-walk
		}
		total.Add(uint64(info.Size()))
		return nil
	})
	return total.Load(), err
}
