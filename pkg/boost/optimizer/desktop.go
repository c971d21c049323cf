package optimizer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/cleanup"
	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/settings"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Desktop finds the target in the process table by executable name and
// tunes it through a native process handle.
type Desktop struct {
	base
	dir     process.Directory
	tuner   process.Tuner
	steps   []step
	trasher cleanup.Trasher
	tempDir string
}

// NewDesktop builds a Desktop optimizer.
func NewDesktop(opts Options) *Desktop {
	b := newBase(opts, "desktop")
	if b.store == nil {
		b.store = settings.NewDesktopStore(b.log)
	}
	dir := opts.Directory
	if dir == nil {
		dir = process.NewTableDirectory(nil)
	}
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Desktop{
		base:    b,
		dir:     dir,
		tuner:   opts.tuner(),
		steps:   desktopProfile(b.cfg),
		trasher: opts.Trasher,
		tempDir: tempDir,
	}
}

func (d *Desktop) Kind() Kind { return KindDesktop }

// FindTarget searches the configured executable names in priority order.
func (d *Desktop) FindTarget(ctx context.Context) bool {
	names := d.cfg.GetStrings(config.KeyDesktopNames, config.DefaultDesktopNames)
	return d.findIn(ctx, d.dir, names)
}

// SetPriority raises the target to the configured class. Realtime is
// lowered to high.
func (d *Desktop) SetPriority(_ context.Context) types.Outcome {
	ref := d.handle.Ref()
	if ref == nil {
		return types.Failed(types.ErrNoHandle, "No process handle available", "")
	}

	name := d.cfg.GetString(config.KeyPriorityClass, config.DefaultPriorityClass)
	class, err := process.ParsePriorityClass(name)
	if err != nil {
		d.log.Warn("invalid priority class, using high", "class", name)
		class = process.PriorityHigh
	}
	if capped, clamped := class.Capped(); clamped {
		d.log.Warn("realtime priority is not applied, using high instead")
		class = capped
	}

	if err := d.tuner.SetPriority(ref, class); err != nil {
		d.log.Error("failed to set process priority", "pid", ref.PID(), "error", err)
		return types.Failed(err, "Failed to set process priority", "")
	}
	d.log.Info("process priority optimized", "pid", ref.PID(), "class", class.String())
	return types.Succeeded("Process priority optimized", "Set to "+class.NativeName())
}

// TrimMemory asks the OS to page out the target's working set.
func (d *Desktop) TrimMemory(ctx context.Context) types.Outcome {
	ref := d.handle.Ref()
	if ref == nil {
		return types.Failed(types.ErrNoHandle, "No process handle available", "")
	}

	before, _ := d.handle.Snapshot(ctx)
	if err := d.tuner.TrimWorkingSet(ref); err != nil {
		d.log.Error("failed to trim working set", "pid", ref.PID(), "error", err)
		return types.Failed(err, "Failed to optimize memory", "")
	}
	after, _ := d.handle.Snapshot(ctx)

	details := "Working set trimmed"
	if before.Running && after.Running {
		details = fmt.Sprintf("Working set trimmed: %s -> %s", before.HumanMemory(), after.HumanMemory())
	}
	d.log.Info("memory optimized", "pid", ref.PID(), "before", before.MemoryBytes, "after", after.MemoryBytes)
	return types.Succeeded("Memory optimized", details)
}

// ApplySystemSettings backs up and applies the host's settings profile.
func (d *Desktop) ApplySystemSettings(_ context.Context) types.Outcome {
	return d.apply(d.steps, "System settings optimized", "Some optimizations failed")
}

func (d *Desktop) RestoreSettings(_ context.Context) types.Outcome {
	return d.restore()
}

func (d *Desktop) CurrentSettings(_ context.Context) []settings.Saved {
	return d.current(d.steps)
}

// SetAffinity pins the target to the CPUs set in mask.
func (d *Desktop) SetAffinity(_ context.Context, mask uint64) types.Outcome {
	ref := d.handle.Ref()
	if ref == nil {
		return types.Failed(types.ErrNoHandle, "No process handle available", "")
	}
	if err := d.tuner.SetAffinity(ref, mask); err != nil {
		d.log.Error("failed to set cpu affinity", "pid", ref.PID(), "mask", mask, "error", err)
		return types.Failed(err, "Failed to set CPU affinity", "")
	}
	d.log.Info("cpu affinity set", "pid", ref.PID(), "cpus", process.FormatCPUMask(mask))
	return types.Succeeded("CPU affinity set", "CPUs "+process.FormatCPUMask(mask))
}

// OptimizeGameMode enables the OS game mode and disables background capture.
func (d *Desktop) OptimizeGameMode(_ context.Context) types.Outcome {
	return d.apply(filterGroup(d.steps, groupGameMode), "Game mode optimized", "Game mode optimization failed")
}

// OptimizeVisualEffects switches the shell to its performance appearance.
func (d *Desktop) OptimizeVisualEffects(_ context.Context) types.Outcome {
	return d.apply(filterGroup(d.steps, groupVisual), "Visual effects optimized", "Visual effects optimization failed")
}

// CleanTempFiles moves temp entries older than the configured age to the
// trash and reports the space reclaimed.
func (d *Desktop) CleanTempFiles(ctx context.Context) types.Outcome {
	days := d.cfg.GetInt(config.KeyTempMaxAgeDays, config.DefaultTempMaxAgeDays)
	res, err := cleanup.TempFiles(ctx, d.tempDir, cleanup.Options{
		MaxAge:  time.Duration(days) * 24 * time.Hour,
		Trasher: d.trasher,
	})
	if err != nil {
		d.log.Error("temp cleanup failed", "dir", d.tempDir, "error", err)
		return types.Failed(err, "Failed to clean temporary files", "")
	}

	details := fmt.Sprintf("Removed %d entries (%s)", res.Removed, types.FormatBytes(res.Bytes))
	if res.Failed > 0 {
		details += fmt.Sprintf(", %d in use", res.Failed)
	}
	d.log.Info("temp files cleaned", "dir", d.tempDir, "removed", res.Removed, "bytes", res.Bytes, "failed", res.Failed)
	return types.Succeeded("Temporary files cleaned", details)
}
