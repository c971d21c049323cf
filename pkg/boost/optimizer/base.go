package optimizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/settings"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

// base holds the state every backend shares: the process handle, the
// lifecycle flag and the status callbacks.
type base struct {
	log        Logger
	cfg        ConfigReader
	handle     *process.Handle
	store      settings.Store
	backupPath string

	running   bool
	callbacks []StatusFunc
}

func newBase(opts Options, component string) base {
	return base{
		log:        opts.logger(component),
		cfg:        opts.config(),
		handle:     process.NewHandle(opts.Opener),
		store:      opts.Settings,
		backupPath: opts.BackupPath,
	}
}

// StartOptimization marks the optimizer as running. The flag is
// informational and gates nothing.
func (b *base) StartOptimization() {
	b.running = true
	b.log.Info("optimization started")
	b.notify("Optimization started")
}

// StopOptimization clears the running flag.
func (b *base) StopOptimization() {
	b.running = false
	b.log.Info("optimization stopped")
	b.notify("Optimization stopped")
}

func (b *base) IsRunning() bool {
	return b.running
}

// OnStatus registers fn for status notifications. Nil is ignored.
func (b *base) OnStatus(fn StatusFunc) {
	if fn != nil {
		b.callbacks = append(b.callbacks, fn)
	}
}

func (b *base) ClearStatusCallbacks() {
	b.callbacks = nil
}

func (b *base) notify(status string) {
	for _, fn := range b.callbacks {
		fn(status)
	}
}

func (b *base) Target() (types.ProcessDescriptor, bool) {
	return b.handle.Descriptor()
}

func (b *base) Snapshot(ctx context.Context) (types.ProcessSnapshot, error) {
	return b.handle.Snapshot(ctx)
}

func (b *base) Close() error {
	return b.handle.Release()
}

// findIn binds the first candidate match that can be opened, falling
// through to later matches when one cannot. On failure the handle is left
// Unbound.
func (b *base) findIn(ctx context.Context, dir process.Directory, candidates []string) bool {
	desc, err := process.AcquireFirst(ctx, b.handle, dir, candidates)
	if err != nil {
		if errors.Is(err, types.ErrDiscovery) {
			b.log.Warn("target process not found", "candidates", strings.Join(candidates, ", "), "error", err)
			b.notify("Target process not found")
			return false
		}
		b.log.Warn("failed to open target process", "candidates", strings.Join(candidates, ", "), "error", err)
		b.notify("Cannot open target process")
		return false
	}

	b.log.Info("found target process", "name", desc.Name, "pid", desc.PID)
	b.notify(fmt.Sprintf("Found %s", desc))
	return true
}

// write is one settings mutation.
type write struct {
	scope, key, value string
}

// step is a named group of writes reported as one line.
type step struct {
	name   string
	group  string
	writes []write
}

// Step groups, used by the targeted tweak operations.
const (
	groupGameMode   = "game_mode"
	groupVisual     = "visual"
	groupPower      = "power"
	groupGovernor   = "governor"
	groupMemory     = "memory"
	groupAnimations = "animations"
	groupBattery    = "battery"
)

func keysOf(steps []step) []settings.Key {
	var keys []settings.Key
	for _, s := range steps {
		for _, w := range s.writes {
			keys = append(keys, settings.Key{Scope: w.scope, Name: w.key})
		}
	}
	return keys
}

func filterGroup(steps []step, group string) []step {
	var out []step
	for _, s := range steps {
		if s.group == group {
			out = append(out, s)
		}
	}
	return out
}

// backup saves the current values of every key steps will write. It is
// a no-op when backups are disabled.
func (b *base) backup(steps []step) error {
	if b.backupPath == "" || !b.cfg.GetBool(config.KeyBackupEnabled, true) {
		return nil
	}
	if err := settings.BackupKeys(b.store, keysOf(steps), b.backupPath); err != nil {
		return fmt.Errorf("back up settings: %w", err)
	}
	b.log.Debug("settings backed up", "path", b.backupPath)
	return nil
}

// runSteps attempts every write of every step, in order. A step succeeds
// only if all of its writes do; a failed write never stops later ones.
func (b *base) runSteps(steps []step) []types.StepResult {
	results := make([]types.StepResult, 0, len(steps))
	for _, s := range steps {
		var failed []string
		for _, w := range s.writes {
			if !b.store.Write(w.scope, w.key, w.value) {
				failed = append(failed, w.key)
			}
		}

		res := types.StepResult{Name: s.name, Success: len(failed) == 0}
		if !res.Success {
			res.Detail = "failed: " + strings.Join(failed, ", ")
			b.log.Warn("optimization step failed", "step", s.name, "keys", res.Detail)
		} else {
			b.log.Debug("optimization step applied", "step", s.name)
		}
		results = append(results, res)
	}
	return results
}

// apply backs up and then runs steps, folding the results into one outcome.
func (b *base) apply(steps []step, okMessage, failMessage string) types.Outcome {
	if len(steps) == 0 {
		return types.Failed(types.ErrUnsupported, "Not available on this platform", "")
	}
	if err := b.backup(steps); err != nil {
		b.log.Error("settings backup failed", "error", err)
		return types.Failed(err, "Failed to back up settings", err.Error())
	}
	out := types.Aggregate(b.runSteps(steps), okMessage, failMessage)
	if out.Success {
		b.log.Info(strings.ToLower(okMessage))
	} else {
		b.log.Warn(strings.ToLower(failMessage), "details", out.Details)
	}
	return out
}

func (b *base) restore() types.Outcome {
	if b.backupPath == "" {
		return types.Failed(errors.New("backups are disabled"), "No backup configured", "")
	}
	if err := settings.Restore(b.store, b.backupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Failed(err, "No settings backup found", b.backupPath)
		}
		b.log.Warn("settings restore incomplete", "error", err)
		return types.Failed(err, "Some settings could not be restored", err.Error())
	}
	b.log.Info("settings restored", "path", b.backupPath)
	return types.Succeeded("Settings restored", "From "+b.backupPath)
}

func (b *base) current(steps []step) []settings.Saved {
	return settings.Current(b.store, keysOf(steps))
}
