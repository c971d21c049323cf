package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/settings"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

const (
	vmScope     = "/proc/sys/vm"
	gpuScope    = "/sys/class/kgsl/kgsl-3d0/devfreq"
	governorKey = "scaling_governor"
)

// Commands issued through the root shell.
const (
	performanceModeCmd = "cmd power set-fixed-performance-mode-enabled true"
	trimCachesCmd      = "pm trim-caches 999G"
	dropCachesCmd      = "echo 3 > " + vmScope + "/drop_caches"
)

// exitStatus returns the exit status carried by a failed root command, or
// -1 when the command never ran.
func exitStatus(err error) int {
	var cmdErr *settings.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Status
	}
	return -1
}

// cpuScope is the cpufreq sysfs directory of one core.
func cpuScope(cpu int) string {
	return fmt.Sprintf("/sys/devices/system/cpu/cpu%d/cpufreq", cpu)
}

// governorWrites sets the scaling governor of every core.
func governorWrites(governor string) []write {
	writes := make([]write, 0, runtime.NumCPU())
	for cpu := range runtime.NumCPU() {
		writes = append(writes, write{cpuScope(cpu), governorKey, governor})
	}
	return writes
}

// DeviceInfo describes an Android device.
type DeviceInfo struct {
	Brand   string `json:"brand" yaml:"brand"`
	Model   string `json:"model" yaml:"model"`
	Release string `json:"release" yaml:"release"`
	SDK     string `json:"sdk" yaml:"sdk"`
	Rooted  bool   `json:"rooted" yaml:"rooted"`
}

// Mobile finds the target by application package and tunes the device
// through root-gated settings writes. Without root every mutating step
// fails without being attempted; discovery and Snapshot still work.
type Mobile struct {
	base
	dir    process.Directory
	tuner  process.Tuner
	shell  RootShell
	runner settings.Runner
	memory func(ctx context.Context) (uint64, error)
}

// NewMobile builds a Mobile optimizer.
func NewMobile(opts Options) *Mobile {
	b := newBase(opts, "mobile")

	runner := opts.Runner
	if runner == nil {
		runner = settings.ShellRunner{}
	}
	var android *settings.AndroidStore
	if b.store == nil || opts.Shell == nil {
		android = settings.NewAndroidStore(runner, nil, b.log)
	}
	if b.store == nil {
		b.store = android
	}
	shell := opts.Shell
	if shell == nil {
		shell = android
	}

	dir := opts.Directory
	if dir == nil {
		dir = process.NewPackageDirectory(nil)
	}
	memory := opts.MemoryProbe
	if memory == nil {
		memory = sysinfo.AvailableMemory
	}

	return &Mobile{
		base:   b,
		dir:    dir,
		tuner:  opts.tuner(),
		shell:  shell,
		runner: runner,
		memory: memory,
	}
}

func (m *Mobile) Kind() Kind { return KindMobile }

// FindTarget searches the primary package, then the alternate.
func (m *Mobile) FindTarget(ctx context.Context) bool {
	pkgs := m.cfg.GetStrings(config.KeyMobilePackages, config.DefaultMobilePackages)
	return m.findIn(ctx, m.dir, pkgs)
}

func (m *Mobile) requireRoot(what string) (types.Outcome, bool) {
	if m.shell.Elevated() {
		return types.Outcome{}, true
	}
	m.log.Warn("root access required", "operation", what)
	return types.Failed(types.ErrPrivilege, "Root access required", what+" needs root access"), false
}

// SetPriority enables the device's fixed performance mode and raises the
// target's scheduling priority. Both steps are attempted.
func (m *Mobile) SetPriority(_ context.Context) types.Outcome {
	ref := m.handle.Ref()
	if ref == nil {
		return types.Failed(types.ErrNoHandle, "No process handle available", "")
	}
	if out, ok := m.requireRoot("Performance mode"); !ok {
		return out
	}

	steps := make([]types.StepResult, 0, 2)

	perf := types.StepResult{Name: "Performance mode", Success: true}
	if _, err := m.shell.Exec(performanceModeCmd); err != nil {
		perf.Success = false
		perf.Detail = err.Error()
		m.log.Warn("performance mode request failed", "error", err)
	}
	steps = append(steps, perf)

	class, _ := process.PriorityHigh.Capped()
	sched := types.StepResult{Name: "Scheduling priority", Success: true}
	if err := m.tuner.SetPriority(ref, class); err != nil {
		sched.Success = false
		sched.Detail = err.Error()
		m.log.Warn("failed to raise scheduling priority", "pid", ref.PID(), "error", err)
	}
	steps = append(steps, sched)

	return types.Aggregate(steps, "Process priority optimized", "Failed to set process priority")
}

// TrimMemory drops the kernel page cache. It acts on the whole device and
// needs no bound target.
func (m *Mobile) TrimMemory(ctx context.Context) types.Outcome {
	if out, ok := m.requireRoot("Memory trim"); !ok {
		return out
	}

	before, beforeErr := m.memory(ctx)
	if _, err := m.shell.Exec("sync"); err != nil {
		m.log.Debug("sync failed", "error", err)
	}
	if _, err := m.shell.Exec(dropCachesCmd); err != nil {
		nativeErr := &types.NativeAPIError{Op: "drop_caches", Code: exitStatus(err), Err: err}
		m.log.Error("failed to drop caches", "error", err)
		return types.Failed(nativeErr, "Failed to optimize memory", "")
	}
	after, afterErr := m.memory(ctx)

	details := "Caches dropped"
	if beforeErr == nil && afterErr == nil {
		details = fmt.Sprintf("Available memory: %s -> %s", types.FormatBytes(before), types.FormatBytes(after))
	}
	m.log.Info("memory optimized", "available_before", before, "available_after", after)
	return types.Succeeded("Memory optimized", details)
}

func (m *Mobile) profile() []step {
	governor := m.cfg.GetString(config.KeyMobileGovernor, config.DefaultGovernor)
	return []step{
		{name: "CPU governor", group: groupGovernor, writes: governorWrites(governor)},
		{name: "Animations disabled", group: groupAnimations, writes: []write{
			{settings.NamespaceGlobal, "window_animation_scale", "0"},
			{settings.NamespaceGlobal, "transition_animation_scale", "0"},
			{settings.NamespaceGlobal, "animator_duration_scale", "0"},
		}},
		{name: "Battery optimization", group: groupBattery, writes: []write{
			{settings.NamespaceGlobal, "low_power", "0"},
			{settings.NamespaceSystem, "screen_brightness_mode", "0"},
		}},
	}
}

// ApplySystemSettings sets the CPU governor, disables animations and turns
// off power saving. Every step is attempted.
func (m *Mobile) ApplySystemSettings(_ context.Context) types.Outcome {
	return m.apply(m.profile(), "System settings optimized", "Some optimizations failed")
}

func (m *Mobile) RestoreSettings(_ context.Context) types.Outcome {
	return m.restore()
}

func (m *Mobile) CurrentSettings(_ context.Context) []settings.Saved {
	return m.current(m.profile())
}

// OptimizeCPUGovernor applies the configured governor to every core and
// reports the one it replaced.
func (m *Mobile) OptimizeCPUGovernor(_ context.Context) types.Outcome {
	previous := m.store.Read(cpuScope(0), governorKey, "unknown")
	out := m.apply(filterGroup(m.profile(), groupGovernor), "CPU governor optimized", "Failed to set CPU governor")
	if out.Success {
		governor := m.cfg.GetString(config.KeyMobileGovernor, config.DefaultGovernor)
		out.Details = fmt.Sprintf("%s -> %s", previous, governor)
	}
	return out
}

// OptimizeGPUFrequency sets the Adreno devfreq governor.
func (m *Mobile) OptimizeGPUFrequency(_ context.Context) types.Outcome {
	governor := m.cfg.GetString(config.KeyMobileGPUGovernor, config.DefaultGPUGovernor)
	gpu := []step{{name: "GPU governor", writes: []write{{gpuScope, "governor", governor}}}}
	return m.apply(gpu, "GPU frequency optimized", "Failed to set GPU governor")
}

// ClearCache asks the package manager to trim every application cache.
func (m *Mobile) ClearCache(_ context.Context) types.Outcome {
	if out, ok := m.requireRoot("Cache clearing"); !ok {
		return out
	}
	if _, err := m.shell.Exec(trimCachesCmd); err != nil {
		m.log.Error("failed to trim caches", "error", err)
		return types.Failed(err, "Failed to clear cache", err.Error())
	}
	m.log.Info("application caches trimmed")
	return types.Succeeded("Cache cleared", "Application caches trimmed")
}

// OptimizeBattery turns off battery saver and adaptive brightness.
func (m *Mobile) OptimizeBattery(_ context.Context) types.Outcome {
	return m.apply(filterGroup(m.profile(), groupBattery), "Battery settings optimized", "Battery optimization failed")
}

// SystemInfo reads device properties. Unreadable properties are empty.
func (m *Mobile) SystemInfo(_ context.Context) DeviceInfo {
	prop := func(name string) string {
		out, err := m.runner.Output("getprop", name)
		if err != nil {
			m.log.Debug("getprop failed", "property", name, "error", err)
			return ""
		}
		return strings.TrimSpace(out)
	}
	return DeviceInfo{
		Brand:   prop("ro.product.brand"),
		Model:   prop("ro.product.model"),
		Release: prop("ro.build.version.release"),
		SDK:     prop("ro.build.version.sdk"),
		Rooted:  m.shell.Elevated(),
	}
}
