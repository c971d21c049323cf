package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/samples"
	"github.com/jamesainslie/boost/pkg/boost/settings"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

func TestLoggingConfig(t *testing.T) {
	base := config.LoggingConfig{
		Level: "info",
		Path:  "/tmp/boost.log",
		Rotation: config.RotationConfig{
			MaxSize:    "10MB",
			MaxAge:     7,
			MaxBackups: 2,
		},
	}

	tests := []struct {
		name         string
		verbose      bool
		quiet        bool
		tui          bool
		level        string
		consoleLevel string
		tuiMode      bool
	}{
		{name: "default mirrors errors", level: "info", consoleLevel: "error"},
		{name: "verbose", verbose: true, level: "debug", consoleLevel: "debug"},
		{name: "quiet", quiet: true, level: "info", consoleLevel: ""},
		{name: "tui wins over verbose", verbose: true, tui: true, level: "info", consoleLevel: "", tuiMode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loggingConfig(base, tt.verbose, tt.quiet, tt.tui)
			require.NoError(t, err)
			assert.Equal(t, tt.level, cfg.Level)
			assert.Equal(t, tt.consoleLevel, cfg.ConsoleLevel)
			assert.Equal(t, tt.tuiMode, cfg.TUIMode)
			assert.Equal(t, "/tmp/boost.log", cfg.Path)
			assert.Equal(t, int64(10*1024*1024), cfg.Rotation.MaxSize)
		})
	}

	t.Run("invalid rotation size", func(t *testing.T) {
		bad := base
		bad.Rotation.MaxSize = "lots"
		_, err := loggingConfig(bad, false, false, false)
		assert.Error(t, err)
	})
}

func TestResolveFormat(t *testing.T) {
	assert.Equal(t, "json", resolveFormat("pretty", true))
	assert.Equal(t, "yaml", resolveFormat("yaml", false))
	assert.Equal(t, "pretty", resolveFormat("", false))
}

func TestBackupPathFor(t *testing.T) {
	dir := t.TempDir()
	store := config.New(filepath.Join(dir, "missing.yaml"))
	store.SetString(config.KeyBackupDir, dir)

	path, err := backupPathFor(store, optimizer.KindMobile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mobile.json"), path)
}

func TestSampleInterval(t *testing.T) {
	store := config.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, config.DefaultMonitorInterval, sampleInterval(0, store))
	assert.Equal(t, 5*time.Second, sampleInterval(5*time.Second, store))

	store.SetString(config.KeyMonitorInterval, "500ms")
	assert.Equal(t, 500*time.Millisecond, sampleInterval(0, store))
}

func TestRenderHonorsFormatFlags(t *testing.T) {
	t.Cleanup(func() { outputFormat, jsonOutput, quiet = "pretty", false, false })

	r := &output.Result{
		Title:    "Boost",
		Platform: types.PlatformDesktop,
		Outcomes: []output.Item{item("Priority", types.Succeeded("Process priority optimized", "Set to HIGH_PRIORITY_CLASS"))},
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	outputFormat, jsonOutput = "plain", true
	require.NoError(t, render(cmd, r))
	assert.Contains(t, buf.String(), `"message": "Process priority optimized"`)

	buf.Reset()
	outputFormat, jsonOutput = "plain", false
	require.NoError(t, render(cmd, r))
	assert.Contains(t, buf.String(), "Process priority optimized")
	assert.NotContains(t, buf.String(), `"message"`)

	buf.Reset()
	quiet = true
	require.NoError(t, render(cmd, r))
	assert.Empty(t, buf.String(), "quiet hides successful text output")

	buf.Reset()
	outputFormat = "xml"
	quiet = false
	assert.Error(t, render(cmd, r))
}

func TestSettingsTable(t *testing.T) {
	saved := []settings.Saved{
		{Key: settings.Key{Scope: "/proc/sys/vm", Name: "swappiness"}, Value: "60", Present: true},
		{Key: settings.Key{Scope: "global", Name: "low_power"}},
	}
	table := settingsTable(saved)

	assert.Equal(t, []string{"SCOPE", "KEY", "VALUE"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"/proc/sys/vm", "swappiness", "60"}, table.Rows[0])
	assert.Equal(t, "(unset)", table.Rows[1][2])
}

func TestBackupStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desktop.json")
	assert.Equal(t, "none", backupStatus(path))

	store := settings.NewMemoryStore()
	store.Write("vm", "swappiness", "60")
	require.NoError(t, settings.Backup(store, "vm", []string{"swappiness"}, path))
	assert.Contains(t, backupStatus(path), "1 values")
}

func TestHistoryTable(t *testing.T) {
	entries := []journal.Entry{
		{
			ID:        "optimize-2026-10-15T10-30-00-0f8e6c1a-5b1f-4d0e-9c57-7a3c2b1d0e9f",
			Timestamp: time.Now().Add(-time.Hour),
			Operation: journal.OpOptimize,
			Target:    &types.ProcessDescriptor{PID: 42, Name: "RobloxPlayerBeta.exe"},
			Summary:   journal.Summary{Total: 3, Succeeded: 2, Failed: 1},
		},
		{ID: "tune-x", Timestamp: time.Now(), Operation: journal.OpTune},
	}
	table := historyTable(entries)

	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0][0], 40, "long IDs are truncated")
	assert.Equal(t, "1 hour ago", table.Rows[0][1])
	assert.Equal(t, "RobloxPlayerBeta.exe", table.Rows[0][3])
	assert.Equal(t, "2/3 ok", table.Rows[0][4])
	assert.Equal(t, "-", table.Rows[1][3])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}

func TestFlatten(t *testing.T) {
	fields := flatten("", map[string]any{
		"platform": "auto",
		"target": map[string]any{
			"desktop_names": []any{"RobloxPlayerBeta.exe", "Roblox.exe"},
		},
		"backup": map[string]any{"enabled": true},
	})

	require.Len(t, fields, 3)
	assert.Equal(t, output.Field{Label: "backup.enabled", Value: "true"}, fields[0])
	assert.Equal(t, output.Field{Label: "platform", Value: "auto"}, fields[1])
	assert.Equal(t, output.Field{Label: "target.desktop_names", Value: "RobloxPlayerBeta.exe, Roblox.exe"}, fields[2])
}

func TestHostInfoFields(t *testing.T) {
	info := hostInfo{
		Platform:  types.PlatformMobile,
		Host:      sysinfo.Host{OS: "android", Arch: "arm64", KernelVersion: "5.10"},
		Resources: sysinfo.Resources{CPUCores: 8, TotalRAM: 8 << 30, AvailableRAM: 3 << 30, UsedPercent: 62.5},
		Device:    &optimizer.DeviceInfo{Brand: "google", Model: "Pixel 8", Release: "14", SDK: "34", Rooted: true},
	}

	byLabel := map[string]string{}
	for _, f := range info.fields() {
		byLabel[f.Label] = f.Value
	}
	assert.Equal(t, "mobile", byLabel["Backend"])
	assert.Equal(t, "android/arm64", byLabel["OS"])
	assert.Equal(t, "8", byLabel["CPU cores"])
	assert.Equal(t, "8.0 GiB total, 3.0 GiB available", byLabel["Memory"])
	assert.Equal(t, "62.5%", byLabel["Memory used"])
	assert.Equal(t, "google Pixel 8", byLabel["Device"])
	assert.Equal(t, "14 (SDK 34)", byLabel["Android"])
	assert.Equal(t, "true", byLabel["Rooted"])
	assert.NotContains(t, byLabel, "Hostname")
}

func TestSummaryFields(t *testing.T) {
	start := time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)
	fields := summaryFields(samples.Summary{
		Count:    1200,
		First:    start,
		Last:     start.Add(40 * time.Minute),
		Timespan: 40 * time.Minute,
		AvgRSS:   1 << 30,
		PeakRSS:  2 << 30,
		AvgCPU:   12.34,
		PeakCPU:  80,
		Downtime: 3,
	})

	byLabel := map[string]string{}
	for _, f := range fields {
		byLabel[f.Label] = f.Value
	}
	assert.Equal(t, "1,200", byLabel["Samples"])
	assert.Equal(t, "40m0s", byLabel["Span"])
	assert.Equal(t, "avg 1.0 GiB, peak 2.0 GiB", byLabel["Memory"])
	assert.Equal(t, "avg 12.3%, peak 80.0%", byLabel["CPU"])
	assert.Equal(t, "3 samples", byLabel["Not running"])
}

func TestTweakBackends(t *testing.T) {
	byUse := map[string]tweak{}
	for _, tw := range tweaks {
		byUse[tw.use] = tw
	}

	assert.Equal(t, "all platforms", byUse["priority"].backends())
	assert.Equal(t, "desktop", byUse["affinity <cpus>"].backends())
	assert.Equal(t, "mobile", byUse["governor"].backends())
	assert.True(t, byUse["memory"].target)
	assert.False(t, byUse["battery"].target)
}

func TestCommandTree(t *testing.T) {
	want := []string{"optimize", "settings", "monitor", "status", "info", "tune", "history", "samples", "config", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, path := range [][]string{
		{"settings", "apply"}, {"settings", "restore"}, {"settings", "show"},
		{"tune", "affinity"}, {"tune", "clean-temp"}, {"tune", "governor"}, {"tune", "gpu"},
		{"history", "show"}, {"history", "clean"},
		{"samples", "list"}, {"samples", "summary"}, {"samples", "prune"},
		{"config", "show"}, {"config", "set"}, {"config", "init"}, {"config", "path"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSkipBootstrapAnnotations(t *testing.T) {
	for _, cmd := range []*cobra.Command{versionCmd, configInitCmd, configPathCmd, configEditCmd} {
		assert.NotEmpty(t, cmd.Annotations[skipBootstrap], cmd.Name())
	}
	assert.Empty(t, optimizeCmd.Annotations[skipBootstrap])
}

func TestWantsTUI(t *testing.T) {
	t.Cleanup(func() { monitorPlain, outputFormat = false, "pretty" })

	assert.True(t, wantsTUI(monitorCmd))
	assert.False(t, wantsTUI(statusCmd))

	monitorPlain = true
	assert.False(t, wantsTUI(monitorCmd))

	monitorPlain, outputFormat = false, "json"
	assert.False(t, wantsTUI(monitorCmd))
}
