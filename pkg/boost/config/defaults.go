// Package config provides configuration management for boost.
package config

import "time"

// Configuration keys. Nested keys use viper's dotted form; the matching
// environment variable is BOOST_ plus the key with dots replaced by
// underscores, e.g. BOOST_PRIORITY_CLASS.
const (
	KeyPlatform          = "platform"
	KeyDesktopNames      = "target.desktop_names"
	KeyMobilePackages    = "target.mobile_packages"
	KeyPriorityClass     = "priority.class"
	KeyMobileGovernor    = "mobile.governor"
	KeyMobileGPUGovernor = "mobile.gpu_governor"
	KeyBackupEnabled     = "backup.enabled"
	KeyBackupDir         = "backup.dir"
	KeyMonitorInterval   = "monitor.interval"
	KeyMonitorRecord     = "monitor.record"
	KeySamplesPath       = "monitor.samples_path"
	KeyHistoryEnabled    = "history.enabled"
	KeyHistoryPath       = "history.path"
	KeyHistoryRetention  = "history.retention_days"
	KeyTempMaxAgeDays    = "cleanup.temp_max_age_days"
)

// Default configuration values.
const (
	// DefaultPlatform picks the backend from the host OS.
	DefaultPlatform = "auto"

	// DefaultPriorityClass is the class SetPriority raises the target to.
	DefaultPriorityClass = "high"

	// DefaultGovernor is the CPU frequency governor applied on mobile.
	DefaultGovernor = "performance"

	// DefaultGPUGovernor is the Adreno devfreq governor applied on mobile.
	DefaultGPUGovernor = "performance"

	// DefaultMonitorInterval is the live monitor refresh period.
	DefaultMonitorInterval = 2 * time.Second

	// DefaultRetentionDays is how long run journal entries are kept.
	DefaultRetentionDays = 30

	// DefaultTempMaxAgeDays is the minimum age of temp entries CleanTempFiles removes.
	DefaultTempMaxAgeDays = 7
)

// DefaultDesktopNames are the executable names searched for, highest
// priority first.
var DefaultDesktopNames = []string{
	"RobloxPlayerBeta.exe",
	"Roblox.exe",
	"RobloxStudioBeta.exe",
}

// DefaultMobilePackages are the primary and alternate application packages.
var DefaultMobilePackages = []string{
	"com.roblox.client",
	"com.roblox.RobloxStudio",
}
