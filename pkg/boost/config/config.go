package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ToLogging converts the file representation into a logging.Config.
func (l LoggingConfig) ToLogging() (logging.Config, error) {
	rot := logging.RotationConfig{
		MaxAge:     l.Rotation.MaxAge,
		MaxBackups: l.Rotation.MaxBackups,
		Daily:      l.Rotation.Daily,
	}
	if l.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(l.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("parsing logging.rotation.max_size: %w", err)
		}
		rot.MaxSize = int64(size)
	}

	path, err := ExpandPath(l.Path)
	if err != nil {
		return logging.Config{}, err
	}

	return logging.Config{
		Level:      l.Level,
		Path:       path,
		Rotation:   rot,
		Components: l.Components,
	}, nil
}

// Config is the decoded configuration file.
type Config struct {
	Platform string `mapstructure:"platform"`
	Target   struct {
		DesktopNames   []string `mapstructure:"desktop_names"`
		MobilePackages []string `mapstructure:"mobile_packages"`
	} `mapstructure:"target"`
	Priority struct {
		Class string `mapstructure:"class"`
	} `mapstructure:"priority"`
	Mobile struct {
		Governor    string `mapstructure:"governor"`
		GPUGovernor string `mapstructure:"gpu_governor"`
	} `mapstructure:"mobile"`
	Backup struct {
		Enabled bool   `mapstructure:"enabled"`
		Dir     string `mapstructure:"dir"`
	} `mapstructure:"backup"`
	Monitor struct {
		Interval    time.Duration `mapstructure:"interval"`
		Record      bool          `mapstructure:"record"`
		SamplesPath string        `mapstructure:"samples_path"`
	} `mapstructure:"monitor"`
	History struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"history"`
	Cleanup struct {
		TempMaxAgeDays int `mapstructure:"temp_max_age_days"`
	} `mapstructure:"cleanup"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ConfigDir returns $XDG_CONFIG_HOME/boost, or ~/.config/boost when
// XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "boost"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "boost"), nil
}

// DefaultConfigPath returns the config.yaml path inside ConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/boost for backups, history and samples.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "boost")
}

// DefaultBackupDir returns the directory holding settings backups.
func DefaultBackupDir() string {
	return filepath.Join(DataDir(), "backups")
}

// DefaultHistoryPath returns the run journal directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultSamplesPath returns the snapshot database directory.
func DefaultSamplesPath() string {
	return filepath.Join(DataDir(), "samples")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file to path unless one
// already exists. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# boost configuration

# Optimizer backend: auto, desktop or mobile
platform: %s

# Processes to look for, highest priority first
target:
  desktop_names:
%s
  mobile_packages:
%s

# Scheduling class applied by SetPriority: normal, above_normal or high
# (realtime is accepted but clamped to high)
priority:
  class: %s

# Android tuning (requires root)
mobile:
  governor: %s
  gpu_governor: %s

# Registry and sysfs values are saved here before they are changed
backup:
  enabled: true
  dir: %s

# Live monitor
monitor:
  interval: %s
  record: false
  samples_path: %s

# Journal of optimize runs
history:
  enabled: true
  path: %s
  retention_days: %d

cleanup:
  temp_max_age_days: %d

logging:
  # debug, info, warn or error
  level: info
  # empty means $XDG_STATE_HOME/boost/boost.log
  path: ""
  rotation:
    max_size: 5MB
    max_age: 14
    max_backups: 3
    daily: true
  components:
    optimizer: info
    settings: info
    process: warn
`,
		DefaultPlatform,
		yamlList(DefaultDesktopNames, 4),
		yamlList(DefaultMobilePackages, 4),
		DefaultPriorityClass,
		DefaultGovernor, DefaultGPUGovernor,
		DefaultBackupDir(),
		DefaultMonitorInterval,
		DefaultSamplesPath(),
		DefaultHistoryPath(), DefaultRetentionDays,
		DefaultTempMaxAgeDays,
	)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}

func yamlList(items []string, indent int) string {
	pad := strings.Repeat(" ", indent)
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = pad + "- " + item
	}
	return strings.Join(lines, "\n")
}
