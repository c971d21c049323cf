package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store is a mutex-guarded view over one viper instance. The file is read
// lazily on first access. Several optimizers and the monitor may share a
// Store, so every method takes the lock.
type Store struct {
	mu      sync.Mutex
	v       *viper.Viper
	file    string
	loaded  bool
	loadErr error
}

// New returns a Store that will read cfgFile, or the default config search
// path when cfgFile is empty, on first access.
func New(cfgFile string) *Store {
	return &Store{v: newViper(cfgFile), file: cfgFile}
}

// Load returns a Store whose file has already been read. A missing config
// file is not an error; an unreadable or malformed one is.
func Load(cfgFile string) (*Store, error) {
	s := New(cfgFile)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

func newViper(cfgFile string) *viper.Viper {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("BOOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPlatform, DefaultPlatform)
	v.SetDefault(KeyDesktopNames, DefaultDesktopNames)
	v.SetDefault(KeyMobilePackages, DefaultMobilePackages)
	v.SetDefault(KeyPriorityClass, DefaultPriorityClass)
	v.SetDefault(KeyMobileGovernor, DefaultGovernor)
	v.SetDefault(KeyMobileGPUGovernor, DefaultGPUGovernor)
	v.SetDefault(KeyBackupEnabled, true)
	v.SetDefault(KeyBackupDir, DefaultBackupDir())
	v.SetDefault(KeyMonitorInterval, DefaultMonitorInterval)
	v.SetDefault(KeyMonitorRecord, false)
	v.SetDefault(KeySamplesPath, DefaultSamplesPath())
	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyHistoryPath, DefaultHistoryPath())
	v.SetDefault(KeyHistoryRetention, DefaultRetentionDays)
	v.SetDefault(KeyTempMaxAgeDays, DefaultTempMaxAgeDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "5MB")
	v.SetDefault("logging.rotation.max_age", 14)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"optimizer": "info",
		"settings":  "info",
		"process":   "warn",
	})
}

// ensure reads the config file once. Must be called with s.mu held.
func (s *Store) ensure() error {
	if s.loaded {
		return s.loadErr
	}
	s.loaded = true

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case s.file != "" && errors.Is(err, os.ErrNotExist):
			// An explicit path that doesn't exist yet is created by Save.
		default:
			s.loadErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return s.loadErr
}

// raw returns the value for key and whether any source defines it. Read
// failures fall back to "not set" so getters return the caller's default.
func (s *Store) raw(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensure() != nil || !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}

// GetString returns key as a string, or def when unset or not coercible.
func (s *Store) GetString(key, def string) string {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	str, err := cast.ToStringE(val)
	if err != nil {
		return def
	}
	return str
}

// GetInt returns key as an int, or def when unset or not coercible.
func (s *Store) GetInt(key string, def int) int {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		return def
	}
	return n
}

// GetBool returns key as a bool, or def when unset or not coercible. In
// addition to strconv.ParseBool forms, yes/no and on/off are accepted.
func (s *Store) GetBool(key string, def bool) bool {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	if str, isStr := val.(string); isStr {
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return def
	}
	return b
}

// GetDouble returns key as a float64, or def when unset or not coercible.
func (s *Store) GetDouble(key string, def float64) float64 {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(val)
	if err != nil {
		return def
	}
	return f
}

// GetStrings returns key as a string slice. A comma-separated string, as
// set through the environment, is split.
func (s *Store) GetStrings(key string, def []string) []string {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	if str, isStr := val.(string); isStr {
		var out []string
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return def
		}
		return out
	}
	list, err := cast.ToStringSliceE(val)
	if err != nil || len(list) == 0 {
		return def
	}
	return list
}

// GetDuration returns key as a duration, or def when unset, not
// coercible, or not positive.
func (s *Store) GetDuration(key string, def time.Duration) time.Duration {
	val, ok := s.raw(key)
	if !ok {
		return def
	}
	d, err := cast.ToDurationE(val)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (s *Store) set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensure()
	s.v.Set(key, value)
}

// SetString overrides key for the lifetime of the Store. Save persists it.
func (s *Store) SetString(key, value string) { s.set(key, value) }

// SetInt overrides key for the lifetime of the Store.
func (s *Store) SetInt(key string, value int) { s.set(key, value) }

// SetBool overrides key for the lifetime of the Store.
func (s *Store) SetBool(key string, value bool) { s.set(key, value) }

// SetDouble overrides key for the lifetime of the Store.
func (s *Store) SetDouble(key string, value float64) { s.set(key, value) }

// BindFlag makes a command-line flag override key whenever the flag was
// set explicitly.
func (s *Store) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.BindPFlag(key, flag)
}

// Save writes the merged configuration to the file in use, or to the
// default config path when none was read.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.v.ConfigFileUsed()
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Unmarshal decodes every setting into a Config.
func (s *Store) Unmarshal() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensure(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// AllSettings returns the merged settings map.
func (s *Store) AllSettings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensure()
	return s.v.AllSettings()
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (s *Store) ConfigFileUsed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.ensure()
	return s.v.ConfigFileUsed()
}

// OnChange calls fn after the config file changes on disk. It reports
// false when no file is in use and there is nothing to watch.
func (s *Store) OnChange(fn func(fsnotify.Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensure() != nil || s.v.ConfigFileUsed() == "" {
		return false
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.mu.Lock()
		// WatchConfig has already re-read the file.
		s.loaded, s.loadErr = true, nil
		s.mu.Unlock()
		fn(e)
	})
	s.v.WatchConfig()
	return true
}
