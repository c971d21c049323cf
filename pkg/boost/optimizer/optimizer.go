// Package optimizer locates a target application's process and applies
// OS-level performance tweaks to it and to the host.
//
// Two backends implement the Optimizer interface: Desktop, which finds the
// target in the process table and tunes it through a native handle, and
// Mobile, which finds it by application package and tunes the device
// through root-gated settings writes. The set is closed; New switches over
// Kind exhaustively.
//
// Optimization methods never return errors. Every failure becomes a
// types.Outcome carrying a message, details and a typed Err, plus a log
// line. Snapshot is the exception and returns its error directly.
//
// An Optimizer is not safe for concurrent use.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/jamesainslie/boost/pkg/boost/cleanup"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/settings"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Kind names an Optimizer backend.
type Kind int

// Backends.
const (
	KindDesktop Kind = iota
	KindMobile
)

// ErrUnknownKind is returned for unrecognized backend names.
var ErrUnknownKind = errors.New("unknown optimizer kind")

func (k Kind) String() string {
	switch k {
	case KindDesktop:
		return "desktop"
	case KindMobile:
		return "mobile"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Platform returns the matching types.Platform.
func (k Kind) Platform() types.Platform {
	if k == KindMobile {
		return types.PlatformMobile
	}
	return types.PlatformDesktop
}

// DefaultKind picks the backend for the host OS: Mobile on Android,
// Desktop everywhere else.
func DefaultKind() Kind {
	if runtime.GOOS == "android" {
		return KindMobile
	}
	return KindDesktop
}

// ParseKind parses "desktop", "mobile" or "auto". Auto and the empty
// string resolve to DefaultKind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DefaultKind(), nil
	case "desktop", "windows", "pc":
		return KindDesktop, nil
	case "mobile", "android":
		return KindMobile, nil
	}
	return KindDesktop, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// StatusFunc receives human-readable status notifications.
type StatusFunc func(status string)

// Optimizer is the uniform contract of every backend.
type Optimizer interface {
	// Kind identifies the backend.
	Kind() Kind

	// FindTarget discovers the target process and binds it, releasing any
	// previous binding first. It reports whether a target is now bound.
	FindTarget(ctx context.Context) bool

	// Target returns the bound process, if any.
	Target() (types.ProcessDescriptor, bool)

	SetPriority(ctx context.Context) types.Outcome
	TrimMemory(ctx context.Context) types.Outcome
	ApplySystemSettings(ctx context.Context) types.Outcome

	// RestoreSettings re-applies the values ApplySystemSettings backed up.
	RestoreSettings(ctx context.Context) types.Outcome

	// CurrentSettings reads every setting ApplySystemSettings would write.
	CurrentSettings(ctx context.Context) []settings.Saved

	// Snapshot samples the bound process. It returns types.ErrNoHandle
	// when nothing is bound.
	Snapshot(ctx context.Context) (types.ProcessSnapshot, error)

	StartOptimization()
	StopOptimization()
	IsRunning() bool
	OnStatus(fn StatusFunc)
	ClearStatusCallbacks()

	// Close releases the process handle. It is safe to call more than once.
	Close() error

	notify(status string)
}

// Logger is the subset of logging.Logger the optimizers use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ConfigReader is the read side of config.Store. Missing keys yield def.
type ConfigReader interface {
	GetString(key, def string) string
	GetInt(key string, def int) int
	GetBool(key string, def bool) bool
	GetDouble(key string, def float64) float64
	GetStrings(key string, def []string) []string
}

// defaults is the ConfigReader used when none is supplied.
type defaults struct{}

func (defaults) GetString(_, def string) string { return def }
func (defaults) GetInt(_ string, def int) int { return def }
func (defaults) GetBool(_ string, def bool) bool { return def }
func (defaults) GetDouble(_ string, def float64) float64 { return def }
func (defaults) GetStrings(_ string, def []string) []string { return def }

// RootShell runs privileged commands. settings.AndroidStore implements it.
type RootShell interface {
	Elevated() bool
	Exec(command string) (string, error)
}

// Options wires an Optimizer's collaborators. Zero fields get the host
// implementation.
type Options struct {
	Logger Logger
	Config ConfigReader

	// Directory finds the target. Defaults to a TableDirectory (desktop)
	// or PackageDirectory (mobile) over the system process table.
	Directory process.Directory
	Opener    process.Opener
	Tuner     process.Tuner

	// Settings is the persistent settings backend.
	Settings settings.Store

	// BackupPath is where ApplySystemSettings saves previous values.
	// Empty disables backups.
	BackupPath string

	// MemoryProbe reports available system memory in bytes.
	MemoryProbe func(ctx context.Context) (uint64, error)

	// Runner executes unprivileged commands such as getprop. Mobile only.
	Runner settings.Runner

	// Shell executes privileged commands. Mobile only.
	Shell RootShell

	// Trasher disposes of temp entries. Desktop only.
	Trasher cleanup.Trasher

	// TempDir is the directory CleanTempFiles cleans. Defaults to os.TempDir.
	TempDir string
}

func (o Options) logger(component string) Logger {
	if o.Logger == nil {
		return logging.Discard(component)
	}
	return o.Logger
}

func (o Options) config() ConfigReader {
	if o.Config == nil {
		return defaults{}
	}
	return o.Config
}

func (o Options) tuner() process.Tuner {
	if o.Tuner == nil {
		return process.NativeTuner{}
	}
	return o.Tuner
}

// New builds the backend for kind.
func New(kind Kind, opts Options) (Optimizer, error) {
	switch kind {
	case KindDesktop:
		return NewDesktop(opts), nil
	case KindMobile:
		return NewMobile(opts), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}
