// Package logging provides component loggers with file rotation for boost.
// The CLI initializes one Handle and passes it (or loggers derived from it)
// to the components it builds.
//
//	h, err := logging.Init(logging.Config{Level: "info"})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	logger := h.Get("optimizer")
//	logger.Info("target found", "pid", 4242)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a log severity.
type Level int

// Levels, least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for unrecognized level names.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a case-insensitive level name. "warning" is accepted.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
}

// Config configures a logging Handle.
type Config struct {
	// Level is the default level for every component.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	// Rotation controls rollover of Path.
	Rotation RotationConfig

	// Components overrides Level per component name.
	Components map[string]string

	// ConsoleLevel mirrors entries at or above this level to stderr.
	// Empty disables the mirror.
	ConsoleLevel string

	// TUIMode suppresses the console mirror and keeps a LogBuffer for the
	// monitor's log pane.
	TUIMode bool
}

// DefaultLogPath returns $XDG_STATE_HOME/boost/boost.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "boost", "boost.log")
}

// DefaultConfig returns info-level file logging with default rotation.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}

// LogEntry is what subscribers and the buffer receive for each log call.
type LogEntry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Logger writes one component's entries to the log file, the optional
// console mirror, and the owning Handle's subscribers.
type Logger struct {
	file      *log.Logger
	console   *log.Logger
	component string
	owner     *Handle
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.emit(LevelInfo, msg, args) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.emit(LevelWarn, msg, args) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }

// With returns a logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	child := &Logger{
		file:      l.file.With(keyvals...),
		component: l.component,
		owner:     l.owner,
	}
	if l.console != nil {
		child.console = l.console.With(keyvals...)
	}
	return child
}

// Component returns the component name.
func (l *Logger) Component() string { return l.component }

func (l *Logger) emit(level Level, msg string, args []any) {
	write(l.file, level, msg, args)
	if l.console != nil {
		write(l.console, level, msg, args)
	}
	if l.owner != nil {
		l.owner.publish(LogEntry{Time: time.Now(), Level: level, Component: l.component, Message: msg})
	}
}

func write(lg *log.Logger, level Level, msg string, args []any) {
	switch level {
	case LevelDebug:
		lg.Debug(msg, args...)
	case LevelInfo:
		lg.Info(msg, args...)
	case LevelWarn:
		lg.Warn(msg, args...)
	case LevelError:
		lg.Error(msg, args...)
	}
}

// Discard returns a logger that writes nowhere. Library code falls back to
// it when the caller supplies no logger.
func Discard(component string) *Logger {
	return &Logger{
		file:      log.NewWithOptions(io.Discard, log.Options{Prefix: component}),
		component: component,
	}
}

// Handle owns the log file and the set of component loggers built on it.
// It is safe for concurrent use.
type Handle struct {
	mu          sync.RWMutex
	closed      bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	consoleLvl  Level
	loggers     map[string]*Logger
	subscribers map[chan LogEntry]struct{}
	buffer      *LogBuffer
}

// Init opens the log file and returns a Handle. A failure here is one of
// the few errors the CLI treats as fatal.
func Init(cfg Config) (*Handle, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	h := &Handle{
		level:       level,
		components:  make(map[string]Level, len(cfg.Components)),
		loggers:     make(map[string]*Logger),
		subscribers: make(map[chan LogEntry]struct{}),
	}

	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		h.components[comp] = parsed
	}

	if cfg.ConsoleLevel != "" && !cfg.TUIMode {
		h.consoleLvl, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return nil, fmt.Errorf("parsing console level: %w", err)
		}
		h.console = true
	}
	if cfg.TUIMode {
		h.buffer = NewLogBuffer(DefaultBufferSize)
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	h.writer, err = NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return nil, fmt.Errorf("creating log writer: %w", err)
	}

	return h, nil
}

// Get returns the logger for component, creating it on first use.
func (h *Handle) Get(component string) *Logger {
	h.mu.RLock()
	lg, ok := h.loggers[component]
	closed := h.closed
	h.mu.RUnlock()
	if ok {
		return lg
	}
	if closed {
		return Discard(component)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if lg, ok := h.loggers[component]; ok {
		return lg
	}
	lg = h.build(component)
	h.loggers[component] = lg
	return lg
}

// build must be called with h.mu held.
func (h *Handle) build(component string) *Logger {
	level := h.level
	if override, ok := h.components[component]; ok {
		level = override
	}

	lg := &Logger{
		file: log.NewWithOptions(h.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
		component: component,
		owner:     h,
	}
	if h.console {
		lg.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           h.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		})
	}
	return lg
}

// Path returns the log file path.
func (h *Handle) Path() string {
	return h.writer.Path()
}

// Buffer returns the TUI ring buffer, nil outside TUI mode.
func (h *Handle) Buffer() *LogBuffer {
	return h.buffer
}

// Subscribe returns a channel fed with every subsequent entry. Entries are
// dropped rather than blocking the logger when the channel is full.
func (h *Handle) Subscribe() <-chan LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan LogEntry, 64)
	if h.closed {
		close(ch)
		return ch
	}
	h.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops feeding ch. The channel is left open for the caller to drain.
func (h *Handle) Unsubscribe(ch <-chan LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		if sub == ch {
			delete(h.subscribers, sub)
			return
		}
	}
}

func (h *Handle) publish(e LogEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.buffer != nil {
		h.buffer.Add(e)
	}
	for ch := range h.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes subscriber channels and the log file. Loggers obtained
// earlier keep working but their file writes fail silently.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, ch)
	}
	h.loggers = make(map[string]*Logger)
	if err := h.writer.Close(); err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}
