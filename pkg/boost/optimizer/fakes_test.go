package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

type fakeDirectory struct {
	byName map[string][]types.ProcessDescriptor
	err    error
}

func (d *fakeDirectory) ListCandidates(_ context.Context, name string) ([]types.ProcessDescriptor, error) {
	if d.err != nil {
		return []types.ProcessDescriptor{}, &types.DiscoveryError{Target: name, Err: d.err}
	}
	return d.byName[name], nil
}

func desktopTable(names ...string) *fakeDirectory {
	d := &fakeDirectory{byName: make(map[string][]types.ProcessDescriptor)}
	for i, n := range names {
		d.byName[n] = append(d.byName[n], types.ProcessDescriptor{PID: int32(100 + i), Name: n})
	}
	return d
}

type fakeRef struct {
	pid    int32
	alive  bool
	stats  process.Stats
	closed int
}

func (r *fakeRef) PID() int32  { return r.pid }
func (r *fakeRef) Alive() bool { return r.alive }
func (r *fakeRef) Close() error {
	r.closed++
	return nil
}

func (r *fakeRef) Stats(context.Context) (process.Stats, error) {
	return r.stats, nil
}

type fakeOpener struct {
	refs []*fakeRef
	deny map[int32]error
}

func (o *fakeOpener) Open(_ context.Context, d types.ProcessDescriptor) (process.Ref, error) {
	if err, ok := o.deny[d.PID]; ok {
		return nil, err
	}
	ref := &fakeRef{pid: d.PID, alive: true, stats: process.Stats{MemoryBytes: 512 << 20, CPUPercent: 40}}
	o.refs = append(o.refs, ref)
	return ref, nil
}

func (o *fakeOpener) live() int {
	n := 0
	for _, r := range o.refs {
		if r.closed == 0 {
			n++
		}
	}
	return n
}

type fakeTuner struct {
	priorities []process.PriorityClass
	trims      int
	masks      []uint64
	err        error
}

func (t *fakeTuner) SetPriority(_ process.Ref, c process.PriorityClass) error {
	t.priorities = append(t.priorities, c)
	return t.err
}

func (t *fakeTuner) TrimWorkingSet(process.Ref) error {
	t.trims++
	return t.err
}

func (t *fakeTuner) SetAffinity(_ process.Ref, mask uint64) error {
	t.masks = append(t.masks, mask)
	return t.err
}

func (t *fakeTuner) calls() int {
	return len(t.priorities) + t.trims + len(t.masks)
}

type fakeShell struct {
	elevated bool
	commands []string
	fail     map[string]bool
	errs     map[string]error
}

func (s *fakeShell) Elevated() bool { return s.elevated }

func (s *fakeShell) Exec(command string) (string, error) {
	s.commands = append(s.commands, command)
	if err, ok := s.errs[command]; ok {
		return "", err
	}
	if s.fail[command] {
		return "", errors.New("command failed")
	}
	return "", nil
}

// fakeRunner answers commands from a table keyed by the joined command line
// and records everything it was asked to run.
type fakeRunner struct {
	out   map[string]string
	calls []string
}

func (r *fakeRunner) Output(cmd string, args ...string) (string, error) {
	line := strings.TrimSpace(cmd + " " + strings.Join(args, " "))
	r.calls = append(r.calls, line)
	if v, ok := r.out[line]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: not found", cmd)
}

type fakeConfig map[string]any

func (c fakeConfig) GetString(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

func (c fakeConfig) GetInt(key string, def int) int {
	if v, ok := c[key].(int); ok {
		return v
	}
	return def
}

func (c fakeConfig) GetBool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

func (c fakeConfig) GetDouble(key string, def float64) float64 {
	if v, ok := c[key].(float64); ok {
		return v
	}
	return def
}

func (c fakeConfig) GetStrings(key string, def []string) []string {
	if v, ok := c[key].([]string); ok {
		return v
	}
	return def
}

type logLine struct {
	level string
	msg   string
}

type recordingLogger struct {
	lines []logLine
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) add(level, msg string) {
	l.lines = append(l.lines, logLine{level: level, msg: msg})
}

func (l *recordingLogger) has(level, msg string) bool {
	for _, line := range l.lines {
		if line.level == level && line.msg == msg {
			return true
		}
	}
	return false
}
