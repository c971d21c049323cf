package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	fail    map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, fail: map[string]bool{}}
}

// key is the command line with a leading "sh -c" or "su -c" removed, so
// expectations don't depend on whether the test runs as root.
func (r *fakeRunner) key(cmd string, args []string) string {
	if (cmd == "su" || cmd == "sh") && len(args) == 2 && args[0] == "-c" {
		return args[1]
	}
	return strings.Join(append([]string{cmd}, args...), " ")
}

func (r *fakeRunner) Output(cmd string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{cmd}, args...))
	k := r.key(cmd, args)
	if r.fail[k] {
		return "", &CommandError{Cmd: cmd, Status: 1, Stderr: "denied"}
	}
	return r.outputs[k], nil
}

func (r *fakeRunner) ran(line string) bool {
	for _, c := range r.calls {
		if r.key(c[0], c[1:]) == line {
			return true
		}
	}
	return false
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	assert.Equal(t, "def", s.Read("HKCU", "A", "def"))
	assert.True(t, s.Write("HKCU", "A", "1"))
	assert.Equal(t, "1", s.Read("HKCU", "A", "def"))
	assert.Equal(t, []string{"A"}, s.Keys("HKCU"))

	assert.True(t, s.Delete("HKCU", "A"))
	_, ok := s.Lookup("HKCU", "A")
	assert.False(t, ok)

	s.Fail("HKLM")
	assert.False(t, s.Write("HKLM", "B", "1"))
	assert.False(t, s.Delete("HKLM", "B"))
	assert.Equal(t, 2, s.Writes())
}

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	scope := "/sys/devices/system/cpu/cpu0/cpufreq"
	require.NoError(t, os.MkdirAll(filepath.Join(root, scope), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, scope, "scaling_governor"), []byte("schedutil\n"), 0o644))

	s := NewFileStore(root, nil)

	assert.Equal(t, "schedutil", s.Read(scope, "scaling_governor", ""))
	assert.True(t, s.Write(scope, "scaling_governor", "performance"))
	assert.Equal(t, "performance", s.Read(scope, "scaling_governor", ""))

	assert.Equal(t, "fallback", s.Read(scope, "missing", "fallback"))
	assert.False(t, s.Write("/no/such/dir", "value", "1"))

	assert.True(t, s.Delete(scope, "scaling_governor"))
	assert.True(t, s.Delete(scope, "scaling_governor"))
	_, ok := s.Lookup(scope, "scaling_governor")
	assert.False(t, ok)
}

func TestElevationProbesOnce(t *testing.T) {
	var calls atomic.Int32
	e := NewElevation(func() bool {
		calls.Add(1)
		return true
	})

	assert.True(t, e.Elevated())
	assert.True(t, e.Elevated())
	assert.Equal(t, int32(1), calls.Load())

	assert.False(t, Fixed(false).Elevated())
}

func TestRootElevationUsesSu(t *testing.T) {
	if isAdmin() {
		t.Skip("running as root; su is never consulted")
	}
	r := newFakeRunner()
	assert.True(t, RootElevation(r).Elevated())
	assert.True(t, r.ran("true"))

	r = newFakeRunner()
	r.fail["true"] = true
	assert.False(t, RootElevation(r).Elevated())
}

func TestAndroidStoreUnrootedNeverWrites(t *testing.T) {
	r := newFakeRunner()
	s := NewAndroidStore(r, Fixed(false), nil)

	assert.False(t, s.Write(NamespaceGlobal, "window_animation_scale", "0"))
	assert.False(t, s.Write("/sys/devices/system/cpu/cpu0/cpufreq", "scaling_governor", "performance"))
	assert.False(t, s.Delete(NamespaceGlobal, "low_power"))
	assert.Empty(t, r.calls)

	_, err := s.Exec("cmd power set-fixed-performance-mode-enabled true")
	assert.ErrorIs(t, err, types.ErrPrivilege)
	assert.Empty(t, r.calls)
}

func TestAndroidStoreNamespaceWrite(t *testing.T) {
	r := newFakeRunner()
	s := NewAndroidStore(r, Fixed(true), nil)

	assert.True(t, s.Write(NamespaceGlobal, "window_animation_scale", "0"))
	assert.True(t, r.ran("settings put global 'window_animation_scale' '0'"))

	r.fail["settings put system 'screen_brightness_mode' '0'"] = true
	assert.False(t, s.Write(NamespaceSystem, "screen_brightness_mode", "0"))

	assert.False(t, s.Write("relative/scope", "k", "v"))
}

func TestAndroidStoreFileWrite(t *testing.T) {
	r := newFakeRunner()
	s := NewAndroidStore(r, Fixed(true), nil)

	assert.True(t, s.Write("/proc/sys/vm", "drop_caches", "3"))
	assert.True(t, r.ran("echo '3' > '/proc/sys/vm/drop_caches'"))
}

func TestAndroidStoreLookup(t *testing.T) {
	r := newFakeRunner()
	r.outputs["settings get global low_power"] = "1"
	r.outputs["settings get global unset_key"] = "null"
	s := NewAndroidStore(r, Fixed(false), nil)

	assert.Equal(t, "1", s.Read(NamespaceGlobal, "low_power", "0"))
	assert.Equal(t, "def", s.Read(NamespaceGlobal, "unset_key", "def"))
	assert.Equal(t, "def", s.Read("not-a-scope", "x", "def"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "governor"), []byte("msm-adreno-tz\n"), 0o644))
	assert.Equal(t, "msm-adreno-tz", s.Read(filepath.ToSlash(dir), "governor", ""))

	// Unreadable file without root falls back to the default.
	assert.Equal(t, "def", s.Read(filepath.ToSlash(dir), "absent", "def"))
}

func TestAndroidStoreDelete(t *testing.T) {
	r := newFakeRunner()
	s := NewAndroidStore(r, Fixed(true), nil)

	assert.True(t, s.Delete(NamespaceSecure, "some_key"))
	assert.True(t, r.ran("settings delete secure 'some_key'"))
	assert.False(t, s.Delete("/proc/sys/vm", "drop_caches"))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestCommandError(t *testing.T) {
	err := &CommandError{Cmd: "su", Status: 1, Stderr: "permission denied"}
	assert.Equal(t, "su exited with status 1: permission denied", err.Error())
	assert.Equal(t, "su exited with status 1", (&CommandError{Cmd: "su", Status: 1}).Error())

	var ce *CommandError
	assert.True(t, errors.As(error(err), &ce))
}

func TestShellRunner(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no POSIX shell available")
	}
	out, err := ShellRunner{}.Output("sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = ShellRunner{}.Output("sh", "-c", "echo oops >&2; exit 3")
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Status)
	assert.Equal(t, "oops", ce.Stderr)

	_, err = ShellRunner{}.Output("boost-no-such-command")
	assert.Error(t, err)
}
