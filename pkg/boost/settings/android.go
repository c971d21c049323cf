package settings

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Android settings namespaces.
const (
	NamespaceGlobal = "global"
	NamespaceSystem = "system"
	NamespaceSecure = "secure"
)

// AndroidStore writes Android settings namespaces through the settings
// command and absolute-path scopes (sysfs, procfs) as files. Every
// mutation first checks the elevation predicate and fails without
// attempting the write when root is unavailable.
type AndroidStore struct {
	run  Runner
	elev *Elevation
	log  Logger
}

// NewAndroidStore returns an AndroidStore. A nil runner uses ShellRunner
// and a nil elevation probes with RootElevation.
func NewAndroidStore(run Runner, elev *Elevation, log Logger) *AndroidStore {
	if run == nil {
		run = ShellRunner{}
	}
	if elev == nil {
		elev = RootElevation(run)
	}
	return &AndroidStore{run: run, elev: elev, log: orDiscard(log)}
}

// Elevated reports whether mutations are permitted.
func (s *AndroidStore) Elevated() bool {
	return s.elev.Elevated()
}

// Exec runs an arbitrary command with root, for callers that need an
// operation outside the key/value model. It is privilege-gated like Write.
func (s *AndroidStore) Exec(command string) (string, error) {
	if !s.Elevated() {
		return "", types.ErrPrivilege
	}
	return s.root(command)
}

func isNamespace(scope string) bool {
	switch scope {
	case NamespaceGlobal, NamespaceSystem, NamespaceSecure:
		return true
	}
	return false
}

// root runs command as root, directly when already root and via su -c
// otherwise.
func (s *AndroidStore) root(command string) (string, error) {
	if isAdmin() {
		return s.run.Output("sh", "-c", command)
	}
	return s.run.Output("su", "-c", command)
}

func (s *AndroidStore) Write(scope, key, value string) bool {
	if !s.Elevated() {
		s.log.Warn("settings write skipped", "scope", scope, "key", key, "error", types.ErrPrivilege)
		return false
	}

	var command string
	switch {
	case isNamespace(scope):
		command = fmt.Sprintf("settings put %s %s %s", scope, shellQuote(key), shellQuote(value))
	case path.IsAbs(scope):
		command = fmt.Sprintf("echo %s > %s", shellQuote(value), shellQuote(path.Join(scope, key)))
	default:
		s.log.Warn("settings write failed", "scope", scope, "key", key, "error", "unknown scope")
		return false
	}

	if _, err := s.root(command); err != nil {
		s.log.Warn("settings write failed", "scope", scope, "key", key, "error", err)
		return false
	}
	s.log.Debug("settings written", "scope", scope, "key", key, "value", value)
	return true
}

func (s *AndroidStore) Read(scope, key, def string) string {
	if v, ok := s.Lookup(scope, key); ok {
		return v
	}
	return def
}

// Lookup reads without requiring root where the platform allows it:
// settings get works for the shell user and most sysfs files are world
// readable. Root is used as a fallback for files only.
func (s *AndroidStore) Lookup(scope, key string) (string, bool) {
	switch {
	case isNamespace(scope):
		out, err := s.run.Output("settings", "get", scope, key)
		if err != nil || out == "null" {
			return "", false
		}
		return out, true
	case path.IsAbs(scope):
		p := path.Join(scope, key)
		if data, err := os.ReadFile(p); err == nil {
			return strings.TrimSpace(string(data)), true
		}
		if !s.Elevated() {
			return "", false
		}
		out, err := s.root("cat " + shellQuote(p))
		if err != nil {
			return "", false
		}
		return out, true
	}
	return "", false
}

// Delete removes a namespace value. File scopes cannot be deleted.
func (s *AndroidStore) Delete(scope, key string) bool {
	if !s.Elevated() {
		s.log.Warn("settings delete skipped", "scope", scope, "key", key, "error", types.ErrPrivilege)
		return false
	}
	if !isNamespace(scope) {
		return false
	}
	if _, err := s.root(fmt.Sprintf("settings delete %s %s", scope, shellQuote(key))); err != nil {
		s.log.Warn("settings delete failed", "scope", scope, "key", key, "error", err)
		return false
	}
	return true
}
