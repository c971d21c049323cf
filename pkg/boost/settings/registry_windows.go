//go:build windows

package settings

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
)

var registryRoots = map[string]registry.Key{
	"HKCU":                registry.CURRENT_USER,
	"HKEY_CURRENT_USER":   registry.CURRENT_USER,
	"HKLM":                registry.LOCAL_MACHINE,
	"HKEY_LOCAL_MACHINE":  registry.LOCAL_MACHINE,
	"HKCR":                registry.CLASSES_ROOT,
	"HKEY_CLASSES_ROOT":   registry.CLASSES_ROOT,
	"HKU":                 registry.USERS,
	"HKEY_USERS":          registry.USERS,
	"HKCC":                registry.CURRENT_CONFIG,
	"HKEY_CURRENT_CONFIG": registry.CURRENT_CONFIG,
}

var errUnknownHive = errors.New("unknown registry hive")

// RegistryStore maps scope to a registry key path such as
// `HKCU\Software\Microsoft\GameBar` and key to a value name. Values that
// parse as unsigned 32-bit integers are stored as REG_DWORD, everything
// else as REG_SZ.
type RegistryStore struct {
	log Logger
}

// NewRegistryStore returns a RegistryStore.
func NewRegistryStore(log Logger) *RegistryStore {
	return &RegistryStore{log: orDiscard(log)}
}

func splitScope(scope string) (registry.Key, string, error) {
	hive, rest, _ := strings.Cut(scope, `\`)
	root, ok := registryRoots[strings.ToUpper(hive)]
	if !ok {
		return 0, "", errUnknownHive
	}
	return root, rest, nil
}

func (s *RegistryStore) Write(scope, key, value string) bool {
	root, sub, err := splitScope(scope)
	if err != nil {
		s.log.Warn("registry write failed", "scope", scope, "key", key, "error", err)
		return false
	}
	k, _, err := registry.CreateKey(root, sub, registry.SET_VALUE)
	if err != nil {
		s.log.Warn("registry write failed", "scope", scope, "key", key, "error", err)
		return false
	}
	defer k.Close()

	if n, perr := strconv.ParseUint(value, 10, 32); perr == nil {
		err = k.SetDWordValue(key, uint32(n))
	} else {
		err = k.SetStringValue(key, value)
	}
	if err != nil {
		s.log.Warn("registry write failed", "scope", scope, "key", key, "error", err)
		return false
	}
	s.log.Debug("registry written", "scope", scope, "key", key, "value", value)
	return true
}

func (s *RegistryStore) Read(scope, key, def string) string {
	if v, ok := s.Lookup(scope, key); ok {
		return v
	}
	return def
}

func (s *RegistryStore) Lookup(scope, key string) (string, bool) {
	root, sub, err := splitScope(scope)
	if err != nil {
		return "", false
	}
	k, err := registry.OpenKey(root, sub, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	_, valType, err := k.GetValue(key, nil)
	if err != nil {
		return "", false
	}
	switch valType {
	case registry.DWORD, registry.QWORD:
		n, _, err := k.GetIntegerValue(key)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(n, 10), true
	case registry.SZ, registry.EXPAND_SZ:
		v, _, err := k.GetStringValue(key)
		if err != nil {
			return "", false
		}
		return v, true
	}
	return "", false
}

func (s *RegistryStore) Delete(scope, key string) bool {
	root, sub, err := splitScope(scope)
	if err != nil {
		return false
	}
	k, err := registry.OpenKey(root, sub, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return true
		}
		s.log.Warn("registry delete failed", "scope", scope, "key", key, "error", err)
		return false
	}
	defer k.Close()

	if err := k.DeleteValue(key); err != nil && !errors.Is(err, registry.ErrNotExist) {
		s.log.Warn("registry delete failed", "scope", scope, "key", key, "error", err)
		return false
	}
	return true
}

// NewDesktopStore returns the registry on Windows.
func NewDesktopStore(log Logger) Store {
	return NewRegistryStore(log)
}
