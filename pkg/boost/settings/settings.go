// Package settings reads and writes persistent system settings: the
// Windows registry, Android settings namespaces, and sysfs/procfs tunables.
//
// Stores are best-effort. Write and Delete report failure as false and
// Read falls back to the caller's default; errors are logged, never
// returned, and never panic past the Store boundary.
package settings

import (
	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// Store is a persistent key/value settings backend. Scope selects a
// container (a registry key, an Android namespace, a directory) and key
// names a value inside it.
type Store interface {
	Write(scope, key, value string) bool
	Read(scope, key, def string) string
	Delete(scope, key string) bool
}

// Lookuper is implemented by stores that can tell an absent value apart
// from one equal to the default.
type Lookuper interface {
	Lookup(scope, key string) (string, bool)
}

// Logger is the subset of logging.Logger the stores use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

func orDiscard(log Logger) Logger {
	if log == nil {
		return logging.Discard("settings")
	}
	return log
}

// lookup reads a value and whether it exists, using Lookuper when the store
// provides it and a sentinel default otherwise.
func lookup(s Store, scope, key string) (string, bool) {
	if l, ok := s.(Lookuper); ok {
		return l.Lookup(scope, key)
	}
	const absent = "\x00boost-absent\x00"
	v := s.Read(scope, key, absent)
	if v == absent {
		return "", false
	}
	return v, true
}
