package settings

import "sync"

// Elevation reports whether privileged operations are available. It is
// evaluated once per process; privilege does not change mid-run.
type Elevation struct {
	once   sync.Once
	probe  func() bool
	result bool
}

// NewElevation wraps probe so it runs at most once.
func NewElevation(probe func() bool) *Elevation {
	return &Elevation{probe: probe}
}

// Fixed returns an Elevation that always reports v.
func Fixed(v bool) *Elevation {
	return NewElevation(func() bool { return v })
}

// Elevated reports the cached probe result.
func (e *Elevation) Elevated() bool {
	e.once.Do(func() { e.result = e.probe() })
	return e.result
}

// HostElevation reports whether this process runs as administrator
// (Windows) or root (Unix).
func HostElevation() *Elevation {
	return NewElevation(isAdmin)
}

// RootElevation reports root access on Android: either this process is
// root, or su grants it.
func RootElevation(r Runner) *Elevation {
	return NewElevation(func() bool {
		if isAdmin() {
			return true
		}
		_, err := r.Output("su", "-c", "true")
		return err == nil
	})
}
