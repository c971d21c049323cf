//go:build !windows

package settings

// NewDesktopStore returns a FileStore over the real sysfs/procfs tree.
func NewDesktopStore(log Logger) Store {
	return NewFileStore("", log)
}
