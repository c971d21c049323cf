//go:build windows

package settings

import "golang.org/x/sys/windows"

func isAdmin() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
