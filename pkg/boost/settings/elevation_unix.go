//go:build unix

package settings

import "golang.org/x/sys/unix"

func isAdmin() bool {
	return unix.Geteuid() == 0
}
