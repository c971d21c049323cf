//go:build !unix && !windows

package settings

func isAdmin() bool { return false }
