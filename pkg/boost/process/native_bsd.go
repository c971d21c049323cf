//go:build unix && !linux

package process

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

func openNative(ctx context.Context, pid int32) (Ref, error) {
	return openPID(ctx, pid)
}

// setAffinity is unavailable: macOS only offers affinity hints and the BSDs
// use cpuset APIs that x/sys does not expose uniformly.
func setAffinity(Ref, uint64) error {
	return &types.NativeAPIError{Op: "set affinity", Code: int(unix.ENOTSUP), Err: types.ErrUnsupported}
}
