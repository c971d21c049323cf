//go:build !unix && !windows

package process

import (
	"context"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

func openNative(context.Context, int32) (Ref, error) {
	return nil, &types.NativeAPIError{Op: "open", Err: types.ErrUnsupported}
}

func setPriority(Ref, PriorityClass) error {
	return &types.NativeAPIError{Op: "set priority", Err: types.ErrUnsupported}
}

func trimWorkingSet(Ref) error {
	return &types.NativeAPIError{Op: "trim working set", Err: types.ErrUnsupported}
}

func setAffinity(Ref, uint64) error {
	return &types.NativeAPIError{Op: "set affinity", Err: types.ErrUnsupported}
}
