//go:build unix

package process

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// pidRef identifies a process by PID plus start time. Liveness probes with
// signal 0 and rejects a PID that has been recycled or a zombie.
type pidRef struct {
	pid int32
	s   *sampler
}

func openPID(ctx context.Context, pid int32) (*pidRef, error) {
	s, err := newSampler(ctx, pid)
	if err != nil {
		return nil, &types.NativeAPIError{Op: "open", Code: int(unix.ESRCH), Err: err}
	}
	return &pidRef{pid: pid, s: s}, nil
}

func (r *pidRef) PID() int32 { return r.pid }

func (r *pidRef) Alive() bool {
	err := unix.Kill(int(r.pid), 0)
	if err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	ctx := context.Background()
	return r.s.sameProcess(ctx) && !r.s.zombie(ctx)
}

func (r *pidRef) Stats(ctx context.Context) (Stats, error) {
	return r.s.stats(ctx, "stat")
}

func (r *pidRef) Close() error { return nil }

func setPriority(ref Ref, class PriorityClass) error {
	if !ref.Alive() {
		return &types.NativeAPIError{Op: "setpriority", Code: int(unix.ESRCH), Err: unix.ESRCH}
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, int(ref.PID()), niceValue(class)); err != nil {
		return &types.NativeAPIError{Op: "setpriority", Code: errnoOf(err), Err: err}
	}
	return nil
}

// trimWorkingSet has no per-process equivalent on Unix kernels.
func trimWorkingSet(Ref) error {
	return &types.NativeAPIError{Op: "trim working set", Code: int(unix.ENOTSUP), Err: types.ErrUnsupported}
}
