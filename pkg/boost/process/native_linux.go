//go:build linux

package process

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// pidfdRef holds a pidfd, which stays bound to the original process even
// after its PID is reused.
type pidfdRef struct {
	pid int32
	fd  int
	s   *sampler
}

// openNative prefers a pidfd and falls back to PID plus start time on
// kernels older than 5.3.
func openNative(ctx context.Context, pid int32) (Ref, error) {
	fd, err := unix.PidfdOpen(int(pid), 0)
	if err != nil {
		if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EPERM) {
			return openPID(ctx, pid)
		}
		return nil, &types.NativeAPIError{Op: "pidfd_open", Code: errnoOf(err), Err: err}
	}

	s, err := newSampler(ctx, pid)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &types.NativeAPIError{Op: "open", Code: int(unix.ESRCH), Err: err}
	}
	return &pidfdRef{pid: pid, fd: fd, s: s}, nil
}

func (r *pidfdRef) PID() int32 { return r.pid }

func (r *pidfdRef) Alive() bool {
	if r.fd < 0 {
		return false
	}
	err := unix.PidfdSendSignal(r.fd, 0, nil, 0)
	if err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	return !r.s.zombie(context.Background())
}

func (r *pidfdRef) Stats(ctx context.Context) (Stats, error) {
	return r.s.stats(ctx, "stat")
}

func (r *pidfdRef) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}

func setAffinity(ref Ref, mask uint64) error {
	if !ref.Alive() {
		return &types.NativeAPIError{Op: "sched_setaffinity", Code: int(unix.ESRCH), Err: unix.ESRCH}
	}
	var set unix.CPUSet
	for cpu := range 64 {
		if mask&(1<<cpu) != 0 {
			set.Set(cpu)
		}
	}
	if err := unix.SchedSetaffinity(int(ref.PID()), &set); err != nil {
		return &types.NativeAPIError{Op: "sched_setaffinity", Code: errnoOf(err), Err: err}
	}
	return nil
}
