package process

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Stats are point-in-time metrics read through a Ref.
type Stats struct {
	MemoryBytes uint64
	CPUPercent  float64
}

// Ref is a live native reference to one process: a pidfd on Linux, a
// process HANDLE on Windows, a PID plus start time elsewhere. A Ref never
// follows a recycled PID to a different process.
type Ref interface {
	PID() int32

	// Alive reports whether the referenced process is still running.
	Alive() bool

	// Stats samples resident memory and CPU use. CPU percent covers the
	// window since the previous Stats call on the same Ref; the first call
	// covers the time since the Ref was opened.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the native reference.
	Close() error
}

// Opener obtains a Ref for a discovered process.
type Opener interface {
	Open(ctx context.Context, d types.ProcessDescriptor) (Ref, error)
}

// NativeOpener opens host process references.
type NativeOpener struct{}

// Open implements Opener.
func (NativeOpener) Open(ctx context.Context, d types.ProcessDescriptor) (Ref, error) {
	return openNative(ctx, d.PID)
}

// Handle owns at most one Ref. It moves between Unbound and Bound; binding
// a new target releases the previous reference first. A Handle is not safe
// for concurrent use.
type Handle struct {
	opener Opener
	desc   types.ProcessDescriptor
	ref    Ref
}

// NewHandle returns an Unbound Handle. A nil opener uses NativeOpener.
func NewHandle(opener Opener) *Handle {
	if opener == nil {
		opener = NativeOpener{}
	}
	return &Handle{opener: opener}
}

// Acquire binds d. Any existing reference is released exactly once before
// the new one is opened, so on failure the Handle is left Unbound.
func (h *Handle) Acquire(ctx context.Context, d types.ProcessDescriptor) error {
	releaseErr := h.Release()

	ref, err := h.opener.Open(ctx, d)
	if err != nil {
		return errors.Join(err, releaseErr)
	}
	h.ref = ref
	h.desc = d
	return releaseErr
}

// Release closes the reference and returns to Unbound. Releasing an
// Unbound Handle is a no-op.
func (h *Handle) Release() error {
	if h.ref == nil {
		return nil
	}
	err := h.ref.Close()
	h.ref = nil
	h.desc = types.ProcessDescriptor{}
	return err
}

// Bound reports whether a reference is held.
func (h *Handle) Bound() bool {
	return h.ref != nil
}

// Descriptor returns the bound process, if any.
func (h *Handle) Descriptor() (types.ProcessDescriptor, bool) {
	return h.desc, h.ref != nil
}

// Ref returns the held reference, nil when Unbound.
func (h *Handle) Ref() Ref {
	return h.ref
}

// Snapshot samples the bound process. A process that has exited yields
// Running=false with zero metrics and a nil error.
func (h *Handle) Snapshot(ctx context.Context) (types.ProcessSnapshot, error) {
	if h.ref == nil {
		return types.ProcessSnapshot{}, types.ErrNoHandle
	}

	snap := types.ProcessSnapshot{ProcessDescriptor: h.desc, SampledAt: time.Now()}
	if !h.ref.Alive() {
		return snap, nil
	}

	stats, err := h.ref.Stats(ctx)
	if err != nil {
		if !h.ref.Alive() {
			return snap, nil
		}
		return types.ProcessSnapshot{}, err
	}

	snap.Running = true
	snap.MemoryBytes = stats.MemoryBytes
	snap.CPUPercent = stats.CPUPercent
	return snap, nil
}

// sampler reads metrics for one PID through gopsutil. The gopsutil
// Process keeps the previous CPU times, which gives Stats its
// since-last-call window.
type sampler struct {
	proc    *process.Process
	created int64
}

func newSampler(ctx context.Context, pid int32) (*sampler, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	created, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		created = 0
	}
	s := &sampler{proc: proc, created: created}
	// Prime the CPU window so the first Stats call measures from open.
	_, _ = proc.PercentWithContext(ctx, 0)
	return s, nil
}

// sameProcess reports whether pid still names the process that was opened.
func (s *sampler) sameProcess(ctx context.Context) bool {
	if s.created == 0 {
		return true
	}
	created, err := s.proc.CreateTimeWithContext(ctx)
	return err == nil && created == s.created
}

// zombie reports whether the process has exited but not been reaped yet.
// Signals still reach such a process, so a signal probe alone reports it
// as alive.
func (s *sampler) zombie(ctx context.Context) bool {
	status, err := s.proc.StatusWithContext(ctx)
	return err == nil && slices.Contains(status, process.Zombie)
}

func (s *sampler) stats(ctx context.Context, op string) (Stats, error) {
	mem, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Stats{}, &types.NativeAPIError{Op: op, Code: errnoOf(err), Err: err}
	}
	pct, err := s.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return Stats{}, &types.NativeAPIError{Op: op, Code: errnoOf(err), Err: err}
	}
	return Stats{MemoryBytes: mem.RSS, CPUPercent: normalizeCPU(pct, runtime.NumCPU())}, nil
}

// normalizeCPU converts gopsutil's per-core percentage (100 per busy core)
// into a 0-100 share of the whole machine.
func normalizeCPU(pct float64, cores int) float64 {
	if cores > 1 {
		pct /= float64(cores)
	}
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
