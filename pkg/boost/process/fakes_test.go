package process

import (
	"context"
	"errors"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

type fakeEnumerator struct {
	entries []Entry
	err     error
	calls   int
}

func (f *fakeEnumerator) Processes(context.Context) ([]Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeRef struct {
	pid    int32
	alive  bool
	stats  Stats
	err    error
	closed int
}

func (r *fakeRef) PID() int32  { return r.pid }
func (r *fakeRef) Alive() bool { return r.alive }
func (r *fakeRef) Close() error {
	r.closed++
	return nil
}

func (r *fakeRef) Stats(context.Context) (Stats, error) {
	if r.err != nil {
		return Stats{}, r.err
	}
	return r.stats, nil
}

type fakeOpener struct {
	refs []*fakeRef
	err  error
	deny map[int32]error
}

func (o *fakeOpener) Open(_ context.Context, d types.ProcessDescriptor) (Ref, error) {
	if o.err != nil {
		return nil, o.err
	}
	if err, ok := o.deny[d.PID]; ok {
		return nil, err
	}
	ref := &fakeRef{pid: d.PID, alive: true, stats: Stats{MemoryBytes: 1 << 20, CPUPercent: 12.5}}
	o.refs = append(o.refs, ref)
	return ref, nil
}

// live counts references opened but not yet closed.
func (o *fakeOpener) live() int {
	n := 0
	for _, r := range o.refs {
		if r.closed == 0 {
			n++
		}
	}
	return n
}

var (
	errEnum   = errors.New("process table unavailable")
	errDenied = &types.NativeAPIError{Op: "OpenProcess", Code: 5, Err: errors.New("access is denied")}
)
