//go:build windows

package process

import (
	"context"
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

const (
	stillActive = 259

	processAccess = windows.PROCESS_QUERY_INFORMATION |
		windows.PROCESS_SET_INFORMATION |
		windows.PROCESS_SET_QUOTA |
		windows.SYNCHRONIZE
)

// Affinity calls are not wrapped by x/sys/windows.
var (
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procGetProcessAffinityMask = kernel32.NewProc("GetProcessAffinityMask")
	procSetProcessAffinityMask = kernel32.NewProc("SetProcessAffinityMask")
)

// handleRef owns a process HANDLE, which pins the process object so the
// PID cannot be recycled while it is open.
type handleRef struct {
	pid int32
	h   windows.Handle
	s   *sampler
}

func openNative(ctx context.Context, pid int32) (Ref, error) {
	h, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return nil, &types.NativeAPIError{Op: "OpenProcess", Code: errnoOf(err), Err: err}
	}
	s, err := newSampler(ctx, pid)
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, &types.NativeAPIError{Op: "OpenProcess", Code: int(windows.ERROR_INVALID_PARAMETER), Err: err}
	}
	return &handleRef{pid: pid, h: h, s: s}, nil
}

func (r *handleRef) PID() int32 { return r.pid }

func (r *handleRef) Alive() bool {
	if r.h == 0 {
		return false
	}
	var code uint32
	if err := windows.GetExitCodeProcess(r.h, &code); err != nil {
		return false
	}
	return code == stillActive
}

func (r *handleRef) Stats(ctx context.Context) (Stats, error) {
	return r.s.stats(ctx, "GetProcessMemoryInfo")
}

func (r *handleRef) Close() error {
	if r.h == 0 {
		return nil
	}
	err := windows.CloseHandle(r.h)
	r.h = 0
	return err
}

func handleOf(ref Ref, op string) (windows.Handle, error) {
	hr, ok := ref.(*handleRef)
	if !ok || hr.h == 0 {
		return 0, &types.NativeAPIError{Op: op, Code: int(windows.ERROR_INVALID_HANDLE), Err: windows.ERROR_INVALID_HANDLE}
	}
	return hr.h, nil
}

// call invokes a BOOL-returning kernel32 procedure and converts a FALSE
// return into a NativeAPIError carrying GetLastError.
func call(proc *windows.LazyProc, op string, args ...uintptr) error {
	if err := proc.Find(); err != nil {
		return &types.NativeAPIError{Op: op, Code: int(windows.ERROR_PROC_NOT_FOUND), Err: err}
	}
	ret, _, err := proc.Call(args...)
	if ret != 0 {
		return nil
	}
	var errno windows.Errno
	if !errors.As(err, &errno) {
		return &types.NativeAPIError{Op: op, Err: err}
	}
	return &types.NativeAPIError{Op: op, Code: int(errno), Err: errno}
}

// nativePriorityClass maps a class to its Win32 priority class.
func nativePriorityClass(class PriorityClass) uint32 {
	switch class {
	case PriorityAboveNormal:
		return windows.ABOVE_NORMAL_PRIORITY_CLASS
	case PriorityHigh, PriorityRealtime:
		return windows.HIGH_PRIORITY_CLASS
	}
	return windows.NORMAL_PRIORITY_CLASS
}

func setPriority(ref Ref, class PriorityClass) error {
	h, err := handleOf(ref, "SetPriorityClass")
	if err != nil {
		return err
	}
	if err := windows.SetPriorityClass(h, nativePriorityClass(class)); err != nil {
		return &types.NativeAPIError{Op: "SetPriorityClass", Code: errnoOf(err), Err: err}
	}
	return nil
}

// trimWorkingSet passes (SIZE_T)-1 for both bounds, which asks the memory
// manager to page out as much of the working set as possible.
func trimWorkingSet(ref Ref) error {
	h, err := handleOf(ref, "SetProcessWorkingSetSize")
	if err != nil {
		return err
	}
	if err := windows.SetProcessWorkingSetSizeEx(h, ^uintptr(0), ^uintptr(0), 0); err != nil {
		return &types.NativeAPIError{Op: "SetProcessWorkingSetSize", Code: errnoOf(err), Err: err}
	}
	return nil
}

func setAffinity(ref Ref, mask uint64) error {
	h, err := handleOf(ref, "SetProcessAffinityMask")
	if err != nil {
		return err
	}
	var procMask, sysMask uintptr
	if err := call(procGetProcessAffinityMask, "GetProcessAffinityMask",
		uintptr(h), uintptr(unsafe.Pointer(&procMask)), uintptr(unsafe.Pointer(&sysMask))); err != nil {
		return err
	}
	effective := uintptr(mask) & sysMask
	if effective == 0 {
		return &types.NativeAPIError{Op: "SetProcessAffinityMask", Code: int(windows.ERROR_INVALID_PARAMETER), Err: ErrInvalidMask}
	}
	return call(procSetProcessAffinityMask, "SetProcessAffinityMask", uintptr(h), effective)
}
