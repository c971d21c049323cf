package process

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Entry is one row of a process table snapshot.
type Entry struct {
	PID     int32
	PPID    int32
	Name    string
	Cmdline []string
}

// Enumerator produces a process table snapshot.
type Enumerator interface {
	Processes(ctx context.Context) ([]Entry, error)
}

// SystemEnumerator reads the host process table through gopsutil. Rows for
// processes that exit mid-enumeration are skipped.
type SystemEnumerator struct {
	// WithCmdline also reads each process's argument vector, which package
	// matching needs and name matching does not.
	WithCmdline bool
}

// Processes implements Enumerator.
func (e SystemEnumerator) Processes(ctx context.Context) ([]Entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		entry := Entry{PID: p.Pid, Name: name}
		if ppid, err := p.PpidWithContext(ctx); err == nil {
			entry.PPID = ppid
		}
		if e.WithCmdline {
			if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
				entry.Cmdline = args
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Directory finds running processes that match a name or package.
//
// ListCandidates takes a fresh snapshot on every call. No matches is an
// empty slice and a nil error. An enumeration failure is an empty slice
// and a *types.DiscoveryError. Results follow the platform's enumeration
// order, which is not stable between calls.
type Directory interface {
	ListCandidates(ctx context.Context, name string) ([]types.ProcessDescriptor, error)
}

// TableDirectory matches desktop processes by exact, case-sensitive
// executable name.
type TableDirectory struct {
	enum Enumerator
}

// NewTableDirectory returns a TableDirectory over enum, or over the host
// process table when enum is nil.
func NewTableDirectory(enum Enumerator) *TableDirectory {
	if enum == nil {
		enum = SystemEnumerator{}
	}
	return &TableDirectory{enum: enum}
}

// ListCandidates implements Directory.
func (d *TableDirectory) ListCandidates(ctx context.Context, name string) ([]types.ProcessDescriptor, error) {
	entries, err := d.enum.Processes(ctx)
	if err != nil {
		return []types.ProcessDescriptor{}, &types.DiscoveryError{Target: name, Err: err}
	}

	found := []types.ProcessDescriptor{}
	for _, e := range entries {
		if e.Name == name {
			found = append(found, types.ProcessDescriptor{PID: e.PID, Name: e.Name, ParentPID: e.PPID})
		}
	}
	return found, nil
}

// PackageDirectory matches mobile processes whose name, or first argument,
// equals an application package exactly. Sub-processes such as
// "com.example:remote" do not match.
type PackageDirectory struct {
	enum Enumerator
}

// NewPackageDirectory returns a PackageDirectory over enum, or over the
// host process table when enum is nil.
func NewPackageDirectory(enum Enumerator) *PackageDirectory {
	if enum == nil {
		enum = SystemEnumerator{WithCmdline: true}
	}
	return &PackageDirectory{enum: enum}
}

// ListCandidates implements Directory.
func (d *PackageDirectory) ListCandidates(ctx context.Context, pkg string) ([]types.ProcessDescriptor, error) {
	entries, err := d.enum.Processes(ctx)
	if err != nil {
		return []types.ProcessDescriptor{}, &types.DiscoveryError{Target: pkg, Err: err}
	}

	found := []types.ProcessDescriptor{}
	for _, e := range entries {
		if e.Name == pkg || (len(e.Cmdline) > 0 && e.Cmdline[0] == pkg) {
			found = append(found, types.ProcessDescriptor{PID: e.PID, Name: e.Name, ParentPID: e.PPID, Package: pkg})
		}
	}
	return found, nil
}

// FindFirst tries candidates in priority order and returns the first
// enumerated match of the first candidate that has any match. Later
// candidates are only consulted when earlier ones have none. The error is
// a *types.DiscoveryError naming every candidate; it wraps the last
// enumeration failure, if any.
func FindFirst(ctx context.Context, dir Directory, candidates []string) (types.ProcessDescriptor, error) {
	var failures []error
	for _, name := range candidates {
		found, err := dir.ListCandidates(ctx, name)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}

	return types.ProcessDescriptor{}, &types.DiscoveryError{
		Target: strings.Join(candidates, ", "),
		Err:    errors.Join(failures...),
	}
}

// AcquireFirst walks candidates in FindFirst order and binds h to the first
// match it can open. A match that cannot be opened (access denied, exited
// since enumeration) is skipped in favour of the next PID of the same name,
// then the next candidate. With no match at all the error is a
// *types.DiscoveryError; when matches exist but none opens it joins the
// open failures. On error h is left Unbound.
func AcquireFirst(ctx context.Context, h *Handle, dir Directory, candidates []string) (types.ProcessDescriptor, error) {
	var failures, openFailures []error
	for _, name := range candidates {
		found, err := dir.ListCandidates(ctx, name)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		for _, d := range found {
			if err := h.Acquire(ctx, d); err != nil {
				openFailures = append(openFailures, fmt.Errorf("open %s: %w", d, err))
				continue
			}
			return d, nil
		}
	}

	// Nothing opened, so any previous binding must not survive.
	if err := h.Release(); err != nil {
		openFailures = append(openFailures, err)
	}
	if len(openFailures) > 0 {
		return types.ProcessDescriptor{}, errors.Join(openFailures...)
	}
	return types.ProcessDescriptor{}, &types.DiscoveryError{
		Target: strings.Join(candidates, ", "),
		Err:    errors.Join(failures...),
	}
}
