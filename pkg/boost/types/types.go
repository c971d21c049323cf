// Package types provides core data types for the boost process optimizer.
// It includes process descriptors and snapshots, optimization outcomes,
// and the error taxonomy shared by every platform backend.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Platform identifies which optimizer backend produced a value.
type Platform string

// Supported platforms.
const (
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

// ProcessDescriptor is an immutable identity snapshot of a discovered process.
// Descriptors are re-fetched from the process table, never mutated in place.
type ProcessDescriptor struct {
	// PID is the platform process identifier.
	PID int32 `json:"pid" yaml:"pid"`

	// Name is the executable (desktop) or process (mobile) name.
	Name string `json:"name" yaml:"name"`

	// ParentPID is the parent process identifier, 0 when unknown.
	ParentPID int32 `json:"parent_pid,omitempty" yaml:"parent_pid,omitempty"`

	// Package is the owning application package. Mobile only.
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
}

// String returns "name (PID: n)".
func (d ProcessDescriptor) String() string {
	name := d.Name
	if d.Package != "" && d.Package != d.Name {
		name = fmt.Sprintf("%s [%s]", d.Name, d.Package)
	}
	return fmt.Sprintf("%s (PID: %d)", name, d.PID)
}

// ProcessSnapshot combines a descriptor with point-in-time metrics.
// Snapshots are produced fresh on every query and never cached.
type ProcessSnapshot struct {
	ProcessDescriptor `yaml:",inline"`

	// MemoryBytes is the resident set (working set on Windows) in bytes.
	MemoryBytes uint64 `json:"memory_bytes" yaml:"memory_bytes"`

	// CPUPercent is utilization since the previous sample, 0-100 across all cores.
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`

	// Running is false once the underlying process has exited.
	Running bool `json:"running" yaml:"running"`

	// SampledAt is when the metrics were read.
	SampledAt time.Time `json:"sampled_at" yaml:"sampled_at"`
}

// HumanMemory returns the memory usage as a human-readable IEC string.
func (s ProcessSnapshot) HumanMemory() string {
	return FormatBytes(s.MemoryBytes)
}

// StepResult is the pass/fail record of one step inside an aggregate outcome.
type StepResult struct {
	Name    string `json:"name" yaml:"name"`
	Success bool   `json:"success" yaml:"success"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Line renders the step the way it appears in Outcome.Details.
func (r StepResult) Line() string {
	mark := "✓"
	if !r.Success {
		mark = "✗"
	}
	if r.Detail == "" {
		return fmt.Sprintf("%s %s", mark, r.Name)
	}
	return fmt.Sprintf("%s %s (%s)", mark, r.Name, r.Detail)
}

// Outcome is the success/message/detail triple returned by every
// optimization step.
type Outcome struct {
	// Success reports whether the step (or every sub-step) succeeded.
	Success bool `json:"success" yaml:"success"`

	// Message is a one-line summary. Never empty when Success is false.
	Message string `json:"message" yaml:"message"`

	// Details is free-form text, one line per sub-step for aggregate calls.
	Details string `json:"details,omitempty" yaml:"details,omitempty"`

	// Steps holds the structured per-step results of aggregate calls.
	Steps []StepResult `json:"steps,omitempty" yaml:"steps,omitempty"`

	// Err is the typed cause of a failure, for errors.Is/As checks.
	Err error `json:"-" yaml:"-"`
}

// Succeeded builds a successful outcome.
func Succeeded(message, details string) Outcome {
	return Outcome{Success: true, Message: message, Details: details}
}

// Failed builds a failed outcome. An empty message falls back to the error
// text so a failure always explains itself.
func Failed(err error, message, details string) Outcome {
	if message == "" {
		if err != nil {
			message = err.Error()
		} else {
			message = "Operation failed"
		}
	}
	if details == "" && err != nil {
		var nativeErr *NativeAPIError
		if errors.As(err, &nativeErr) {
			details = nativeErr.CodeString()
		}
	}
	return Outcome{Success: false, Message: message, Details: details, Err: err}
}

// Aggregate folds step results into one outcome. Success is the logical AND
// of every step; details list each step on its own line.
func Aggregate(steps []StepResult, okMessage, failMessage string) Outcome {
	success := true
	lines := make([]string, 0, len(steps))
	var errs []error
	for _, s := range steps {
		lines = append(lines, s.Line())
		if !s.Success {
			success = false
			errs = append(errs, fmt.Errorf("%s: %s", s.Name, s.Detail))
		}
	}

	out := Outcome{
		Success: success,
		Message: okMessage,
		Details: strings.Join(lines, "\n"),
		Steps:   steps,
	}
	if !success {
		out.Message = failMessage
		out.Err = errors.Join(errs...)
	}
	return out
}

// FormatBytes converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. "1.5 GiB".
func FormatBytes(bytes uint64) string {
	return humanize.IBytes(bytes)
}
