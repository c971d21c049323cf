// Package journal records every optimization run to the filesystem so
// past runs can be listed and inspected.
package journal

import (
	"time"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Operation names the kind of run.
type Operation string

const (
	// OpOptimize is a full auto-optimize run.
	OpOptimize Operation = "optimize"
	// OpSettingsApply applies the system settings profile.
	OpSettingsApply Operation = "settings-apply"
	// OpSettingsRestore restores backed-up settings.
	OpSettingsRestore Operation = "settings-restore"
	// OpTune is a single targeted tweak.
	OpTune Operation = "tune"
)

// Entry is one journaled run.
type Entry struct {
	ID        string                   `json:"id" yaml:"id"`
	Timestamp time.Time                `json:"timestamp" yaml:"timestamp"`
	Operation Operation                `json:"operation" yaml:"operation"`
	Platform  types.Platform           `json:"platform" yaml:"platform"`
	Target    *types.ProcessDescriptor `json:"target,omitempty" yaml:"target,omitempty"`
	Steps     []Step                   `json:"steps" yaml:"steps"`
	Summary   Summary                  `json:"summary" yaml:"summary"`
}

// Step is the recorded outcome of one step of a run.
type Step struct {
	Name    string `json:"name" yaml:"name"`
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// StepFrom converts an outcome into a journal step.
func StepFrom(name string, o types.Outcome) Step {
	return Step{Name: name, Success: o.Success, Message: o.Message, Details: o.Details}
}

// Summary counts step results.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Run describes a run to record.
type Run struct {
	Operation Operation
	Platform  types.Platform
	Target    *types.ProcessDescriptor
	Steps     []Step
}
