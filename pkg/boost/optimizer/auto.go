package optimizer

import (
	"context"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// NamedOutcome is one entry of a Report.
type NamedOutcome struct {
	Name    string        `json:"name" yaml:"name"`
	Outcome types.Outcome `json:"outcome" yaml:"outcome"`
}

// Report is the result of AutoOptimize.
type Report struct {
	Platform   types.Platform           `json:"platform" yaml:"platform"`
	Target     *types.ProcessDescriptor `json:"target,omitempty" yaml:"target,omitempty"`
	Steps      []NamedOutcome           `json:"steps" yaml:"steps"`
	StartedAt  time.Time                `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time                `json:"finished_at" yaml:"finished_at"`
}

// Success reports whether a target was found and every step succeeded.
func (r Report) Success() bool {
	if r.Target == nil {
		return false
	}
	for _, s := range r.Steps {
		if !s.Outcome.Success {
			return false
		}
	}
	return true
}

// AutoOptimize runs the full sequence: find the target, raise its
// priority, trim memory and apply system settings. Steps that need a
// target still run when none is found and report ErrNoHandle; system
// settings are applied regardless.
func AutoOptimize(ctx context.Context, o Optimizer) Report {
	r := Report{Platform: o.Kind().Platform(), StartedAt: time.Now()}

	o.StartOptimization()
	defer o.StopOptimization()

	if o.FindTarget(ctx) {
		desc, _ := o.Target()
		r.Target = &desc
	}

	run := func(name string, fn func(context.Context) types.Outcome) {
		out := fn(ctx)
		r.Steps = append(r.Steps, NamedOutcome{Name: name, Outcome: out})
		mark := "✓"
		if !out.Success {
			mark = "✗"
		}
		o.notify(mark + " " + out.Message)
	}
	run("priority", o.SetPriority)
	run("memory", o.TrimMemory)
	run("settings", o.ApplySystemSettings)

	r.FinishedAt = time.Now()
	return r
}
