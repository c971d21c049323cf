// Package output renders command results in the formats selected with
// --output: pretty (styled terminal), plain (aligned text), json, yaml
// and csv.
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/boost/pkg/boost/types"
)

// Item is a named outcome, one line group in the rendered result.
type Item struct {
	Name    string        `json:"name" yaml:"name"`
	Outcome types.Outcome `json:"outcome" yaml:"outcome"`
}

// Field is a labelled value.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Table is a simple grid. Every row has len(Columns) cells.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Result is the data every command hands to a Formatter. Sections that
// are empty are not rendered.
type Result struct {
	// Title heads the pretty output.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Platform is the optimizer backend that produced the result.
	Platform types.Platform `json:"platform,omitempty" yaml:"platform,omitempty"`

	// Target is the bound process, if any.
	Target *types.ProcessDescriptor `json:"target,omitempty" yaml:"target,omitempty"`

	// Snapshot holds live metrics of the target.
	Snapshot *types.ProcessSnapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`

	// Outcomes lists optimization results in execution order.
	Outcomes []Item `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`

	// Fields are labelled values such as system information.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Table holds tabular listings such as run history.
	Table *Table `json:"table,omitempty" yaml:"table,omitempty"`

	// Warnings are shown after everything else.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Data, when set, is emitted by the structured formatters in place of
	// the Result itself.
	Data any `json:"-" yaml:"-"`
}

// Success reports whether every outcome succeeded. A result without
// outcomes is successful.
func (r *Result) Success() bool {
	for _, it := range r.Outcomes {
		if !it.Outcome.Success {
			return false
		}
	}
	return true
}

// payload is what the structured formatters encode.
func (r *Result) payload() any {
	if r.Data != nil {
		return r.Data
	}
	return r
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted result to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted registered names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
