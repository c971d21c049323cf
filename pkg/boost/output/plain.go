package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlainFormatter writes unstyled, aligned text suitable for scripts and
// for terminals without color. Outcome lines use the same ✓/✗ marks as
// the optimizer's details.
type PlainFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Title != "" {
		w.WriteString(r.Title + "\n")
	}
	if r.Target != nil {
		fmt.Fprintf(w, "Target: %s\n", r.Target)
	}
	if s := r.Snapshot; s != nil {
		if s.Running {
			fmt.Fprintf(w, "Memory: %s  CPU: %.1f%%\n", s.HumanMemory(), s.CPUPercent)
		} else {
			w.WriteString("Process is no longer running\n")
		}
	}

	for _, it := range r.Outcomes {
		fmt.Fprintf(w, "%s %s\n", plainMark(it.Outcome.Success), it.Outcome.Message)
		for _, line := range strings.Split(it.Outcome.Details, "\n") {
			if line != "" {
				w.WriteString("    " + line + "\n")
			}
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, fl := range r.Fields {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", fl.Label, fl.Value); err != nil {
			return err
		}
	}
	if t := r.Table; t != nil {
		if _, err := fmt.Fprintln(tw, strings.Join(t.Columns, "\t")); err != nil {
			return err
		}
		for _, row := range t.Rows {
			if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warn := range r.Warnings {
		w.WriteString("warning: " + warn + "\n")
	}
	return nil
}

func plainMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
