package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyFormatter renders results with lipgloss styling for terminals.
type PrettyFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	if header := f.formatHeader(r); header != "" {
		w.WriteString(header)
		w.WriteString("\n")
	}
	if r.Snapshot != nil {
		w.WriteString(f.formatSnapshot(r))
	}
	if len(r.Outcomes) > 0 {
		w.WriteString(f.formatOutcomes(r.Outcomes))
	}
	if len(r.Fields) > 0 {
		w.WriteString(f.formatFields(r.Fields))
	}
	if r.Table != nil {
		w.WriteString(f.formatTable(r.Table))
	}
	if len(r.Outcomes) > 0 {
		w.WriteString(f.formatFooter(r))
		w.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	if r.Title == "" && r.Target == nil {
		return ""
	}

	var lines []string
	if r.Title != "" {
		title := TitleStyle.Render(r.Title)
		if r.Platform != "" {
			title += " " + MutedStyle.Render("("+string(r.Platform)+")")
		}
		lines = append(lines, title)
	}
	if r.Target != nil {
		lines = append(lines, LabelStyle.Render("Target:")+" "+ValueStyle.Render(r.Target.String()))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatSnapshot(r *Result) string {
	s := r.Snapshot
	if !s.Running {
		return WarningStyle.Render("  Process is no longer running") + "\n\n"
	}
	parts := []string{
		LabelStyle.Render("Memory:") + " " + MetricStyle.Render(s.HumanMemory()),
		LabelStyle.Render("CPU:") + " " + MetricStyle.Render(fmt.Sprintf("%.1f%%", s.CPUPercent)),
		LabelStyle.Render("Sampled:") + " " + MutedStyle.Render(s.SampledAt.Format("15:04:05")),
	}
	return "  " + strings.Join(parts, "  ") + "\n\n"
}

func (f *PrettyFormatter) formatOutcomes(items []Item) string {
	var sb strings.Builder
	for _, it := range items {
		o := it.Outcome
		msg := ValueStyle.Render(o.Message)
		if !o.Success {
			msg = ErrorStyle.Render(o.Message)
		}
		fmt.Fprintf(&sb, "  %s %s\n", Mark(o.Success), msg)

		if len(o.Steps) > 0 {
			for _, s := range o.Steps {
				line := s.Name
				if s.Detail != "" {
					line += " " + MutedStyle.Render("("+s.Detail+")")
				}
				fmt.Fprintf(&sb, "      %s %s\n", Mark(s.Success), line)
			}
			continue
		}
		for _, line := range strings.Split(o.Details, "\n") {
			if line != "" {
				fmt.Fprintf(&sb, "      %s\n", MutedStyle.Render(line))
			}
		}
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFields(fields []Field) string {
	width := 0
	for _, fl := range fields {
		width = max(width, lipgloss.Width(fl.Label))
	}

	var sb strings.Builder
	for _, fl := range fields {
		label := LabelStyle.Render(padRight(fl.Label+":", width+1))
		fmt.Fprintf(&sb, "  %s %s\n", label, ValueStyle.Render(fl.Value))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatTable(t *Table) string {
	if len(t.Rows) == 0 {
		return MutedStyle.Render("  Nothing to show") + "\n"
	}

	widths := columnWidths(t)
	var sb strings.Builder

	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = TableHeaderStyle.Render(padRight(c, widths[i]))
	}
	sb.WriteString("  " + strings.Join(headers, "  ") + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = padRight(c, widths[i])
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	passed := 0
	for _, it := range r.Outcomes {
		if it.Outcome.Success {
			passed++
		}
	}

	status := SuccessStyle.Render("All optimizations applied")
	if passed != len(r.Outcomes) {
		status = WarningStyle.Render(fmt.Sprintf("%d of %d succeeded", passed, len(r.Outcomes)))
	}
	hint := MutedStyle.Render("Use -o plain for unformatted output")
	return FooterBox.Render(status + "  " + hint)
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, w := range warnings {
		sb.WriteString(WarningStyle.Render("  " + w))
		sb.WriteString("\n")
	}
	return sb.String()
}

func columnWidths(t *Table) []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	return widths
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
