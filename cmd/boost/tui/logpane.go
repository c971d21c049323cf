package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// logPane shows the tail of the application log below the metrics.
type logPane struct {
	open   bool
	level  logging.Level
	offset int
}

// filterEntriesByLevel returns entries at or above minLevel.
func filterEntriesByLevel(entries []logging.LogEntry, minLevel logging.Level) []logging.LogEntry {
	result := make([]logging.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Level >= minLevel {
			result = append(result, e)
		}
	}
	return result
}

// clampLogScroll keeps offset within [0, total-visible].
func clampLogScroll(offset, total, visible int) int {
	if total <= visible || offset < 0 {
		return 0
	}
	return min(offset, total-visible)
}

// visibleEntries returns the window of entries shown at offset, where
// offset counts back from the newest entry.
func visibleEntries(entries []logging.LogEntry, offset, rows int) []logging.LogEntry {
	offset = clampLogScroll(offset, len(entries), rows)
	end := len(entries) - offset
	start := max(0, end-rows)
	return entries[start:end]
}

func logLevelStyle(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelDebug:
		return logDebugStyle
	case logging.LevelWarn:
		return logWarnStyle
	case logging.LevelError:
		return logErrorStyle
	default:
		return logInfoStyle
	}
}

func logLevelChar(level logging.Level) string {
	switch level {
	case logging.LevelDebug:
		return "D"
	case logging.LevelInfo:
		return "I"
	case logging.LevelWarn:
		return "W"
	case logging.LevelError:
		return "E"
	default:
		return "?"
	}
}

// render draws the pane in width cells and rows lines of entries.
func (p logPane) render(entries []logging.LogEntry, width, rows int) string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" Logs [%s] ", p.level))
	b.WriteString(title + mutedTextStyle.Render("[1-4] filter  [↑/↓] scroll  [l] close"))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")

	filtered := filterEntriesByLevel(entries, p.level)
	visible := visibleEntries(filtered, p.offset, rows)
	for _, e := range visible {
		b.WriteString(renderLogEntry(e, width))
		b.WriteString("\n")
	}
	for i := len(visible); i < rows; i++ {
		b.WriteString("\n")
	}
	if len(filtered) == 0 {
		b.WriteString(mutedTextStyle.Render("No log entries at this level"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderLogEntry formats "HH:MM:SS [L] component: message", truncating
// the message to width.
func renderLogEntry(e logging.LogEntry, width int) string {
	comp := e.Component
	if len(comp) > 10 {
		comp = comp[:10]
	}

	msgWidth := max(10, width-(8+1+3+1+len(comp)+2))
	msg := e.Message
	if len(msg) > msgWidth {
		msg = msg[:msgWidth-3] + "..."
	}

	return fmt.Sprintf("%s %s %s: %s",
		logTimeStyle.Render(e.Time.Format("15:04:05")),
		logLevelStyle(e.Level).Render("["+logLevelChar(e.Level)+"]"),
		logComponentStyle.Render(comp),
		msg)
}
