package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past optimization runs",
	Long: `View the journal of optimize, settings and tune runs.

Every run is recorded with its target and the outcome of each step.
Set history.enabled to false to stop recording.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific run",
	Long:  `Display every step of a run. A unique prefix of the ID is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove history entries older than the retention period.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getJournal returns the journal even when recording is disabled, so past
// entries stay readable.
func getJournal() (*journal.Journal, error) {
	dir, err := config.ExpandPath(state.store.GetString(config.KeyHistoryPath, config.DefaultHistoryPath()))
	if err != nil {
		return nil, err
	}
	j, err := journal.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return j, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return err
	}
	entries, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 && !isStructured() {
		printInfo("No history entries found.")
		printInfo("Run 'boost optimize' to record one.")
		return nil
	}

	r := &output.Result{Title: "History", Table: historyTable(entries), Data: entries}
	return render(cmd, r)
}

// historyTable lists entries one per row.
func historyTable(entries []journal.Entry) *output.Table {
	t := &output.Table{Columns: []string{"ID", "WHEN", "OPERATION", "TARGET", "RESULT"}}
	for _, e := range entries {
		target := "-"
		if e.Target != nil {
			target = e.Target.Name
		}
		t.Rows = append(t.Rows, []string{
			truncateString(e.ID, 40),
			humanize.Time(e.Timestamp),
			string(e.Operation),
			target,
			fmt.Sprintf("%d/%d ok", e.Summary.Succeeded, e.Summary.Total),
		})
	}
	return t
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	j, err := getJournal()
	if err != nil {
		return err
	}
	entry, err := j.Get(args[0])
	if errors.Is(err, journal.ErrNotFound) {
		return fmt.Errorf("no run matches %q; see 'boost history'", args[0])
	}
	if err != nil {
		return err
	}

	r := &output.Result{
		Title:    "Run " + string(entry.Operation),
		Platform: entry.Platform,
		Target:   entry.Target,
		Fields: []output.Field{
			{Label: "ID", Value: entry.ID},
			{Label: "Time", Value: entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST")},
			{Label: "Operation", Value: string(entry.Operation)},
		},
		Data: entry,
	}
	for _, s := range entry.Steps {
		r.Outcomes = append(r.Outcomes, item(s.Name, types.Outcome{Success: s.Success, Message: s.Message, Details: s.Details}))
	}
	return render(cmd, r)
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return err
	}

	retentionDays := state.store.GetInt(config.KeyHistoryRetention, config.DefaultRetentionDays)
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}
	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := j.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
