package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/output"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Apply every optimization to the running game",
	Long: `Find the game process, raise its scheduling priority, trim its memory
and apply the system settings profile.

Settings are applied even when the game is not running. The previous
values are backed up and can be restored with 'boost settings restore'.`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	report := optimizer.AutoOptimize(cmd.Context(), o)
	state.log.Info("optimize finished",
		"success", report.Success(),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	r := &output.Result{
		Title:    "Boost",
		Platform: report.Platform,
		Target:   report.Target,
		Data:     report,
	}
	for _, s := range report.Steps {
		r.Outcomes = append(r.Outcomes, item(s.Name, s.Outcome))
	}
	if report.Target == nil {
		r.Warnings = append(r.Warnings, "Game is not running; only system settings were applied")
	}
	record(journal.OpOptimize, r)

	if err := render(cmd, r); err != nil {
		return err
	}
	if !report.Success() {
		return errFailed
	}
	return nil
}
