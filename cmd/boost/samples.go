package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/samples"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Inspect snapshots recorded by the monitor",
	Long: `Inspect the CPU and memory snapshots 'boost monitor --record' stores.

Without a subcommand, lists the targets that have samples.`,
	Args: cobra.NoArgs,
	RunE: runSamplesTargets,
}

var samplesListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List recorded samples of a target",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesList,
}

var samplesSummaryCmd = &cobra.Command{
	Use:   "summary <name>",
	Short: "Summarize recorded samples of a target",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesSummary,
}

var samplesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old samples",
	Args:  cobra.NoArgs,
	RunE:  runSamplesPrune,
}

var (
	samplesSince     time.Duration
	samplesLimit     int
	samplesOlderThan time.Duration
)

func init() {
	for _, c := range []*cobra.Command{samplesListCmd, samplesSummaryCmd} {
		c.Flags().DurationVar(&samplesSince, "since", 0, "only samples newer than this (e.g. 30m, 24h)")
	}
	samplesListCmd.Flags().IntVarP(&samplesLimit, "limit", "l", 50, "maximum number of samples to show (0 for all)")
	samplesPruneCmd.Flags().DurationVar(&samplesOlderThan, "older-than", 7*24*time.Hour, "delete samples older than this")

	samplesCmd.AddCommand(samplesListCmd)
	samplesCmd.AddCommand(samplesSummaryCmd)
	samplesCmd.AddCommand(samplesPruneCmd)
	rootCmd.AddCommand(samplesCmd)
}

// openSamples opens the sample database. The monitor holds it exclusively
// while recording.
func openSamples() (*samples.Store, error) {
	path, err := config.ExpandPath(state.store.GetString(config.KeySamplesPath, config.DefaultSamplesPath()))
	if err != nil {
		return nil, err
	}
	store, err := samples.OpenStore(path, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples at %s (is a recording monitor running?): %w", path, err)
	}
	state.log.Debug("samples opened", "path", path)
	return store, nil
}

// sinceTime turns a --since window into a start time, zero for all.
func sinceTime(window time.Duration) time.Time {
	if window <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-window)
}

func runSamplesTargets(cmd *cobra.Command, _ []string) error {
	store, err := openSamples()
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.Targets()
	if err != nil {
		return err
	}
	if len(names) == 0 && !isStructured() {
		printInfo("No samples recorded.")
		printInfo("Run 'boost monitor --record' to record some.")
		return nil
	}

	t := &output.Table{Columns: []string{"TARGET"}}
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n})
	}
	return render(cmd, &output.Result{Title: "Samples", Table: t, Data: names})
}

func runSamplesList(cmd *cobra.Command, args []string) error {
	store, err := openSamples()
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(args[0], sinceTime(samplesSince), samplesLimit)
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Title: "Samples of " + args[0], Table: samplesTable(snaps), Data: snaps})
}

// samplesTable lists snapshots oldest first.
func samplesTable(snaps []types.ProcessSnapshot) *output.Table {
	t := &output.Table{Columns: []string{"TIME", "PID", "MEMORY", "CPU", "RUNNING"}}
	for _, s := range snaps {
		t.Rows = append(t.Rows, []string{
			s.SampledAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(int(s.PID)),
			s.HumanMemory(),
			fmt.Sprintf("%.1f%%", s.CPUPercent),
			strconv.FormatBool(s.Running),
		})
	}
	return t
}

func runSamplesSummary(cmd *cobra.Command, args []string) error {
	store, err := openSamples()
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(args[0], sinceTime(samplesSince), 0)
	if err != nil {
		return err
	}
	sum, err := samples.Summarize(snaps)
	if errors.Is(err, samples.ErrEmpty) {
		return fmt.Errorf("no samples recorded for %s", args[0])
	}
	if err != nil {
		return err
	}

	return render(cmd, &output.Result{
		Title:  "Summary of " + args[0],
		Fields: summaryFields(sum),
		Data:   sum,
	})
}

func summaryFields(sum samples.Summary) []output.Field {
	return []output.Field{
		{Label: "Samples", Value: humanize.Comma(int64(sum.Count))},
		{Label: "From", Value: sum.First.Local().Format("2006-01-02 15:04:05")},
		{Label: "To", Value: sum.Last.Local().Format("2006-01-02 15:04:05")},
		{Label: "Span", Value: sum.Timespan.Round(time.Second).String()},
		{Label: "Memory", Value: fmt.Sprintf("avg %s, peak %s", types.FormatBytes(sum.AvgRSS), types.FormatBytes(sum.PeakRSS))},
		{Label: "CPU", Value: fmt.Sprintf("avg %.1f%%, peak %.1f%%", sum.AvgCPU, sum.PeakCPU)},
		{Label: "Not running", Value: fmt.Sprintf("%d samples", sum.Downtime)},
	}
}

func runSamplesPrune(_ *cobra.Command, _ []string) error {
	if samplesOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	store, err := openSamples()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Prune(time.Now().Add(-samplesOlderThan))
	if err != nil {
		return fmt.Errorf("failed to prune samples: %w", err)
	}
	printInfo("Removed %s samples.", humanize.Comma(int64(removed)))
	return nil
}
