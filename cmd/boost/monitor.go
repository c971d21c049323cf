package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/cmd/boost/tui"
	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the game's CPU and memory live",
	Long: `Sample the game process on an interval and show its CPU and memory use.

The monitor waits for the game to start and follows it across restarts.
With --record every sample is stored for 'boost samples'. Changing
monitor.interval in the config file takes effect immediately.

Examples:
  boost monitor                   # Interactive monitor
  boost monitor --plain -n 10     # Ten text samples, then exit
  boost monitor --record -i 1s    # Record a sample every second`,
	Args: cobra.NoArgs,
}

var (
	monitorPlain    bool
	monitorRecord   bool
	monitorInterval time.Duration
	monitorCount    int
)

func init() {
	// Assigned here rather than in the literal to break the
	// monitorCmd -> runMonitor -> wantsTUI -> monitorCmd init cycle.
	monitorCmd.RunE = runMonitor
	monitorCmd.Flags().BoolVar(&monitorPlain, "plain", false, "print samples as text instead of the interactive view")
	monitorCmd.Flags().BoolVarP(&monitorRecord, "record", "r", false, "store every sample (default from monitor.record)")
	monitorCmd.Flags().DurationVarP(&monitorInterval, "interval", "i", 0, "sampling interval (default from monitor.interval)")
	monitorCmd.Flags().IntVarP(&monitorCount, "count", "n", 0, "stop after this many samples in plain mode (0 runs until interrupted)")
	rootCmd.AddCommand(monitorCmd)
}

// wantsTUI reports whether cmd will run the interactive monitor, which
// needs the console log mirror off.
func wantsTUI(cmd *cobra.Command) bool {
	return cmd == monitorCmd && !monitorPlain && !isStructured()
}

// sampleInterval returns --interval or the configured interval.
func sampleInterval(flag time.Duration, store *config.Store) time.Duration {
	if flag > 0 {
		return flag
	}
	return store.GetDuration(config.KeyMonitorInterval, config.DefaultMonitorInterval)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()
	o.ClearStatusCallbacks()

	record, closeRecorder, err := openRecorder(cmd)
	if err != nil {
		return err
	}
	defer closeRecorder()

	interval := sampleInterval(monitorInterval, state.store)
	state.log.Info("monitor started", "interval", interval, "record", record != nil)

	if !wantsTUI(cmd) {
		return monitorPlainLoop(ctx, cmd, o, interval, record)
	}

	buf := state.logs.Buffer()
	updates := state.logs.Subscribe()
	defer state.logs.Unsubscribe(updates)

	model := tui.NewModel(tui.Options{
		Sampler:  o,
		Interval: interval,
		Title:    fmt.Sprintf("Boost Monitor (%s)", o.Kind()),
		Record:   record,
		Logs:     buf,
		Updates:  updates,
	})
	// Deferred last so it runs first: an in-flight sample must finish
	// before the recorder and the optimizer are closed.
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if monitorInterval == 0 {
		state.store.OnChange(func(fsnotify.Event) {
			d := state.store.GetDuration(config.KeyMonitorInterval, config.DefaultMonitorInterval)
			state.log.Info("monitor interval reloaded", "interval", d)
			p.Send(tui.IntervalMsg(d))
		})
	}

	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		// Interrupted.
		return nil
	}
	return err
}

// openRecorder opens the samples store when recording is on. The returned
// record func is nil otherwise.
func openRecorder(cmd *cobra.Command) (func(types.ProcessSnapshot) error, func(), error) {
	on := state.store.GetBool(config.KeyMonitorRecord, false)
	if cmd.Flags().Changed("record") {
		on = monitorRecord
	}
	if !on {
		return nil, func() {}, nil
	}

	store, err := openSamples()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			state.log.Warn("failed to close samples", "error", err)
		}
	}
	return store.Record, closeFn, nil
}

// monitorPlainLoop prints one line per sample until ctx is done or count
// samples were taken.
func monitorPlainLoop(ctx context.Context, cmd *cobra.Command, o optimizer.Optimizer, interval time.Duration, record func(types.ProcessSnapshot) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w := cmd.OutOrStdout()
	bound := false
	for n := 0; monitorCount <= 0 || n < monitorCount; n++ {
		if !bound {
			bound = o.FindTarget(ctx)
		}
		if bound {
			snap, err := o.Snapshot(ctx)
			switch {
			case err != nil:
				state.log.Warn("sample failed", "error", err)
				bound = false
			default:
				bound = snap.Running
				if record != nil && snap.Running {
					if err := record(snap); err != nil {
						state.log.Warn("failed to record sample", "error", err)
					}
				}
				if err := printSample(cmd, w, snap); err != nil {
					return err
				}
			}
		} else if !isStructured() {
			fmt.Fprintf(w, "%s  waiting for the game to start\n", time.Now().Format("15:04:05"))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func printSample(cmd *cobra.Command, w io.Writer, snap types.ProcessSnapshot) error {
	if isStructured() {
		return render(cmd, &output.Result{Snapshot: &snap, Data: snap})
	}
	if !snap.Running {
		_, err := fmt.Fprintf(w, "%s  %s exited\n", snap.SampledAt.Format("15:04:05"), snap.ProcessDescriptor)
		return err
	}
	_, err := fmt.Fprintf(w, "%s  %s  mem %s  cpu %.1f%%\n",
		snap.SampledAt.Format("15:04:05"), snap.ProcessDescriptor, snap.HumanMemory(), snap.CPUPercent)
	return err
}
