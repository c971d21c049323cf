package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

// errFailed makes the process exit non-zero after a result has already
// been rendered.
var errFailed = errors.New("one or more optimizations failed")

// app holds what bootstrap builds for the running command.
type app struct {
	store *config.Store
	cfg   *config.Config
	logs  *logging.Handle
	log   *logging.Logger
}

var state app

// bootstrap loads configuration and starts logging before any command runs.
func bootstrap(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipBootstrap] != "" {
		return nil
	}

	store, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := store.BindFlag(config.KeyPlatform, cmd.Flags().Lookup("platform")); err != nil {
		return err
	}
	cfg, err := store.Unmarshal()
	if err != nil {
		return err
	}

	logCfg, err := loggingConfig(cfg.Logging, verbose, quiet, wantsTUI(cmd))
	if err != nil {
		return err
	}
	logs, err := logging.Init(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	state = app{store: store, cfg: cfg, logs: logs, log: logs.Get("cli")}
	state.log.Debug("command started", "command", cmd.CommandPath(), "config", store.ConfigFileUsed())
	printVerbose("Log file: %s", logs.Path())
	return nil
}

// shutdown closes the log file.
func shutdown(_ *cobra.Command, _ []string) error {
	if state.logs == nil {
		return nil
	}
	err := state.logs.Close()
	state = app{}
	return err
}

// loggingConfig derives the logging setup for this invocation. Console
// mirroring is off in the TUI and in quiet mode, debug with --verbose and
// errors-only otherwise.
func loggingConfig(lc config.LoggingConfig, verbose, quiet, tui bool) (logging.Config, error) {
	cfg, err := lc.ToLogging()
	if err != nil {
		return logging.Config{}, err
	}

	switch {
	case tui:
		cfg.TUIMode = true
	case quiet:
		cfg.ConsoleLevel = ""
	case verbose:
		cfg.Level = "debug"
		cfg.ConsoleLevel = "debug"
	default:
		cfg.ConsoleLevel = "error"
	}
	return cfg, nil
}

// resolveFormat applies --json over --output.
func resolveFormat(format string, asJSON bool) string {
	if asJSON {
		return "json"
	}
	if format == "" {
		return "pretty"
	}
	return format
}

// newOptimizer builds the backend selected by --platform or the config.
func newOptimizer() (optimizer.Optimizer, error) {
	kind, err := optimizer.ParseKind(state.store.GetString(config.KeyPlatform, config.DefaultPlatform))
	if err != nil {
		return nil, err
	}

	backupPath, err := backupPathFor(state.store, kind)
	if err != nil {
		return nil, err
	}

	opts := optimizer.Options{
		Logger:     state.logs.Get("optimizer"),
		Config:     state.store,
		BackupPath: backupPath,
	}
	o, err := optimizer.New(kind, opts)
	if err != nil {
		return nil, err
	}
	if !quiet && !isStructured() {
		o.OnStatus(func(status string) { printVerbose("%s", status) })
	}
	return o, nil
}

// backupPathFor returns the per-backend backup file.
func backupPathFor(store *config.Store, kind optimizer.Kind) (string, error) {
	dir, err := config.ExpandPath(store.GetString(config.KeyBackupDir, config.DefaultBackupDir()))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, kind.String()+".json"), nil
}

// withTarget binds the target and returns the optimizer ready to use. The
// caller must Close it.
func withTarget(ctx context.Context) (optimizer.Optimizer, bool, error) {
	o, err := newOptimizer()
	if err != nil {
		return nil, false, err
	}
	return o, o.FindTarget(ctx), nil
}

func isStructured() bool {
	switch resolveFormat(outputFormat, jsonOutput) {
	case "json", "yaml", "csv":
		return true
	}
	return false
}

// render writes r in the selected format. In quiet mode a successful
// pretty or plain result is not printed.
func render(cmd *cobra.Command, r *output.Result) error {
	if quiet && !isStructured() && r.Success() {
		return nil
	}

	formatter, err := output.Get(resolveFormat(outputFormat, jsonOutput))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// resultFor starts a Result describing o and its bound target.
func resultFor(title string, o optimizer.Optimizer) *output.Result {
	r := &output.Result{Title: title, Platform: o.Kind().Platform()}
	if desc, ok := o.Target(); ok {
		r.Target = &desc
	}
	return r
}

// renderOutcomes renders items, journals them as op and turns a failure
// into errFailed.
func renderOutcomes(cmd *cobra.Command, title string, op journal.Operation, o optimizer.Optimizer, items ...output.Item) error {
	r := resultFor(title, o)
	r.Outcomes = items
	record(op, r)

	if err := render(cmd, r); err != nil {
		return err
	}
	if !r.Success() {
		return errFailed
	}
	return nil
}

// openJournal returns the run journal, nil when history is disabled.
func openJournal() (*journal.Journal, error) {
	if !state.store.GetBool(config.KeyHistoryEnabled, true) {
		return nil, nil
	}
	dir, err := config.ExpandPath(state.store.GetString(config.KeyHistoryPath, config.DefaultHistoryPath()))
	if err != nil {
		return nil, err
	}
	return journal.New(dir)
}

// record journals a rendered result. Failures are logged and otherwise
// ignored so a broken history directory never fails an optimization.
func record(op journal.Operation, r *output.Result) {
	j, err := openJournal()
	if err != nil {
		state.log.Warn("failed to open history", "error", err)
		return
	}
	if j == nil {
		return
	}

	run := journal.Run{Operation: op, Platform: r.Platform, Target: r.Target}
	for _, it := range r.Outcomes {
		run.Steps = append(run.Steps, journal.StepFrom(it.Name, it.Outcome))
	}
	entry, err := j.Record(run)
	if err != nil {
		state.log.Warn("failed to record run", "error", err)
		return
	}
	state.log.Debug("run recorded", "id", entry.ID)
}

// item names an outcome.
func item(name string, o types.Outcome) output.Item {
	return output.Item{Name: name, Outcome: o}
}
