package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the system settings profile",
	Long: `Apply, restore or inspect the system settings boost changes.

Desktop hosts use the Windows registry (Game Mode, Game Bar capture,
visual effects and power throttling) or, elsewhere, the CPU governor and
swappiness. Android devices use the CPU governor, animation scales and
battery options and require root.`,
	RunE: runSettingsShow,
}

var settingsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the settings profile",
	Long:  `Back up the current values and apply every setting in the profile.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsApply,
}

var settingsRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore settings from the backup",
	Long:  `Write back the values recorded before the profile was first applied.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsRestore,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current value of every profile setting",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

func init() {
	settingsCmd.AddCommand(settingsApplyCmd)
	settingsCmd.AddCommand(settingsRestoreCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsApply(cmd *cobra.Command, _ []string) error {
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	out := o.ApplySystemSettings(cmd.Context())
	return renderOutcomes(cmd, "Settings", journal.OpSettingsApply, o, item("System settings", out))
}

func runSettingsRestore(cmd *cobra.Command, _ []string) error {
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	out := o.RestoreSettings(cmd.Context())
	return renderOutcomes(cmd, "Settings", journal.OpSettingsRestore, o, item("Restore", out))
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	current := o.CurrentSettings(cmd.Context())
	r := resultFor("Settings", o)
	r.Table = settingsTable(current)
	r.Data = current

	if path, err := backupPathFor(state.store, o.Kind()); err == nil {
		r.Fields = append(r.Fields, output.Field{Label: "Backup", Value: backupStatus(path)})
	}
	return render(cmd, r)
}

// settingsTable lists saved values, "(unset)" for absent ones.
func settingsTable(saved []settings.Saved) *output.Table {
	t := &output.Table{Columns: []string{"SCOPE", "KEY", "VALUE"}}
	for _, s := range saved {
		value := s.Value
		if !s.Present {
			value = "(unset)"
		}
		t.Rows = append(t.Rows, []string{s.Scope, s.Name, value})
	}
	return t
}

// backupStatus describes the backup file at path.
func backupStatus(path string) string {
	doc, err := settings.LoadBackup(path)
	if err != nil {
		return "none"
	}
	return fmt.Sprintf("%d values, taken %s (%s)", len(doc.Entries), doc.CreatedAt.Local().Format("2006-01-02 15:04"), path)
}
