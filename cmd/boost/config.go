package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage boost configuration settings.

Configuration is loaded from:
  1. --config, if given
  2. $XDG_CONFIG_HOME/boost/config.yaml (if set)
  3. ~/.config/boost/config.yaml

Environment variables can override config file settings using the BOOST_ prefix:
  BOOST_PLATFORM=mobile
  BOOST_PRIORITY_CLASS=above_normal
  BOOST_TARGET_DESKTOP_NAMES=RobloxPlayerBeta.exe,Roblox.exe`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one key, e.g. 'boost config set priority.class above_normal', and
write the configuration file.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create default configuration file",
	Long:        `Create a default configuration file if one doesn't exist.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show configuration file path",
	Long:        `Display the path to the configuration file.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	all := state.store.AllSettings()

	file := state.store.ConfigFileUsed()
	if file == "" {
		file = "(using defaults, no file found)"
	}

	r := &output.Result{
		Title:  "Configuration",
		Fields: []output.Field{{Label: "Config file", Value: file}},
		Table:  &output.Table{Columns: []string{"KEY", "VALUE"}},
		Data:   all,
	}
	for _, kv := range flatten("", all) {
		r.Table.Rows = append(r.Table.Rows, []string{kv.Label, kv.Value})
	}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "BOOST_") {
			r.Warnings = append(r.Warnings, "environment override: "+env)
		}
	}
	return render(cmd, r)
}

// flatten turns nested settings into sorted dotted keys.
func flatten(prefix string, m map[string]any) []output.Field {
	var out []output.Field
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			out = append(out, flatten(key, val)...)
		case []any, []string:
			out = append(out, output.Field{Label: key, Value: strings.Join(cast.ToStringSlice(val), ", ")})
		default:
			out = append(out, output.Field{Label: key, Value: cast.ToString(val)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	state.store.SetString(key, value)
	if err := state.store.Save(); err != nil {
		return err
	}
	printInfo("Set %s = %s", key, value)
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		return err
	}
	if !written {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'boost config edit' to modify it.")
		return nil
	}
	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
