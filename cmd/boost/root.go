package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/output"
)

// skipBootstrap marks commands that run without config or logging.
const skipBootstrap = "boost/skip-bootstrap"

var (
	cfgFile      string
	platformFlag string
	outputFormat string
	jsonOutput   bool
	verbose      bool
	quiet        bool

	rootCmd = &cobra.Command{
		Use:   "boost",
		Short: "Optimize a running game process and the system around it",
		Long: `Boost finds a running game client, raises its scheduling priority,
trims its memory and applies a system settings profile tuned for play.

On desktop hosts the client is found by executable name. On Android the
client is found by application package and most tuning requires root.
Every settings change is backed up first and can be restored.

Examples:
  boost optimize              # Find the game and apply every optimization
  boost optimize -p mobile    # Force the Android backend
  boost monitor               # Live CPU and memory of the game
  boost settings restore      # Undo the system settings profile
  boost tune affinity 0-3     # Pin the game to the first four CPUs
  boost history               # View past runs
  boost -o json status        # Machine-readable status`,
		SilenceUsage:       true,
		PersistentPreRunE:  bootstrap,
		PersistentPostRunE: shutdown,
	}
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/boost/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&platformFlag, "platform", "p", "", "optimizer backend: auto, desktop or mobile")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "pretty", fmt.Sprintf("output format %v", output.Available()))
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "output JSON format (same as -o json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")

	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when the command fails.
	_ = shutdown(rootCmd, nil)
	return err
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
