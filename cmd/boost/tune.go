package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/journal"
	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/process"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Apply a single optimization",
	Long: `Run one optimization on its own instead of the full 'optimize'
sequence. Some tweaks exist only on one backend; running them on the
other reports an error.`,
}

// tweak is one tune subcommand.
type tweak struct {
	use, short, title string
	// target is set when the tweak acts on the bound game process.
	target  bool
	desktop func(context.Context, *optimizer.Desktop, []string) (types.Outcome, error)
	mobile  func(context.Context, *optimizer.Mobile, []string) (types.Outcome, error)
	args    cobra.PositionalArgs
}

var tweaks = []tweak{
	{
		use: "priority", short: "Raise the game's scheduling priority", title: "Priority", target: true,
		desktop: func(ctx context.Context, d *optimizer.Desktop, _ []string) (types.Outcome, error) {
			return d.SetPriority(ctx), nil
		},
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.SetPriority(ctx), nil
		},
	},
	{
		use: "memory", short: "Trim the game's memory", title: "Memory", target: true,
		desktop: func(ctx context.Context, d *optimizer.Desktop, _ []string) (types.Outcome, error) {
			return d.TrimMemory(ctx), nil
		},
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.TrimMemory(ctx), nil
		},
	},
	{
		use: "affinity <cpus>", short: "Pin the game to a set of CPUs (e.g. 0-3, 0xF)", title: "Affinity", target: true,
		args: cobra.ExactArgs(1),
		desktop: func(ctx context.Context, d *optimizer.Desktop, args []string) (types.Outcome, error) {
			mask, err := process.ParseCPUMask(args[0])
			if err != nil {
				return types.Outcome{}, err
			}
			return d.SetAffinity(ctx, mask), nil
		},
	},
	{
		use: "game-mode", short: "Enable game mode and disable background capture", title: "Game mode",
		desktop: func(ctx context.Context, d *optimizer.Desktop, _ []string) (types.Outcome, error) {
			return d.OptimizeGameMode(ctx), nil
		},
	},
	{
		use: "visual", short: "Switch visual effects to best performance", title: "Visual effects",
		desktop: func(ctx context.Context, d *optimizer.Desktop, _ []string) (types.Outcome, error) {
			return d.OptimizeVisualEffects(ctx), nil
		},
	},
	{
		use: "clean-temp", short: "Move old temporary files to the trash", title: "Temporary files",
		desktop: func(ctx context.Context, d *optimizer.Desktop, _ []string) (types.Outcome, error) {
			return d.CleanTempFiles(ctx), nil
		},
	},
	{
		use: "governor", short: "Set the CPU frequency governor", title: "CPU governor",
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.OptimizeCPUGovernor(ctx), nil
		},
	},
	{
		use: "gpu", short: "Set the GPU frequency governor", title: "GPU",
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.OptimizeGPUFrequency(ctx), nil
		},
	},
	{
		use: "cache", short: "Trim application caches", title: "Cache",
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.ClearCache(ctx), nil
		},
	},
	{
		use: "battery", short: "Disable battery saver and adaptive brightness", title: "Battery",
		mobile: func(ctx context.Context, m *optimizer.Mobile, _ []string) (types.Outcome, error) {
			return m.OptimizeBattery(ctx), nil
		},
	},
}

func init() {
	for _, tw := range tweaks {
		args := tw.args
		if args == nil {
			args = cobra.NoArgs
		}
		tuneCmd.AddCommand(&cobra.Command{
			Use:   tw.use,
			Short: tw.short + " (" + tw.backends() + ")",
			Args:  args,
			RunE:  tw.run,
		})
	}
	rootCmd.AddCommand(tuneCmd)
}

// backends names the backends the tweak supports.
func (tw tweak) backends() string {
	switch {
	case tw.desktop != nil && tw.mobile != nil:
		return "all platforms"
	case tw.desktop != nil:
		return "desktop"
	default:
		return "mobile"
	}
}

func (tw tweak) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	if tw.target {
		o.FindTarget(ctx)
	}

	var out types.Outcome
	switch opt := o.(type) {
	case *optimizer.Desktop:
		if tw.desktop == nil {
			return fmt.Errorf("%s is not available on the %s backend", tw.title, opt.Kind())
		}
		out, err = tw.desktop(ctx, opt, args)
	case *optimizer.Mobile:
		if tw.mobile == nil {
			return fmt.Errorf("%s is not available on the %s backend", tw.title, opt.Kind())
		}
		out, err = tw.mobile(ctx, opt, args)
	default:
		return fmt.Errorf("unsupported optimizer %T", o)
	}
	if err != nil {
		return err
	}
	return renderOutcomes(cmd, "Tune", journal.OpTune, o, item(tw.title, out))
}
