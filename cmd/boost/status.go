package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/optimizer"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/sysinfo"
	"github.com/jamesainslie/boost/pkg/boost/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the game is running and its resource use",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show host and device information",
	Long: `Display CPU, memory and operating system details. On Android the
device brand, model, release and root state are included.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	o, found, err := withTarget(ctx)
	if err != nil {
		return err
	}
	defer o.Close()

	r := resultFor("Status", o)
	if !found {
		r.Warnings = append(r.Warnings, "Game is not running")
		return render(cmd, r)
	}

	snap, err := o.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to sample target: %w", err)
	}
	r.Snapshot = &snap
	r.Data = snap
	return render(cmd, r)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	o, err := newOptimizer()
	if err != nil {
		return err
	}
	defer o.Close()

	r := resultFor("System", o)
	info := hostInfo{Platform: o.Kind().Platform()}

	res, err := sysinfo.Detect(ctx)
	if err != nil {
		r.Warnings = append(r.Warnings, err.Error())
	}
	info.Resources = res

	host, err := sysinfo.DetectHost(ctx)
	if err != nil {
		r.Warnings = append(r.Warnings, err.Error())
	}
	info.Host = host

	if m, ok := o.(*optimizer.Mobile); ok {
		dev := m.SystemInfo(ctx)
		info.Device = &dev
	}

	r.Fields = info.fields()
	r.Data = info
	return render(cmd, r)
}

// hostInfo is the structured form of the info command.
type hostInfo struct {
	Platform  types.Platform        `json:"platform" yaml:"platform"`
	Host      sysinfo.Host          `json:"host" yaml:"host"`
	Resources sysinfo.Resources     `json:"resources" yaml:"resources"`
	Device    *optimizer.DeviceInfo `json:"device,omitempty" yaml:"device,omitempty"`
}

func (h hostInfo) fields() []output.Field {
	fields := []output.Field{
		{Label: "Backend", Value: string(h.Platform)},
		{Label: "OS", Value: fmt.Sprintf("%s/%s", h.Host.OS, h.Host.Arch)},
	}
	if h.Host.Platform != "" {
		fields = append(fields, output.Field{Label: "Distribution", Value: fmt.Sprintf("%s %s", h.Host.Platform, h.Host.PlatformVersion)})
	}
	if h.Host.KernelVersion != "" {
		fields = append(fields, output.Field{Label: "Kernel", Value: h.Host.KernelVersion})
	}
	if h.Host.Hostname != "" {
		fields = append(fields, output.Field{Label: "Hostname", Value: h.Host.Hostname})
	}
	if h.Host.Uptime > 0 {
		fields = append(fields, output.Field{Label: "Uptime", Value: h.Host.Uptime.String()})
	}

	fields = append(fields, output.Field{Label: "CPU cores", Value: strconv.Itoa(h.Resources.CPUCores)})
	if h.Resources.TotalRAM > 0 {
		fields = append(fields,
			output.Field{Label: "Memory", Value: fmt.Sprintf("%s total, %s available", types.FormatBytes(h.Resources.TotalRAM), types.FormatBytes(h.Resources.AvailableRAM))},
			output.Field{Label: "Memory used", Value: humanize.FtoaWithDigits(h.Resources.UsedPercent, 1) + "%"},
		)
	}

	if d := h.Device; d != nil {
		fields = append(fields,
			output.Field{Label: "Device", Value: fmt.Sprintf("%s %s", d.Brand, d.Model)},
			output.Field{Label: "Android", Value: fmt.Sprintf("%s (SDK %s)", d.Release, d.SDK)},
			output.Field{Label: "Rooted", Value: strconv.FormatBool(d.Rooted)},
		)
	}
	return fields
}
