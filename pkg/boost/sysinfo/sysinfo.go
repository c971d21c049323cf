// Package sysinfo detects host resources: CPU count, physical and
// available memory, and OS identity. The optimizer reports memory before
// and after trims with it and the info command prints it.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Resources are the detected machine resources.
type Resources struct {
	// CPUCores is the number of logical CPUs.
	CPUCores int `json:"cpu_cores" yaml:"cpu_cores"`

	// TotalRAM is the physical memory in bytes.
	TotalRAM uint64 `json:"total_ram" yaml:"total_ram"`

	// AvailableRAM is memory available to new allocations without swapping.
	AvailableRAM uint64 `json:"available_ram" yaml:"available_ram"`

	// UsedPercent is the share of physical memory in use.
	UsedPercent float64 `json:"used_percent" yaml:"used_percent"`
}

// Host identifies the operating system.
type Host struct {
	Hostname        string        `json:"hostname" yaml:"hostname"`
	OS              string        `json:"os" yaml:"os"`
	Platform        string        `json:"platform" yaml:"platform"`
	PlatformVersion string        `json:"platform_version" yaml:"platform_version"`
	KernelVersion   string        `json:"kernel_version" yaml:"kernel_version"`
	Arch            string        `json:"arch" yaml:"arch"`
	Uptime          time.Duration `json:"uptime" yaml:"uptime"`
}

// Detect reads CPU and memory figures. CPUCores is always populated; the
// memory fields are zero when the error is non-nil.
func Detect(ctx context.Context) (Resources, error) {
	res := Resources{CPUCores: runtime.NumCPU()}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return res, fmt.Errorf("reading memory statistics: %w", err)
	}
	res.TotalRAM = vm.Total
	res.AvailableRAM = vm.Available
	res.UsedPercent = vm.UsedPercent
	return res, nil
}

// AvailableMemory returns the bytes of memory currently available.
func AvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading memory statistics: %w", err)
	}
	return vm.Available, nil
}

// DetectHost reads OS identity. Arch is always populated.
func DetectHost(ctx context.Context) (Host, error) {
	h := Host{OS: runtime.GOOS, Arch: runtime.GOARCH}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return h, fmt.Errorf("reading host information: %w", err)
	}
	h.Hostname = info.Hostname
	h.Platform = info.Platform
	h.PlatformVersion = info.PlatformVersion
	h.KernelVersion = info.KernelVersion
	h.Uptime = time.Duration(info.Uptime) * time.Second
	return h, nil
}
