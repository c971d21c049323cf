//go:build !windows

package optimizer

import "github.com/jamesainslie/boost/pkg/boost/config"

// desktopProfile is the sysfs/procfs profile for Unix desktops.
func desktopProfile(cfg ConfigReader) []step {
	return []step{
		{name: "CPU governor", group: groupGovernor, writes: governorWrites(cfg.GetString(config.KeyMobileGovernor, config.DefaultGovernor))},
		{name: "Swappiness", group: groupMemory, writes: []write{
			{vmScope, "swappiness", "10"},
		}},
	}
}
