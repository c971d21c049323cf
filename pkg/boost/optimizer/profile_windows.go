//go:build windows

package optimizer

const (
	gameBarKey       = `HKCU\Software\Microsoft\GameBar`
	gameConfigKey    = `HKCU\System\GameConfigStore`
	gameDVRKey       = `HKCU\Software\Microsoft\Windows\CurrentVersion\GameDVR`
	visualEffectsKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\VisualEffects`
	powerThrottleKey = `HKLM\SYSTEM\CurrentControlSet\Control\Power\PowerThrottling`
)

// desktopProfile is the Windows registry profile.
func desktopProfile(ConfigReader) []step {
	return []step{
		{name: "Game Mode", group: groupGameMode, writes: []write{
			{gameBarKey, "AllowAutoGameMode", "1"},
			{gameBarKey, "AutoGameModeEnabled", "1"},
		}},
		{name: "Game Bar", group: groupGameMode, writes: []write{
			{gameConfigKey, "GameDVR_Enabled", "0"},
			{gameDVRKey, "AppCaptureEnabled", "0"},
		}},
		{name: "Visual effects", group: groupVisual, writes: []write{
			{visualEffectsKey, "VisualFXSetting", "2"},
		}},
		{name: "Power settings", group: groupPower, writes: []write{
			{powerThrottleKey, "PowerThrottlingOff", "1"},
		}},
	}
}
