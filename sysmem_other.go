//go:build !linux

package gridlaunch

// getSystemMemory returns a fixed estimate on platforms without sysinfo(2).
func getSystemMemory() uint64 {
	return defaultSystemMemory
}
