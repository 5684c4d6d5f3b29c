//go:build linux

package gridlaunch

import "golang.org/x/sys/unix"

// getSystemMemory returns total physical memory in bytes as reported by sysinfo(2).
func getSystemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return defaultSystemMemory
	}
	total := uint64(info.Totalram) * uint64(info.Unit)
	if total == 0 {
		return defaultSystemMemory
	}
	return total
}
