package gridlaunch

import (
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasAVX        bool
	HasAVX2       bool
	HasAVX512F    bool // Foundation
	HasFMA        bool
	HasSSE4       bool
	HasASIMD      bool // ARM64 Advanced SIMD
	HasASIMDHP    bool // ARM64 half precision
	HasSVE        bool
	CacheLineSize int
}

// Global CPU feature detection
var cpuFeatures CPUFeatures

func init() {
	detectCPUFeatures()
}

// detectCPUFeatures populates the global cpuFeatures struct
func detectCPUFeatures() {
	cpuFeatures = CPUFeatures{
		CacheLineSize: int(unsafe.Sizeof(cpu.CacheLinePad{})),
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		cpuFeatures.HasSSE4 = cpu.X86.HasSSE41 || cpu.X86.HasSSE42
		cpuFeatures.HasAVX = cpu.X86.HasAVX
		cpuFeatures.HasAVX2 = cpu.X86.HasAVX2
		cpuFeatures.HasAVX512F = cpu.X86.HasAVX512F
		cpuFeatures.HasFMA = cpu.X86.HasFMA
	case "arm64":
		cpuFeatures.HasASIMD = cpu.ARM64.HasASIMD
		cpuFeatures.HasASIMDHP = cpu.ARM64.HasASIMDHP
		cpuFeatures.HasSVE = cpu.ARM64.HasSVE
		cpuFeatures.HasFMA = cpu.ARM64.HasASIMD
	}
}

// List returns the detected extensions in a stable order.
func (f CPUFeatures) List() []string {
	features := []string{}
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(f.HasSSE4, "SSE4")
	add(f.HasAVX, "AVX")
	add(f.HasAVX2, "AVX2")
	add(f.HasFMA, "FMA")
	add(f.HasAVX512F, "AVX512F")
	add(f.HasASIMD, "ASIMD")
	add(f.HasASIMDHP, "ASIMDHP")
	add(f.HasSVE, "SVE")
	return features
}

// GetCPUInfo returns a string describing available CPU features
func GetCPUInfo() string {
	features := cpuFeatures.List()
	if len(features) == 0 {
		return "No SIMD extensions detected"
	}
	return "CPU features: " + strings.Join(features, ", ")
}
