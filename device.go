package gridlaunch

import (
	"fmt"
	"runtime"
	"sync"
)

// Device represents a compute device. In gridlaunch, this is the CPU with its
// cores and available memory.
type Device struct {
	ID         int      // Unique device identifier
	Name       string   // Human-readable device name
	TotalMem   uint64   // Total available memory in bytes
	NumCores   int      // Number of CPU cores
	MaxThreads int      // Maximum concurrent threads
	Features   []string // Detected SIMD extensions
}

// Global runtime state
var (
	defaultDevice  *Device
	deviceOnce     sync.Once
	defaultContext *Context
	contextOnce    sync.Once
)

// GetDevice returns the current device information.
// In gridlaunch, this always returns the CPU device.
func GetDevice() *Device {
	deviceOnce.Do(func() {
		defaultDevice = &Device{
			ID:         0,
			Name:       fmt.Sprintf("CPU (%s/%s)", runtime.GOOS, runtime.GOARCH),
			TotalMem:   getSystemMemory(),
			NumCores:   runtime.NumCPU(),
			MaxThreads: runtime.NumCPU() * 2, // Hyperthreading
			Features:   cpuFeatures.List(),
		}
	})
	return defaultDevice
}

// SetDevice sets the active device (no-op for CPU)
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// GetDeviceCount returns the number of available devices.
func GetDeviceCount() int {
	return 1 // Only CPU
}

// GetDeviceProperties returns device properties
func GetDeviceProperties(id int) (*Device, error) {
	if id != 0 {
		return nil, NewInvalidArgError("GetDeviceProperties", fmt.Sprintf("invalid device ID: %d", id))
	}
	return GetDevice(), nil
}

// Default returns the process-wide context used by the package-level helpers.
func Default() *Context {
	contextOnce.Do(func() {
		defaultContext = NewContext()
	})
	return defaultContext
}

// Malloc allocates device memory on the default context.
//
// Example:
//
//	d_data, err := gridlaunch.Malloc(1024 * 4) // Allocate 1024 int32s
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gridlaunch.Free(d_data)
func Malloc(size int) (DevicePtr, error) {
	return Default().Malloc(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero-value DevicePtr.
func Free(ptr DevicePtr) error {
	return Default().Free(ptr)
}

// Memcpy copies memory between host and device on the default context.
// It waits for all work previously enqueued on the default stream.
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return Default().Memcpy(dst, src, size, kind)
}

// Launch executes a kernel on the default stream.
func Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return Default().Launch(kernel, grid, block, args...)
}

// LaunchFunc executes a kernel function on the default stream.
func LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return Default().LaunchFunc(fn, grid, block, args...)
}

// Synchronize waits for all operations on all streams of the default
// context and reports the first failure any of them recorded.
func Synchronize() error {
	return Default().Synchronize()
}
