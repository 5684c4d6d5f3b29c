package gridlaunch

// Runtime limits and defaults.

// Thread and block dimensions
const (
	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024

	// Maximum grid extent in X
	MaxGridDimX = 1<<31 - 1

	// Maximum grid extent in Y and Z
	MaxGridDimYZ = 65535
)

// Memory pool parameters
const (
	// Memory alignment for allocations (cache line size)
	MemoryAlignment = 64

	// Pool limit used when the OS does not report physical memory
	defaultSystemMemory = 16 * 1024 * 1024 * 1024
)

// Stream parameters
const (
	// Pending tasks a stream buffers before Submit blocks
	StreamQueueDepth = 1000
)
