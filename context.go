package gridlaunch

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Context represents an execution context for gridlaunch operations.
// It manages device resources, memory allocation, and stream execution.
// A Context should be destroyed when no longer needed.
type Context struct {
	device        *Device
	memory        *MemoryPool
	workers       int
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	defaultStream *Stream
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithMemoryLimit caps the bytes of device memory the context may hold live.
func WithMemoryLimit(bytes int64) ContextOption {
	return func(ctx *Context) {
		ctx.memory = NewMemoryPool(bytes)
	}
}

// WithWorkers sets the number of goroutines that execute blocks of a launch.
// Non-positive values select runtime.NumCPU().
func WithWorkers(n int) ContextOption {
	return func(ctx *Context) {
		if n > 0 {
			ctx.workers = n
		}
	}
}

// NewContext creates a context bound to the CPU device with its own memory
// pool and default stream.
func NewContext(opts ...ContextOption) *Context {
	dev := GetDevice()
	ctx := &Context{
		device:  dev,
		workers: runtime.NumCPU(),
		streams: make(map[int]*Stream),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	if ctx.memory == nil {
		ctx.memory = NewMemoryPool(int64(dev.TotalMem))
	}
	ctx.defaultStream = ctx.CreateStream()
	return ctx
}

// Device returns the device this context runs on.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Workers returns the number of goroutines used per launch.
func (ctx *Context) Workers() int {
	return ctx.workers
}

// DefaultStream returns the stream used by Launch and Memcpy.
func (ctx *Context) DefaultStream() *Stream {
	return ctx.defaultStream
}

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := newStream(id)

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// DestroyStream drains stream and removes it from the context. The default
// stream cannot be destroyed.
func (ctx *Context) DestroyStream(stream *Stream) error {
	if stream == ctx.defaultStream {
		return NewInvalidArgError("DestroyStream", "cannot destroy the default stream")
	}
	err := stream.Synchronize()
	ctx.mu.Lock()
	delete(ctx.streams, stream.id)
	ctx.mu.Unlock()
	stream.close()
	return err
}

// Synchronize waits for all streams to complete and returns the first error
// any of them recorded.
func (ctx *Context) Synchronize() error {
	var first error
	for _, stream := range ctx.snapshotStreams() {
		if err := stream.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Destroy drains and closes every stream and drops pooled memory.
// The context must not be used afterwards.
func (ctx *Context) Destroy() error {
	err := ctx.Synchronize()
	for _, stream := range ctx.snapshotStreams() {
		stream.close()
	}
	ctx.mu.Lock()
	ctx.streams = make(map[int]*Stream)
	ctx.mu.Unlock()
	ctx.memory.Release()
	return err
}

// MemoryStats returns live and peak device bytes held by the context.
func (ctx *Context) MemoryStats() (allocated, peak int64) {
	return ctx.memory.GetStats()
}

func (ctx *Context) snapshotStreams() []*Stream {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	return streams
}

// Dim3 represents 3D dimensions for grid and block configurations.
// This matches CUDA's dim3 structure; zero Y or Z components mean 1.
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	n := d.normalize()
	return n.X * n.Y * n.Z
}

// normalize treats missing Y and Z extents as 1.
func (d Dim3) normalize() Dim3 {
	if d.Y == 0 {
		d.Y = 1
	}
	if d.Z == 0 {
		d.Z = 1
	}
	return d
}

// ThreadID identifies a thread's position within the execution hierarchy.
// It provides the same indexing semantics as CUDA's built-in variables:
// blockIdx, threadIdx, blockDim, and gridDim.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Global returns the global thread index
func (tid ThreadID) Global() int {
	return tid.GlobalX()
}

// GlobalX returns the global X index
func (tid ThreadID) GlobalX() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y index
func (tid ThreadID) GlobalY() int {
	return tid.BlockIdx.Y*tid.BlockDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z index
func (tid ThreadID) GlobalZ() int {
	return tid.BlockIdx.Z*tid.BlockDim.Z + tid.ThreadIdx.Z
}

// Kernel represents a compute kernel that can be executed in parallel.
// Implementations must be safe for concurrent use as Execute is called
// from multiple goroutines.
type Kernel interface {
	Execute(tid ThreadID, args ...interface{})
}

// KernelFunc is a function that can be launched as a kernel.
// It receives thread identification and variadic arguments.
type KernelFunc func(tid ThreadID, args ...interface{})

// Execute calls fn(tid, args...).
func (fn KernelFunc) Execute(tid ThreadID, args ...interface{}) {
	fn(tid, args...)
}
