package gridlaunch

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of memory transfer.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

// String returns the CUDA-style name of the transfer direction.
func (k MemcpyKind) String() string {
	switch k {
	case MemcpyHostToHost:
		return "HostToHost"
	case MemcpyHostToDevice:
		return "HostToDevice"
	case MemcpyDeviceToHost:
		return "DeviceToHost"
	case MemcpyDeviceToDevice:
		return "DeviceToDevice"
	case MemcpyDefault:
		return "Default"
	default:
		return fmt.Sprintf("MemcpyKind(%d)", int(k))
	}
}

// MemoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously released blocks. A block is only
// handed out again after it has been freed, so live allocations never
// overlap.
type MemoryPool struct {
	mu         sync.Mutex
	limit      int64
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64 // bytes in live blocks
	reserved   int64 // bytes in live and free blocks
	peakAlloc  int64
}

type allocation struct {
	buf  []byte // owns the storage; keeps it reachable while pooled
	used bool
}

// NewMemoryPool creates a pool that never holds more than limit live bytes.
// A non-positive limit means no limit.
func NewMemoryPool(limit int64) *MemoryPool {
	return &MemoryPool{
		limit:     limit,
		allocated: make(map[uintptr]*allocation),
	}
}

// DevicePtr represents a pointer to device memory. Kernels access the data
// through the typed views (Int32, Float32, Byte); host code moves data in and
// out with Memcpy.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// Malloc allocates device memory of the specified size in bytes.
// The memory is zeroed and its block is rounded up to MemoryAlignment.
//
// Example:
//
//	ptr, err := ctx.Malloc(1024 * 4) // Allocate 1024 int32s
//	if err != nil {
//		return err
//	}
//	defer ctx.Free(ptr)
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero DevicePtr.
// The memory may be retained in the pool for future allocations.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Memcpy copies memory between host and device. Like cudaMemcpy it is
// ordered on the default stream: it waits for all previously enqueued work
// on that stream, then copies, then returns. Any error already recorded on
// the stream is returned instead of copying.
//
// Parameters:
//   - dst: Destination (DevicePtr or Go slice)
//   - src: Source (DevicePtr or Go slice)
//   - size: Number of bytes to copy
//   - kind: Transfer direction
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	if err := ctx.MemcpyAsync(dst, src, size, kind, ctx.defaultStream); err != nil {
		return err
	}
	return ctx.defaultStream.Synchronize()
}

// MemcpyAsync enqueues a copy on stream and returns immediately. The host
// slice involved must not be touched until the stream has been synchronized.
func (ctx *Context) MemcpyAsync(dst, src interface{}, size int, kind MemcpyKind, stream *Stream) error {
	const op = "Memcpy"

	d, err := resolveOperand(op, "dst", dst)
	if err != nil {
		return err
	}
	s, err := resolveOperand(op, "src", src)
	if err != nil {
		return err
	}
	if err := checkKind(op, kind, d.device, s.device); err != nil {
		return err
	}
	if size < 0 {
		return NewInvalidArgError(op, fmt.Sprintf("negative size %d", size))
	}
	if size > d.len || size > s.len {
		return NewInvalidArgError(op,
			fmt.Sprintf("%s of %d bytes overruns dst (%d bytes) or src (%d bytes)", kind, size, d.len, s.len))
	}
	if size == 0 {
		return nil
	}

	return stream.Submit(func() error {
		copy(unsafe.Slice((*byte)(d.ptr), size), unsafe.Slice((*byte)(s.ptr), size))
		return nil
	})
}

type operand struct {
	ptr    unsafe.Pointer
	len    int // bytes
	device bool
}

func resolveOperand(op, which string, v interface{}) (operand, error) {
	switch x := v.(type) {
	case DevicePtr:
		if x.ptr == nil {
			return operand{}, NewInvalidArgError(op, which+" is a nil device pointer")
		}
		return operand{ptr: x.ptr, len: x.size, device: true}, nil
	case []byte:
		return hostOperand(unsafe.SliceData(x), len(x)), nil
	case []int32:
		return hostOperand(unsafe.SliceData(x), len(x)*4), nil
	case []float32:
		return hostOperand(unsafe.SliceData(x), len(x)*4), nil
	case []float64:
		return hostOperand(unsafe.SliceData(x), len(x)*8), nil
	default:
		return operand{}, NewInvalidArgError(op, fmt.Sprintf("unsupported %s type: %T", which, v))
	}
}

func hostOperand[T any](p *T, n int) operand {
	return operand{ptr: unsafe.Pointer(p), len: n}
}

func checkKind(op string, kind MemcpyKind, dstDevice, srcDevice bool) error {
	var wantDst, wantSrc bool
	switch kind {
	case MemcpyDefault:
		return nil
	case MemcpyHostToHost:
	case MemcpyHostToDevice:
		wantDst = true
	case MemcpyDeviceToHost:
		wantSrc = true
	case MemcpyDeviceToDevice:
		wantDst, wantSrc = true, true
	default:
		return NewInvalidArgError(op, fmt.Sprintf("unknown transfer kind %d", int(kind)))
	}
	if dstDevice != wantDst || srcDevice != wantSrc {
		return NewInvalidArgError(op, fmt.Sprintf("operands do not match transfer kind %s", kind))
	}
	return nil
}

// MemoryPool methods

// Allocate allocates zeroed memory from the pool
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Round up to alignment
	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	if mp.limit > 0 && mp.totalAlloc+int64(alignedSize) > mp.limit {
		return DevicePtr{}, NewAllocationError("Malloc",
			fmt.Sprintf("cannot allocate %d bytes: %d of %d bytes in use", size, mp.totalAlloc, mp.limit), ErrOutOfMemory)
	}

	// Try to reuse from free list
	for i, alloc := range mp.freeList {
		if len(alloc.buf) >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			clear(alloc.buf)
			mp.track(int64(len(alloc.buf)))
			return DevicePtr{ptr: unsafe.Pointer(&alloc.buf[0]), size: size}, nil
		}
	}

	// Drop cached blocks that would push the pool past its limit
	if mp.limit > 0 && mp.reserved+int64(alignedSize) > mp.limit {
		mp.compactFreeList()
	}

	buf, err := makeBlock(alignedSize)
	if err != nil {
		return DevicePtr{}, err
	}
	ptr := unsafe.Pointer(&buf[0])
	mp.allocated[uintptr(ptr)] = &allocation{buf: buf, used: true}
	mp.reserved += int64(alignedSize)
	mp.track(int64(alignedSize))

	return DevicePtr{ptr: ptr, size: size}, nil
}

func makeBlock(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewAllocationError("Malloc", fmt.Sprintf("cannot allocate %d bytes", n), fmt.Errorf("%v", r))
		}
	}()
	return make([]byte, n), nil
}

func (mp *MemoryPool) track(n int64) {
	mp.totalAlloc += n
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
}

func (mp *MemoryPool) compactFreeList() {
	for _, alloc := range mp.freeList {
		delete(mp.allocated, uintptr(unsafe.Pointer(&alloc.buf[0])))
		mp.reserved -= int64(len(alloc.buf))
	}
	mp.freeList = nil
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if ptr.offset != 0 {
		return NewAllocationError("Free", "pointer is an offset into an allocation", nil)
	}
	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok {
		return NewAllocationError("Free", "pointer not found in allocation pool", nil)
	}
	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(len(alloc.buf))
	return nil
}

// Release drops every cached block. Live pointers stay valid until freed;
// after that they are no longer tracked.
func (mp *MemoryPool) Release() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.compactFreeList()
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// DevicePtr methods for kernels

// Int32 returns an int32 view of the device memory.
func (d DevicePtr) Int32() []int32 {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*int32)(d.ptr), d.size/4)
}

// Float32 returns a float32 view of the device memory.
func (d DevicePtr) Float32() []float32 {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*float32)(d.ptr), d.size/4)
}

// Byte returns a byte view of the entire region.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(d.ptr), d.size)
}

// Offset returns a new DevicePtr offset by the given number of bytes.
// The returned DevicePtr shares the same underlying memory.
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Add(d.ptr, bytes),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Size returns the size in bytes of the memory region
func (d DevicePtr) Size() int {
	return d.size
}

// IsNil reports whether d is the zero DevicePtr.
func (d DevicePtr) IsNil() bool {
	return d.ptr == nil
}

// Overlaps reports whether d and o share any byte of storage.
func (d DevicePtr) Overlaps(o DevicePtr) bool {
	if d.ptr == nil || o.ptr == nil {
		return false
	}
	a0, b0 := uintptr(d.ptr), uintptr(o.ptr)
	return a0 < b0+uintptr(o.size) && b0 < a0+uintptr(d.size)
}
