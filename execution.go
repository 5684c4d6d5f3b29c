package gridlaunch

import (
	"fmt"
	"sync"
)

// Launch executes a kernel on the default stream
func (ctx *Context) Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchStream(kernel, grid, block, ctx.defaultStream, args...)
}

// LaunchFunc executes a kernel function on the default stream
func (ctx *Context) LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchFuncStream(fn, grid, block, ctx.defaultStream, args...)
}

// LaunchStream executes a kernel on a specific stream
func (ctx *Context) LaunchStream(kernel Kernel, grid, block Dim3, stream *Stream, args ...interface{}) error {
	if kernel == nil {
		return NewLaunchError("Launch", "nil kernel", nil)
	}
	return ctx.launchInternal(kernel.Execute, grid, block, stream, args...)
}

// LaunchFuncStream executes a kernel function on a specific stream
func (ctx *Context) LaunchFuncStream(fn KernelFunc, grid, block Dim3, stream *Stream, args ...interface{}) error {
	if fn == nil {
		return NewLaunchError("Launch", "nil kernel", nil)
	}
	return ctx.launchInternal(fn, grid, block, stream, args...)
}

// ValidateLaunch checks a launch configuration the way the driver would
// before accepting it. Zero Y or Z extents are read as 1.
func ValidateLaunch(grid, block Dim3) error {
	g, b := grid.normalize(), block.normalize()
	if g.X <= 0 || g.Y <= 0 || g.Z <= 0 {
		return NewLaunchError("Launch", fmt.Sprintf("invalid grid dimensions %+v", grid), nil)
	}
	if b.X <= 0 || b.Y <= 0 || b.Z <= 0 {
		return NewLaunchError("Launch", fmt.Sprintf("invalid block dimensions %+v", block), nil)
	}
	if b.X*b.Y*b.Z > MaxThreadsPerBlock {
		return NewLaunchError("Launch",
			fmt.Sprintf("block of %d threads exceeds the limit of %d", b.X*b.Y*b.Z, MaxThreadsPerBlock), nil)
	}
	if g.X > MaxGridDimX || g.Y > MaxGridDimYZ || g.Z > MaxGridDimYZ {
		return NewLaunchError("Launch", fmt.Sprintf("grid %+v exceeds device limits", grid), nil)
	}
	return nil
}

// launchInternal implements the core kernel execution logic. The launch is
// validated synchronously; execution happens when the stream reaches it.
// A panicking work-item fails the launch and the stream.
func (ctx *Context) launchInternal(
	kernelFunc func(ThreadID, ...interface{}),
	grid, block Dim3,
	stream *Stream,
	args ...interface{},
) error {
	if err := ValidateLaunch(grid, block); err != nil {
		return err
	}
	grid, block = grid.normalize(), block.normalize()

	gridSize := grid.Size()
	blockSize := block.Size()

	numWorkers := ctx.workers
	if gridSize < numWorkers {
		numWorkers = gridSize
	}

	// Each worker processes a contiguous range of blocks
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	return stream.Submit(func() error {
		var (
			wg       sync.WaitGroup
			failOnce sync.Once
			failure  error
		)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := min(startBlock+blocksPerWorker, gridSize)
			if startBlock >= endBlock {
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				var tid ThreadID
				defer func() {
					if r := recover(); r != nil {
						failOnce.Do(func() {
							failure = NewLaunchError("Kernel",
								fmt.Sprintf("work-item block=%+v thread=%+v faulted", tid.BlockIdx, tid.ThreadIdx),
								fmt.Errorf("%v", r))
						})
					}
				}()

				tid.BlockDim = block
				tid.GridDim = grid
				for blockID := startBlock; blockID < endBlock; blockID++ {
					tid.BlockIdx = linearTo3D(blockID, grid)

					// Threads of a block run sequentially on one worker
					for threadID := 0; threadID < blockSize; threadID++ {
						tid.ThreadIdx = linearTo3D(threadID, block)
						kernelFunc(tid, args...)
					}
				}
			}()
		}

		wg.Wait()
		return failure
	})
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}
