package matmul

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/LynnColeArt/gridlaunch"
)

// Params describes one multiplication run.
type Params struct {
	Width      int
	GridWidth  int
	BlockWidth int
	InitA      Initializer
	InitB      Initializer
}

// Result is the outcome of a run.
type Result struct {
	A, B, C       *Matrix
	Decomposition Decomposition
	// Elapsed covers device allocation through the final synchronization,
	// measured with stream events.
	Elapsed time.Duration
	// MaxError is the largest |C[i] - expected| for uniform runs, 0 otherwise.
	MaxError int64
}

// Orchestrator drives runs on a gridlaunch context. Every run gets its own
// stream and buffers, so a failed run does not poison the next one.
type Orchestrator struct {
	ctx    *gridlaunch.Context
	kernel gridlaunch.Kernel
	logger *log.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger traces every step of a run to l.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKernel replaces the multiplication kernel. The kernel receives the
// same arguments as Kernel.
func WithKernel(k gridlaunch.Kernel) Option {
	return func(o *Orchestrator) {
		if k != nil {
			o.kernel = k
		}
	}
}

// New returns an orchestrator bound to ctx.
func New(ctx *gridlaunch.Context, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ctx:    ctx,
		kernel: Kernel,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunUniform multiplies a width x width matrix filled with valueA by one
// filled with valueB and checks every element of the product against
// valueA*valueB*width.
func (o *Orchestrator) RunUniform(width, gridWidth, blockWidth int, valueA, valueB int32) (*Result, error) {
	res, err := o.Run(Params{
		Width:      width,
		GridWidth:  gridWidth,
		BlockWidth: blockWidth,
		InitA:      Uniform(valueA),
		InitB:      Uniform(valueB),
	})
	if err != nil {
		return nil, err
	}
	res.MaxError = MaxError(res.C, ExpectedUniform(valueA, valueB, width), o.ctx.Workers())
	o.logger.Printf("validated: max error %d", res.MaxError)
	return res, nil
}

// Run performs one multiplication. A failure at any step aborts the run and
// releases every buffer allocated so far; there is no retry.
func (o *Orchestrator) Run(p Params) (res *Result, err error) {
	dec, err := CheckDecomposition(p.Width, p.GridWidth, p.BlockWidth)
	if err != nil {
		return nil, err
	}
	if p.InitA == nil || p.InitB == nil {
		return nil, gridlaunch.NewInvalidArgError("Run", "both input initializers are required")
	}
	o.logger.Printf("multiplying [%d x %d] x [%d x %d] with %s", p.Width, p.Width, p.Width, p.Width, dec)

	// Host buffers
	hA, err := NewMatrix(p.Width)
	if err != nil {
		return nil, err
	}
	hB, err := NewMatrix(p.Width)
	if err != nil {
		return nil, err
	}
	hC, err := NewMatrix(p.Width)
	if err != nil {
		return nil, err
	}
	hA.Fill(p.InitA)
	hB.Fill(p.InitB)

	stream := o.ctx.CreateStream()
	defer o.ctx.DestroyStream(stream)
	start, stop := gridlaunch.NewEvent(), gridlaunch.NewEvent()
	if err := start.Record(stream); err != nil {
		return nil, err
	}
	if err := start.Synchronize(); err != nil {
		return nil, err
	}

	// Device buffers; each is a fresh allocation so none alias
	size := hA.Bytes()
	var device []gridlaunch.DevicePtr
	defer func() {
		// Drain the stream before releasing memory it may still touch
		syncErr := stream.Synchronize()
		for _, ptr := range device {
			if ferr := o.ctx.Free(ptr); ferr != nil && err == nil {
				err = ferr
			}
		}
		if err == nil && syncErr != nil {
			err = syncErr
		}
		// A failed release also fails a run that had already produced its result
		if err != nil {
			res = nil
		}
	}()
	for _, name := range []string{"A", "B", "C"} {
		ptr, merr := o.ctx.Malloc(size)
		if merr != nil {
			return nil, fmt.Errorf("allocating device buffer %s: %w", name, merr)
		}
		device = append(device, ptr)
	}
	dA, dB, dC := device[0], device[1], device[2]

	// Transfer in, compute, transfer out: all ordered on one stream
	if err := o.ctx.MemcpyAsync(dA, hA.Data, size, gridlaunch.MemcpyHostToDevice, stream); err != nil {
		return nil, err
	}
	if err := o.ctx.MemcpyAsync(dB, hB.Data, size, gridlaunch.MemcpyHostToDevice, stream); err != nil {
		return nil, err
	}
	if err := o.ctx.LaunchStream(o.kernel, dec.Grid(), dec.Block(), stream, dA, dB, dC, p.Width); err != nil {
		return nil, err
	}
	if err := o.ctx.MemcpyAsync(hC.Data, dC, size, gridlaunch.MemcpyDeviceToHost, stream); err != nil {
		return nil, err
	}
	if err := stop.Record(stream); err != nil {
		return nil, err
	}

	// hC is only valid once the stream has drained
	if err := stream.Synchronize(); err != nil {
		return nil, err
	}
	elapsed, err := gridlaunch.ElapsedTime(start, stop)
	if err != nil {
		return nil, err
	}
	o.logger.Printf("transfer and compute took %v", elapsed)

	return &Result{
		A:             hA,
		B:             hB,
		C:             hC,
		Decomposition: dec,
		Elapsed:       elapsed,
	}, nil
}
