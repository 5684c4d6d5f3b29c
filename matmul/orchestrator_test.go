package matmul_test

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/gridlaunch"
	"github.com/LynnColeArt/gridlaunch/matmul"
)

func newOrchestrator(t *testing.T, opts ...matmul.Option) (*matmul.Orchestrator, *gridlaunch.Context) {
	t.Helper()
	ctx := gridlaunch.NewContext()
	t.Cleanup(func() { ctx.Destroy() })
	return matmul.New(ctx, opts...), ctx
}

func requireNoDeviceMemory(t *testing.T, ctx *gridlaunch.Context) {
	t.Helper()
	allocated, _ := ctx.MemoryStats()
	require.Zero(t, allocated, "device buffers leaked")
}

func TestRunUniformScenario(t *testing.T) {
	o, ctx := newOrchestrator(t)

	res, err := o.RunUniform(4, 2, 2, 3, 2)
	require.NoError(t, err)

	require.Equal(t, 4, res.C.Width)
	for i, v := range res.C.Data {
		require.Equal(t, int32(24), v, "element %d", i)
	}
	assert.Zero(t, res.MaxError)
	assert.Positive(t, res.Elapsed)
	assert.Equal(t, matmul.Decomposition{GridWidth: 2, BlockWidth: 2}, res.Decomposition)
	requireNoDeviceMemory(t, ctx)
}

func TestRunRejectsUnderCoveringDecomposition(t *testing.T) {
	var launched atomic.Bool
	spy := gridlaunch.KernelFunc(func(tid gridlaunch.ThreadID, args ...interface{}) {
		launched.Store(true)
	})
	o, ctx := newOrchestrator(t, matmul.WithKernel(spy))

	res, err := o.RunUniform(100, 1, 5, 3, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, gridlaunch.IsDecompositionError(err), "got %v", err)
	assert.False(t, launched.Load())

	_, peak := ctx.MemoryStats()
	assert.Zero(t, peak, "nothing may be allocated before the check")
}

func TestRunAcceptsExactCoverage(t *testing.T) {
	o, _ := newOrchestrator(t)

	res, err := o.RunUniform(100, 10, 10, 3, 2)
	require.NoError(t, err)
	assert.Zero(t, res.MaxError)
	for _, v := range res.C.Data {
		require.Equal(t, int32(600), v)
	}
}

func TestRunOverCoveringDecomposition(t *testing.T) {
	o, ctx := newOrchestrator(t)

	// 3 x 3 blocks of 8 x 8 cover 24 x 24; the matrix is 17 x 17
	res, err := o.RunUniform(17, 3, 8, -5, 7)
	require.NoError(t, err)
	assert.Zero(t, res.MaxError)
	require.NoError(t, matmul.Verify(res.A, res.B, res.C))
	requireNoDeviceMemory(t, ctx)
}

func TestRunGeneralInitializers(t *testing.T) {
	o, _ := newOrchestrator(t)

	res, err := o.Run(matmul.Params{
		Width:      23,
		GridWidth:  4,
		BlockWidth: 6,
		InitA:      func(row, col int) int32 { return int32(row - 2*col) },
		InitB:      func(row, col int) int32 { return int32((row*31+col*17)%11 - 5) },
	})
	require.NoError(t, err)
	require.NoError(t, matmul.Verify(res.A, res.B, res.C))

	// Spot-check one element by hand
	var want int32
	for k := 0; k < 23; k++ {
		want += res.A.At(5, k) * res.B.At(k, 9)
	}
	assert.Equal(t, want, res.C.At(5, 9))
}

func TestRunIdentityLeavesMatrixUnchanged(t *testing.T) {
	o, _ := newOrchestrator(t)
	init := func(row, col int) int32 { return int32(row*100 + col) }

	res, err := o.Run(matmul.Params{Width: 9, GridWidth: 1, BlockWidth: 16, InitA: init, InitB: matmul.Identity()})
	require.NoError(t, err)
	assert.True(t, res.C.Equal(res.A))
}

func TestRunIsDeterministic(t *testing.T) {
	o, _ := newOrchestrator(t)

	first, err := o.RunUniform(33, 5, 7, 4, -3)
	require.NoError(t, err)
	second, err := o.RunUniform(33, 5, 7, 4, -3)
	require.NoError(t, err)

	assert.True(t, first.C.Equal(second.C))
	assert.Equal(t, first.MaxError, second.MaxError)
}

func TestRunLaunchFailure(t *testing.T) {
	// 40 x 40 = 1600 threads per block exceeds the device limit
	o, ctx := newOrchestrator(t)

	res, err := o.RunUniform(40, 1, 40, 3, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, gridlaunch.IsLaunchError(err), "got %v", err)
	requireNoDeviceMemory(t, ctx)
}

func TestRunKernelFaultAbortsAndReleasesBuffers(t *testing.T) {
	faulty := gridlaunch.KernelFunc(func(tid gridlaunch.ThreadID, args ...interface{}) {
		if tid.GlobalX() == 1 && tid.GlobalY() == 1 {
			panic("device fault")
		}
	})
	o, ctx := newOrchestrator(t, matmul.WithKernel(faulty))

	res, err := o.RunUniform(8, 2, 4, 3, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, gridlaunch.IsLaunchError(err), "got %v", err)
	requireNoDeviceMemory(t, ctx)

	// The next run on the same orchestrator starts from a clean stream
	good := matmul.New(ctx)
	res, err = good.RunUniform(8, 2, 4, 3, 2)
	require.NoError(t, err)
	assert.Zero(t, res.MaxError)
}

func TestRunReleaseFailureDropsResult(t *testing.T) {
	ctx := gridlaunch.NewContext()
	t.Cleanup(func() { ctx.Destroy() })

	// The kernel releases input A itself, so the run's own Free of A fails
	var once sync.Once
	freeing := gridlaunch.KernelFunc(func(tid gridlaunch.ThreadID, args ...interface{}) {
		once.Do(func() { ctx.Free(args[0].(gridlaunch.DevicePtr)) })
	})

	res, err := matmul.New(ctx, matmul.WithKernel(freeing)).RunUniform(4, 2, 2, 3, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, gridlaunch.ErrDoubleFree)
	assert.Nil(t, res)
	requireNoDeviceMemory(t, ctx)
}

func TestRunDeviceAllocationFailure(t *testing.T) {
	ctx := gridlaunch.NewContext(gridlaunch.WithMemoryLimit(2 * 64 * 64 * 4))
	t.Cleanup(func() { ctx.Destroy() })

	// Two of the three device buffers fit
	res, err := matmul.New(ctx).RunUniform(64, 4, 16, 3, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, gridlaunch.IsAllocationError(err), "got %v", err)
	requireNoDeviceMemory(t, ctx)
}

func TestRunHugeShapesFailWithoutPanicking(t *testing.T) {
	o, ctx := newOrchestrator(t)

	tests := []struct {
		name               string
		width, grid, block int
		check              func(error) bool
	}{
		{"width squared wraps", 1 << 32, 1, 1, gridlaunch.IsDecompositionError},
		{"width squared exceeds int64", 3037000500, 1, 1, gridlaunch.IsDecompositionError},
		{"covered but too large for the host", 1 << 32, 65536, 65536, gridlaunch.IsAllocationError},
		{"block over the thread limit", 1, 65536, 65536, gridlaunch.IsLaunchError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				res *matmul.Result
				err error
			)
			require.NotPanics(t, func() {
				res, err = o.RunUniform(tt.width, tt.grid, tt.block, 3, 2)
			})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, tt.check(err), "got %v", err)
			requireNoDeviceMemory(t, ctx)
		})
	}
}

func TestRunRejectsBadParams(t *testing.T) {
	o, _ := newOrchestrator(t)

	_, err := o.Run(matmul.Params{Width: 4, GridWidth: 2, BlockWidth: 2})
	assert.True(t, gridlaunch.IsInvalidArgError(err), "missing initializers: %v", err)

	_, err = o.RunUniform(0, 1, 1, 1, 1)
	assert.True(t, gridlaunch.IsInvalidArgError(err), "zero width: %v", err)
}

func TestRunLogsSteps(t *testing.T) {
	var buf bytes.Buffer
	o, _ := newOrchestrator(t, matmul.WithLogger(log.New(&buf, "", 0)))

	_, err := o.RunUniform(4, 2, 2, 3, 2)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.Contains(out, "multiplying [4 x 4] x [4 x 4] with grid(2x2) block(2x2)"), out)
	assert.True(t, strings.Contains(out, "max error 0"), out)
}
