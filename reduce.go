package gridlaunch

import (
	"math"
	"sync"
)

// ReduceOp is an associative, commutative binary operator with its identity
// element. Parallel reductions combine per-worker partials with it, so no
// accumulator is ever shared between workers.
type ReduceOp[T any] struct {
	Identity T
	Combine  func(a, b T) T
}

// SumInt64 adds.
var SumInt64 = ReduceOp[int64]{
	Identity: 0,
	Combine:  func(a, b int64) int64 { return a + b },
}

// MaxInt64 keeps the larger value.
var MaxInt64 = ReduceOp[int64]{
	Identity: math.MinInt64,
	Combine: func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	},
}

// ParallelReduce folds elem(0..n-1) with op using up to workers goroutines.
// Each worker reduces a contiguous chunk into its own partial; the partials
// are then combined in worker order. n <= 0 yields op.Identity.
func ParallelReduce[T any](n, workers int, op ReduceOp[T], elem func(i int) T) T {
	if n <= 0 {
		return op.Identity
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	partials := make([]T, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		partials[w] = op.Identity
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			acc := op.Identity
			for i := lo; i < hi; i++ {
				acc = op.Combine(acc, elem(i))
			}
			partials[w] = acc
		}(w, lo, hi)
	}
	wg.Wait()

	result := op.Identity
	for _, p := range partials {
		result = op.Combine(result, p)
	}
	return result
}

// Reduce folds the int32 contents of a device buffer on the context's workers.
// It waits for the default stream so that pending kernel writes are visible.
func (ctx *Context) Reduce(data DevicePtr, n int, op ReduceOp[int64]) (int64, error) {
	if err := ctx.defaultStream.Synchronize(); err != nil {
		return op.Identity, err
	}
	view := data.Int32()
	if n < 0 || n > len(view) {
		return op.Identity, NewInvalidArgError("Reduce", "element count exceeds buffer")
	}
	return ParallelReduce(n, ctx.workers, op, func(i int) int64 { return int64(view[i]) }), nil
}
