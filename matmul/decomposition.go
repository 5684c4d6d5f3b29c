package matmul

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/LynnColeArt/gridlaunch"
)

// Decomposition is a square grid of square blocks: GridWidth x GridWidth
// work-groups of BlockWidth x BlockWidth work-items each.
type Decomposition struct {
	GridWidth  int
	BlockWidth int
}

// Grid returns the launch grid.
func (d Decomposition) Grid() gridlaunch.Dim3 {
	return gridlaunch.Dim3{X: d.GridWidth, Y: d.GridWidth, Z: 1}
}

// Block returns the launch block.
func (d Decomposition) Block() gridlaunch.Dim3 {
	return gridlaunch.Dim3{X: d.BlockWidth, Y: d.BlockWidth, Z: 1}
}

// WorkItems returns the number of work-items the decomposition launches,
// saturating at math.MaxInt64.
func (d Decomposition) WorkItems() int64 {
	side := mulSat(int64(d.GridWidth), int64(d.BlockWidth))
	return mulSat(side, side)
}

// Covers reports whether the decomposition reaches every element of a
// width x width matrix, i.e. block^2 * grid^2 >= width^2. Both shapes are
// square, so the test is made per dimension without forming any square.
func (d Decomposition) Covers(width int) bool {
	if width <= 0 {
		return true
	}
	if d.GridWidth <= 0 || d.BlockWidth <= 0 {
		return false
	}
	w, b := int64(width), int64(d.BlockWidth)
	return int64(d.GridWidth) >= (w-1)/b+1
}

// mulSat multiplies non-negative a and b, saturating at math.MaxInt64.
func mulSat(a, b int64) int64 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(lo)
}

// String formats the decomposition as grid(GxG) block(BxB).
func (d Decomposition) String() string {
	return fmt.Sprintf("grid(%dx%d) block(%dx%d)", d.GridWidth, d.GridWidth, d.BlockWidth, d.BlockWidth)
}

// CheckDecomposition validates a run's shape before anything is allocated.
func CheckDecomposition(width, gridWidth, blockWidth int) (Decomposition, error) {
	d := Decomposition{GridWidth: gridWidth, BlockWidth: blockWidth}
	if width <= 0 || gridWidth <= 0 || blockWidth <= 0 {
		return d, gridlaunch.NewInvalidArgError("CheckDecomposition",
			fmt.Sprintf("matrix width %d, grid width %d and block width %d must be positive", width, gridWidth, blockWidth))
	}
	if !d.Covers(width) {
		return d, gridlaunch.NewDecompositionError("CheckDecomposition",
			fmt.Sprintf("block_width^2 x grid_width^2 < width^2: %s spans %d of %d rows",
				d, mulSat(int64(gridWidth), int64(blockWidth)), width), d)
	}
	return d, nil
}

// BlocksFor returns the number of blocks of blockSize needed to cover n
// elements in one dimension.
func BlocksFor(n, blockSize int) int {
	if n <= 0 || blockSize <= 0 {
		return 0
	}
	return (n + blockSize - 1) / blockSize
}

// Suggest returns the smallest covering decomposition that keeps blockWidth.
func Suggest(width, blockWidth int) Decomposition {
	return Decomposition{GridWidth: BlocksFor(width, blockWidth), BlockWidth: blockWidth}
}
