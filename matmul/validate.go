package matmul

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/LynnColeArt/gridlaunch"
)

// ExpectedUniform is the value of every element of A x B when A is filled
// with valueA and B with valueB.
func ExpectedUniform(valueA, valueB int32, width int) int64 {
	return int64(valueA) * int64(valueB) * int64(width)
}

// MaxError returns the largest absolute deviation of any element of m from
// expected. Workers reduce disjoint chunks into private partials that are
// combined with max afterwards.
func MaxError(m *Matrix, expected int64, workers int) int64 {
	if m.Len() == 0 {
		return 0
	}
	return gridlaunch.ParallelReduce(m.Len(), workers, gridlaunch.MaxInt64, func(i int) int64 {
		d := int64(m.Data[i]) - expected
		if d < 0 {
			d = -d
		}
		return d
	})
}

// Verify checks every element of c against the row-by-column dot product of
// a and b, computed independently with gonum. It returns a numerical error
// naming the first mismatching element. Products are compared exactly, so
// inputs must be small enough that neither the kernel's int32 accumulation
// overflows nor the float64 reference loses precision.
func Verify(a, b, c *Matrix) error {
	w := a.Width
	if b.Width != w || c.Width != w {
		return gridlaunch.NewInvalidArgError("Verify",
			fmt.Sprintf("width mismatch: a=%d b=%d c=%d", a.Width, b.Width, c.Width))
	}

	var ref mat.Dense
	ref.Mul(toDense(a), toDense(b))

	for row := 0; row < w; row++ {
		for col := 0; col < w; col++ {
			want := ref.At(row, col)
			got := float64(c.At(row, col))
			if got != want {
				return gridlaunch.NewNumericalError("Verify",
					fmt.Sprintf("C[%d][%d] = %v, want %v", row, col, got, want),
					[2]int{row, col})
			}
		}
	}
	return nil
}

func toDense(m *Matrix) *mat.Dense {
	data := make([]float64, m.Len())
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Width, m.Width, data)
}
