package matmul

import (
	"fmt"
	"math"

	"github.com/LynnColeArt/gridlaunch"
)

// MaxElements bounds the element count of one matrix so that every flat
// index fits an int32 kernel argument.
const MaxElements = math.MaxInt32

// MaxWidth is the largest width whose square does not exceed MaxElements.
const MaxWidth = 46340

// Initializer yields the value of the element at (row, col).
type Initializer func(row, col int) int32

// Uniform fills every element with v.
func Uniform(v int32) Initializer {
	return func(int, int) int32 { return v }
}

// Identity yields the identity matrix.
func Identity() Initializer {
	return func(row, col int) int32 {
		if row == col {
			return 1
		}
		return 0
	}
}

// Matrix is a square matrix stored row-major: element (row, col) lives at
// Data[row*Width+col].
type Matrix struct {
	Width int
	Data  []int32
}

// NewMatrix allocates a zeroed width x width host matrix.
func NewMatrix(width int) (*Matrix, error) {
	if width <= 0 {
		return nil, gridlaunch.NewInvalidArgError("NewMatrix", fmt.Sprintf("width must be positive, got %d", width))
	}
	if width > MaxWidth {
		return nil, gridlaunch.NewAllocationError("NewMatrix",
			fmt.Sprintf("%d x %d matrix exceeds %d elements", width, width, MaxElements), nil)
	}
	data, err := makeHost(width * width)
	if err != nil {
		return nil, err
	}
	return &Matrix{Width: width, Data: data}, nil
}

func makeHost(n int) (data []int32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gridlaunch.NewAllocationError("NewMatrix",
				fmt.Sprintf("cannot allocate %d host elements", n), fmt.Errorf("%v", r))
		}
	}()
	return make([]int32, n), nil
}

// Fill sets every element from init.
func (m *Matrix) Fill(init Initializer) {
	for row := 0; row < m.Width; row++ {
		base := row * m.Width
		for col := 0; col < m.Width; col++ {
			m.Data[base+col] = init(row, col)
		}
	}
}

// At returns the element at (row, col).
func (m *Matrix) At(row, col int) int32 {
	return m.Data[row*m.Width+col]
}

// Set stores v at (row, col).
func (m *Matrix) Set(row, col int, v int32) {
	m.Data[row*m.Width+col] = v
}

// Len returns the number of elements.
func (m *Matrix) Len() int {
	return len(m.Data)
}

// Bytes returns the size of the matrix storage in bytes.
func (m *Matrix) Bytes() int {
	return len(m.Data) * 4
}

// Equal reports whether m and o have the same width and elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.Width != o.Width || len(m.Data) != len(o.Data) {
		return false
	}
	for i, v := range m.Data {
		if o.Data[i] != v {
			return false
		}
	}
	return true
}

// Sum returns the sum of all elements, reduced on workers goroutines.
func (m *Matrix) Sum(workers int) int64 {
	return gridlaunch.ParallelReduce(len(m.Data), workers, gridlaunch.SumInt64,
		func(i int) int64 { return int64(m.Data[i]) })
}
