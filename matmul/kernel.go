package matmul

import "github.com/LynnColeArt/gridlaunch"

// Kernel is the non-tiled matrix multiplication kernel. It expects the
// launch arguments (a, b, c gridlaunch.DevicePtr, width int) and computes one
// element of c = a x b per work-item. Work-items outside the matrix do
// nothing, so the grid may over-cover it.
var Kernel gridlaunch.KernelFunc = func(tid gridlaunch.ThreadID, args ...interface{}) {
	row := tid.GlobalY()
	col := tid.GlobalX()
	width := args[3].(int)
	if row >= width || col >= width {
		return
	}

	m := args[0].(gridlaunch.DevicePtr).Int32()
	n := args[1].(gridlaunch.DevicePtr).Int32()
	p := args[2].(gridlaunch.DevicePtr).Int32()

	var sum int32
	for k := 0; k < width; k++ {
		sum += m[row*width+k] * n[k*width+col]
	}
	p[row*width+col] = sum
}
