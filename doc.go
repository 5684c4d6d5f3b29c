// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gridlaunch runs CUDA-style grid/block kernels on the host CPU.
//
// A Context owns a capacity-limited device memory pool and one or more
// in-order streams. Transfers, kernel launches and timing events are
// enqueued on a stream and execute in submission order; the host blocks only
// at explicit synchronization points. Work-items of a launch run on a fixed
// set of goroutine workers, one block at a time per worker.
//
// The matmul subpackage drives a complete host/device round trip on top of
// this runtime.
//
// Example usage:
//
//	ctx := gridlaunch.NewContext()
//	defer ctx.Destroy()
//
//	d_a, _ := ctx.Malloc(n * 4) // n int32s
//	ctx.Memcpy(d_a, h_a, n*4, gridlaunch.MemcpyHostToDevice)
//
//	grid := gridlaunch.Dim3{X: (n + 255) / 256}
//	block := gridlaunch.Dim3{X: 256}
//	ctx.Launch(myKernel, grid, block, d_a, n)
//	ctx.Memcpy(h_a, d_a, n*4, gridlaunch.MemcpyDeviceToHost)
package gridlaunch
