// Package matmul multiplies square int32 matrices with a non-tiled kernel
// launched over a 2-D grid of 2-D blocks.
//
// A run owns three host buffers and three device buffers. Inputs are
// initialized on the host, transferred in, multiplied on the device, and the
// product is transferred out. The host synchronizes with the device before it
// reads the product, and every device buffer is released on every exit path.
package matmul
