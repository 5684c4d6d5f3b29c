// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command matmul multiplies two uniformly filled square matrices on the
// gridlaunch runtime and reports the elapsed time and the maximum error.
//
// Usage:
//
//	matmul [flags] matrix_width grid_width block_width
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/LynnColeArt/gridlaunch"
	"github.com/LynnColeArt/gridlaunch/matmul"
	"github.com/LynnColeArt/gridlaunch/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("matmul", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		valueA     = fs.Int("a", 3, "Fill value of matrix A")
		valueB     = fs.Int("b", 2, "Fill value of matrix B")
		reportPath = fs.String("report", "", "Write a run report (.json, .msgpack, optionally .lz4)")
		workers    = fs.Int("workers", 0, "Goroutines per launch (0 = number of CPUs)")
		verbose    = fs.Bool("v", false, "Trace each step of the run")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: matmul [flags] matrix_width grid_width block_width\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return 1
	}

	logger := log.New(stderr, "matmul: ", 0)

	dims := make([]int, 3)
	for i, name := range []string{"matrix_width", "grid_width", "block_width"} {
		v, err := strconv.Atoi(fs.Arg(i))
		if err != nil {
			logger.Printf("%s: %q is not an integer", name, fs.Arg(i))
			return 1
		}
		dims[i] = v
	}
	width, gridWidth, blockWidth := dims[0], dims[1], dims[2]

	if _, err := matmul.CheckDecomposition(width, gridWidth, blockWidth); err != nil {
		if gridlaunch.IsDecompositionError(err) {
			logger.Printf("Error block_width^2 x grid_width^2 < width^2, try again! (%v)", err)
			logger.Printf("smallest covering grid for block width %d: %s", blockWidth, matmul.Suggest(width, blockWidth))
		} else {
			logger.Print(err)
		}
		return 1
	}
	if *valueA != int(int32(*valueA)) || *valueB != int(int32(*valueB)) {
		logger.Printf("fill values must fit in int32")
		return 1
	}

	ctx := gridlaunch.NewContext(gridlaunch.WithWorkers(*workers))
	defer ctx.Destroy()

	var opts []matmul.Option
	if *verbose {
		logger.Print(gridlaunch.GetCPUInfo())
		opts = append(opts, matmul.WithLogger(logger))
	}

	fmt.Fprintf(stdout, "Perform Matrix Multiplication on [%d x %d] x [%d x %d]\n", width, width, width, width)

	res, err := matmul.New(ctx, opts...).RunUniform(width, gridWidth, blockWidth, int32(*valueA), int32(*valueB))
	if err != nil {
		logger.Printf("run failed: %v", err)
		return 1
	}

	fmt.Fprintf(stdout, "Using gridlaunch on %s:\n    time to calculate: %f ms.\n",
		ctx.Device().Name, float64(res.Elapsed.Nanoseconds())/1e6)
	fmt.Fprintf(stdout, "Checking for error...\n")
	fmt.Fprintf(stdout, "Max error: %d \n\n", res.MaxError)

	if *reportPath != "" {
		r := report.New(res, int32(*valueA), int32(*valueB), ctx.Device())
		if err := report.Save(*reportPath, r); err != nil {
			logger.Printf("failed to write report: %v", err)
			return 1
		}
		if *verbose {
			logger.Printf("report written to %s", *reportPath)
		}
	}
	return 0
}
