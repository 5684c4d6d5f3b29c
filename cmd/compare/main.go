// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command compare compares a run report against a baseline report
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/LynnColeArt/gridlaunch/report"
)

func main() {
	var (
		baselineFile = flag.String("baseline", "baseline.json", "Baseline report file")
		currentFile  = flag.String("current", "current.json", "Current report file")
		perfRegress  = flag.Float64("perf-regress", 1.1, "Performance regression threshold (1.1 = 10% slower)")
	)
	flag.Parse()

	baseline, err := report.Load(*baselineFile)
	if err != nil {
		log.Fatalf("Failed to load baseline: %v", err)
	}

	current, err := report.Load(*currentFile)
	if err != nil {
		log.Fatalf("Failed to load current report: %v", err)
	}

	comp := report.Compare(baseline, current, *perfRegress)
	printSummary(baseline, comp)

	if comp.Status == report.StatusFail {
		os.Exit(1)
	}
}

func printSummary(base *report.Report, comp report.Comparison) {
	fmt.Println("=== Run Comparison ===")
	fmt.Println()
	fmt.Printf("Problem: [%d x %d], grid %d, block %d\n", base.Width, base.Width, base.GridWidth, base.BlockWidth)
	fmt.Printf("%-6s %10s %10s %8s %12s\n", "Status", "Baseline", "Current", "Speedup", "MaxErr Δ")
	fmt.Println(strings.Repeat("-", 52))
	fmt.Printf("%-6s %10.3f %10.3f %8.2f %12d\n",
		comp.Status,
		float64(comp.BaselineDuration)/1e6, // Convert to ms
		float64(comp.CurrentDuration)/1e6,
		comp.SpeedupFactor,
		comp.MaxErrorDelta)
	if comp.Message != "" {
		fmt.Printf("\n%s\n", comp.Message)
	}
}
