package report

import (
	"fmt"
	"time"
)

// Status classifies a run against its baseline.
type Status string

const (
	StatusPass   Status = "PASS"
	StatusFail   Status = "FAIL"
	StatusSlower Status = "SLOWER"
	StatusFaster Status = "FASTER"
)

// Comparison is the outcome of comparing two reports.
type Comparison struct {
	Status           Status
	BaselineDuration time.Duration
	CurrentDuration  time.Duration
	SpeedupFactor    float64
	MaxErrorDelta    int64
	Message          string
}

// Compare checks cur against base. Runs of different shape, a non-zero max
// error or a checksum change fail; otherwise a run slower than base by more
// than perfRegress (1.1 = 10% slower) is SLOWER and one faster by the same
// factor is FASTER.
func Compare(base, cur *Report, perfRegress float64) Comparison {
	c := Comparison{
		Status:           StatusPass,
		BaselineDuration: base.Elapsed,
		CurrentDuration:  cur.Elapsed,
		MaxErrorDelta:    cur.MaxError - base.MaxError,
	}
	if cur.Elapsed > 0 {
		c.SpeedupFactor = float64(base.Elapsed) / float64(cur.Elapsed)
	}

	switch {
	case base.Width != cur.Width || base.ValueA != cur.ValueA || base.ValueB != cur.ValueB:
		c.Status = StatusFail
		c.Message = fmt.Sprintf("different problems: width %d vs %d, fill %d*%d vs %d*%d",
			base.Width, cur.Width, base.ValueA, base.ValueB, cur.ValueA, cur.ValueB)
	case cur.MaxError != 0:
		c.Status = StatusFail
		c.Message = fmt.Sprintf("max error %d", cur.MaxError)
	case base.Checksum != cur.Checksum:
		c.Status = StatusFail
		c.Message = fmt.Sprintf("checksum %d, baseline %d", cur.Checksum, base.Checksum)
	case perfRegress > 0 && float64(cur.Elapsed) > float64(base.Elapsed)*perfRegress:
		c.Status = StatusSlower
		c.Message = fmt.Sprintf("%.2fx slower", 1/c.SpeedupFactor)
	case perfRegress > 0 && float64(cur.Elapsed)*perfRegress < float64(base.Elapsed):
		c.Status = StatusFaster
		c.Message = fmt.Sprintf("%.2fx faster", c.SpeedupFactor)
	}
	return c
}
