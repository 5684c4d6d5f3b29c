package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LynnColeArt/gridlaunch/report"
)

func TestCompare(t *testing.T) {
	base := sampleReport()

	tests := []struct {
		name   string
		mutate func(r *report.Report)
		want   report.Status
	}{
		{"identical", func(r *report.Report) {}, report.StatusPass},
		{"within threshold", func(r *report.Report) { r.Elapsed = base.Elapsed * 105 / 100 }, report.StatusPass},
		{"slower", func(r *report.Report) { r.Elapsed = base.Elapsed * 2 }, report.StatusSlower},
		{"faster", func(r *report.Report) { r.Elapsed = base.Elapsed / 2 }, report.StatusFaster},
		{"max error", func(r *report.Report) { r.MaxError = 3 }, report.StatusFail},
		{"checksum", func(r *report.Report) { r.Checksum++ }, report.StatusFail},
		{"different width", func(r *report.Report) { r.Width = 50 }, report.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := *base
			tt.mutate(&cur)
			c := report.Compare(base, &cur, 1.1)
			assert.Equal(t, tt.want, c.Status, c.Message)
		})
	}
}

func TestCompareSpeedup(t *testing.T) {
	base := sampleReport()
	cur := *base
	cur.Elapsed = base.Elapsed / 4
	cur.MaxError = 0

	c := report.Compare(base, &cur, 1.1)
	assert.InDelta(t, 4.0, c.SpeedupFactor, 1e-9)
	assert.Equal(t, base.Elapsed, c.BaselineDuration)
	assert.Equal(t, 375*time.Microsecond, c.CurrentDuration)
}
