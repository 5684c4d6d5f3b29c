// Package report records matrix multiplication runs so they can be archived
// and compared against a baseline.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/LynnColeArt/gridlaunch"
	"github.com/LynnColeArt/gridlaunch/matmul"
)

// Report captures the result of a single run
type Report struct {
	Width      int           `json:"width" msgpack:"w"`
	GridWidth  int           `json:"grid_width" msgpack:"g"`
	BlockWidth int           `json:"block_width" msgpack:"b"`
	ValueA     int32         `json:"value_a" msgpack:"va"`
	ValueB     int32         `json:"value_b" msgpack:"vb"`
	MaxError   int64         `json:"max_error" msgpack:"e"`
	Elapsed    time.Duration `json:"elapsed_ns" msgpack:"t"`
	Checksum   int64         `json:"checksum" msgpack:"c"` // sum of all result elements
	Device     string        `json:"device" msgpack:"d"`
	Features   []string      `json:"features,omitempty" msgpack:"f,omitempty"`
	Version    string        `json:"version,omitempty" msgpack:"v,omitempty"`
	Timestamp  time.Time     `json:"timestamp" msgpack:"ts"`
}

// New builds a report for a uniform run.
func New(res *matmul.Result, valueA, valueB int32, dev *gridlaunch.Device) *Report {
	r := &Report{
		Width:      res.C.Width,
		GridWidth:  res.Decomposition.GridWidth,
		BlockWidth: res.Decomposition.BlockWidth,
		ValueA:     valueA,
		ValueB:     valueB,
		MaxError:   res.MaxError,
		Elapsed:    res.Elapsed,
		Checksum:   res.C.Sum(1),
		Version:    gridlaunch.Version(),
		Timestamp:  time.Now().UTC(),
	}
	if dev != nil {
		r.Device = dev.Name
		r.Features = dev.Features
	}
	return r
}

// Format is an on-disk encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
)

// codecFor picks the encoding from the file name: .json or .msgpack,
// optionally followed by .lz4 for a compressed frame.
func codecFor(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, ".lz4")
	name = strings.TrimSuffix(name, ".lz4")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, compressed, nil
	default:
		return 0, false, fmt.Errorf("unknown report format for %q (want .json, .msgpack, optionally .lz4)", path)
	}
}

// Encode writes r to w.
func Encode(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown format %d", f)
	}
}

// Decode reads a report from rd.
func Decode(rd io.Reader, f Format) (*Report, error) {
	var r Report
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	default:
		err = fmt.Errorf("unknown format %d", f)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes r to path in the format implied by its extension.
func Save(path string, r *Report) (err error) {
	f, compressed, err := codecFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(file)
	var w io.Writer = bw
	var zw *lz4.Writer
	if compressed {
		zw = lz4.NewWriter(bw)
		w = zw
	}
	if err := Encode(w, r, f); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	f, compressed, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rd io.Reader = bufio.NewReader(file)
	if compressed {
		rd = lz4.NewReader(rd)
	}
	r, err := Decode(rd, f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return r, nil
}
