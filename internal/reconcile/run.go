package reconcile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"example.com/flightlog/internal/common"
	"example.com/flightlog/internal/flightlog"
)

// Header is the first CSV row.
var Header = []string{"timestamp", "type", "accel_x", "accel_y", "accel_z"}

// Options wires the output streams of a run. CSV receives the table, Diag
// the human-readable diagnostics. Metrics is optional.
type Options struct {
	CSV     io.Writer
	Diag    io.Writer
	Metrics *common.Metrics
}

// Reporter turns decoded records into CSV rows and diagnostics.
type Reporter struct {
	csv     *csv.Writer
	diag    io.Writer
	metrics *common.Metrics
	session *Session
}

func NewReporter(opts Options) *Reporter {
	diag := opts.Diag
	if diag == nil {
		diag = io.Discard
	}
	out := opts.CSV
	if out == nil {
		out = io.Discard
	}
	return &Reporter{
		csv:     csv.NewWriter(out),
		diag:    diag,
		metrics: opts.Metrics,
		session: NewSession(),
	}
}

// Session returns the reporter's session state.
func (r *Reporter) Session() *Session {
	return r.session
}

// WriteHeader emits the CSV header row.
func (r *Reporter) WriteHeader() error {
	return r.csv.Write(Header)
}

// Frame handles one classified container line. Only structural errors are
// returned; checksum mismatches are reported and recorded.
func (r *Reporter) Frame(f flightlog.Frame) error {
	if r.metrics != nil {
		r.metrics.AddLine()
	}
	switch f.Kind {
	case flightlog.FrameStart:
		if r.session.started {
			common.Logf("line %d: start marker repeated, declared %d bytes", f.Line, f.Declared)
		}
		r.session.Declare(f.Declared, f.Line)
		if r.metrics != nil {
			r.metrics.SetTotalBytes(f.Declared)
		}
		return nil
	case flightlog.FrameEnd:
		r.session.End()
		return nil
	}
	if len(f.Data) == 0 {
		return nil
	}
	if r.session.Ended() {
		common.Logf("line %d: data after end marker", f.Line)
	}
	d, err := flightlog.Decode(f.Data)
	if err != nil {
		return &flightlog.LineError{Line: f.Line, Text: fmt.Sprintf("% X", f.Data), Err: err}
	}
	return r.Record(d, f.Line)
}

// Record reports a decoded record.
func (r *Reporter) Record(d flightlog.Decoded, line int) error {
	if !r.session.Observe(d, line) {
		fmt.Fprintln(r.diag, "checksums don't match!")
		if r.metrics != nil {
			r.metrics.IncChecksumError()
		}
	}
	if r.metrics != nil {
		r.metrics.AddRecord(flightlog.RecordSize)
	}
	return r.csv.Write(Row(d.Record))
}

// Finish flushes the table and writes the closing diagnostic.
func (r *Reporter) Finish() error {
	if err := r.Flush(); err != nil {
		return err
	}
	msg, err := r.session.Finish()
	fmt.Fprintln(r.diag, msg)
	return err
}

// Abort flushes the rows written so far and records a structural failure.
func (r *Reporter) Abort(cause error) error {
	line := 0
	var le *flightlog.LineError
	if errors.As(cause, &le) {
		line = le.Line
	}
	r.session.Abort(cause, line)
	if err := r.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.diag, "error: %v\n", cause)
	return cause
}

func (r *Reporter) Flush() error {
	r.csv.Flush()
	return r.csv.Error()
}

// Row formats a record as CSV fields with accelerations in m/s^2.
func Row(rec flightlog.Record) []string {
	x, y, z := rec.AccelMS2()
	return []string{
		strconv.FormatUint(rec.Timestamp, 10),
		strconv.Itoa(int(rec.Type)),
		formatAccel(x),
		formatAccel(y),
		formatAccel(z),
	}
}

func formatAccel(v float64) string {
	return strconv.FormatFloat(flightlog.Round2(v), 'f', 2, 64)
}

// Run decodes a hex log container from in. Rows already written stay written
// when a structural error aborts the run.
func Run(in io.Reader, opts Options) (*Session, error) {
	rep := NewReporter(opts)
	if opts.Metrics != nil {
		opts.Metrics.Start()
		defer opts.Metrics.Stop()
	}
	if err := rep.WriteHeader(); err != nil {
		return rep.Session(), err
	}
	sc := flightlog.NewScanner(in)
	for {
		f, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rep.Session(), rep.Abort(err)
		}
		if err := rep.Frame(f); err != nil {
			return rep.Session(), rep.Abort(err)
		}
	}
	return rep.Session(), rep.Finish()
}

// RunBinary decodes a raw binary log. The declared total is the size of data.
func RunBinary(data []byte, opts Options) (*Session, error) {
	rep := NewReporter(opts)
	if opts.Metrics != nil {
		opts.Metrics.SetTotalBytes(int64(len(data)))
		opts.Metrics.Start()
		defer opts.Metrics.Stop()
	}
	if err := rep.WriteHeader(); err != nil {
		return rep.Session(), err
	}
	rep.session.Declare(int64(len(data)), 0)
	for i, frame := range flightlog.SplitRecords(data) {
		d, err := flightlog.Decode(frame)
		if err != nil {
			return rep.Session(), rep.Abort(fmt.Errorf("record %d at offset %d: %w", i, i*flightlog.RecordSize, err))
		}
		if err := rep.Record(d, 0); err != nil {
			return rep.Session(), rep.Abort(err)
		}
	}
	return rep.Session(), rep.Finish()
}
