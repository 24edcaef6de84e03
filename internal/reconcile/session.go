package reconcile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"example.com/flightlog/internal/flightlog"
)

var (
	ErrByteCountMismatch = errors.New("byte count mismatch")
	ErrChecksumErrors    = errors.New("checksum errors were found")
	ErrNoStartMarker     = errors.New("no start marker found")
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

// Finding is one noteworthy event of a decode session.
type Finding struct {
	Line      int      `json:"line,omitempty"`
	Kind      string   `json:"kind"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Timestamp *uint64  `json:"timestamp,omitempty"`
	Stored    string   `json:"stored,omitempty"`
	Computed  string   `json:"computed,omitempty"`
}

const (
	KindChecksum  = "checksum"
	KindByteCount = "byte_count"
	KindStructure = "structure"
	KindMarker    = "marker"
)

// AxisRange holds the extremes seen on one axis, in m/s^2.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (a *AxisRange) observe(v float64, first bool) {
	if first {
		a.Min, a.Max = v, v
		return
	}
	a.Min = math.Min(a.Min, v)
	a.Max = math.Max(a.Max, v)
}

// Summary is the serialisable outcome of a session.
type Summary struct {
	Input          string         `json:"input,omitempty"`
	Sha256         string         `json:"sha256,omitempty"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	DeclaredBytes  int64          `json:"declaredBytes"`
	ParsedBytes    int64          `json:"parsedBytes"`
	Records        int            `json:"records"`
	ChecksumErrors int            `json:"checksumErrors"`
	Pass           bool           `json:"pass"`
	Verdict        string         `json:"verdict"`
	Types          map[string]int `json:"types"`
	AccelX         AxisRange      `json:"accelX"`
	AccelY         AxisRange      `json:"accelY"`
	AccelZ         AxisRange      `json:"accelZ"`
	FirstTimestamp uint64         `json:"firstTimestamp"`
	LastTimestamp  uint64         `json:"lastTimestamp"`
	Findings       []Finding      `json:"findings,omitempty"`
}

// Session owns the reconciliation counters of a single pass over one log.
type Session struct {
	LogBytes  int64
	ReadBytes int64
	Success   bool

	started        bool
	ended          bool
	records        int
	checksumErrors int
	types          map[flightlog.MessageType]int
	accelX         AxisRange
	accelY         AxisRange
	accelZ         AxisRange
	firstTS        uint64
	lastTS         uint64
	verdict        string
	finished       bool
	pass           bool
	findings       []Finding
}

func NewSession() *Session {
	return &Session{
		Success: true,
		types:   make(map[flightlog.MessageType]int),
	}
}

// Declare records the expected byte total from a start marker. A later
// marker replaces an earlier one.
func (s *Session) Declare(n int64, line int) {
	if s.started {
		s.addFinding(Finding{
			Line:     line,
			Kind:     KindMarker,
			Severity: WARN,
			Message:  fmt.Sprintf("start marker repeated, expected bytes now %d (was %d)", n, s.LogBytes),
		})
	}
	s.started = true
	s.LogBytes = n
}

// End marks the end marker as seen.
func (s *Session) End() {
	s.ended = true
}

// Ended reports whether an end marker has been seen.
func (s *Session) Ended() bool {
	return s.ended
}

// Observe accounts for one decoded record and reports whether its checksum
// matched. A mismatch clears Success but is not fatal.
func (s *Session) Observe(d flightlog.Decoded, line int) bool {
	x, y, z := d.AccelMS2()
	first := s.records == 0
	s.accelX.observe(x, first)
	s.accelY.observe(y, first)
	s.accelZ.observe(z, first)
	if first {
		s.firstTS = d.Timestamp
	}
	s.lastTS = d.Timestamp
	s.records++
	s.types[d.Type]++
	s.ReadBytes += flightlog.RecordSize

	if d.Valid() {
		return true
	}
	s.Success = false
	s.checksumErrors++
	ts := d.Timestamp
	s.addFinding(Finding{
		Line:      line,
		Kind:      KindChecksum,
		Severity:  ERROR,
		Message:   "checksums don't match!",
		Timestamp: &ts,
		Stored:    fmt.Sprintf("0x%02X", d.Checksum),
		Computed:  fmt.Sprintf("0x%02X", d.Computed),
	})
	return false
}

// Abort records a structural error that ended the session early.
func (s *Session) Abort(err error, line int) {
	s.finished = true
	s.pass = false
	s.verdict = "error: " + err.Error()
	s.addFinding(Finding{Line: line, Kind: KindStructure, Severity: ERROR, Message: err.Error()})
}

// Finish reconciles the byte totals. The byte count is checked before the
// checksum state, so a byte count failure hides checksum failures. The
// returned message is the closing diagnostic line.
func (s *Session) Finish() (string, error) {
	var err error
	switch {
	case !s.started:
		err = ErrNoStartMarker
		s.verdict = "error: " + err.Error()
		s.addFinding(Finding{Kind: KindMarker, Severity: ERROR, Message: err.Error()})
	case s.ReadBytes != s.LogBytes:
		err = fmt.Errorf("%w: parsed %d bytes, expected %d", ErrByteCountMismatch, s.ReadBytes, s.LogBytes)
		s.verdict = fmt.Sprintf("error: parsed %d bytes, expected %d", s.ReadBytes, s.LogBytes)
		s.addFinding(Finding{Kind: KindByteCount, Severity: ERROR, Message: s.verdict})
	case s.Success:
		s.verdict = fmt.Sprintf("parsed %d bytes successfully", s.ReadBytes)
	default:
		err = fmt.Errorf("%w: %d of %d records", ErrChecksumErrors, s.checksumErrors, s.records)
		s.verdict = fmt.Sprintf("error: parsed %d bytes, but checksum errors were found", s.ReadBytes)
	}
	s.finished = true
	s.pass = err == nil
	return s.verdict, err
}

func (s *Session) addFinding(f Finding) {
	s.findings = append(s.findings, f)
}

// Summary snapshots the session. Verdict and Pass are only meaningful after
// Finish or Abort.
func (s *Session) Summary() Summary {
	sum := Summary{
		GeneratedAt:    time.Now().UTC(),
		DeclaredBytes:  s.LogBytes,
		ParsedBytes:    s.ReadBytes,
		Records:        s.records,
		ChecksumErrors: s.checksumErrors,
		Pass:           s.finished && s.pass,
		Verdict:        s.verdict,
		Types:          make(map[string]int, len(s.types)),
		AccelX:         s.accelX,
		AccelY:         s.accelY,
		AccelZ:         s.accelZ,
		FirstTimestamp: s.firstTS,
		LastTimestamp:  s.lastTS,
		Findings:       append([]Finding(nil), s.findings...),
	}
	for t, n := range s.types {
		sum.Types[t.String()] = n
	}
	return sum
}
