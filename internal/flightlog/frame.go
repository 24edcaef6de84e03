package flightlog

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrMalformedHex    = errors.New("malformed hex data")
	ErrMalformedMarker = errors.New("malformed start marker")
)

var startPattern = regexp.MustCompile(`^start\s+(\d+)`)

// LineError attaches the offending input line to a structural error.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Scanner iterates over the lines of a hex log container.
type Scanner struct {
	sc   *bufio.Scanner
	line int
}

// NewScanner wraps r. The caller keeps ownership of r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Scanner{sc: sc}
}

// Line returns the number of the last line read.
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next classified line, or io.EOF once the input is
// exhausted.
func (s *Scanner) Next() (Frame, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return Frame{}, err
		}
		return Frame{}, io.EOF
	}
	s.line++
	return ParseLine(s.line, s.sc.Text())
}

// ParseLine classifies a single container line. Markers must start in the
// first column; anything else is treated as hex data.
func ParseLine(n int, text string) (Frame, error) {
	switch {
	case strings.HasPrefix(text, "start"):
		m := startPattern.FindStringSubmatch(text)
		if m == nil {
			return Frame{}, &LineError{Line: n, Text: text, Err: ErrMalformedMarker}
		}
		declared, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Frame{}, &LineError{Line: n, Text: text, Err: fmt.Errorf("%w: %v", ErrMalformedMarker, err)}
		}
		return Frame{Kind: FrameStart, Line: n, Declared: declared}, nil
	case strings.HasPrefix(text, "end"):
		return Frame{Kind: FrameEnd, Line: n}, nil
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return Frame{}, &LineError{Line: n, Text: text, Err: fmt.Errorf("%w: %v", ErrMalformedHex, err)}
	}
	return Frame{Kind: FrameData, Line: n, Data: data}, nil
}
