package flightlog

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		kind     FrameKind
		declared int64
		data     []byte
		wantErr  error
	}{
		{name: "start", text: "start 32", kind: FrameStart, declared: 32},
		{name: "start tabs", text: "start\t\t48\r", kind: FrameStart, declared: 48},
		{name: "end", text: "end", kind: FrameEnd},
		{name: "spaced hex", text: "01 02 0A ff ", kind: FrameData, data: []byte{0x01, 0x02, 0x0A, 0xFF}},
		{name: "compact hex", text: "deadBEEF", kind: FrameData, data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{name: "empty", text: "", kind: FrameData, data: []byte{}},
		{name: "odd length", text: "ABC", wantErr: ErrMalformedHex},
		{name: "bad digit", text: "0G", wantErr: ErrMalformedHex},
		{name: "start without count", text: "start", wantErr: ErrMalformedMarker},
		{name: "indented start is data", text: " start 32", wantErr: ErrMalformedHex},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseLine(7, tc.text)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				var le *LineError
				if !errors.As(err, &le) || le.Line != 7 {
					t.Fatalf("expected LineError for line 7, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine returned error: %v", err)
			}
			if f.Kind != tc.kind {
				t.Fatalf("Kind = %v, want %v", f.Kind, tc.kind)
			}
			if f.Declared != tc.declared {
				t.Fatalf("Declared = %d, want %d", f.Declared, tc.declared)
			}
			if !bytes.Equal(f.Data, tc.data) {
				t.Fatalf("Data = % X, want % X", f.Data, tc.data)
			}
		})
	}
}

func TestScannerNext(t *testing.T) {
	in := "start 16\n\n" + strings.Repeat("00 ", 16) + "\nend\n"
	sc := NewScanner(strings.NewReader(in))
	var kinds []FrameKind
	for {
		f, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		kinds = append(kinds, f.Kind)
	}
	want := []FrameKind{FrameStart, FrameData, FrameData, FrameEnd}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
	if sc.Line() != 4 {
		t.Fatalf("Line = %d, want 4", sc.Line())
	}
}

func TestWriteHexLogRoundTrip(t *testing.T) {
	a := Record{Timestamp: 100, Type: MsgBoot}
	b := Record{Timestamp: 200, Type: MsgPeak, AccelX: -5, AccelY: 6, AccelZ: 700}
	raw := append(Seal(&a), Seal(&b)...)

	var buf bytes.Buffer
	if err := WriteHexLog(&buf, raw); err != nil {
		t.Fatalf("WriteHexLog: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "start 32" || lines[len(lines)-1] != "end" {
		t.Fatalf("unexpected container: %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "64 00 00 00 00 00 00 00 01 ") {
		t.Fatalf("first record line = %q", lines[1])
	}

	sc := NewScanner(&buf)
	var got []byte
	for {
		f, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if f.Kind == FrameData {
			got = append(got, f.Data...)
		}
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("decoded % X, want % X", got, raw)
	}
}
