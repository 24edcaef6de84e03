package samples

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"example.com/flightlog/internal/flightlog"
)

const (
	baseTimestampUs  uint64 = 5_000_000
	sampleIntervalUs uint64 = 10_000

	// File names exposed for generator consumers.
	HexFileName    = "sample.hex"
	BinaryFileName = "sample_flight_log"
)

// Options controls the generated log.
type Options struct {
	Records int
	// Corrupt lists record indexes whose checksum byte is flipped.
	Corrupt []int
	// Declare overrides the byte count in the start marker when >= 0.
	Declare int64
}

func DefaultOptions() Options {
	return Options{Records: 8, Declare: -1}
}

// BuildRecords returns a deterministic flight: a boot event, regular samples
// with a rising z axis, and a peak at the middle.
func BuildRecords(n int) []flightlog.Record {
	recs := make([]flightlog.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := flightlog.Record{
			Timestamp: baseTimestampUs + uint64(i)*sampleIntervalUs,
			Type:      flightlog.MsgRegular,
			AccelX:    int16(i * 3),
			AccelY:    int16(-i * 2),
			AccelZ:    int16(250 + i*25),
		}
		switch {
		case i == 0:
			rec.Type = flightlog.MsgBoot
			rec.AccelX, rec.AccelY, rec.AccelZ = 0, 0, 0
		case i == n/2:
			rec.Type = flightlog.MsgPeak
			rec.AccelZ = 1000
		}
		recs = append(recs, rec)
	}
	return recs
}

// BuildBinary packs the records as the recorder writes them to flash.
func BuildBinary(opts Options) []byte {
	corrupt := make(map[int]bool, len(opts.Corrupt))
	for _, i := range opts.Corrupt {
		corrupt[i] = true
	}
	var buf bytes.Buffer
	for i, rec := range BuildRecords(opts.Records) {
		frame := flightlog.Seal(&rec)
		if corrupt[i] {
			frame[flightlog.RecordSize-1] ^= 0xFF
		}
		buf.Write(frame)
	}
	return buf.Bytes()
}

// BuildHex renders the container text for opts.
func BuildHex(opts Options) ([]byte, error) {
	raw := BuildBinary(opts)
	var buf bytes.Buffer
	if err := flightlog.WriteHexLog(&buf, raw); err != nil {
		return nil, err
	}
	if opts.Declare < 0 {
		return buf.Bytes(), nil
	}
	text := buf.Bytes()
	first := bytes.IndexByte(text, '\n')
	out := []byte(fmt.Sprintf("start %d", opts.Declare))
	return append(out, text[first:]...), nil
}

// WriteFiles writes the hex container and the raw binary log into dir.
func WriteFiles(dir string, opts Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	hexData, err := BuildHex(opts)
	if err != nil {
		return fmt.Errorf("build hex log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, HexFileName), hexData, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, BinaryFileName), BuildBinary(opts), 0o644)
}
