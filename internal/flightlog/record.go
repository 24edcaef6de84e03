package flightlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrMalformedRecord = errors.New("record is not 16 bytes")
)

// Checksum returns the XOR parity of every byte of frame except the last one.
func Checksum(frame []byte) uint8 {
	if len(frame) == 0 {
		return 0
	}
	parity := frame[0]
	for i := 1; i < len(frame)-1; i++ {
		parity ^= frame[i]
	}
	return parity
}

// Decode unpacks a little-endian 16 byte frame.
func Decode(frame []byte) (Decoded, error) {
	var d Decoded
	if len(frame) != RecordSize {
		return d, fmt.Errorf("%w: got %d bytes", ErrMalformedRecord, len(frame))
	}
	d.Timestamp = binary.LittleEndian.Uint64(frame[0:8])
	d.Type = MessageType(frame[8])
	d.AccelX = int16(binary.LittleEndian.Uint16(frame[9:11]))
	d.AccelY = int16(binary.LittleEndian.Uint16(frame[11:13]))
	d.AccelZ = int16(binary.LittleEndian.Uint16(frame[13:15]))
	d.Checksum = frame[15]
	d.Computed = Checksum(frame)
	return d, nil
}

// Encode packs r without touching its checksum field.
func Encode(r Record) []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.Timestamp)
	buf[8] = uint8(r.Type)
	binary.LittleEndian.PutUint16(buf[9:11], uint16(r.AccelX))
	binary.LittleEndian.PutUint16(buf[11:13], uint16(r.AccelY))
	binary.LittleEndian.PutUint16(buf[13:15], uint16(r.AccelZ))
	buf[15] = r.Checksum
	return buf
}

// Seal sets the checksum byte the way the recorder does before writing and
// returns the packed frame.
func Seal(r *Record) []byte {
	buf := Encode(*r)
	r.Checksum = Checksum(buf)
	buf[15] = r.Checksum
	return buf
}

// SplitRecords cuts a raw binary log into frames. A trailing partial record
// is returned as a short frame so that Decode reports it.
func SplitRecords(data []byte) [][]byte {
	out := make([][]byte, 0, (len(data)+RecordSize-1)/RecordSize)
	for off := 0; off < len(data); off += RecordSize {
		end := off + RecordSize
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[off:end])
	}
	return out
}

// Accel converts a raw sample to m/s^2.
func Accel(raw int16) float64 {
	return float64(raw) * AccelCoefficient
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AccelMS2 returns the three axes in m/s^2, unrounded.
func (r Record) AccelMS2() (x, y, z float64) {
	return Accel(r.AccelX), Accel(r.AccelY), Accel(r.AccelZ)
}
