package flightlog

import "fmt"

// RecordSize is the packed width of one log event.
const RecordSize = 16

var (
	accelScale = 0.004 // g per LSB
	gravity    = 9.81

	// AccelCoefficient converts a raw ADXL345 sample to m/s^2. It is the
	// float64 product of its factors, not the exact decimal 0.03924, so
	// rounding to cents agrees with the recorder's tooling.
	AccelCoefficient = accelScale * gravity
)

// MessageType is the event code stored in the second field of a record.
type MessageType uint8

const (
	MsgBoot      MessageType = 0x1
	MsgPeak      MessageType = 0x2
	MsgRegular   MessageType = 0x3
	MsgWatchdog  MessageType = 0x4
	MsgConnError MessageType = 0x5
)

func (m MessageType) String() string {
	switch m {
	case MsgBoot:
		return "boot"
	case MsgPeak:
		return "peak"
	case MsgRegular:
		return "regular"
	case MsgWatchdog:
		return "watchdog"
	case MsgConnError:
		return "conn_error"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(m))
	}
}

// Record is one decoded log event.
type Record struct {
	Timestamp uint64
	Type      MessageType
	AccelX    int16
	AccelY    int16
	AccelZ    int16
	Checksum  uint8
}

// Decoded pairs a record with the checksum computed over its frame.
type Decoded struct {
	Record
	Computed uint8
}

// Valid reports whether the stored checksum matches the computed one.
func (d Decoded) Valid() bool {
	return d.Computed == d.Checksum
}

// FrameKind classifies a line of the hex container.
type FrameKind int

const (
	FrameData FrameKind = iota
	FrameStart
	FrameEnd
)

func (k FrameKind) String() string {
	switch k {
	case FrameStart:
		return "start"
	case FrameEnd:
		return "end"
	default:
		return "data"
	}
}

// Frame is one classified line. Declared is set for start markers, Data for
// data lines (possibly empty).
type Frame struct {
	Kind     FrameKind
	Line     int
	Declared int64
	Data     []byte
}
