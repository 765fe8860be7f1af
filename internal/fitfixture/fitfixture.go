// Package fitfixture writes small FIT activity files with messages in exactly
// the order they are added. Tests use it to drive the decoder and converter
// through specific record sequences.
package fitfixture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/tormoder/fit/dyncrc16"
)

// Base type bytes.
const (
	Enum    byte = 0x00
	Uint8   byte = 0x02
	Sint32  byte = 0x85
	Uint16  byte = 0x84
	Uint32  byte = 0x86
	String  byte = 0x07
	Uint32z byte = 0x8C
)

// Global message numbers.
const (
	FileID      uint16 = 0
	DeviceInfo  uint16 = 23
	Sport       uint16 = 12
	Lap         uint16 = 19
	Record      uint16 = 20
	Event       uint16 = 21
	FileCreator uint16 = 49
)

// Event types.
const (
	EventTypeStart   uint8 = 0
	EventTypeStop    uint8 = 1
	EventTypeMarker  uint8 = 3
	EventTypeStopAll uint8 = 4
)

var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// Field is one field of a data message. Value must be a uint8, uint16,
// uint32, int32 or string matching Base.
type Field struct {
	Num   uint8
	Base  byte
	Value any
}

// File accumulates data messages.
type File struct {
	data bytes.Buffer
}

// New returns an empty file.
func New() *File {
	return &File{}
}

// Message appends a definition for local message 0 followed by one data
// message.
func (f *File) Message(global uint16, fields ...Field) *File {
	var payload bytes.Buffer
	f.data.WriteByte(0x40)
	f.data.WriteByte(0)
	f.data.WriteByte(0)
	_ = binary.Write(&f.data, binary.LittleEndian, global)
	f.data.WriteByte(byte(len(fields)))
	for _, field := range fields {
		raw := encode(field)
		f.data.WriteByte(field.Num)
		f.data.WriteByte(byte(len(raw)))
		f.data.WriteByte(field.Base)
		payload.Write(raw)
	}
	f.data.WriteByte(0x00)
	f.data.Write(payload.Bytes())
	return f
}

// Bytes returns the complete file with header and CRCs.
func (f *File) Bytes() []byte {
	header := make([]byte, 14)
	header[0] = 14
	header[1] = 0x20
	binary.LittleEndian.PutUint16(header[2:4], 2132)
	binary.LittleEndian.PutUint32(header[4:8], uint32(f.data.Len()))
	copy(header[8:12], ".FIT")
	binary.LittleEndian.PutUint16(header[12:14], dyncrc16.Checksum(header[:12]))

	out := append(header, f.data.Bytes()...)
	return binary.LittleEndian.AppendUint16(out, dyncrc16.Checksum(out))
}

func encode(field Field) []byte {
	switch v := field.Value.(type) {
	case uint8:
		return []byte{v}
	case uint16:
		return binary.LittleEndian.AppendUint16(nil, v)
	case uint32:
		return binary.LittleEndian.AppendUint32(nil, v)
	case int32:
		return binary.LittleEndian.AppendUint32(nil, uint32(v))
	case string:
		return append([]byte(v), 0)
	default:
		panic(fmt.Sprintf("fitfixture: unsupported value %T", field.Value))
	}
}

// Timestamp converts t to seconds since the FIT epoch.
func Timestamp(t time.Time) uint32 {
	return uint32(t.Sub(fitEpoch) / time.Second)
}

// FileIDMessage appends a Garmin file_id.
func (f *File) FileIDMessage(created time.Time, product uint16, serial uint32) *File {
	return f.Message(FileID,
		Field{Num: 0, Base: Enum, Value: uint8(4)},
		Field{Num: 1, Base: Uint16, Value: uint16(1)},
		Field{Num: 2, Base: Uint16, Value: product},
		Field{Num: 3, Base: Uint32z, Value: serial},
		Field{Num: 4, Base: Uint32, Value: Timestamp(created)},
	)
}

// FileCreatorMessage appends a file_creator with the given software version.
func (f *File) FileCreatorMessage(version uint16) *File {
	return f.Message(FileCreator, Field{Num: 0, Base: Uint16, Value: version})
}

// SportMessage appends a sport message.
func (f *File) SportMessage(sport uint8) *File {
	return f.Message(Sport, Field{Num: 0, Base: Enum, Value: sport})
}

// EventMessage appends a timer event.
func (f *File) EventMessage(at time.Time, eventType uint8) *File {
	return f.Message(Event,
		Field{Num: 253, Base: Uint32, Value: Timestamp(at)},
		Field{Num: 0, Base: Enum, Value: uint8(0)},
		Field{Num: 1, Base: Enum, Value: eventType},
	)
}

// RecordMessage appends a sample. Distance is in metres, speed in m/s.
func (f *File) RecordMessage(at time.Time, distance float64, heartRate uint8, speed float64, cadence uint8) *File {
	return f.Message(Record,
		Field{Num: 253, Base: Uint32, Value: Timestamp(at)},
		Field{Num: 5, Base: Uint32, Value: uint32(math.Round(distance * 100))},
		Field{Num: 3, Base: Uint8, Value: heartRate},
		Field{Num: 6, Base: Uint16, Value: uint16(math.Round(speed * 1000))},
		Field{Num: 4, Base: Uint8, Value: cadence},
	)
}

// LapSummary holds the values of a lap message. Distance is in metres,
// speeds in m/s.
type LapSummary struct {
	Start, End             time.Time
	Distance               float64
	Calories               uint16
	AvgSpeed, MaxSpeed     float64
	AvgHeartRate, MaxHeart uint8
	AvgCadence, MaxCadence uint8
}

// LapMessage appends a lap summary.
func (f *File) LapMessage(s LapSummary) *File {
	return f.Message(Lap,
		Field{Num: 253, Base: Uint32, Value: Timestamp(s.End)},
		Field{Num: 2, Base: Uint32, Value: Timestamp(s.Start)},
		Field{Num: 9, Base: Uint32, Value: uint32(math.Round(s.Distance * 100))},
		Field{Num: 11, Base: Uint16, Value: s.Calories},
		Field{Num: 13, Base: Uint16, Value: uint16(math.Round(s.AvgSpeed * 1000))},
		Field{Num: 14, Base: Uint16, Value: uint16(math.Round(s.MaxSpeed * 1000))},
		Field{Num: 15, Base: Uint8, Value: s.AvgHeartRate},
		Field{Num: 16, Base: Uint8, Value: s.MaxHeart},
		Field{Num: 17, Base: Uint8, Value: s.AvgCadence},
		Field{Num: 18, Base: Uint8, Value: s.MaxCadence},
	)
}
