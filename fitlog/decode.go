// Package fitlog decodes FIT activity files into an ordered stream of named
// messages with scaled field values.
package fitlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tormoder/fit/dyncrc16"
)

var (
	ErrMalformed = errors.New("malformed fit data")
	ErrHeaderCRC = errors.New("fit header crc mismatch")
	ErrFileCRC   = errors.New("fit file crc mismatch")
)

const (
	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	compressedTimeMask         = 0x1F
	mesgDefinitionMask         = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F

	headerSizeNoCRC = 12
	headerSizeCRC   = 14

	timestampFieldNum = 253
)

type baseType uint8

const (
	baseEnum    baseType = 0x00
	baseSint8   baseType = 0x01
	baseUint8   baseType = 0x02
	baseSint16  baseType = 0x83
	baseUint16  baseType = 0x84
	baseSint32  baseType = 0x85
	baseUint32  baseType = 0x86
	baseString  baseType = 0x07
	baseFloat32 baseType = 0x88
	baseFloat64 baseType = 0x89
	baseUint8z  baseType = 0x0A
	baseUint16z baseType = 0x8B
	baseUint32z baseType = 0x8C
	baseByte    baseType = 0x0D
	baseSint64  baseType = 0x8E
	baseUint64  baseType = 0x8F
	baseUint64z baseType = 0x90
)

var baseSizes = map[baseType]int{
	baseEnum:    1,
	baseSint8:   1,
	baseUint8:   1,
	baseSint16:  2,
	baseUint16:  2,
	baseSint32:  4,
	baseUint32:  4,
	baseString:  1,
	baseFloat32: 4,
	baseFloat64: 8,
	baseUint8z:  1,
	baseUint16z: 2,
	baseUint32z: 4,
	baseByte:    1,
	baseSint64:  8,
	baseUint64:  8,
	baseUint64z: 8,
}

type fieldDef struct {
	number uint8
	size   uint8
	base   baseType
}

type definition struct {
	global    uint16
	arch      binary.ByteOrder
	fields    []fieldDef
	devSizes  []uint8
	devFields int
}

type decoder struct {
	data           []byte
	base           int
	definitions    map[uint8]*definition
	lastTimestamp  uint32
	lastTimeOffset int32
	messages       []Message
	definitionN    int
}

// ReadFile decodes the FIT file at path.
func ReadFile(path string, opts Options) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	log, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return log, nil
}

// Decode parses a complete FIT file. Header and file CRC mismatches are fatal
// unless opts.SkipCRC is set.
func Decode(data []byte, opts Options) (*Log, error) {
	if len(data) < headerSizeNoCRC+2 {
		return nil, fmt.Errorf("%w: file too short: %d bytes", ErrMalformed, len(data))
	}

	header, headerCRC, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	dataStart := int(header.Size)
	dataEnd := dataStart + int(header.DataSize)
	if len(data) < dataEnd+2 {
		return nil, fmt.Errorf("%w: truncated: have %d bytes, need at least %d", ErrMalformed, len(data), dataEnd+2)
	}

	stored := binary.LittleEndian.Uint16(data[dataEnd : dataEnd+2])
	computed := dyncrc16.Checksum(data[:dataEnd])
	fileCRC := CRCCheck{Present: true, Stored: stored, Computed: computed, Valid: stored == computed}

	log := &Log{
		Header:             header,
		HeaderCRC:          headerCRC,
		FileCRC:            fileCRC,
		LeftoverBytesCount: int64(len(data) - dataEnd - 2),
	}
	if !headerCRC.Valid {
		if !opts.SkipCRC {
			return nil, fmt.Errorf("%w: %s", ErrHeaderCRC, headerCRC)
		}
		log.Warnings = append(log.Warnings, fmt.Sprintf("header CRC mismatch: %s", headerCRC))
	}
	if !fileCRC.Valid {
		if !opts.SkipCRC {
			return nil, fmt.Errorf("%w: %s", ErrFileCRC, fileCRC)
		}
		log.Warnings = append(log.Warnings, fmt.Sprintf("file CRC mismatch: %s", fileCRC))
	}
	if log.LeftoverBytesCount > 0 {
		log.Warnings = append(log.Warnings, fmt.Sprintf("ignored %d trailing bytes after first fit file", log.LeftoverBytesCount))
	}

	d := &decoder{
		data:        data[dataStart:dataEnd],
		base:        dataStart,
		definitions: make(map[uint8]*definition),
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	log.Messages = d.messages
	log.DefinitionCount = d.definitionN
	return log, nil
}

func parseHeader(data []byte) (HeaderInfo, CRCCheck, error) {
	size := data[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("%w: invalid header size %d", ErrMalformed, size)
	}
	if len(data) < int(size) {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("%w: truncated header", ErrMalformed)
	}

	h := HeaderInfo{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != ".FIT" {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("%w: invalid data type %q", ErrMalformed, h.DataType)
	}

	crc := CRCCheck{Present: size == headerSizeCRC, Valid: true}
	if crc.Present {
		crc.Stored = binary.LittleEndian.Uint16(data[12:14])
		// A zero header CRC means the writer did not compute one.
		if crc.Stored != 0 {
			crc.Computed = dyncrc16.Checksum(data[:12])
			crc.Valid = crc.Stored == crc.Computed
		}
	}
	return h, crc, nil
}

func (d *decoder) run() error {
	pos := 0
	for pos < len(d.data) {
		start := pos
		header := d.data[pos]
		pos++

		var err error
		switch {
		case header&compressedHeaderMask == compressedHeaderMask:
			local := (header & compressedLocalMesgNumMask) >> 5
			def, ok := d.definitions[local]
			if !ok {
				return fmt.Errorf("%w: no definition for compressed message local=%d at byte %d", ErrMalformed, local, d.base+start)
			}
			pos, err = d.readData(start, pos, header, def, true)
		case header&mesgDefinitionMask == mesgDefinitionMask:
			pos, err = d.readDefinition(start, pos, header)
		default:
			local := header & localMesgNumMask
			def, ok := d.definitions[local]
			if !ok {
				return fmt.Errorf("%w: no definition for message local=%d at byte %d", ErrMalformed, local, d.base+start)
			}
			pos, err = d.readData(start, pos, header, def, false)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) reader(start int, pos *int) func(n int) ([]byte, error) {
	return func(n int) ([]byte, error) {
		if *pos+n > len(d.data) {
			return nil, fmt.Errorf("%w: record truncated at byte %d", ErrMalformed, d.base+start)
		}
		out := d.data[*pos : *pos+n]
		*pos += n
		return out, nil
	}
}

func (d *decoder) readDefinition(start, pos int, header uint8) (int, error) {
	read := d.reader(start, &pos)

	fixed, err := read(5)
	if err != nil {
		return 0, err
	}
	def := &definition{}
	switch fixed[1] {
	case 0:
		def.arch = binary.LittleEndian
	case 1:
		def.arch = binary.BigEndian
	default:
		return 0, fmt.Errorf("%w: invalid architecture byte %d at byte %d", ErrMalformed, fixed[1], d.base+start)
	}
	def.global = def.arch.Uint16(fixed[2:4])

	count := int(fixed[4])
	def.fields = make([]fieldDef, 0, count)
	for i := 0; i < count; i++ {
		raw, err := read(3)
		if err != nil {
			return 0, err
		}
		def.fields = append(def.fields, fieldDef{number: raw[0], size: raw[1], base: decompressBaseType(raw[2])})
	}

	if header&devDataMask == devDataMask {
		countRaw, err := read(1)
		if err != nil {
			return 0, err
		}
		for i := 0; i < int(countRaw[0]); i++ {
			raw, err := read(3)
			if err != nil {
				return 0, err
			}
			def.devSizes = append(def.devSizes, raw[1])
		}
		def.devFields = len(def.devSizes)
	}

	d.definitions[header&localMesgNumMask] = def
	d.definitionN++
	return pos, nil
}

func (d *decoder) readData(start, pos int, header uint8, def *definition, compressed bool) (int, error) {
	read := d.reader(start, &pos)

	msg := Message{
		Index:  len(d.messages),
		Offset: int64(d.base + start),
		Global: def.global,
		Name:   messageName(def.global),
		Fields: make([]Field, 0, len(def.fields)+1),
	}

	var compressedTime uint32
	if compressed && d.lastTimestamp != 0 {
		offset := int32(header & compressedTimeMask)
		d.lastTimestamp += uint32((offset - d.lastTimeOffset) & compressedTimeMask)
		d.lastTimeOffset = offset
		compressedTime = d.lastTimestamp
	}

	for _, fd := range def.fields {
		raw, err := read(int(fd.size))
		if err != nil {
			return 0, err
		}
		value, invalid := decodeField(raw, fd, def.arch)
		if fd.number == timestampFieldNum && !invalid {
			if ts, ok := value.(uint32); ok {
				d.lastTimestamp = ts
				d.lastTimeOffset = int32(ts & compressedTimeMask)
			}
		}
		msg.Fields = append(msg.Fields, describeField(def.global, fd.number, value, invalid))
	}

	if compressedTime != 0 {
		if _, ok := msg.Field("timestamp"); !ok {
			msg.Fields = append(msg.Fields, describeField(def.global, timestampFieldNum, compressedTime, false))
		}
	}

	for _, size := range def.devSizes {
		if _, err := read(int(size)); err != nil {
			return 0, err
		}
	}
	msg.DeveloperFields = def.devFields

	deriveFields(&msg)
	d.messages = append(d.messages, msg)
	return pos, nil
}

func decodeField(raw []byte, fd fieldDef, arch binary.ByteOrder) (any, bool) {
	switch fd.base {
	case baseString:
		s := nullTerminated(raw)
		return s, s == ""
	case baseByte:
		return bytesToInts(raw), allBytes(raw, 0xFF)
	}

	size, ok := baseSizes[fd.base]
	if !ok || len(raw)%size != 0 {
		return bytesToInts(raw), false
	}

	count := len(raw) / size
	if count == 1 {
		return decodeSingleValue(raw, fd.base, arch)
	}
	values := make([]any, 0, count)
	invalidN := 0
	for i := 0; i < count; i++ {
		v, invalid := decodeSingleValue(raw[i*size:(i+1)*size], fd.base, arch)
		values = append(values, v)
		if invalid {
			invalidN++
		}
	}
	return values, invalidN == count
}

func decodeSingleValue(raw []byte, bt baseType, arch binary.ByteOrder) (any, bool) {
	switch bt {
	case baseEnum:
		v := raw[0]
		return v, v == 0xFF
	case baseSint8:
		v := int8(raw[0])
		return v, v == int8(0x7F)
	case baseUint8:
		v := raw[0]
		return v, v == 0xFF
	case baseSint16:
		v := int16(arch.Uint16(raw))
		return v, v == int16(0x7FFF)
	case baseUint16:
		v := arch.Uint16(raw)
		return v, v == 0xFFFF
	case baseSint32:
		v := int32(arch.Uint32(raw))
		return v, v == int32(0x7FFFFFFF)
	case baseUint32:
		v := arch.Uint32(raw)
		return v, v == 0xFFFFFFFF
	case baseFloat32:
		bits := arch.Uint32(raw)
		return float64(math.Float32frombits(bits)), bits == 0xFFFFFFFF
	case baseFloat64:
		bits := arch.Uint64(raw)
		return math.Float64frombits(bits), bits == 0xFFFFFFFFFFFFFFFF
	case baseUint8z:
		v := raw[0]
		return v, v == 0x00
	case baseUint16z:
		v := arch.Uint16(raw)
		return v, v == 0x0000
	case baseUint32z:
		v := arch.Uint32(raw)
		return v, v == 0x00000000
	case baseSint64:
		v := int64(arch.Uint64(raw))
		return v, v == int64(0x7FFFFFFFFFFFFFFF)
	case baseUint64:
		v := arch.Uint64(raw)
		return v, v == 0xFFFFFFFFFFFFFFFF
	case baseUint64z:
		v := arch.Uint64(raw)
		return v, v == 0
	default:
		return bytesToInts(raw), false
	}
}

func decompressBaseType(b byte) baseType {
	switch b & 0x1F {
	case 0x03:
		return baseSint16
	case 0x04:
		return baseUint16
	case 0x05:
		return baseSint32
	case 0x06:
		return baseUint32
	case 0x08:
		return baseFloat32
	case 0x09:
		return baseFloat64
	case 0x0B:
		return baseUint16z
	case 0x0C:
		return baseUint32z
	case 0x0E:
		return baseSint64
	case 0x0F:
		return baseUint64
	case 0x10:
		return baseUint64z
	default:
		return baseType(b & 0x1F)
	}
}

func nullTerminated(raw []byte) string {
	for i, b := range raw {
		if b == 0x00 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

func allBytes(raw []byte, value byte) bool {
	if len(raw) == 0 {
		return false
	}
	for _, b := range raw {
		if b != value {
			return false
		}
	}
	return true
}

func bytesToInts(raw []byte) []int {
	out := make([]int, len(raw))
	for i := range raw {
		out[i] = int(raw[i])
	}
	return out
}
