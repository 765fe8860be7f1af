package fitlog

import (
	"fmt"
	"time"
)

// Options controls decoding strictness.
type Options struct {
	// SkipCRC downgrades header and file CRC mismatches to warnings.
	SkipCRC bool
}

// Log is a fully decoded FIT activity stream.
type Log struct {
	Header             HeaderInfo
	HeaderCRC          CRCCheck
	FileCRC            CRCCheck
	Messages           []Message
	DefinitionCount    int
	LeftoverBytesCount int64
	Warnings           []string
}

// HeaderInfo stores parsed FIT header values.
type HeaderInfo struct {
	Size            uint8  `json:"size"`
	ProtocolVersion uint8  `json:"protocol_version"`
	ProfileVersion  uint16 `json:"profile_version"`
	DataSize        uint32 `json:"data_size"`
	DataType        string `json:"data_type"`
}

// CRCCheck describes CRC validation results.
type CRCCheck struct {
	Present  bool   `json:"present"`
	Stored   uint16 `json:"stored"`
	Computed uint16 `json:"computed"`
	Valid    bool   `json:"valid"`
}

func (c CRCCheck) String() string {
	return fmt.Sprintf("stored 0x%04X computed 0x%04X", c.Stored, c.Computed)
}

// FileIDInfo is a convenience projection from the file_id message.
type FileIDInfo struct {
	Type         string    `json:"type"`
	Manufacturer string    `json:"manufacturer"`
	Product      string    `json:"product"`
	TimeCreated  time.Time `json:"time_created,omitzero"`
	SerialNumber uint32    `json:"serial_number,omitempty"`
}

// Message is one decoded data message, in file order.
type Message struct {
	Index           int     `json:"index"`
	Offset          int64   `json:"offset"`
	Global          uint16  `json:"global"`
	Name            string  `json:"kind"`
	Fields          []Field `json:"fields"`
	DeveloperFields int     `json:"developer_fields,omitempty"`
}

// Field is a named message field. Value holds the scaled value in standard
// units (km, km/h, UTC time, enum names); Raw holds the decoded base value.
type Field struct {
	Number  uint8  `json:"number"`
	Name    string `json:"name"`
	Units   string `json:"units,omitempty"`
	Value   any    `json:"value"`
	Raw     any    `json:"raw,omitempty"`
	Invalid bool   `json:"invalid,omitempty"`
}

// Kind returns the profile name of the message, e.g. "record" or "unknown_233".
func (m *Message) Kind() string { return m.Name }

// Field returns the named field, including invalid ones.
func (m *Message) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Value returns the value of a named field. Invalid fields report false.
func (m *Message) Value(name string) (any, bool) {
	f, ok := m.Field(name)
	if !ok || f.Invalid || f.Value == nil {
		return nil, false
	}
	return f.Value, true
}
