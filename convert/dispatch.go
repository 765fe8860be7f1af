package convert

import (
	"fmt"
	"strings"

	"github.com/lucasjlepore/footpod/fitlog"
)

// Kind classifies activity-log records by how the builder treats them.
type Kind int

const (
	KindUnknown Kind = iota
	KindFileID
	KindFileCreator
	KindSport
	KindEvent
	KindRecord
	KindLap
	KindIgnored
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindFileID:      "file_id",
	KindFileCreator: "file_creator",
	KindSport:       "sport",
	KindEvent:       "event",
	KindRecord:      "record",
	KindLap:         "lap",
	KindIgnored:     "ignored",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

var kindsByName = map[string]Kind{
	"file_id":      KindFileID,
	"file_creator": KindFileCreator,
	"sport":        KindSport,
	"event":        KindEvent,
	"record":       KindRecord,
	"lap":          KindLap,

	"device_info":       KindIgnored,
	"device_settings":   KindIgnored,
	"user_profile":      KindIgnored,
	"zones_target":      KindIgnored,
	"developer_data_id": KindIgnored,
	"field_description": KindIgnored,
	"hrv":               KindIgnored,
	"session":           KindIgnored,
	"activity":          KindIgnored,
	"training_file":     KindIgnored,
}

// KindOf classifies a record name. Vendor-private kinds the decoder could not
// name ("unknown_<n>") are ignorable.
func KindOf(name string) Kind {
	if k, ok := kindsByName[name]; ok {
		return k
	}
	if strings.HasPrefix(name, "unknown_") {
		return KindIgnored
	}
	return KindUnknown
}

// Dispatch routes m to exactly one builder transition.
func Dispatch(b *Builder, m Message) error {
	switch KindOf(m.Kind()) {
	case KindFileID:
		return b.FileID(m)
	case KindFileCreator:
		return b.FileCreator(m)
	case KindSport:
		return b.Sport(m)
	case KindEvent:
		return b.Event(m)
	case KindRecord:
		return b.Record(m)
	case KindLap:
		return b.Lap(m)
	case KindIgnored:
		b.Ignore(m)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedRecord, m.Kind())
	}
}

// Run dispatches every message of log in order and finishes the activity.
// The first failing message stops the run.
func Run(b *Builder, log *fitlog.Log) (*Activity, error) {
	for i := range log.Messages {
		m := &log.Messages[i]
		if err := Dispatch(b, m); err != nil {
			return nil, fmt.Errorf("message %d (%s) at byte %d: %w", m.Index, m.Kind(), m.Offset, err)
		}
	}
	return b.Finish()
}
