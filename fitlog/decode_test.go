package fitlog

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/lucasjlepore/footpod/internal/fitfixture"
	"github.com/tormoder/fit"
)

func TestDecodeEncodedActivity(t *testing.T) {
	data := buildTestFIT(t)

	log, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if log.Header.DataType != ".FIT" {
		t.Fatalf("unexpected header type: %q", log.Header.DataType)
	}
	if !log.FileCRC.Valid {
		t.Fatal("expected valid file CRC")
	}
	if !log.HeaderCRC.Valid {
		t.Fatal("expected valid header CRC")
	}
	if log.DefinitionCount == 0 {
		t.Fatal("expected at least one definition record")
	}

	kinds := log.Kinds()
	for _, kind := range []string{"file_id", "event", "record"} {
		if kinds[kind] == 0 {
			t.Fatalf("expected %s messages, got kinds %v", kind, kinds)
		}
	}
	if kinds["event"] != 2 {
		t.Fatalf("expected 2 events, got %d", kinds["event"])
	}
}

func TestDecodeAppliesStandardUnits(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	data := fitfixture.New().
		FileIDMessage(start, 3076, 3312345678).
		RecordMessage(start.Add(time.Second), 1000, 150, 10, 88).
		Bytes()

	log, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(log.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(log.Messages))
	}

	record := &log.Messages[1]
	if record.Kind() != "record" {
		t.Fatalf("unexpected kind %q", record.Kind())
	}
	distance, _ := record.Value("distance")
	if d, ok := distance.(float64); !ok || d != 1.0 {
		t.Fatalf("expected distance 1.0 km, got %v", distance)
	}
	speed, _ := record.Value("speed")
	if s, ok := speed.(float64); !ok || math.Abs(s-36) > 1e-9 {
		t.Fatalf("expected speed 36 km/h, got %v", speed)
	}
	ts, _ := record.Value("timestamp")
	if got, ok := ts.(time.Time); !ok || !got.Equal(start.Add(time.Second)) {
		t.Fatalf("unexpected timestamp %v", ts)
	}
	hr, _ := record.Value("heart_rate")
	if hr != uint8(150) {
		t.Fatalf("unexpected heart rate %v", hr)
	}

	fileID := &log.Messages[0]
	created, _ := fileID.Value("time_created")
	if got, ok := created.(time.Time); !ok || !got.Equal(start) {
		t.Fatalf("unexpected time_created %v", created)
	}
	if _, ok := fileID.Value("garmin_product"); !ok {
		t.Fatal("expected derived garmin_product field")
	}
	serial, _ := fileID.Value("serial_number")
	if serial != uint32(3312345678) {
		t.Fatalf("unexpected serial %v", serial)
	}
}

func TestDecodeInvalidSentinelIsAbsent(t *testing.T) {
	data := fitfixture.New().
		Message(fitfixture.Record,
			fitfixture.Field{Num: 3, Base: fitfixture.Uint8, Value: uint8(0xFF)},
			fitfixture.Field{Num: 5, Base: fitfixture.Uint32, Value: uint32(500)},
		).
		Bytes()

	log, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	msg := &log.Messages[0]
	if _, ok := msg.Value("heart_rate"); ok {
		t.Fatal("expected invalid heart rate to be absent")
	}
	if f, ok := msg.Field("heart_rate"); !ok || !f.Invalid {
		t.Fatalf("expected invalid heart_rate field, got %+v", f)
	}
}

func TestDecodeNamesUnknownMessages(t *testing.T) {
	data := fitfixture.New().
		Message(65300, fitfixture.Field{Num: 1, Base: fitfixture.Uint8, Value: uint8(7)}).
		Message(fitfixture.DeviceInfo, fitfixture.Field{Num: 0, Base: fitfixture.Uint8, Value: uint8(1)}).
		Bytes()

	log, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got := log.Messages[0].Kind(); got != "unknown_65300" {
		t.Fatalf("expected unknown_65300, got %q", got)
	}
	if got := log.Messages[1].Kind(); got != "device_info" {
		t.Fatalf("expected device_info, got %q", got)
	}
	for global, want := range map[uint16]string{
		60000:  "unknown_60000",
		0xFF00: "unknown_65280",
		0xFFFE: "unknown_65534",
	} {
		if got := messageName(global); got != want {
			t.Fatalf("messageName(%d) = %q, want %q", global, got, want)
		}
	}
}

func TestDecodeFileCRCMismatch(t *testing.T) {
	data := fitfixture.New().SportMessage(1).Bytes()
	data[len(data)-1] ^= 0xFF

	if _, err := Decode(data, Options{}); !errors.Is(err, ErrFileCRC) {
		t.Fatalf("expected ErrFileCRC, got %v", err)
	}

	log, err := Decode(data, Options{SkipCRC: true})
	if err != nil {
		t.Fatalf("Decode with SkipCRC error: %v", err)
	}
	if len(log.Warnings) == 0 {
		t.Fatal("expected a CRC warning")
	}
	sport, _ := log.Messages[0].Value("sport")
	if sport != "running" {
		t.Fatalf("expected running, got %v", sport)
	}
}

func TestDecodeRejectsTruncatedFile(t *testing.T) {
	data := fitfixture.New().SportMessage(1).Bytes()
	if _, err := Decode(data[:len(data)-4], Options{SkipCRC: true}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestWriteJSONL(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	data := fitfixture.New().
		EventMessage(start, fitfixture.EventTypeStart).
		RecordMessage(start, 0, 120, 2.5, 80).
		Bytes()

	log, err := Decode(data, Options{})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	var buf bytes.Buffer
	if err := log.WriteJSONL(&buf); err != nil {
		t.Fatalf("WriteJSONL error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first struct {
		Kind   string `json:"kind"`
		Fields []struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if first.Kind != "event" {
		t.Fatalf("expected event, got %q", first.Kind)
	}
	found := false
	for _, f := range first.Fields {
		if f.Name == "event_type" && f.Value == "start" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected event_type start in %s", lines[0])
	}
}

func TestProjectFileID(t *testing.T) {
	info := ProjectFileID(buildTestFIT(t))
	if info == nil {
		t.Fatal("expected file_id projection")
	}
	if info.Type == "" {
		t.Fatal("expected file type")
	}
}

func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}

	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC)
	event := fit.NewEventMsg()
	event.Timestamp = start
	event.Event = fit.EventTimer
	event.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, event)

	stop := fit.NewEventMsg()
	stop.Timestamp = start.Add(10 * time.Minute)
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStop
	activity.Events = append(activity.Events, stop)

	record := fit.NewRecordMsg()
	record.Timestamp = start.Add(30 * time.Second)
	record.HeartRate = 135
	record.Cadence = 92
	record.Distance = 12000
	activity.Records = append(activity.Records, record)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}
