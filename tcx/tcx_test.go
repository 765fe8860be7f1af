package tcx

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEncodeDocument(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	speed := 2.5
	cadence := 86
	tp := NewTrackpoint(start.Add(time.Second), 45.5, -75.25, 1.5)
	tp.HeartRate = NewHeartRate(140)
	tp.Extensions = NewTrackpointExtensions(&speed, &cadence)

	bare := NewTrackpoint(start.Add(2*time.Second), 45.5, -75.25, 3)
	bare.Extensions = NewTrackpointExtensions(nil, nil)

	lap := NewLap(start)
	lap.TotalTimeSeconds = 600
	lap.DistanceMeters = 1500
	lap.MaximumSpeed = 3.25
	lap.Calories = 90
	lap.AverageHeartRate = NewHeartRate(150)
	lap.MaximumHeartRate = NewHeartRate(171)
	lap.Trackpoints = []*Trackpoint{tp, bare}
	lap.Extensions = NewLapExtensions(2.5, 84, 92)

	activity := NewActivity("Running", start)
	activity.Laps = []*Lap{lap}
	activity.Creator = NewCreator("Forerunner 245", 3312345678, 7, 10)

	var buf bytes.Buffer
	if err := Encode(&buf, NewDatabase(activity)); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out := buf.String()

	wants := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<TrainingCenterDatabase xsi:schemaLocation="` + SchemaLocation + `" xmlns:ns5="` + NamespaceActivityGoals + `" xmlns:ns3="` + NamespaceActivityExt + `" xmlns:ns2="` + NamespaceUserProfile + `" xmlns="` + NamespaceTCD + `" xmlns:xsi="` + NamespaceXSI + `" xmlns:ns4="` + NamespaceProfileExtended + `">`,
		`<Activity Sport="Running">`,
		`<Id>2026-03-01T07:00:00.000Z</Id>`,
		`<Lap StartTime="2026-03-01T07:00:00.000Z">`,
		`<TotalTimeSeconds>600.0</TotalTimeSeconds>`,
		`<DistanceMeters>1500</DistanceMeters>`,
		`<MaximumSpeed>3.25</MaximumSpeed>`,
		`<AverageHeartRateBpm>`,
		`<Value>171</Value>`,
		`<Intensity>Active</Intensity>`,
		`<TriggerMethod>Manual</TriggerMethod>`,
		`<Time>2026-03-01T07:00:01.000Z</Time>`,
		`<LatitudeDegrees>45.5</LatitudeDegrees>`,
		`<LongitudeDegrees>-75.25</LongitudeDegrees>`,
		`<ns3:TPX>`,
		`<ns3:Speed>2.5</ns3:Speed>`,
		`<ns3:RunCadence>86</ns3:RunCadence>`,
		`<ns3:LX>`,
		`<ns3:AvgSpeed>2.5</ns3:AvgSpeed>`,
		`<ns3:AvgRunCadence>84</ns3:AvgRunCadence>`,
		`<ns3:MaxRunCadence>92</ns3:MaxRunCadence>`,
		`<Creator xsi:type="Device_t">`,
		`<Name>Forerunner 245</Name>`,
		`<UnitId>3312345678</UnitId>`,
		`<VersionMajor>7</VersionMajor>`,
		`<VersionMinor>10</VersionMinor>`,
		`<BuildMajor>0</BuildMajor>`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	order := []string{"<Id>", "<Lap ", "<TotalTimeSeconds>", "<DistanceMeters>", "<MaximumSpeed>", "<Calories>",
		"<AverageHeartRateBpm>", "<MaximumHeartRateBpm>", "<Intensity>", "<TriggerMethod>", "<Track>",
		"<ns3:LX>", "<Creator "}
	last := -1
	for _, tag := range order {
		idx := strings.Index(out, tag)
		if idx <= last {
			t.Fatalf("element %q out of order", tag)
		}
		last = idx
	}

	if strings.Count(out, "<ns3:TPX>") != 1 {
		t.Fatalf("expected extensions only on the trackpoint that has values:\n%s", out)
	}
	if strings.Count(out, "<HeartRateBpm>") != 1 {
		t.Fatalf("expected a single trackpoint heart rate:\n%s", out)
	}
}

func TestDecimalFormatting(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.00001, "0.00001"},
		{45.123456789, "45.123456789"},
		{1000, "1000"},
	}
	for _, tt := range tests {
		got, _ := Decimal(tt.in).MarshalText()
		if string(got) != tt.want {
			t.Fatalf("Decimal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got, _ := Tenths(61).MarshalText(); string(got) != "61.0" {
		t.Fatalf("Tenths(61) = %q", got)
	}
}

func TestFormatTimeUsesUTC(t *testing.T) {
	zone := time.FixedZone("EST", -5*60*60)
	got := FormatTime(time.Date(2026, 3, 1, 2, 0, 0, 0, zone))
	if got != "2026-03-01T07:00:00.000Z" {
		t.Fatalf("unexpected time %q", got)
	}
}
