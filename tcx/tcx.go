// Package tcx writes Training Center Database activity documents.
//
// Namespaced element and attribute names are spelled out with their prefixes
// so the output carries the exact prefixes Garmin tooling expects.
package tcx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	SchemaLocation = "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2 http://www.garmin.com/xmlschemas/TrainingCenterDatabasev2.xsd"

	NamespaceTCD             = "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"
	NamespaceXSI             = "http://www.w3.org/2001/XMLSchema-instance"
	NamespaceActivityGoals   = "http://www.garmin.com/xmlschemas/ActivityGoals/v1"
	NamespaceActivityExt     = "http://www.garmin.com/xmlschemas/ActivityExtension/v2"
	NamespaceUserProfile     = "http://www.garmin.com/xmlschemas/UserProfile/v2"
	NamespaceProfileExtended = "http://www.garmin.com/xmlschemas/ProfileExtension/v1"

	CreatorType   = "Device_t"
	IntensityLap  = "Active"
	TriggerManual = "Manual"

	// TimeLayout renders UTC timestamps with millisecond precision.
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

// Database is the document root.
type Database struct {
	XMLName        xml.Name    `xml:"TrainingCenterDatabase"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	NS5            string      `xml:"xmlns:ns5,attr"`
	NS3            string      `xml:"xmlns:ns3,attr"`
	NS2            string      `xml:"xmlns:ns2,attr"`
	XMLNS          string      `xml:"xmlns,attr"`
	XSI            string      `xml:"xmlns:xsi,attr"`
	NS4            string      `xml:"xmlns:ns4,attr"`
	Activities     []*Activity `xml:"Activities>Activity"`
}

// Activity is one recorded activity: its sport, id, laps and creator device.
type Activity struct {
	Sport   string   `xml:"Sport,attr,omitempty"`
	ID      string   `xml:"Id"`
	Laps    []*Lap   `xml:"Lap"`
	Creator *Creator `xml:"Creator,omitempty"`
}

// Lap is a lap summary together with the trackpoints recorded during it.
type Lap struct {
	StartTime        string         `xml:"StartTime,attr"`
	TotalTimeSeconds Tenths         `xml:"TotalTimeSeconds"`
	DistanceMeters   Decimal        `xml:"DistanceMeters"`
	MaximumSpeed     Decimal        `xml:"MaximumSpeed"`
	Calories         int            `xml:"Calories"`
	AverageHeartRate *HeartRate     `xml:"AverageHeartRateBpm,omitempty"`
	MaximumHeartRate *HeartRate     `xml:"MaximumHeartRateBpm,omitempty"`
	Intensity        string         `xml:"Intensity"`
	TriggerMethod    string         `xml:"TriggerMethod"`
	Trackpoints      []*Trackpoint  `xml:"Track>Trackpoint"`
	Extensions       *LapExtensions `xml:"Extensions,omitempty"`
}

// LapExtensions wraps the ns3:LX lap extension.
type LapExtensions struct {
	LX LapStats `xml:"ns3:LX"`
}

// LapStats carries the lap average speed and run cadence figures.
type LapStats struct {
	AvgSpeed      Decimal `xml:"ns3:AvgSpeed"`
	AvgRunCadence int     `xml:"ns3:AvgRunCadence"`
	MaxRunCadence int     `xml:"ns3:MaxRunCadence"`
}

// Trackpoint is a single timed sample placed on the route.
type Trackpoint struct {
	Time           string                `xml:"Time"`
	Position       *Position             `xml:"Position,omitempty"`
	DistanceMeters Decimal               `xml:"DistanceMeters"`
	HeartRate      *HeartRate            `xml:"HeartRateBpm,omitempty"`
	Extensions     *TrackpointExtensions `xml:"Extensions,omitempty"`
}

// Position is a point in decimal degrees.
type Position struct {
	LatitudeDegrees  Decimal `xml:"LatitudeDegrees"`
	LongitudeDegrees Decimal `xml:"LongitudeDegrees"`
}

// HeartRate is a heart rate in beats per minute.
type HeartRate struct {
	Value int `xml:"Value"`
}

// TrackpointExtensions wraps the ns3:TPX trackpoint extension.
type TrackpointExtensions struct {
	TPX TrackpointStats `xml:"ns3:TPX"`
}

// TrackpointStats omits whichever values the device did not log.
type TrackpointStats struct {
	Speed      *Decimal `xml:"ns3:Speed,omitempty"`
	RunCadence *int     `xml:"ns3:RunCadence,omitempty"`
}

// Creator describes the device that recorded the activity.
type Creator struct {
	Type    string  `xml:"xsi:type,attr"`
	Name    string  `xml:"Name"`
	UnitID  uint32  `xml:"UnitId"`
	Version Version `xml:"Version"`
}

// Version is the creator software version.
type Version struct {
	VersionMajor int `xml:"VersionMajor"`
	VersionMinor int `xml:"VersionMinor"`
	BuildMajor   int `xml:"BuildMajor"`
	BuildMinor   int `xml:"BuildMinor"`
}

// Decimal renders a float in its shortest exact decimal form without an
// exponent.
type Decimal float64

func (d Decimal) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', -1, 64), nil
}

// Tenths renders a float with one decimal place.
type Tenths float64

func (t Tenths) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(t), 'f', 1, 64), nil
}

// NewDatabase returns a root element holding the given activities.
func NewDatabase(activities ...*Activity) *Database {
	return &Database{
		SchemaLocation: SchemaLocation,
		NS5:            NamespaceActivityGoals,
		NS3:            NamespaceActivityExt,
		NS2:            NamespaceUserProfile,
		XMLNS:          NamespaceTCD,
		XSI:            NamespaceXSI,
		NS4:            NamespaceProfileExtended,
		Activities:     activities,
	}
}

// NewActivity returns an activity identified by its start time.
func NewActivity(sport string, id time.Time) *Activity {
	return &Activity{Sport: sport, ID: FormatTime(id)}
}

// NewLap returns a lap with the fixed intensity and trigger method.
func NewLap(start time.Time) *Lap {
	return &Lap{
		StartTime:     FormatTime(start),
		Intensity:     IntensityLap,
		TriggerMethod: TriggerManual,
	}
}

// NewLapExtensions returns the ns3:LX block.
func NewLapExtensions(avgSpeed float64, avgCadence, maxCadence int) *LapExtensions {
	return &LapExtensions{LX: LapStats{
		AvgSpeed:      Decimal(avgSpeed),
		AvgRunCadence: avgCadence,
		MaxRunCadence: maxCadence,
	}}
}

// NewTrackpoint returns a positioned trackpoint.
func NewTrackpoint(at time.Time, lat, lon, distance float64) *Trackpoint {
	return &Trackpoint{
		Time:           FormatTime(at),
		Position:       &Position{LatitudeDegrees: Decimal(lat), LongitudeDegrees: Decimal(lon)},
		DistanceMeters: Decimal(distance),
	}
}

// NewHeartRate returns a heart rate value element.
func NewHeartRate(bpm int) *HeartRate {
	return &HeartRate{Value: bpm}
}

// NewTrackpointExtensions returns the ns3:TPX block, or nil when both values
// are absent.
func NewTrackpointExtensions(speed *float64, cadence *int) *TrackpointExtensions {
	if speed == nil && cadence == nil {
		return nil
	}
	ext := &TrackpointExtensions{}
	if speed != nil {
		d := Decimal(*speed)
		ext.TPX.Speed = &d
	}
	if cadence != nil {
		c := *cadence
		ext.TPX.RunCadence = &c
	}
	return ext
}

// NewCreator returns a Device_t creator.
func NewCreator(name string, unitID uint32, major, minor int) *Creator {
	return &Creator{
		Type:    CreatorType,
		Name:    name,
		UnitID:  unitID,
		Version: Version{VersionMajor: major, VersionMinor: minor},
	}
}

// FormatTime renders t in UTC as YYYY-MM-DDTHH:MM:SS.000Z.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Encode writes the XML declaration followed by the indented document.
func Encode(w io.Writer, doc *Database) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode tcx: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush tcx: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
