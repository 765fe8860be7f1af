package convert

import (
	"strings"
	"time"
	"unicode"

	"github.com/lucasjlepore/footpod/tcx"
	"github.com/paulmach/orb"
)

// Activity is a converted activity with geo-referenced trackpoints.
type Activity struct {
	ID      time.Time
	Sport   string
	Creator Creator
	Laps    []*Lap
}

// Creator describes the recording device.
type Creator struct {
	Product         string
	SerialNumber    uint32
	SoftwareVersion int
}

// Lap carries the device's lap summary. Speeds are in m/s, distances in m.
type Lap struct {
	StartTime     time.Time
	TotalTime     float64
	TotalDistance float64
	MaxSpeed      float64
	AvgSpeed      float64
	Calories      int
	AvgHeartRate  int
	MaxHeartRate  int
	AvgCadence    int
	MaxCadence    int
	Trackpoints   []Trackpoint
}

// Trackpoint is one sample placed on the route. Optional values are nil when
// the device logged nothing valid.
type Trackpoint struct {
	Time      time.Time
	Position  orb.Point
	Distance  float64
	HeartRate *int
	Speed     *float64
	Cadence   *int
}

// RenderProductName expands Forerunner product codes ("fr245" becomes
// "Forerunner 245"); other codes are returned unchanged.
func RenderProductName(code string) string {
	if rest, ok := strings.CutPrefix(code, "fr"); ok {
		return "Forerunner " + rest
	}
	return code
}

// SplitVersion splits a software version such as 710 into major 7, minor 10.
func SplitVersion(v int) (major, minor int) {
	return v / 100, v % 100
}

// RenderSport upper-cases the first letter and lower-cases the rest.
func RenderSport(sport string) string {
	runes := []rune(strings.ToLower(sport))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Trackpoints returns the total trackpoint count.
func (a *Activity) Trackpoints() int {
	n := 0
	for _, lap := range a.Laps {
		n += len(lap.Trackpoints)
	}
	return n
}

// Document builds the TCX document for the activity.
func (a *Activity) Document() *tcx.Database {
	act := tcx.NewActivity(a.Sport, a.ID)
	for _, lap := range a.Laps {
		act.Laps = append(act.Laps, lap.element())
	}
	major, minor := SplitVersion(a.Creator.SoftwareVersion)
	act.Creator = tcx.NewCreator(RenderProductName(a.Creator.Product), a.Creator.SerialNumber, major, minor)
	return tcx.NewDatabase(act)
}

func (l *Lap) element() *tcx.Lap {
	el := tcx.NewLap(l.StartTime)
	el.TotalTimeSeconds = tcx.Tenths(l.TotalTime)
	el.DistanceMeters = tcx.Decimal(l.TotalDistance)
	el.MaximumSpeed = tcx.Decimal(l.MaxSpeed)
	el.Calories = l.Calories
	el.AverageHeartRate = tcx.NewHeartRate(l.AvgHeartRate)
	el.MaximumHeartRate = tcx.NewHeartRate(l.MaxHeartRate)
	el.Extensions = tcx.NewLapExtensions(l.AvgSpeed, l.AvgCadence, l.MaxCadence)
	el.Trackpoints = make([]*tcx.Trackpoint, 0, len(l.Trackpoints))
	for _, tp := range l.Trackpoints {
		el.Trackpoints = append(el.Trackpoints, tp.element())
	}
	return el
}

func (tp Trackpoint) element() *tcx.Trackpoint {
	el := tcx.NewTrackpoint(tp.Time, tp.Position.Lat(), tp.Position.Lon(), tp.Distance)
	if tp.HeartRate != nil {
		el.HeartRate = tcx.NewHeartRate(*tp.HeartRate)
	}
	el.Extensions = tcx.NewTrackpointExtensions(tp.Speed, tp.Cadence)
	return el
}
