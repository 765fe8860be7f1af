// Package convert assembles an activity document from a decoded activity log,
// placing every sample on a planned route.
package convert

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
)

// Locator maps cumulative distance in metres to a position.
type Locator interface {
	Interpolate(distance float64) (orb.Point, error)
}

// Builder is the activity state machine. It is either between laps (lap is
// nil) or has exactly one open lap that receives trackpoints.
type Builder struct {
	locator  Locator
	logger   *slog.Logger
	activity Activity
	lap      *Lap

	hasID      bool
	hasCreator bool
	hasVersion bool
	hasSport   bool
	ignored    map[string]int
}

// NewBuilder returns a builder that places samples with locator. A nil logger
// uses slog.Default.
func NewBuilder(locator Locator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		locator: locator,
		logger:  logger,
		ignored: make(map[string]int),
	}
}

// FileID sets the activity id and the creator product and serial number.
func (b *Builder) FileID(m Message) error {
	created, err := requireTime(m, "time_created")
	if err != nil {
		return err
	}
	product, err := requireText(m, "garmin_product", "product_name", "product")
	if err != nil {
		return err
	}
	serial, err := requireInt(m, "serial_number")
	if err != nil {
		return err
	}
	b.activity.ID = created
	b.activity.Creator.Product = product
	b.activity.Creator.SerialNumber = uint32(serial)
	b.hasID, b.hasCreator = true, true
	return nil
}

// FileCreator sets the creator software version.
func (b *Builder) FileCreator(m Message) error {
	version, err := requireInt(m, "software_version")
	if err != nil {
		return err
	}
	b.activity.Creator.SoftwareVersion = version
	b.hasVersion = true
	return nil
}

// Sport sets the activity sport.
func (b *Builder) Sport(m Message) error {
	sport, err := requireText(m, "sport")
	if err != nil {
		return err
	}
	b.activity.Sport = RenderSport(sport)
	b.hasSport = true
	return nil
}

// Event opens a lap on a timer start, or moves the start of the open lap to
// the event time. Stop, stop_all and marker events are accepted without
// effect; in particular a stop does not close the lap.
func (b *Builder) Event(m Message) error {
	eventType, err := requireText(m, "event_type")
	if err != nil {
		return err
	}
	switch eventType {
	case "start":
		at, err := requireTime(m, "timestamp")
		if err != nil {
			return err
		}
		b.openLap(at).StartTime = at
		return nil
	case "stop", "stop_all", "marker":
		return nil
	default:
		return fmt.Errorf("%w: event type %q", ErrUnrecognizedRecord, eventType)
	}
}

// Record appends a trackpoint to the open lap, opening one if needed.
func (b *Builder) Record(m Message) error {
	at, err := requireTime(m, "timestamp")
	if err != nil {
		return err
	}
	km, err := requireFloat(m, "distance")
	if err != nil {
		return err
	}
	distance := km * 1000

	pos, err := b.locator.Interpolate(distance)
	if err != nil {
		return fmt.Errorf("place sample at %.1f m: %w", distance, err)
	}

	tp := Trackpoint{
		Time:      at,
		Position:  pos,
		Distance:  distance,
		HeartRate: optionalInt(m, "heart_rate"),
		Cadence:   optionalInt(m, "cadence"),
	}
	if kmh, err := requireFloat(m, "enhanced_speed", "speed"); err == nil {
		mps := kmh / 3.6
		tp.Speed = &mps
	}

	lap := b.openLap(at)
	lap.Trackpoints = append(lap.Trackpoints, tp)
	return nil
}

// Lap copies the device lap summary onto the open lap and closes it.
func (b *Builder) Lap(m Message) error {
	lap := b.lap
	if lap == nil {
		return ErrOrphanLapSummary
	}

	end, err := requireTime(m, "timestamp")
	if err != nil {
		return err
	}
	if start, err := requireTime(m, "start_time"); err == nil {
		lap.StartTime = start
	}
	if lap.TotalDistance, err = requireFloat(m, "total_distance"); err != nil {
		return err
	}
	maxSpeed, err := requireFloat(m, "enhanced_max_speed", "max_speed")
	if err != nil {
		return err
	}
	avgSpeed, err := requireFloat(m, "enhanced_avg_speed", "avg_speed")
	if err != nil {
		return err
	}
	if lap.Calories, err = requireInt(m, "total_calories"); err != nil {
		return err
	}
	if lap.AvgHeartRate, err = requireInt(m, "avg_heart_rate"); err != nil {
		return err
	}
	if lap.MaxHeartRate, err = requireInt(m, "max_heart_rate"); err != nil {
		return err
	}
	if lap.AvgCadence, err = requireInt(m, "avg_cadence"); err != nil {
		return err
	}
	if lap.MaxCadence, err = requireInt(m, "max_cadence"); err != nil {
		return err
	}
	lap.MaxSpeed = maxSpeed / 3.6
	lap.AvgSpeed = avgSpeed / 3.6
	lap.TotalTime = end.Sub(lap.StartTime).Seconds()

	b.activity.Laps = append(b.activity.Laps, lap)
	b.lap = nil
	b.logger.Debug("closed lap",
		"lap", len(b.activity.Laps),
		"trackpoints", len(lap.Trackpoints),
		"distance_m", lap.TotalDistance,
		"seconds", lap.TotalTime)
	return nil
}

// Ignore accepts a record kind that carries nothing for the document.
func (b *Builder) Ignore(m Message) {
	kind := m.Kind()
	if b.ignored[kind] == 0 {
		b.logger.Debug("ignoring record kind", "kind", kind)
	}
	b.ignored[kind]++
}

// Ignored returns how many records of each ignored kind were seen.
func (b *Builder) Ignored() map[string]int {
	return b.ignored
}

// Finish validates the finished activity. A lap left open is an error.
func (b *Builder) Finish() (*Activity, error) {
	if b.lap != nil {
		return nil, fmt.Errorf("%w: %d trackpoints", ErrUnterminatedLap, len(b.lap.Trackpoints))
	}
	if !b.hasID || !b.hasCreator {
		return nil, missingField("file_id", "time_created")
	}
	if !b.hasVersion {
		return nil, missingField("file_creator", "software_version")
	}
	if !b.hasSport {
		b.logger.Warn("activity has no sport record, using Other")
		b.activity.Sport = "Other"
	}
	a := b.activity
	return &a, nil
}

func (b *Builder) openLap(start time.Time) *Lap {
	if b.lap == nil {
		b.lap = &Lap{StartTime: start}
	}
	return b.lap
}
