// Package footpod summarizes activities whose positions were reconstructed
// from a planned route.
package footpod

import (
	"math"
	"time"

	"github.com/lucasjlepore/footpod/convert"
)

// Summary contains aggregate metrics of a converted activity.
type Summary struct {
	Sport             string       `json:"sport"`
	Device            string       `json:"device"`
	StartTime         time.Time    `json:"start_time"`
	EndTime           time.Time    `json:"end_time"`
	ElapsedSeconds    float64      `json:"elapsed_seconds"`
	DistanceMeters    float64      `json:"distance_meters"`
	Calories          int          `json:"calories"`
	AvgSpeedMps       float64      `json:"avg_speed_mps"`
	MaxSpeedMps       float64      `json:"max_speed_mps"`
	AvgHeartRate      float64      `json:"avg_heart_rate_bpm"`
	MaxHeartRate      float64      `json:"max_heart_rate_bpm"`
	AvgCadence        float64      `json:"avg_cadence_spm"`
	MaxCadence        float64      `json:"max_cadence_spm"`
	Economy           float64      `json:"economy_cm_per_beat"`
	RouteLengthMeters float64      `json:"route_length_meters"`
	RouteCoveragePct  float64      `json:"route_coverage_pct"`
	Trackpoints       int          `json:"trackpoints"`
	Laps              []LapSummary `json:"laps,omitempty"`
}

// LapSummary is a compact lap-level view for pacing analysis.
type LapSummary struct {
	Index              int     `json:"index"`
	StartOffsetSeconds float64 `json:"start_offset_seconds"`
	DurationSeconds    float64 `json:"duration_seconds"`
	DistanceMeters     float64 `json:"distance_meters"`
	AvgSpeedMps        float64 `json:"avg_speed_mps"`
	AvgHeartRate       float64 `json:"avg_heart_rate_bpm"`
	AvgCadence         float64 `json:"avg_cadence_spm"`
	Economy            float64 `json:"economy_cm_per_beat"`
	Trackpoints        int     `json:"trackpoints"`
}

// Summarize aggregates the laps and trackpoints of a. routeLength is the
// length of the planned route in metres; zero skips the coverage figure.
func Summarize(a *convert.Activity, routeLength float64) Summary {
	s := Summary{
		Sport:             a.Sport,
		Device:            convert.RenderProductName(a.Creator.Product),
		RouteLengthMeters: routeLength,
		Trackpoints:       a.Trackpoints(),
	}
	if len(a.Laps) == 0 {
		return s
	}

	var hr, cadence []float64
	for i, lap := range a.Laps {
		end := lap.StartTime.Add(time.Duration(lap.TotalTime * float64(time.Second)))
		if i == 0 || lap.StartTime.Before(s.StartTime) {
			s.StartTime = lap.StartTime
		}
		if end.After(s.EndTime) {
			s.EndTime = end
		}
		s.DistanceMeters += lap.TotalDistance
		s.Calories += lap.Calories
		s.MaxSpeedMps = math.Max(s.MaxSpeedMps, lap.MaxSpeed)
		s.MaxHeartRate = math.Max(s.MaxHeartRate, float64(lap.MaxHeartRate))
		s.MaxCadence = math.Max(s.MaxCadence, float64(lap.MaxCadence))

		for _, tp := range lap.Trackpoints {
			if tp.HeartRate != nil && *tp.HeartRate > 0 {
				hr = append(hr, float64(*tp.HeartRate))
			}
			if tp.Cadence != nil && *tp.Cadence > 0 {
				cadence = append(cadence, float64(*tp.Cadence))
			}
		}
	}

	s.ElapsedSeconds = s.EndTime.Sub(s.StartTime).Seconds()
	if s.ElapsedSeconds > 0 {
		s.AvgSpeedMps = s.DistanceMeters / s.ElapsedSeconds
	}
	s.AvgHeartRate = average(hr)
	s.AvgCadence = average(cadence)
	s.Economy = economy(s.AvgSpeedMps, s.AvgHeartRate)
	if routeLength > 0 {
		s.RouteCoveragePct = math.Min(100, s.DistanceMeters/routeLength*100)
	}

	for i, lap := range a.Laps {
		ls := LapSummary{
			Index:              i + 1,
			StartOffsetSeconds: lap.StartTime.Sub(s.StartTime).Seconds(),
			DurationSeconds:    lap.TotalTime,
			DistanceMeters:     lap.TotalDistance,
			AvgSpeedMps:        lap.AvgSpeed,
			AvgHeartRate:       float64(lap.AvgHeartRate),
			AvgCadence:         float64(lap.AvgCadence),
			Trackpoints:        len(lap.Trackpoints),
		}
		ls.Economy = economy(ls.AvgSpeedMps, ls.AvgHeartRate)
		s.Laps = append(s.Laps, ls)
	}
	return s
}

// economy returns the distance covered per heartbeat in centimetres.
func economy(speedMps, heartRate float64) float64 {
	if speedMps <= 0 || heartRate <= 0 {
		return 0
	}
	return speedMps * 100 * 60 / heartRate
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
