package footpod

import (
	"fmt"
	"math"
	"strings"
)

// BuildNotes turns a summary into a short human-readable report.
func BuildNotes(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s on %s\n", s.Sport, s.Device)
	if !s.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n", s.StartTime.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.2f km | Pace %s | Calories %d\n",
		formatDuration(s.ElapsedSeconds),
		s.DistanceMeters/1000.0,
		formatPace(s.AvgSpeedMps),
		s.Calories,
	)
	fmt.Fprintf(
		&b,
		"HR %.0f avg / %.0f max bpm | Cadence %.0f avg / %.0f max spm | Speed %.1f avg / %.1f max km/h\n",
		s.AvgHeartRate,
		s.MaxHeartRate,
		s.AvgCadence,
		s.MaxCadence,
		mpsToKmh(s.AvgSpeedMps),
		mpsToKmh(s.MaxSpeedMps),
	)
	if s.Economy > 0 {
		fmt.Fprintf(&b, "Economy %.0f cm/beat\n", s.Economy)
	}
	if s.RouteLengthMeters > 0 {
		fmt.Fprintf(
			&b,
			"Route: %.2f of %.2f km covered (%.1f%%), %d trackpoints placed\n",
			s.DistanceMeters/1000.0,
			s.RouteLengthMeters/1000.0,
			s.RouteCoveragePct,
			s.Trackpoints,
		)
	}

	if len(s.Laps) > 1 {
		b.WriteString("\nLaps\n")
		for _, lap := range s.Laps {
			fmt.Fprintf(
				&b,
				"- Lap %d: %.2f km in %s (%s), HR %.0f, cadence %.0f spm\n",
				lap.Index,
				lap.DistanceMeters/1000.0,
				formatDuration(lap.DurationSeconds),
				formatPace(lap.AvgSpeedMps),
				lap.AvgHeartRate,
				lap.AvgCadence,
			)
		}
	}

	return strings.TrimSpace(b.String())
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// formatPace renders minutes per kilometre.
func formatPace(mps float64) string {
	if mps <= 0 {
		return "-"
	}
	s := int(math.Round(1000 / mps))
	return fmt.Sprintf("%d:%02d /km", s/60, s%60)
}

func mpsToKmh(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * 3.6
}
