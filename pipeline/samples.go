package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/footpod/convert"
)

var sampleColumns = []string{
	"lap_index", "ts_utc_iso", "elapsed_s", "lat", "lon", "distance_m",
	"hr_bpm", "speed_mps", "cadence_spm", "economy_cm_per_beat",
}

// buildSamples flattens the activity into one row per trackpoint.
func buildSamples(a *convert.Activity) []Sample {
	out := make([]Sample, 0, a.Trackpoints())
	var first time.Time
	for i, lap := range a.Laps {
		for _, tp := range lap.Trackpoints {
			if first.IsZero() {
				first = tp.Time
			}
			s := Sample{
				LapIndex:   i + 1,
				TSUTCISO:   tp.Time.UTC().Format(time.RFC3339),
				Timestamp:  tp.Time,
				ElapsedS:   tp.Time.Sub(first).Seconds(),
				Lat:        tp.Position.Lat(),
				Lon:        tp.Position.Lon(),
				DistanceM:  tp.Distance,
				HRBPM:      intPtrToFloat(tp.HeartRate),
				SpeedMPS:   tp.Speed,
				CadenceSPM: intPtrToFloat(tp.Cadence),
			}
			if s.SpeedMPS != nil && s.HRBPM != nil && *s.HRBPM > 0 {
				economy := *s.SpeedMPS * 100 * 60 / *s.HRBPM
				s.EconomyCM = &economy
			}
			out = append(out, s)
		}
	}
	return out
}

// samplesFormat resolves the export format from an explicit value or the
// samples path extension.
func samplesFormat(format, path string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".parquet":
			format = FormatParquet
		default:
			format = FormatCSV
		}
	}
	if format != FormatCSV && format != FormatParquet {
		return "", fmt.Errorf("unsupported samples format %q (expected csv|parquet)", format)
	}
	return format, nil
}

func marshalSamples(format string, samples []Sample) ([]byte, error) {
	switch format {
	case FormatCSV:
		return marshalSamplesCSV(samples)
	case FormatParquet:
		return marshalSamplesParquet(samples)
	default:
		return nil, fmt.Errorf("unsupported samples format %q", format)
	}
}

func marshalSamplesCSV(samples []Sample) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sampleColumns); err != nil {
		return nil, err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.LapIndex),
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloat(s.Lat),
			formatFloat(s.Lon),
			formatFloat(s.DistanceM),
			formatFloatPtr(s.HRBPM),
			formatFloatPtr(s.SpeedMPS),
			formatFloatPtr(s.CadenceSPM),
			formatFloatPtr(s.EconomyCM),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func intPtrToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	out := float64(*v)
	return &out
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
