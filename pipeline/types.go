package pipeline

import (
	"io"
	"log/slog"
	"time"

	"github.com/lucasjlepore/footpod"
	"github.com/lucasjlepore/footpod/convert"
	"github.com/lucasjlepore/footpod/route"
)

// Samples export formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Options configures a file-based conversion.
type Options struct {
	ActivityPath string
	RoutePath    string
	// OutputPath receives the TCX document; "" or "-" writes to Stdout.
	OutputPath string
	Stdout     io.Writer
	Overwrite  bool
	SkipCRC    bool

	SamplesPath   string
	SamplesFormat string // csv|parquet, inferred from SamplesPath when empty

	Logger *slog.Logger
}

// Result describes what a file-based conversion wrote.
type Result struct {
	OutputPath  string          `json:"output_path"`
	OutputBytes int             `json:"output_bytes"`
	SamplesPath string          `json:"samples_path,omitempty"`
	Laps        int             `json:"laps"`
	Trackpoints int             `json:"trackpoints"`
	Warnings    []string        `json:"warnings,omitempty"`
	Summary     footpod.Summary `json:"summary"`
}

// BytesOptions configures an in-memory conversion.
type BytesOptions struct {
	FitData       []byte
	RouteData     []byte
	SkipCRC       bool
	SamplesFormat string // empty skips the samples export
	Logger        *slog.Logger
}

// BytesResult holds every artifact of an in-memory conversion.
type BytesResult struct {
	TCX      []byte
	Samples  []byte
	Activity *convert.Activity
	Route    *route.Route
	Summary  footpod.Summary
	Warnings []string
	Ignored  map[string]int

	// LastSegment holds the waypoint indices enclosing the last placed sample.
	LastSegment [2]int
}

// Sample is one trackpoint row of the samples export.
type Sample struct {
	LapIndex  int       `json:"lap_index"`
	TSUTCISO  string    `json:"ts_utc_iso"`
	Timestamp time.Time `json:"-"`
	ElapsedS  float64   `json:"elapsed_s"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	DistanceM float64   `json:"distance_m"`
	HRBPM     *float64  `json:"hr_bpm,omitempty"`
	SpeedMPS  *float64  `json:"speed_mps,omitempty"`
	// CadenceSPM is the logged cadence, which running devices record per leg.
	CadenceSPM *float64 `json:"cadence_spm,omitempty"`
	EconomyCM  *float64 `json:"economy_cm_per_beat,omitempty"`
}
