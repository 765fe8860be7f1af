package route

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

const courseTCX = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2">
  <Courses>
    <Course>
      <Name>River loop</Name>
      <Track>
        <Trackpoint>
          <Time>2026-03-01T07:00:00Z</Time>
          <Position><LatitudeDegrees>45.0</LatitudeDegrees><LongitudeDegrees>-75.0</LongitudeDegrees></Position>
          <DistanceMeters>0</DistanceMeters>
        </Trackpoint>
        <Trackpoint>
          <Position><LatitudeDegrees>45.001</LatitudeDegrees><LongitudeDegrees>-75.0</LongitudeDegrees></Position>
          <DistanceMeters>111.2</DistanceMeters>
        </Trackpoint>
        <Trackpoint>
          <Position><LatitudeDegrees>45.001</LatitudeDegrees><LongitudeDegrees>-74.999</LongitudeDegrees></Position>
          <DistanceMeters>190.0</DistanceMeters>
        </Trackpoint>
      </Track>
    </Course>
  </Courses>
</TrainingCenterDatabase>`

func TestLoadCourse(t *testing.T) {
	r, err := Load(strings.NewReader(courseTCX))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if r.Name != "River loop" {
		t.Fatalf("unexpected name %q", r.Name)
	}
	if len(r.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(r.Waypoints))
	}
	if got := r.Waypoints[1]; got.Distance != 111.2 || got.Position != (orb.Point{-75.0, 45.001}) {
		t.Fatalf("unexpected waypoint %+v", got)
	}
	if r.Length() != 190 {
		t.Fatalf("unexpected length %v", r.Length())
	}
	b := r.Bound()
	if b.Min != (orb.Point{-75.0, 45.0}) || b.Max != (orb.Point{-74.999, 45.001}) {
		t.Fatalf("unexpected bound %+v", b)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.tcx")
	if err := os.WriteFile(path, []byte(courseTCX), 0o644); err != nil {
		t.Fatalf("write course: %v", err)
	}
	r, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(r.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(r.Waypoints))
	}
}

func TestLoadDerivesDistances(t *testing.T) {
	doc := strings.NewReplacer(
		"<DistanceMeters>0</DistanceMeters>", "",
		"<DistanceMeters>111.2</DistanceMeters>", "",
		"<DistanceMeters>190.0</DistanceMeters>", "",
	).Replace(courseTCX)

	r, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if r.Waypoints[0].Distance != 0 {
		t.Fatalf("expected zero start distance, got %v", r.Waypoints[0].Distance)
	}
	// 0.001 degrees of latitude is roughly 111 m.
	if d := r.Waypoints[1].Distance; math.Abs(d-111.2) > 1 {
		t.Fatalf("unexpected derived distance %v", d)
	}
	if r.Waypoints[2].Distance <= r.Waypoints[1].Distance {
		t.Fatalf("expected increasing distances, got %+v", r.Waypoints)
	}
}

func TestLoadRejectsBadRoutes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "decreasing",
			doc:  strings.Replace(courseTCX, "<DistanceMeters>190.0</DistanceMeters>", "<DistanceMeters>100.0</DistanceMeters>", 1),
			want: ErrUnorderedRoute,
		},
		{
			name: "partial distances",
			doc:  strings.Replace(courseTCX, "<DistanceMeters>190.0</DistanceMeters>", "", 1),
			want: ErrPartialDistances,
		},
		{
			name: "missing position",
			doc:  strings.Replace(courseTCX, "<Time>2026-03-01T07:00:00Z</Time>\n          <Position><LatitudeDegrees>45.0</LatitudeDegrees><LongitudeDegrees>-75.0</LongitudeDegrees></Position>", "", 1),
			want: ErrMissingPosition,
		},
		{
			name: "single waypoint",
			doc: `<TrainingCenterDatabase><Courses><Course><Track><Trackpoint>
				<Position><LatitudeDegrees>1</LatitudeDegrees><LongitudeDegrees>2</LongitudeDegrees></Position>
				<DistanceMeters>0</DistanceMeters></Trackpoint></Track></Course></Courses></TrainingCenterDatabase>`,
			want: ErrShortRoute,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.doc)); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
