package route

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func testRoute(points ...Waypoint) *Route {
	return &Route{Waypoints: points}
}

func wp(distance, lat, lon float64) Waypoint {
	return Waypoint{Distance: distance, Position: orb.Point{lon, lat}}
}

func TestInterpolateMidpoint(t *testing.T) {
	in, err := NewInterpolator(testRoute(wp(0, 10, 20), wp(100, 11, 22)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	got, err := in.Interpolate(50)
	if err != nil {
		t.Fatalf("Interpolate error: %v", err)
	}
	if math.Abs(got.Lat()-10.5) > 1e-12 || math.Abs(got.Lon()-21) > 1e-12 {
		t.Fatalf("expected (10.5, 21), got (%v, %v)", got.Lat(), got.Lon())
	}
}

func TestInterpolateExactWaypoints(t *testing.T) {
	r := testRoute(wp(0, 0.1, 0.7), wp(33.3, 0.3, 0.9), wp(70, 0.7, 0.1))
	in, err := NewInterpolator(r)
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	for _, w := range r.Waypoints {
		got, err := in.Interpolate(w.Distance)
		if err != nil {
			t.Fatalf("Interpolate(%v) error: %v", w.Distance, err)
		}
		if got != w.Position {
			t.Fatalf("Interpolate(%v) = %v, want %v", w.Distance, got, w.Position)
		}
	}
}

func TestInterpolateAdvancesAcrossSegments(t *testing.T) {
	in, err := NewInterpolator(testRoute(wp(0, 0, 0), wp(10, 1, 0), wp(20, 1, 1), wp(40, 3, 1)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	queries := []struct {
		distance float64
		lat, lon float64
	}{
		{5, 0.5, 0},
		{5, 0.5, 0},
		{15, 1, 0.5},
		{30, 2, 1},
		{40, 3, 1},
	}
	for _, q := range queries {
		got, err := in.Interpolate(q.distance)
		if err != nil {
			t.Fatalf("Interpolate(%v) error: %v", q.distance, err)
		}
		if math.Abs(got.Lat()-q.lat) > 1e-12 || math.Abs(got.Lon()-q.lon) > 1e-12 {
			t.Fatalf("Interpolate(%v) = (%v, %v), want (%v, %v)", q.distance, got.Lat(), got.Lon(), q.lat, q.lon)
		}
		behind, ahead := in.Cursor()
		if r := in.points; r[behind].Distance > q.distance || q.distance > r[ahead].Distance {
			t.Fatalf("cursor (%d, %d) does not enclose %v", behind, ahead, q.distance)
		}
	}
}

func TestInterpolateOutOfOrder(t *testing.T) {
	in, err := NewInterpolator(testRoute(wp(0, 0, 0), wp(100, 1, 1)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	if _, err := in.Interpolate(60); err != nil {
		t.Fatalf("Interpolate error: %v", err)
	}
	if _, err := in.Interpolate(40); !errors.Is(err, ErrOutOfOrderQuery) {
		t.Fatalf("expected ErrOutOfOrderQuery, got %v", err)
	}

	late, err := NewInterpolator(testRoute(wp(10, 0, 0), wp(100, 1, 1)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	if _, err := late.Interpolate(5); !errors.Is(err, ErrOutOfOrderQuery) {
		t.Fatalf("expected ErrOutOfOrderQuery before route start, got %v", err)
	}
}

func TestInterpolateExhausted(t *testing.T) {
	in, err := NewInterpolator(testRoute(wp(0, 0, 0), wp(100, 1, 1)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	if _, err := in.Interpolate(100.5); !errors.Is(err, ErrExhaustedRoute) {
		t.Fatalf("expected ErrExhaustedRoute, got %v", err)
	}
}

func TestInterpolateDegenerateSegment(t *testing.T) {
	in, err := NewInterpolator(testRoute(wp(0, 0, 0), wp(0, 1, 1), wp(100, 2, 2)))
	if err != nil {
		t.Fatalf("NewInterpolator error: %v", err)
	}
	if _, err := in.Interpolate(0); !errors.Is(err, ErrDegenerateSegment) {
		t.Fatalf("expected ErrDegenerateSegment, got %v", err)
	}
}

func TestNewInterpolatorRejectsShortRoute(t *testing.T) {
	if _, err := NewInterpolator(testRoute(wp(0, 0, 0))); !errors.Is(err, ErrShortRoute) {
		t.Fatalf("expected ErrShortRoute, got %v", err)
	}
}
