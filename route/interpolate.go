package route

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrOutOfOrderQuery   = errors.New("query distance moves backwards")
	ErrExhaustedRoute    = errors.New("query distance beyond end of route")
	ErrDegenerateSegment = errors.New("route segment has zero length")
)

// Interpolator maps a non-decreasing sequence of cumulative distances onto
// positions along a route. Its cursors only move forward, so a full pass over
// n queries and m waypoints costs O(n+m).
type Interpolator struct {
	points  []Waypoint
	behind  int
	ahead   int
	last    float64
	started bool
}

// NewInterpolator positions the cursors on the first segment of r.
func NewInterpolator(r *Route) (*Interpolator, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &Interpolator{points: r.Waypoints, behind: 0, ahead: 1}, nil
}

// Interpolate returns the position at the given cumulative distance in
// metres. Latitude and longitude are interpolated linearly and independently
// between the enclosing waypoints.
func (in *Interpolator) Interpolate(distance float64) (orb.Point, error) {
	if in.started && distance < in.last {
		return orb.Point{}, fmt.Errorf("%w: %.2f m after %.2f m", ErrOutOfOrderQuery, distance, in.last)
	}
	if distance < in.points[in.behind].Distance {
		return orb.Point{}, fmt.Errorf("%w: %.2f m before route start at %.2f m", ErrOutOfOrderQuery, distance, in.points[in.behind].Distance)
	}

	for in.points[in.ahead].Distance < distance {
		if in.ahead+1 >= len(in.points) {
			return orb.Point{}, fmt.Errorf("%w: %.2f m past %.2f m", ErrExhaustedRoute, distance, in.points[in.ahead].Distance)
		}
		in.behind = in.ahead
		in.ahead++
	}
	in.last, in.started = distance, true

	behind, ahead := in.points[in.behind], in.points[in.ahead]
	span := ahead.Distance - behind.Distance
	if span == 0 {
		return orb.Point{}, fmt.Errorf("%w: waypoints %d and %d both at %.2f m", ErrDegenerateSegment, in.behind, in.ahead, ahead.Distance)
	}

	switch distance {
	case behind.Distance:
		return behind.Position, nil
	case ahead.Distance:
		return ahead.Position, nil
	}
	q := (distance - behind.Distance) / span
	return orb.Point{
		behind.Position.Lon() + q*(ahead.Position.Lon()-behind.Position.Lon()),
		behind.Position.Lat() + q*(ahead.Position.Lat()-behind.Position.Lat()),
	}, nil
}

// Cursor reports the waypoint indices enclosing the last query.
func (in *Interpolator) Cursor() (behind, ahead int) {
	return in.behind, in.ahead
}
