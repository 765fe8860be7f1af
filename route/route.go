// Package route loads planned courses and projects cumulative distances onto
// them.
package route

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var (
	ErrShortRoute       = errors.New("route needs at least two waypoints")
	ErrUnorderedRoute   = errors.New("route distances decrease")
	ErrMissingPosition  = errors.New("route waypoint has no position")
	ErrPartialDistances = errors.New("route waypoints only partly carry distances")
)

// Waypoint is a route point keyed by cumulative distance in metres.
type Waypoint struct {
	Distance float64
	Position orb.Point
}

// Route is an immutable, distance-ordered course.
type Route struct {
	Name      string
	Waypoints []Waypoint
}

type courseDocument struct {
	Courses []struct {
		Name   string `xml:"Name"`
		Tracks []struct {
			Points []coursePoint `xml:"Trackpoint"`
		} `xml:"Track"`
	} `xml:"Courses>Course"`
}

type coursePoint struct {
	Distance *float64 `xml:"DistanceMeters"`
	Position *struct {
		Lat float64 `xml:"LatitudeDegrees"`
		Lon float64 `xml:"LongitudeDegrees"`
	} `xml:"Position"`
}

// ReadFile loads the TCX course at path.
func ReadFile(path string) (*Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route: %w", err)
	}
	defer f.Close()

	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load route %s: %w", path, err)
	}
	return r, nil
}

// Load reads every Courses/Course/Track/Trackpoint of a TCX document in
// document order. When no trackpoint carries DistanceMeters the cumulative
// distance is measured along the positions.
func Load(r io.Reader) (*Route, error) {
	var doc courseDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse course xml: %w", err)
	}

	var (
		out      Route
		points   []coursePoint
		withDist int
	)
	for _, course := range doc.Courses {
		if out.Name == "" {
			out.Name = course.Name
		}
		for _, track := range course.Tracks {
			for _, p := range track.Points {
				if p.Position == nil {
					return nil, fmt.Errorf("trackpoint %d: %w", len(points), ErrMissingPosition)
				}
				if p.Distance != nil {
					withDist++
				}
				points = append(points, p)
			}
		}
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrShortRoute, len(points))
	}
	if withDist != 0 && withDist != len(points) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPartialDistances, withDist, len(points))
	}

	out.Waypoints = make([]Waypoint, 0, len(points))
	total := 0.0
	for i, p := range points {
		pos := orb.Point{p.Position.Lon, p.Position.Lat}
		if withDist == 0 {
			if i > 0 {
				total += geo.Distance(out.Waypoints[i-1].Position, pos)
			}
		} else {
			total = *p.Distance
		}
		out.Waypoints = append(out.Waypoints, Waypoint{Distance: total, Position: pos})
	}

	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Route) validate() error {
	if len(r.Waypoints) < 2 {
		return fmt.Errorf("%w: got %d", ErrShortRoute, len(r.Waypoints))
	}
	for i := 1; i < len(r.Waypoints); i++ {
		if r.Waypoints[i].Distance < r.Waypoints[i-1].Distance {
			return fmt.Errorf("%w: waypoint %d at %.2f m follows %.2f m", ErrUnorderedRoute, i, r.Waypoints[i].Distance, r.Waypoints[i-1].Distance)
		}
	}
	if r.Waypoints[0].Distance < 0 {
		return fmt.Errorf("%w: negative start distance %.2f m", ErrUnorderedRoute, r.Waypoints[0].Distance)
	}
	return nil
}

// Length returns the cumulative distance of the last waypoint.
func (r *Route) Length() float64 {
	if len(r.Waypoints) == 0 {
		return 0
	}
	return r.Waypoints[len(r.Waypoints)-1].Distance
}

// Bound returns the bounding box of all waypoints.
func (r *Route) Bound() orb.Bound {
	ls := make(orb.LineString, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		ls = append(ls, w.Position)
	}
	return ls.Bound()
}
