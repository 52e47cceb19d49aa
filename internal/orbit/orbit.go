// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orbit simulates a platform flying a closed circle.
package orbit

import (
	"context"
	"math"
	"time"

	"github.com/relabs-tech/cot_bridge/internal/geo"
	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// DefaultSteps is the number of waypoints per lap.
const DefaultSteps = 100

// Source walks the circle one waypoint per call and never ends.
// It is not safe for concurrent use.
type Source struct {
	cfg   geo.OrbitConfig
	steps int
	i     int
	now   func() time.Time
}

// NewSource creates an orbit source. steps <= 0 selects DefaultSteps.
func NewSource(cfg geo.OrbitConfig, steps int) *Source {
	if steps <= 0 {
		steps = DefaultSteps
	}
	return &Source{cfg: cfg, steps: steps, now: time.Now}
}

// Step returns the index of the waypoint the next call will emit.
func (s *Source) Step() int { return s.i }

// Next emits the current waypoint. Heading and speed describe the leg to
// the following waypoint.
func (s *Source) Next(ctx context.Context) (gps.Sample, error) {
	if err := ctx.Err(); err != nil {
		return gps.Sample{}, err
	}

	next := (s.i + 1) % s.steps
	lat, lon := geo.PointOnCircle(s.cfg, s.angle(s.i))
	nextLat, nextLon := geo.PointOnCircle(s.cfg, s.angle(next))

	heading := geo.InitialBearing(lat, lon, nextLat, nextLon)
	dist := geo.GreatCircleDistance(lat, lon, nextLat, nextLon, s.cfg.RadiusKm)
	speed := geo.DerivedSpeed(dist, s.cfg.SpeedDivisor)

	s.i = next

	return gps.Sample{
		Latitude:  lat,
		Longitude: lon,
		Heading:   gps.Float(heading),
		Speed:     gps.Float(speed),
		Timestamp: s.now().UTC(),
	}, nil
}

func (s *Source) angle(i int) float64 {
	return 2 * math.Pi * float64(i) / float64(s.steps)
}
