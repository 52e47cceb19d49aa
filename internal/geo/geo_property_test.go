// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestInitialBearingRange verifies bearings stay in [0, 360).
// Property: 0 <= InitialBearing(a, b) < 360 for any two distinct points
func TestInitialBearingRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("bearing is normalized", prop.ForAll(
		func(lat1, lon1, lat2, lon2 float64) bool {
			if lat1 == lat2 && lon1 == lon2 {
				return true
			}
			b := InitialBearing(lat1, lon1, lat2, lon2)
			return b >= 0 && b < 360
		},
		gen.Float64Range(-89, 89),
		gen.Float64Range(-180, 180),
		gen.Float64Range(-89, 89),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}

// TestGreatCircleDistanceSymmetry verifies d(a,b) == d(b,a) and d(a,a) == 0.
func TestGreatCircleDistanceSymmetry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("distance is symmetric", prop.ForAll(
		func(lat1, lon1, lat2, lon2, radius float64) bool {
			ab := GreatCircleDistance(lat1, lon1, lat2, lon2, radius)
			ba := GreatCircleDistance(lat2, lon2, lat1, lon1, radius)
			return math.Abs(ab-ba) <= 1e-9*math.Max(1, ab)
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
		gen.Float64Range(0.1, 10000),
	))

	properties.Property("distance to self is zero", prop.ForAll(
		func(lat, lon, radius float64) bool {
			return GreatCircleDistance(lat, lon, lat, lon, radius) == 0
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
		gen.Float64Range(0.1, 10000),
	))

	properties.TestingRun(t)
}

// TestPointOnCircleStaysOnRadius checks that every generated waypoint is
// radius km away from the center under the same flat approximation.
func TestPointOnCircleStaysOnRadius(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("waypoints sit on the circle", prop.ForAll(
		func(radius, centerLat, angle float64) bool {
			cfg := OrbitConfig{RadiusKm: radius, CenterLat: centerLat, CenterLon: 10}
			lat, lon := PointOnCircle(cfg, angle)
			dy := (lat - centerLat) * KmPerDegreeLat
			dx := (lon - 10) * KmPerDegreeLat * math.Cos(centerLat*math.Pi/180)
			return math.Abs(math.Hypot(dx, dy)-radius) < 1e-6
		},
		gen.Float64Range(0.1, 20),
		gen.Float64Range(-60, 60),
		gen.Float64Range(0, 2*math.Pi),
	))

	properties.TestingRun(t)
}
