// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo holds the small amount of geodesy the synthetic orbit needs.
package geo

import "math"

// KmPerDegreeLat is the length of one degree of latitude used by PointOnCircle.
const KmPerDegreeLat = 111.32

// SpeedScale converts a radius-scaled great-circle distance into the
// simulator's speed figure. It is not a physical unit.
const SpeedScale = 10_000_000

// OrbitConfig describes the circle a synthetic platform flies around.
type OrbitConfig struct {
	RadiusKm     float64 `json:"radius_km"`
	CenterLat    float64 `json:"center_lat"`
	CenterLon    float64 `json:"center_lon"`
	SpeedDivisor float64 `json:"speed_divisor"`
}

// PointOnCircle returns the point at angle (radians, 0 = north, clockwise)
// on the configured circle.
//
// This is a flat-earth approximation: the radius is converted to degrees
// with a fixed km/degree figure and the longitude offset is stretched by
// 1/cos(centerLat). It is only meaningful for radii of a few kilometres.
func PointOnCircle(cfg OrbitConfig, angle float64) (lat, lon float64) {
	dLat := cfg.RadiusKm * math.Cos(angle) / KmPerDegreeLat
	dLon := cfg.RadiusKm * math.Sin(angle) / (KmPerDegreeLat * math.Cos(toRad(cfg.CenterLat)))
	return cfg.CenterLat + dLat, cfg.CenterLon + dLon
}

// InitialBearing returns the forward azimuth from point 1 to point 2 in
// degrees, normalized to [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLambda := toRad(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	bearing := toDeg(math.Atan2(y, x))
	if bearing < 0 {
		bearing += 360
	}
	// a tiny negative bearing rounds to exactly 360 after the shift
	if bearing >= 360 {
		bearing -= 360
	}
	return bearing
}

// GreatCircleDistance is the haversine distance between two points scaled
// by radius. Callers pass the orbit radius, not the Earth radius; the
// derived speed depends on that.
func GreatCircleDistance(lat1, lon1, lat2, lon2, radius float64) float64 {
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

// DerivedSpeed turns a leg distance into the simulator speed figure.
func DerivedSpeed(distance, divisor float64) float64 {
	return distance / divisor * SpeedScale
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

func toDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
