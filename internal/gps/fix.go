// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "time"

// Fix is the JSON form of a sample, as mirrored to MQTT.
type Fix struct {
	Time      string   `json:"time"`              // RFC3339, UTC
	Latitude  float64  `json:"lat"`               // decimal degrees
	Longitude float64  `json:"lon"`               // decimal degrees
	Heading   *float64 `json:"heading,omitempty"` // degrees
	Speed     *float64 `json:"speed,omitempty"`
	Source    string   `json:"source"` // "gpsd", "nmea", "orbit"
	UID       string   `json:"uid,omitempty"`
}

// FixFromSample converts s for publishing.
func FixFromSample(s Sample, source, uid string) Fix {
	return Fix{
		Time:      s.Timestamp.UTC().Format(time.RFC3339),
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Heading:   s.Heading,
		Speed:     s.Speed,
		Source:    source,
		UID:       uid,
	}
}
