// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cot builds Cursor-on-Target XML events from position samples.
package cot

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// Kind selects the event template.
type Kind int

const (
	FriendlyTrack Kind = iota
	UnknownDetection
	UnknownImageAttachment
)

func (k Kind) String() string {
	switch k {
	case FriendlyTrack:
		return "friendly_track"
	case UnknownDetection:
		return "unknown_detection"
	case UnknownImageAttachment:
		return "unknown_image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type is the CoT type attribute for k.
func (k Kind) Type() string {
	if k == FriendlyTrack {
		return "a-f-S-X"
	}
	return "a-u-S"
}

// How is the CoT how attribute for k.
func (k Kind) How() string {
	switch k {
	case FriendlyTrack:
		return "m-s"
	case UnknownDetection:
		return "m-d-a"
	default:
		return "b-d-i"
	}
}

// TimeFormat is the timestamp layout CoT consumers expect.
const TimeFormat = "2006-01-02T15:04:05Z"

// DefaultStale is how long an event stays valid.
const DefaultStale = 10 * time.Minute

// TimeWindow is the validity window of one event.
type TimeWindow struct {
	Start time.Time
	Time  time.Time
	Stale time.Time
}

// NewTimeWindow starts a window at at. validity <= 0 selects DefaultStale.
func NewTimeWindow(at time.Time, validity time.Duration) TimeWindow {
	if validity <= 0 {
		validity = DefaultStale
	}
	at = at.UTC().Truncate(time.Second)
	return TimeWindow{Start: at, Time: at, Stale: at.Add(validity)}
}

// Valid reports whether stale > time == start.
func (w TimeWindow) Valid() bool {
	return w.Start.Equal(w.Time) && w.Stale.After(w.Time)
}

// Point is the <point> element. CE and LE are circular and linear error.
type Point struct {
	Lat float64
	Lon float64
	HAE string
	CE  string
	LE  string
}

// Track is the <track> element of a detail block.
type Track struct {
	Course  string
	Heading string // empty omits the attribute
	Speed   string
}

// Event is a fully built CoT event; Build fills in the variant details.
type Event struct {
	Kind   Kind
	UID    string
	Window TimeWindow
	Point  Point
	Track  *Track
	Image  string // base64 JPEG, image variant only
}

// Legacy static track written for friendly tracks whose source knows no
// heading or speed.
var legacyTrack = Track{Course: "30.9", Heading: "287.2", Speed: "1.36"}

var (
	ErrNoImage       = errors.New("cot: image attachment requires a payload")
	ErrInvalidWindow = errors.New("cot: stale must be after time and start")
	ErrNoUID         = errors.New("cot: empty uid")
	ErrNonFinite     = errors.New("cot: non-finite position or motion")
)

// Build assembles the event for kind. image is only used, and required, by
// UnknownImageAttachment.
func Build(kind Kind, s gps.Sample, w TimeWindow, uid, image string) (*Event, error) {
	if uid == "" {
		return nil, ErrNoUID
	}
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}
	if !finite(s.Latitude) || !finite(s.Longitude) || !finitePtr(s.Heading) || !finitePtr(s.Speed) {
		return nil, ErrNonFinite
	}

	ev := &Event{Kind: kind, UID: uid, Window: w}

	switch kind {
	case FriendlyTrack:
		ev.Point = Point{Lat: s.Latitude, Lon: s.Longitude, CE: "5", HAE: "0.0", LE: "0.5"}
		ev.Track = friendlyTrack(s)
	case UnknownDetection:
		ev.Point = Point{Lat: s.Latitude, Lon: s.Longitude, CE: "9999999.0", HAE: "0.0", LE: "9999999.0"}
		ev.Track = &Track{Course: formatFloat(deref(s.Heading)), Speed: formatFloat(deref(s.Speed))}
	case UnknownImageAttachment:
		if image == "" {
			return nil, ErrNoImage
		}
		if _, err := base64.StdEncoding.DecodeString(image); err != nil {
			return nil, fmt.Errorf("cot: image payload is not base64: %w", err)
		}
		ev.Point = Point{Lat: s.Latitude, Lon: s.Longitude, CE: "9999999.0", HAE: "0.0", LE: "9999999.0"}
		ev.Image = image
	default:
		return nil, fmt.Errorf("cot: unknown event kind %d", int(kind))
	}
	return ev, nil
}

// Encode builds and serializes a track or detection event.
func Encode(kind Kind, s gps.Sample, w TimeWindow, uid string) (string, error) {
	ev, err := Build(kind, s, w, uid, "")
	if err != nil {
		return "", err
	}
	return ev.String(), nil
}

// friendlyTrack fixes speed to four decimals; heading and course use the
// shortest float form.
func friendlyTrack(s gps.Sample) *Track {
	if s.Heading == nil && s.Speed == nil {
		t := legacyTrack
		return &t
	}
	heading := formatFloat(deref(s.Heading))
	return &Track{
		Course:  heading,
		Heading: heading,
		Speed:   strconv.FormatFloat(deref(s.Speed), 'f', 4, 64),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finitePtr(v *float64) bool {
	return v == nil || finite(*v)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
