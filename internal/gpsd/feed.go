// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gpsd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// State is the handshake state of one gpsd session. Release is the last
// release the daemon announced, accepted or not.
type State struct {
	Negotiated    bool
	MinProtoMajor int
	Release       string
}

// Feed turns decoded gpsd records into samples.
type Feed struct {
	state State
	fatal error
	log   *slog.Logger
	now   func() time.Time
}

// NewFeed creates a feed that refuses daemons older than minProtoMajor.
func NewFeed(minProtoMajor int, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		state: State{MinProtoMajor: minProtoMajor},
		log:   logger,
		now:   time.Now,
	}
}

// State returns a copy of the session state.
func (f *Feed) State() State { return f.state }

// HandleLine decodes one raw line and hands it to Handle. A line that does
// not decode is a skip, never fatal.
func (f *Feed) HandleLine(line []byte) (gps.Sample, error) {
	if f.fatal != nil {
		return gps.Sample{}, f.fatal
	}
	f.log.Debug("gpsd: raw", "line", string(line))

	rec, err := Decode(line)
	if err != nil {
		return gps.Sample{}, gps.Skip("%v", err)
	}
	return f.Handle(rec)
}

// Handle processes a decoded record. Only a TPV with a position yields a
// sample; a VERSION below the minimum poisons the feed.
func (f *Feed) Handle(rec Record) (gps.Sample, error) {
	if f.fatal != nil {
		return gps.Sample{}, f.fatal
	}

	switch r := rec.(type) {
	case Version:
		if err := f.negotiate(r); err != nil {
			f.fatal = err
			return gps.Sample{}, err
		}
		return gps.Sample{}, gps.Skip("version %s", r.Release)
	case Device:
		f.log.Debug("gpsd: device", "path", r.Path, "driver", r.Driver)
		return gps.Sample{}, gps.Skip("device report")
	case TPV:
		return f.sampleFromTPV(r)
	default:
		return gps.Sample{}, gps.Skip("ignored %s", rec.Class())
	}
}

func (f *Feed) negotiate(v Version) error {
	if v.ProtoMajor < 0 || v.ProtoMinor < 0 {
		return gps.Fatal("gpsd version", fmt.Errorf("invalid protocol version %d.%d", v.ProtoMajor, v.ProtoMinor))
	}
	f.state.Release = v.Release
	have := semver.New(uint64(v.ProtoMajor), uint64(v.ProtoMinor), 0, "", "")
	want := semver.New(uint64(f.state.MinProtoMajor), 0, 0, "", "")
	if have.LessThan(want) {
		return gps.Fatal("gpsd major version mismatch",
			fmt.Errorf("protocol %s older than %d.x", have, f.state.MinProtoMajor))
	}

	f.state.Negotiated = true
	f.log.Info("gpsd: connected", "release", v.Release, "rev", v.Rev, "proto", have.String())
	return nil
}

func (f *Feed) sampleFromTPV(t TPV) (gps.Sample, error) {
	if t.Lat == nil || t.Lon == nil {
		return gps.Sample{}, gps.Skip("TPV without position (mode %d)", t.Mode)
	}

	ts := f.now().UTC()
	if t.Time != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, t.Time); err == nil {
			ts = parsed.UTC()
		}
	}

	f.log.Info("gpsd: point", "lat", *t.Lat, "lon", *t.Lon)
	return gps.Sample{
		Latitude:  *t.Lat,
		Longitude: *t.Lon,
		Heading:   t.Track,
		Speed:     t.Speed,
		Timestamp: ts,
	}, nil
}
