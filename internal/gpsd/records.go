// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gpsd

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WatchCommand enables JSON streaming on a gpsd connection.
const WatchCommand = `?WATCH={"enable":true,"json":true};`

// ProtoMajorMin is the oldest gpsd protocol major version understood.
const ProtoMajorMin = 3

// Record is one decoded gpsd report.
type Record interface {
	Class() string
}

// Version is the banner gpsd sends on connect.
type Version struct {
	Release    string `json:"release"`
	Rev        string `json:"rev"`
	ProtoMajor int    `json:"proto_major"`
	ProtoMinor int    `json:"proto_minor"`
}

// Devices lists the receivers gpsd knows about.
type Devices struct {
	Devices []Device `json:"devices"`
}

// Watch acknowledges a ?WATCH command.
type Watch struct {
	Enable bool `json:"enable"`
	JSON   bool `json:"json"`
}

// Device describes one receiver.
type Device struct {
	Path      string  `json:"path"`
	Driver    string  `json:"driver"`
	Activated string  `json:"activated"`
	Bps       int     `json:"bps"`
	Cycle     float64 `json:"cycle"`
}

// TPV is a time-position-velocity report. Absent fields are nil.
type TPV struct {
	Device string   `json:"device"`
	Mode   int      `json:"mode"`
	Time   string   `json:"time"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Alt    *float64 `json:"alt"`
	Track  *float64 `json:"track"`
	Speed  *float64 `json:"speed"`
	Climb  *float64 `json:"climb"`
}

// Sky is a satellite view report; only counted, never forwarded.
type Sky struct {
	Device     string            `json:"device"`
	Satellites []json.RawMessage `json:"satellites"`
}

// PPS is a pulse-per-second timing report.
type PPS struct {
	Device string `json:"device"`
}

// GST is a pseudorange noise report.
type GST struct {
	Device string `json:"device"`
}

func (Version) Class() string { return "VERSION" }
func (Devices) Class() string { return "DEVICES" }
func (Watch) Class() string   { return "WATCH" }
func (Device) Class() string  { return "DEVICE" }
func (TPV) Class() string     { return "TPV" }
func (Sky) Class() string     { return "SKY" }
func (PPS) Class() string     { return "PPS" }
func (GST) Class() string     { return "GST" }

// ErrUnknownClass is returned by Decode for classes outside the supported set.
var ErrUnknownClass = errors.New("unknown gpsd class")

// Decode parses one line of gpsd output.
func Decode(line []byte) (Record, error) {
	var head struct {
		Class string `json:"class"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("decode gpsd line: %w", err)
	}

	var rec Record
	var err error
	switch head.Class {
	case "VERSION":
		var v Version
		err = json.Unmarshal(line, &v)
		rec = v
	case "DEVICES":
		var d Devices
		err = json.Unmarshal(line, &d)
		rec = d
	case "WATCH":
		var w Watch
		err = json.Unmarshal(line, &w)
		rec = w
	case "DEVICE":
		var d Device
		err = json.Unmarshal(line, &d)
		rec = d
	case "TPV":
		var t TPV
		err = json.Unmarshal(line, &t)
		rec = t
	case "SKY":
		var s Sky
		err = json.Unmarshal(line, &s)
		rec = s
	case "PPS":
		var p PPS
		err = json.Unmarshal(line, &p)
		rec = p
	case "GST":
		var g GST
		err = json.Unmarshal(line, &g)
		rec = g
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownClass, head.Class)
	}
	if err != nil {
		return nil, fmt.Errorf("decode gpsd %s: %w", head.Class, err)
	}
	return rec, nil
}
