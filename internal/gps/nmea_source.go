// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a GPS receiver on a serial port with 8N1 framing.
// NOTE: typical port names are /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0.
func OpenSerial(portName string, baudRate int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return port, nil
}

// NMEASource turns RMC sentences read from r into samples.
// Speed is in knots, heading is the course over ground.
type NMEASource struct {
	lines *LineReader
	now   func() time.Time
}

// NewNMEASource reads NMEA 0183 lines from r.
func NewNMEASource(r io.Reader) *NMEASource {
	return &NMEASource{lines: NewLineReader(r, MaxLineLength), now: time.Now}
}

// Next consumes one line. Anything other than a valid RMC fix is a skip;
// a read error ends the source.
func (s *NMEASource) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}

	raw, err := s.lines.ReadLine()
	if errors.Is(err, ErrLineTooLong) {
		return Sample{}, Skip("nmea line over %d bytes", MaxLineLength)
	}
	if err != nil {
		return Sample{}, Fatal("nmea read", err)
	}

	line := strings.TrimSpace(string(raw))
	if line == "" || !strings.HasPrefix(line, "$") {
		return Sample{}, Skip("not an NMEA sentence")
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy receivers emit partial sentences
		return Sample{}, Skip("nmea parse: %v", err)
	}

	if sentence.DataType() != nmea.TypeRMC {
		return Sample{}, Skip("ignored sentence %s", sentence.DataType())
	}

	m := sentence.(nmea.RMC)
	if m.Validity != nmea.ValidRMC {
		return Sample{}, Skip("void RMC fix")
	}

	ts := s.now().UTC()
	if m.Date.Valid && m.Time.Valid {
		ts = time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
	}

	return Sample{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Heading:   Float(m.Course),
		Speed:     Float(m.Speed),
		Timestamp: ts,
	}, nil
}
