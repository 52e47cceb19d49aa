// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// DefaultAddr is where gpsd listens out of the box.
const DefaultAddr = "127.0.0.1:2947"

// Source reads gpsd lines from a stream, one line per Next call.
type Source struct {
	feed   *Feed
	lines  *gps.LineReader
	closer io.Closer
}

// NewSource sends the watch command on rw and reads reports from it.
func NewSource(rw io.ReadWriter, feed *Feed) (*Source, error) {
	if _, err := io.WriteString(rw, WatchCommand+"\n"); err != nil {
		return nil, fmt.Errorf("send watch command: %w", err)
	}
	s := &Source{feed: feed, lines: gps.NewLineReader(rw, gps.MaxLineLength)}
	if c, ok := rw.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// Dial connects to gpsd at addr and enables watching.
func Dial(ctx context.Context, addr string, timeout time.Duration, feed *Feed, logger *slog.Logger) (*Source, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect gpsd %s: %w", addr, err)
	}
	if logger != nil {
		logger.Info("gpsd: connected to daemon", "addr", addr)
	}

	src, err := NewSource(conn, feed)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return src, nil
}

// Feed exposes the session state machine.
func (s *Source) Feed() *Feed { return s.feed }

// Next blocks until gpsd sends a full line. The end of the stream is fatal.
func (s *Source) Next(ctx context.Context) (gps.Sample, error) {
	if err := ctx.Err(); err != nil {
		return gps.Sample{}, err
	}

	line, err := s.lines.ReadLine()
	if errors.Is(err, gps.ErrLineTooLong) {
		return gps.Sample{}, gps.Skip("gpsd line over %d bytes", gps.MaxLineLength)
	}
	if err != nil {
		return gps.Sample{}, gps.Fatal("gpsd stream closed", err)
	}
	return s.feed.HandleLine(line)
}

// Close closes the underlying connection, unblocking a pending Next.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
