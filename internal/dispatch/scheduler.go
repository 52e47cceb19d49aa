// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dispatch paces samples from a source through the CoT encoder to
// a transport.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/relabs-tech/cot_bridge/internal/cot"
	"github.com/relabs-tech/cot_bridge/internal/gps"
	"github.com/relabs-tech/cot_bridge/internal/metrics"
)

// Record describes one send attempt. Observers get a copy.
type Record struct {
	Kind     string     `json:"kind"`
	Source   string     `json:"source"`
	UID      string     `json:"uid"`
	Sample   gps.Sample `json:"-"`
	Fix      gps.Fix    `json:"fix"`
	Document string     `json:"document"`
	At       time.Time  `json:"at"`
	Error    string     `json:"error,omitempty"`
}

// Observer is notified after every send attempt. Observe must not block.
type Observer interface {
	Observe(Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Record)

func (f ObserverFunc) Observe(r Record) { f(r) }

// Config wires a Scheduler.
type Config struct {
	Source    gps.Source
	Encoder   cot.Encoder
	Transport Transport

	// Interval between ticks; 0 means one tick per sample the source
	// produces, with no timer.
	Interval time.Duration

	// Limiter, when set, drops samples that arrive faster than it allows.
	Limiter *rate.Limiter

	SourceName string
	Metrics    *metrics.Collector
	Logger     *slog.Logger
	Observers  []Observer
	Now        func() time.Time
}

// Scheduler runs the receive/generate, encode, wait, write loop. It is
// single-threaded; Run must not be called concurrently.
type Scheduler struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Source == nil {
		return nil, errors.New("dispatch: no source")
	}
	if cfg.Transport == nil {
		return nil, errors.New("dispatch: no transport")
	}
	if cfg.Encoder.Identity == nil {
		return nil, errors.New("dispatch: no identity")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("dispatch: negative interval %s", cfg.Interval)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{cfg: cfg, log: cfg.Logger}, nil
}

// Run loops until ctx is cancelled (returns nil) or the source fails
// fatally (returns the *gps.FatalError).
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("dispatch: starting",
		"kind", s.cfg.Encoder.Kind.String(),
		"source", s.cfg.SourceName,
		"interval", s.cfg.Interval.String())

	if s.cfg.Interval == 0 {
		for {
			if err := s.Tick(ctx); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			s.log.Info("dispatch: stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one cycle. Only a fatal source error is returned; every other
// failure is logged and the cycle ends without a write.
func (s *Scheduler) Tick(ctx context.Context) error {
	sample, err := s.cfg.Source.Next(ctx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil
		case gps.IsFatal(err):
			s.log.Error("dispatch: source failed", "source", s.cfg.SourceName, "err", err)
			return err
		case errors.Is(err, gps.ErrNoSample):
			s.log.Debug("dispatch: no sample", "reason", err)
		default:
			s.log.Warn("dispatch: source error", "source", s.cfg.SourceName, "err", err)
		}
		s.cfg.Metrics.Skipped(metrics.SkipNoSample)
		return nil
	}

	if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow() {
		s.log.Debug("dispatch: rate limited, sample dropped")
		s.cfg.Metrics.Skipped(metrics.SkipRate)
		return nil
	}

	kind := s.cfg.Encoder.Kind.String()
	now := s.cfg.Now()
	ev, doc, err := s.cfg.Encoder.Encode(sample, s.cfg.Encoder.Window(now))
	if err != nil {
		s.log.Error("dispatch: encode failed", "kind", kind, "err", err)
		s.cfg.Metrics.Skipped(metrics.SkipEncode)
		return nil
	}
	s.log.Debug("dispatch: xml", "document", string(doc))

	rec := Record{
		Kind:     kind,
		Source:   s.cfg.SourceName,
		UID:      ev.UID,
		Sample:   sample,
		Fix:      gps.FixFromSample(sample, s.cfg.SourceName, ev.UID),
		Document: string(doc),
		At:       now,
	}

	if err := s.cfg.Transport.WaitWritable(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("dispatch: transport not writable", "err", err)
		s.cfg.Metrics.Skipped(metrics.SkipNotReady)
		rec.Error = err.Error()
		s.notify(rec)
		return nil
	}

	if err := s.cfg.Transport.Write(ctx, doc); err != nil {
		s.log.Error("dispatch: write failed", "kind", kind, "err", err)
		s.cfg.Metrics.WriteFailed(kind)
		rec.Error = err.Error()
		s.notify(rec)
		return nil
	}

	s.log.Info("dispatch: sent", "kind", kind, "lat", sample.Latitude, "lon", sample.Longitude, "bytes", len(doc))
	s.cfg.Metrics.Sent(kind, len(doc), now)
	s.notify(rec)
	return nil
}

func (s *Scheduler) notify(rec Record) {
	for _, o := range s.cfg.Observers {
		o.Observe(rec)
	}
}
