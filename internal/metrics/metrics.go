// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used as label values.
const (
	SkipNoSample = "no_sample"
	SkipRate     = "rate_limited"
	SkipEncode   = "encode_error"
	SkipNotReady = "not_writable"
)

// Collector bundles the bridge's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	Gatherer prometheus.Gatherer

	EventsSent    *prometheus.CounterVec
	WriteFailures *prometheus.CounterVec
	TicksSkipped  *prometheus.CounterVec
	LastSent      prometheus.Gauge
	DocumentBytes prometheus.Histogram
}

// New registers the bridge metrics against reg, defaulting to the global
// registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sent, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cot_events_sent_total",
		Help: "CoT documents written to the target, by event kind.",
	}, []string{"kind"}), "cot_events_sent_total")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cot_write_failures_total",
		Help: "CoT documents dropped because the write failed, by event kind.",
	}, []string{"kind"}), "cot_write_failures_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cot_ticks_skipped_total",
		Help: "Dispatch ticks that produced no document, by reason.",
	}, []string{"reason"}), "cot_ticks_skipped_total")
	if err != nil {
		return nil, err
	}

	lastSent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cot_last_sent_timestamp_seconds",
		Help: "Unix time of the last successful write.",
	})
	if err := reg.Register(lastSent); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register cot_last_sent_timestamp_seconds: %w", err)
		}
		existing, ok := are.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return nil, fmt.Errorf("cot_last_sent_timestamp_seconds already registered with a different type")
		}
		lastSent = existing
	}

	size := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cot_document_bytes",
		Help:    "Size of written CoT documents.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})
	if err := reg.Register(size); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register cot_document_bytes: %w", err)
		}
		existing, ok := are.ExistingCollector.(prometheus.Histogram)
		if !ok {
			return nil, fmt.Errorf("cot_document_bytes already registered with a different type")
		}
		size = existing
	}

	return &Collector{
		Gatherer:      gatherer,
		EventsSent:    sent,
		WriteFailures: failures,
		TicksSkipped:  skipped,
		LastSent:      lastSent,
		DocumentBytes: size,
	}, nil
}

// Sent records a successful write.
func (c *Collector) Sent(kind string, size int, at time.Time) {
	if c == nil {
		return
	}
	c.EventsSent.WithLabelValues(kind).Inc()
	c.DocumentBytes.Observe(float64(size))
	c.LastSent.Set(float64(at.Unix()))
}

// WriteFailed records a dropped document.
func (c *Collector) WriteFailed(kind string) {
	if c == nil {
		return
	}
	c.WriteFailures.WithLabelValues(kind).Inc()
}

// Skipped records a tick without a write.
func (c *Collector) Skipped(reason string) {
	if c == nil {
		return
	}
	c.TicksSkipped.WithLabelValues(reason).Inc()
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("%s already registered with a different type", name)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
