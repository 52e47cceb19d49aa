// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/relabs-tech/cot_bridge/internal/config"
	"github.com/relabs-tech/cot_bridge/internal/cot"
	"github.com/relabs-tech/cot_bridge/internal/dispatch"
	"github.com/relabs-tech/cot_bridge/internal/gps"
	"github.com/relabs-tech/cot_bridge/internal/logging"
	"github.com/relabs-tech/cot_bridge/internal/metrics"
)

// Options carries what the command line adds on top of the config file.
type Options struct {
	// Target overrides TARGET.
	Target string
	// DryRun prints documents to Stdout instead of connecting to Target.
	DryRun bool
	Stdout io.Writer
	// Logger overrides the logger built from LOG_LEVEL/LOG_FORMAT.
	Logger *slog.Logger
}

// bridge holds what every runner shares: logger, metrics and observers.
type bridge struct {
	cfg       *config.Config
	opts      Options
	log       *slog.Logger
	metrics   *metrics.Collector
	observers []dispatch.Observer
	mqtt      mqtt.Client
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// currentConfig returns a private copy of the global config, or the
// defaults when InitGlobal was never called.
func currentConfig() *config.Config {
	if c := config.Get(); c != nil {
		cp := *c
		return &cp
	}
	return config.Default()
}

func newBridge(ctx context.Context, cfg *config.Config, opts Options) (*bridge, error) {
	if opts.Target != "" {
		cfg.Target = opts.Target
	}
	if cfg.Target == "" && !opts.DryRun {
		return nil, fmt.Errorf("no CoT target: pass host:port or set TARGET")
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	b := &bridge{cfg: cfg, opts: opts, log: logger, metrics: m}

	if cfg.WebServerPort > 0 {
		mon := NewMonitor(m.Gatherer, logger)
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		go func() {
			if err := mon.Serve(ctx, addr); err != nil {
				logger.Error("monitor: server stopped", "err", err)
			}
		}()
		b.observers = append(b.observers, mon)
	}

	if cfg.MQTTBroker != "" {
		client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return nil, fmt.Errorf("mqtt %s: %w", cfg.MQTTBroker, err)
		}
		logger.Info("mirror: connected to MQTT broker", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		b.mqtt = client
		b.observers = append(b.observers, NewMirror(client, cfg.MQTTTopic, logger))
	}

	return b, nil
}

// identity resolves UID_MODE against the target.
func (b *bridge) identity() (cot.Identity, error) {
	target := b.cfg.Target
	if target == "" {
		target = "dry-run"
	}
	return cot.ParseIdentity(b.cfg.UIDMode, target)
}

// limiter caps the event rate of live feeds; nil when LIVE_MAX_RATE is 0.
func (b *bridge) limiter() *rate.Limiter {
	if b.cfg.LiveMaxRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(b.cfg.LiveMaxRate), 1)
}

// transport connects to the target. A failure here ends the run.
func (b *bridge) transport(ctx context.Context) (dispatch.Transport, error) {
	if b.opts.DryRun {
		b.log.Info("dispatch: dry run, writing documents to stdout")
		return dispatch.NewWriterTransport(b.opts.Stdout), nil
	}
	return dispatch.DialTCP(ctx, b.cfg.Target, dispatch.TCPOptions{
		DialTimeout:  b.cfg.DialTimeout(),
		WriteTimeout: b.cfg.WriteTimeout(),
		Reconnect:    b.cfg.Reconnect,
	}, b.log)
}

// run connects the transport and drives src through the scheduler until ctx
// ends or src fails fatally.
func (b *bridge) run(ctx context.Context, src gps.Source, sourceName string, enc cot.Encoder, interval time.Duration, limiter *rate.Limiter) error {
	tr, err := b.transport(ctx)
	if err != nil {
		return err
	}
	defer tr.Close()
	if tcp, ok := tr.(*dispatch.TCPTransport); ok {
		b.log.Info("bridge: forwarding", "source", sourceName, "target", tcp.Addr())
	}

	sched, err := dispatch.New(dispatch.Config{
		Source:     src,
		Encoder:    enc,
		Transport:  tr,
		Interval:   interval,
		Limiter:    limiter,
		SourceName: sourceName,
		Metrics:    b.metrics,
		Logger:     b.log,
		Observers:  b.observers,
	})
	if err != nil {
		return err
	}
	return sched.Run(ctx)
}

func (b *bridge) close() {
	if b.mqtt != nil {
		b.mqtt.Disconnect(250)
	}
}

// closeOnDone unblocks a source stuck in a read once ctx ends.
func closeOnDone(ctx context.Context, c io.Closer) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		c.Close()
	}()
	return func() { close(done) }
}
