// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"io"

	"github.com/relabs-tech/cot_bridge/internal/config"
	"github.com/relabs-tech/cot_bridge/internal/cot"
	"github.com/relabs-tech/cot_bridge/internal/gps"
)

// RunNMEABridge opens the GPS serial port, parses NMEA sentences, and sends
// one friendly track per valid RMC fix to the CoT target.
func RunNMEABridge(opts Options) error {
	ctx, stop := signalContext()
	defer stop()

	cfg := currentConfig()
	port, err := gps.OpenSerial(cfg.NMEASerialPort, cfg.NMEABaudRate)
	if err != nil {
		return err
	}
	return runNMEABridge(ctx, cfg, port, opts)
}

// runNMEABridge reads from port, which it closes when done.
func runNMEABridge(ctx context.Context, cfg *config.Config, port io.ReadCloser, opts Options) error {
	defer closeOnDone(ctx, port)()

	b, err := newBridge(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer b.close()

	id, err := b.identity()
	if err != nil {
		return err
	}
	b.log.Info("nmea: reading receiver", "port", cfg.NMEASerialPort, "baud", cfg.NMEABaudRate)

	enc := cot.Encoder{Kind: cot.FriendlyTrack, Identity: id, Stale: cfg.Stale()}
	return b.run(ctx, gps.NewNMEASource(port), "nmea", enc, 0, b.limiter())
}
