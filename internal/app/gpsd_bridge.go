// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"

	"github.com/relabs-tech/cot_bridge/internal/config"
	"github.com/relabs-tech/cot_bridge/internal/cot"
	"github.com/relabs-tech/cot_bridge/internal/gpsd"
)

// RunGPSDBridge forwards every gpsd position report to the CoT target as a
// friendly track. It returns the fatal error that stopped the feed, or nil
// when interrupted.
func RunGPSDBridge(opts Options) error {
	ctx, stop := signalContext()
	defer stop()
	return runGPSDBridge(ctx, currentConfig(), opts)
}

func runGPSDBridge(ctx context.Context, cfg *config.Config, opts Options) error {
	b, err := newBridge(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer b.close()

	id, err := b.identity()
	if err != nil {
		return err
	}

	feed := gpsd.NewFeed(cfg.GPSDProtoMajorMin, b.log)
	src, err := gpsd.Dial(ctx, cfg.GPSDAddr, cfg.DialTimeout(), feed, b.log)
	if err != nil {
		return err
	}
	defer closeOnDone(ctx, src)()

	enc := cot.Encoder{Kind: cot.FriendlyTrack, Identity: id, Stale: cfg.Stale()}
	err = b.run(ctx, src, "gpsd", enc, 0, b.limiter())

	st := src.Feed().State()
	b.log.Info("gpsd: session ended",
		"negotiated", st.Negotiated,
		"release", st.Release,
		"min_proto_major", st.MinProtoMajor)
	return err
}
