// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/relabs-tech/cot_bridge/internal/config"
	"github.com/relabs-tech/cot_bridge/internal/cot"
	"github.com/relabs-tech/cot_bridge/internal/geo"
	"github.com/relabs-tech/cot_bridge/internal/imagery"
	"github.com/relabs-tech/cot_bridge/internal/orbit"
)

// SimulatorUsage is printed for "help" and for any unknown mode.
const SimulatorUsage = `usage: cot_sim [-config file] [-dry-run] <mode> <host:port> [lat] [lon]

modes:
  help    show this text
  status  friendly track circling the orbit center
  fake    same as status
  detect  unknown-unit detection circling the orbit center
  image   unknown-unit image attachment circling the orbit center

lat/lon override ORBIT_CENTER_LAT/ORBIT_CENTER_LON.
`

// Mode is a simulator scenario.
type Mode string

const (
	ModeStatus Mode = "status"
	ModeFake   Mode = "fake"
	ModeDetect Mode = "detect"
	ModeImage  Mode = "image"
)

// ParseMode reports whether s names a runnable scenario. "help" is not one.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeStatus, ModeFake, ModeDetect, ModeImage:
		return m, true
	}
	return "", false
}

// Kind is the event kind the scenario emits.
func (m Mode) Kind() cot.Kind {
	switch m {
	case ModeDetect:
		return cot.UnknownDetection
	case ModeImage:
		return cot.UnknownImageAttachment
	default:
		return cot.FriendlyTrack
	}
}

// Interval is the scenario's cadence.
func (m Mode) Interval(cfg *config.Config) time.Duration {
	switch m {
	case ModeDetect:
		return config.Millis(cfg.DetectInterval)
	case ModeImage:
		return config.Millis(cfg.ImageInterval)
	default:
		return config.Millis(cfg.StatusInterval)
	}
}

// SimOptions selects the scenario and optional orbit center.
type SimOptions struct {
	Options
	Mode Mode
	// Lat and Lon, when set, replace the configured orbit center.
	Lat, Lon *float64
}

// RunSimulator flies the synthetic orbit and sends one event per tick until
// interrupted.
func RunSimulator(opts SimOptions) error {
	ctx, stop := signalContext()
	defer stop()
	return runSimulator(ctx, currentConfig(), opts)
}

func runSimulator(ctx context.Context, cfg *config.Config, opts SimOptions) error {
	if opts.Lat != nil {
		if err := cfg.Override("ORBIT_CENTER_LAT", fmt.Sprint(*opts.Lat)); err != nil {
			return err
		}
	}
	if opts.Lon != nil {
		if err := cfg.Override("ORBIT_CENTER_LON", fmt.Sprint(*opts.Lon)); err != nil {
			return err
		}
	}

	b, err := newBridge(ctx, cfg, opts.Options)
	if err != nil {
		return err
	}
	defer b.close()

	id, err := b.identity()
	if err != nil {
		return err
	}

	enc := cot.Encoder{Kind: opts.Mode.Kind(), Identity: id, Stale: cfg.Stale()}
	if enc.Kind == cot.UnknownImageAttachment {
		enc.Image, err = imagery.Resolve(cfg.ImagePath, cfg.ImageMaxDim, "cot_sim", id.UID())
		if err != nil {
			return fmt.Errorf("image attachment: %w", err)
		}
	}

	src := orbit.NewSource(geo.OrbitConfig{
		RadiusKm:     cfg.OrbitRadiusKm,
		CenterLat:    cfg.OrbitCenterLat,
		CenterLon:    cfg.OrbitCenterLon,
		SpeedDivisor: cfg.OrbitSpeedDivisor,
	}, cfg.OrbitSteps)

	b.log.Info("simulator: starting",
		"mode", string(opts.Mode),
		"target", cfg.Target,
		"center_lat", cfg.OrbitCenterLat,
		"center_lon", cfg.OrbitCenterLon,
		"radius_km", cfg.OrbitRadiusKm)

	err = b.run(ctx, src, "orbit", enc, opts.Mode.Interval(cfg), nil)
	b.log.Info("simulator: stopped", "mode", string(opts.Mode), "next_waypoint", src.Step())
	return err
}
