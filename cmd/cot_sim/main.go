// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/relabs-tech/cot_bridge/internal/app"
	"github.com/relabs-tech/cot_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	dryRun := flag.Bool("dry-run", false, "print CoT documents to stdout instead of sending them")
	flag.Usage = func() { fmt.Fprint(os.Stdout, app.SimulatorUsage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(app.SimulatorUsage)
		return
	}
	mode, ok := app.ParseMode(args[0])
	if !ok {
		// help and unknown modes both end here, successfully
		fmt.Print(app.SimulatorUsage)
		return
	}

	opts := app.SimOptions{Mode: mode, Options: app.Options{DryRun: *dryRun}}
	if len(args) > 1 {
		opts.Target = args[1]
	}
	if len(args) > 2 {
		lat, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			log.Fatalf("invalid latitude %q: %v", args[2], err)
		}
		opts.Lat = &lat
	}
	if len(args) > 3 {
		lon, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			log.Fatalf("invalid longitude %q: %v", args[3], err)
		}
		opts.Lon = &lon
	}

	log.Printf("starting CoT simulator (%s → %s)", mode, opts.Target)

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSimulator(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
