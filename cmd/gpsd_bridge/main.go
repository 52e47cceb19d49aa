// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/cot_bridge/internal/app"
	"github.com/relabs-tech/cot_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	dryRun := flag.Bool("dry-run", false, "print CoT documents to stdout instead of sending them")
	flag.Parse()

	opts := app.Options{Target: flag.Arg(0), DryRun: *dryRun}

	log.Println("starting CoT bridge (gpsd → CoT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSDBridge(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
