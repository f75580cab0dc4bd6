// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/velocity_tester/internal/app"
	"github.com/relabs-tech/velocity_tester/internal/config"
	"github.com/relabs-tech/velocity_tester/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	logFile := logging.Setup(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logFile.Close()

	log.Printf("starting velocity test node (backend %s)", cfg.ChannelBackend)

	if err := app.RunVelocityTest(); err != nil {
		logFile.Close()
		log.Fatalf("fatal: %v", err)
	}
}
