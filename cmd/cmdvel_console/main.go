package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/velocity_tester/internal/app"
	"github.com/relabs-tech/velocity_tester/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	flag.Parse()

	log.Println("starting cmd_vel console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCmdVelConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
