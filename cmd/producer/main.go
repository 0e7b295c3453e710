package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/inertial_pdr/internal/app"
	"github.com/relabs-tech/inertial_pdr/internal/config"
)

func main() {
	configPath := flag.String("config", "./inertial_config.txt", "path to configuration file")
	source := flag.String("source", "mock", "sensor to publish: mock or imu (imu needs root for SPI)")
	flag.Parse()

	log.Printf("starting inertial-pdr MQTT producer (%s)", *source)

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunProducer(ctx, *source); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
