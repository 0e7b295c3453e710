package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/inertial_pdr/internal/app"
	"github.com/relabs-tech/inertial_pdr/internal/config"
)

func main() {
	configPath := flag.String("config", "./inertial_config.txt", "path to configuration file")
	flag.Usage = func() {
		log.Printf("usage: replay [-config file] recording.jsonl")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunReplay(flag.Arg(0), os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
