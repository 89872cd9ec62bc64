package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/dorolab/skywatch/internal/app"
	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/pkg/config"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	oneshot := flag.Bool("oneshot", false, "Compose one forecast document and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("skywatch %s\n", version)
		os.Exit(0)
	}

	// Optional .env for the OpenWeather API key and friends.
	_ = godotenv.Load()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	if err := initLogging(*debug, cfgData.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	if *oneshot {
		if err := application.RunOnce(context.Background()); err != nil {
			log.Errorf("Compose error: %v", err)
			os.Exit(1)
		}
		return
	}
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	provider := config.NewYAMLProvider(filename)
	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func initLogging(debug bool, logFile string) error {
	if logFile != "" {
		return log.InitWithFile(debug, logFile)
	}
	return log.Init(debug)
}
