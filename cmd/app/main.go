package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"MarketMood/internal/di"
	"MarketMood/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envPath := flag.String("env", ".env", "dotenv file path")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("env load failed: %v", err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s archive=%s", cfg.Environment, cfg.Source.Mode, cfg.Archive.Backend)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	runErr := app.Run()
	cleanup()
	if runErr != nil {
		log.Printf("app error: %v", runErr)
		os.Exit(1)
	}
}
