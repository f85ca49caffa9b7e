package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairway-collective/roundsync/app"
	"github.com/fairway-collective/roundsync/config"
	"github.com/fairway-collective/roundsync/internal/observability"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs := observability.Init(config.ToObsConfig(cfg))
	logger := obs.Provider.Logger

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, obs); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	runErr := application.Run(ctx)
	application.Close()
	if runErr != nil {
		logger.Error("Service exited with error", attr.Error(runErr))
		os.Exit(1)
	}
}
