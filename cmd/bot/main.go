package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pavelc4/clipnova-tg-bot/config"
	"github.com/pavelc4/clipnova-tg-bot/internal/app"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	logger.Info("Starting ClipNova bot")
	if err := a.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Bot stopped: %v", err)
	}
	logger.Info("Shutting down")
}
