package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bpmonitor/internal/app"
	"bpmonitor/internal/config"
	"bpmonitor/internal/logger"
)

func main() {
	cfg := config.Load()
	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
