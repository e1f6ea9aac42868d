package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/app"
	"github.com/gogazub/miniapp-checkout/internal/config"
)

// BFF вместе с consumer журнала оформлений
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger, app.Options{WithConsumer: true}); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
	logger.Info("shut down gracefully")
}
