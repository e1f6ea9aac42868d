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

// Только http сервер. Журнал пишется в kafka, если она настроена, но не читается.
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

	logger.Info("starting BFF", zap.String("port", cfg.ServerPort), zap.String("backend", cfg.BackendURL))
	if err := app.Run(ctx, cfg, logger, app.Options{}); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
