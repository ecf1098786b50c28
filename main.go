package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"local-guide/config"
	"local-guide/guide"
	"local-guide/watcher"
	"local-guide/web"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	svc, err := guide.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize guide service", zap.Error(err))
	}

	// A bad document is not fatal: the service answers with no context
	// until a reload succeeds.
	if err := svc.ReloadFile(ctx, cfg.DocumentPath); err != nil {
		logger.Warn("Starting without a knowledge base", zap.String("path", cfg.DocumentPath), zap.Error(err))
	}

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.WatchDocument {
		docWatcher, err := watcher.NewDocumentWatcher(cfg.DocumentPath, cfg.ReloadDebounce, svc, logger)
		if err != nil {
			logger.Warn("Document watching disabled", zap.Error(err))
		} else {
			defer docWatcher.Close()
			go docWatcher.Run(ctx)
		}
	}

	webServer, err := web.NewServer(svc, logger, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize web server", zap.Error(err))
	}

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting local guide web server", zap.String("port", port), zap.Bool("ready", svc.Ready()))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
