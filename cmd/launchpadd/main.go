// ====================================
// File: cmd/launchpadd/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/daemon"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting launchpad daemon")

	runner := daemon.NewRunner(log.Logger)
	if err := runner.Initialize(ctx, *configPath); err != nil {
		log.Fatal("Failed to initialize daemon", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Daemon execution error", zap.Error(err))
	}
}
