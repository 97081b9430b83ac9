package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/config"
	"github.com/langchou/h2gazer/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	vehicles := flag.String("vehicles", cfg.DefaultVehicleID, "comma separated vehicle ids, used when TELEMETRY_PATH contains {vehicle}")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	if !cfg.Debug {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	if cfg.TelemetryBackend == config.BackendMemory {
		logger.Fatal("Simulator needs TELEMETRY_BACKEND=redis or nats; memory mode simulates inside the server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := telemetry.Open(ctx, telemetry.BackendConfig{
		Kind:          cfg.TelemetryBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		NATSURL:       cfg.NATSURL,
		NATSKVBucket:  cfg.NATSKVBucket,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open telemetry backend", zap.Error(err))
	}
	defer backend.Close()

	resolver := telemetry.PathResolver{Template: cfg.TelemetryPath}
	var paths []string
	if resolver.Shared() {
		paths = []string{resolver.PathFor("")}
	} else {
		for _, id := range strings.Split(*vehicles, ",") {
			if id = strings.TrimSpace(id); id != "" {
				paths = append(paths, resolver.PathFor(id))
			}
		}
	}

	logger.Info("Simulator started",
		zap.String("backend", cfg.TelemetryBackend),
		zap.Strings("paths", paths),
		zap.Duration("interval", cfg.SimulatorInterval))

	telemetry.NewSimulator(backend, paths, cfg.SimulatorInterval, logger).Run(ctx)

	logger.Info("Simulator stopped")
}
