// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/courierq/courier/broker"
	"github.com/courierq/courier/config"
	"github.com/courierq/courier/server/health"
	"github.com/courierq/courier/server/otel"
	"github.com/courierq/courier/server/tcp"
	"github.com/google/uuid"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Starting courier broker", "version", version)
	slog.Info("Configuration loaded",
		"tcp_addr", cfg.Server.TCPAddr,
		"health_enabled", cfg.Server.HealthEnabled,
		"metrics_enabled", cfg.Metrics.Enabled,
		"log_level", cfg.Log.Level)

	nodeID := uuid.NewString()

	// Initialize OpenTelemetry metrics
	metrics := broker.NoopMetrics()
	if cfg.Metrics.Enabled {
		shutdown, err := otel.InitProvider(cfg.Metrics, nodeID)
		if err != nil {
			slog.Error("Failed to initialize OpenTelemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("OpenTelemetry shutdown failed", "error", err)
			}
		}()

		otelMetrics, err := otel.NewMetrics()
		if err != nil {
			slog.Error("Failed to initialize metric instruments", "error", err)
			os.Exit(1)
		}
		metrics = otelMetrics
		slog.Info("OpenTelemetry metrics enabled", "endpoint", cfg.Metrics.OTLPEndpoint)
	}

	// Create the core broker components
	store := broker.NewQueueStore(logger)
	router := broker.NewRouter(store, logger, metrics)
	subs := broker.NewSubscriptionManager(store, logger)
	dispatcher := broker.NewDispatcher(store, router, subs, logger, metrics)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	serverErr := make(chan error, 2)

	// Start TCP server (always enabled)
	tcpCfg := tcp.Config{
		Address:           cfg.Server.TCPAddr,
		Logger:            logger,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		ReadTimeout:       cfg.Server.TCPReadTimeout,
		WriteTimeout:      cfg.Server.TCPWriteTimeout,
		MaxConnections:    cfg.Server.TCPMaxConn,
		MaxFrameSize:      cfg.Broker.MaxFrameSize,
		CompressThreshold: cfg.Broker.CompressThreshold,
	}
	tcpServer := tcp.New(tcpCfg, dispatcher)

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("Starting TCP server", "address", cfg.Server.TCPAddr)
		if err := tcpServer.Listen(ctx); err != nil {
			serverErr <- err
		}
	}()

	// Start health check server if enabled
	if cfg.Server.HealthEnabled {
		healthCfg := health.Config{
			Address:         cfg.Server.HealthAddr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}
		healthServer := health.New(healthCfg, store, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("Starting health server", "address", cfg.Server.HealthAddr)
			if err := healthServer.Listen(ctx); err != nil {
				serverErr <- err
			}
		}()
	}

	slog.Info("Courier broker started successfully")

	// Wait for shutdown signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
		cancel()
	case err := <-serverErr:
		slog.Error("Server error", "error", err)
		cancel()
	}

	// Wait for all servers to stop
	wg.Wait()
	slog.Info("Courier broker stopped")
}
