package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimbusgit/nimbus/internal/auth"
	"github.com/nimbusgit/nimbus/internal/events"
	"github.com/nimbusgit/nimbus/internal/plugins/aireviewer"
	"github.com/nimbusgit/nimbus/internal/plugins/cirunner"
	"github.com/nimbusgit/nimbus/internal/plugins/review"
	"github.com/nimbusgit/nimbus/internal/shared/config"
	"github.com/nimbusgit/nimbus/internal/shared/logging"
	"github.com/nimbusgit/nimbus/internal/web"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadNimbusConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	logger := logging.NewLogger(cfg.ServiceName, cfg.LogLevel, cfg.Environment)

	// Create metrics registry and event bus
	registry := prometheus.NewRegistry()
	metrics := events.NewMetrics(registry)
	bus := events.NewInMemoryBus(events.Config{
		BufferSize:      cfg.Bus.BufferSize,
		DispatchTimeout: cfg.Bus.DispatchTimeout,
	}, logger, metrics)
	defer bus.Close()

	// Create auth service
	authService, err := auth.NewService(auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		OwnerUsername: cfg.Auth.OwnerUsername,
		OwnerPassword: cfg.Auth.OwnerPassword,
	}, logger)
	if err != nil {
		logger.Error("Failed to create auth service", "error", err)
		os.Exit(1)
	}

	// Register the built-in plugins
	ciPlugin := cirunner.New(bus, logger, cirunner.WithBranches("main", "release/*"))
	reviewPlugin := review.New(bus, logger, []string{"owner"})
	aiPlugin := aireviewer.New(bus, logger, nil)

	for name, register := range map[string]func() error{
		cirunner.Name:   ciPlugin.Register,
		review.Name:     reviewPlugin.Register,
		aireviewer.Name: aiPlugin.Register,
	} {
		if err := register(); err != nil {
			logger.Error("Failed to register plugin", "plugin", name, "error", err)
			os.Exit(1)
		}
	}

	// Create web service
	svc, err := web.NewService(&web.Config{
		Host: cfg.Web.Host,
		Port: cfg.Web.Port,
	}, bus, authService, registry, logger)
	if err != nil {
		logger.Error("Failed to create web service", "error", err)
		os.Exit(1)
	}

	// Surface per-plugin health on the health endpoint
	svc.Health().RegisterCheck("plugins", func(ctx context.Context) error {
		for name, healthy := range bus.Registry().HealthStatus(ctx) {
			if !healthy {
				return fmt.Errorf("plugin %s is unhealthy", name)
			}
		}
		return nil
	})

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Start the bus, then serve HTTP until shutdown
	bus.Start(ctx)

	logger.Info("Starting Nimbus",
		"environment", cfg.Environment,
		"buffer_size", cfg.Bus.BufferSize,
		"subscribers", bus.SubscriberCount(),
	)

	if err := svc.Start(ctx); err != nil {
		logger.Error("Service failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Nimbus stopped")
}
