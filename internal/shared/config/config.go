package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// BaseConfig contains common configuration for all services
type BaseConfig struct {
	ServiceName string `env:"SERVICE_NAME"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
}

// BusConfig contains configuration for the event bus
type BusConfig struct {
	BufferSize      int           `env:"NIMBUS_EVENT_BUFFER" envDefault:"1000"`    // Ingestion queue capacity
	DispatchTimeout time.Duration `env:"NIMBUS_DISPATCH_TIMEOUT" envDefault:"30s"` // Shared fan-out deadline per envelope
}

// AuthConfig contains configuration for the auth service
type AuthConfig struct {
	JWTSecret     string        `env:"NIMBUS_JWT_SECRET" envDefault:"development-secret-change-in-production"`
	TokenTTL      time.Duration `env:"NIMBUS_TOKEN_TTL" envDefault:"24h"`
	OwnerUsername string        `env:"NIMBUS_OWNER_USERNAME" envDefault:"owner"`
	OwnerPassword string        `env:"NIMBUS_OWNER_PASSWORD"`
}

// WebConfig contains configuration for the web service
type WebConfig struct {
	Host string `env:"NIMBUS_HOST" envDefault:"0.0.0.0"`
	Port string `env:"NIMBUS_PORT" envDefault:"3000"`
}

// NimbusConfig is the full configuration for the nimbus service
type NimbusConfig struct {
	BaseConfig `envPrefix:"NIMBUS_"`
	Bus        BusConfig
	Auth       AuthConfig
	Web        WebConfig
}

// LoadNimbusConfig loads configuration for the nimbus service
func LoadNimbusConfig() (*NimbusConfig, error) {
	config, err := env.ParseAs[NimbusConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse Nimbus config: %w", err)
	}

	// Set service name if not provided
	if config.ServiceName == "" {
		config.ServiceName = "nimbus"
	}

	return &config, nil
}
