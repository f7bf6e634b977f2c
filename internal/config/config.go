// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration values for the coordinator.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port
	HTTPPort int

	// Shared secret for the internal agent endpoints
	SystemSecret string

	// Snowflake node id; must be distinct per coordinator instance
	NodeID int64

	// OTLP collector address for traces
	OTELEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	secret := os.Getenv("SYSTEM_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SYSTEM_SECRET is required")
	}

	port := 7171 // Default
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		port = p
	}

	nodeID := int64(1) // Default
	if nodeStr := os.Getenv("NODE_ID"); nodeStr != "" {
		n, err := strconv.ParseInt(nodeStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid NODE_ID: %w", err)
		}
		nodeID = n
	}

	otelEndpoint := os.Getenv("OTEL_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "localhost:4317"
	}

	return &Config{
		DatabaseURL:  dbURL,
		HTTPPort:     port,
		SystemSecret: secret,
		NodeID:       nodeID,
		OTELEndpoint: otelEndpoint,
	}, nil
}
