// Package config loads node configuration from environment variables,
// following the same getEnv-with-default pattern the rest of this
// project's lineage uses for its CLI tools.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// Config holds the per-process configuration for a peershard node or CLI
// invocation.
type Config struct {
	// NodeID is this process's peer identity, used as the Network port's
	// opaque peer id.
	NodeID string

	// LogLevel controls the verbosity of internal/logging.
	LogLevel string

	// PeerDirectoryTable names the DynamoDB table backing
	// internal/network/dynamodirectory, when that discovery adapter is in use.
	PeerDirectoryTable string

	// AWSConfig is populated only when LoadConfig is called with
	// requireAWS; it is only required by commands that use the
	// DynamoDB-backed peer directory.
	AWSConfig awssdk.Config
}

// LoadConfig loads configuration from environment variables. AWS
// credentials are resolved through the default SDK chain only when
// requireAWS is true, so purely in-memory simulations (cmd/peerctl run)
// never need AWS credentials configured.
func LoadConfig(requireAWS bool) (*Config, error) {
	cfg := &Config{
		NodeID:             getEnv("PEERSHARD_NODE_ID", "node-1"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		PeerDirectoryTable: getEnv("PEERSHARD_DYNAMODB_TABLE", "peershard-directory"),
	}

	if requireAWS {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		cfg.AWSConfig = awsCfg
	}

	return cfg, nil
}

// EnvInt parses an integer environment variable, returning def if unset
// or invalid. Used by the CLI driver for --nodes/--rounds style flags that
// also accept environment overrides.
func EnvInt(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// getEnv reads an environment variable or returns a default value if the
// variable is not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}
