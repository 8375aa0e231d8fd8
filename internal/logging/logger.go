// Package logging centralizes logrus configuration for the node engine
// and the CLI driver.
package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/peershard/internal/config"
)

// InitLogger sets the log level and format based on the provided configuration.
func InitLogger(cfg *config.Config) {
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

// InitFromEnv initializes logging from environment variables, used by
// packages that run before configuration is fully loaded (e.g. init()).
func InitFromEnv() {
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
	setLogLevel(logLevel)
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

// NodeLogger returns a logger entry tagged with the node's identity, used
// by internal/node to prefix reactor and upload/download diagnostics.
func NodeLogger(nodeID string) *log.Entry {
	return log.WithField("node", nodeID)
}

func init() {
	InitFromEnv()
}
