// Command peerctl drives the peer engine: "run" simulates a small
// network of nodes in a single process for demos and manual testing,
// "serve" runs one real node that discovers peers through a
// DynamoDB-backed directory. Structured the way cmd/main.go and
// cmd/file.go split root wiring from subcommands, minus the config-file
// and multi-bucket plumbing this project has no use for.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardmesh/peershard/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "peerctl",
	Short: "Drive a peer-to-peer erasure-coded object network",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cobra.OnInitialize(func() {
		os.Setenv("LOG_LEVEL", logLevel)
		logging.InitFromEnv()
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
