package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shardmesh/peershard/internal/config"
	"github.com/shardmesh/peershard/internal/logging"
	"github.com/shardmesh/peershard/internal/network"
	"github.com/shardmesh/peershard/internal/network/dynamodirectory"
	"github.com/shardmesh/peershard/internal/network/simnet"
	"github.com/shardmesh/peershard/internal/node"
)

var (
	serveNodeID  string
	serveAddress string
	serveTable   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one node, discovering peers through a DynamoDB-backed directory",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveNodeID, "node-id", "", "this node's peer id (default from PEERSHARD_NODE_ID)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "advertised address for this node, informational only")
	serveCmd.Flags().StringVar(&serveTable, "table", "", "DynamoDB peer directory table (default from PEERSHARD_DYNAMODB_TABLE)")
}

// runServe starts one node whose peer discovery goes through DynamoDB.
// Message delivery itself still runs over an in-process simnet hub, since
// this CLI is a demo harness rather than a production transport; a real
// deployment swaps simnet.Hub for a process-to-process transport while
// keeping the same dynamodirectory.Directory for discovery.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(true)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.InitLogger(cfg)
	if serveNodeID != "" {
		cfg.NodeID = serveNodeID
	}
	if serveTable != "" {
		cfg.PeerDirectoryTable = serveTable
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dynamodirectory.EnsureTable(ctx, cfg.AWSConfig, cfg.PeerDirectoryTable); err != nil {
		return fmt.Errorf("ensure peer directory table: %w", err)
	}

	hub := simnet.NewHub(0)
	id := network.PeerID(cfg.NodeID)
	transport := hub.Register(id, 64)
	dir := dynamodirectory.New(cfg.AWSConfig, cfg.PeerDirectoryTable, id, serveAddress, transport)

	n := node.New(id, dir)
	go n.Run(ctx)

	log.WithField("node", cfg.NodeID).Info("serving; announcing to peer directory")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	if err := dir.Announce(ctx); err != nil {
		log.WithError(err).Warn("initial peer directory announce failed")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := dir.Announce(ctx); err != nil {
				log.WithError(err).Warn("peer directory announce failed")
			}
		}
	}
}
