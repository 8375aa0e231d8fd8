package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/shardmesh/peershard/internal/config"
	"github.com/shardmesh/peershard/internal/network"
	"github.com/shardmesh/peershard/internal/network/simnet"
	"github.com/shardmesh/peershard/internal/node"
)

var (
	runNodes        int
	runRounds       int
	runDisableAfter int
	runDropPct      int
	runPayload      string
	runQuiet        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a network of nodes in a single process",
	Run:   runSimulation,
}

func init() {
	runCmd.Flags().IntVar(&runNodes, "nodes", config.EnvInt("PEERSHARD_SIM_NODES", 5), "number of simulated peers")
	runCmd.Flags().IntVar(&runRounds, "rounds", config.EnvInt("PEERSHARD_SIM_ROUNDS", 20), "number of simulation rounds to run")
	runCmd.Flags().IntVar(&runDisableAfter, "disable-after", -1, "round at which to take the last node offline (-1 disables this)")
	runCmd.Flags().IntVar(&runDropPct, "drop-pct", 0, "percent chance a send is silently dropped in transit")
	runCmd.Flags().StringVar(&runPayload, "payload", "the quick brown fox jumps over the lazy dog", "content to upload from node 0")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "suppress the progress bar")
}

func runSimulation(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := simnet.NewHub(runDropPct)
	nodes := make([]*node.Node, runNodes)
	for i := 0; i < runNodes; i++ {
		id := network.PeerID(fmt.Sprintf("peer-%d", i))
		port := hub.Register(id, runNodes*4)
		nodes[i] = node.New(id, port)
		go nodes[i].Run(ctx)
	}

	const name = "demo-object"
	if err := nodes[0].Upload(ctx, name, []byte(runPayload)); err != nil {
		fmt.Printf("upload failed: %v\n", err)
		return
	}

	var bar *progressbar.ProgressBar
	if !runQuiet {
		bar = progressbar.Default(int64(runRounds), "simulating")
	}

	for round := 0; round < runRounds; round++ {
		time.Sleep(10 * time.Millisecond)
		if round == runDisableAfter && runNodes > 0 {
			last := network.PeerID(fmt.Sprintf("peer-%d", runNodes-1))
			hub.Disable(last)
			fmt.Printf("\nround %d: disabled %s\n", round, last)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	fmt.Println()
	decoded := 0
	for _, n := range nodes {
		if _, ok := n.TryDecode(name); ok {
			decoded++
		}
	}
	fmt.Printf("%d/%d nodes can decode %q after %d rounds\n", decoded, len(nodes), name, runRounds)

	hub.Close()
}
