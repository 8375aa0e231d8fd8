package node

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shardmesh/peershard/internal/codec"
	"github.com/shardmesh/peershard/internal/network"
	"github.com/shardmesh/peershard/internal/network/simnet"
	"github.com/shardmesh/peershard/internal/protocol"
)

func newNetwork(t *testing.T, count int) (*simnet.Hub, []*Node) {
	t.Helper()
	hub := simnet.NewHub(0)
	nodes := make([]*Node, count)
	for i := 0; i < count; i++ {
		id := network.PeerID(fmt.Sprintf("peer-%d", i))
		nodes[i] = New(id, hub.Register(id, count*8))
	}
	return hub, nodes
}

func runAll(ctx context.Context, nodes []*Node) {
	for _, n := range nodes {
		go n.Run(ctx)
	}
}

func waitForDecode(t *testing.T, n *Node, name string, timeout time.Duration) ([]byte, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if content, ok := n.TryDecode(name); ok {
			return content, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil, false
}

func TestNode_TwoNodeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub, nodes := newNetwork(t, 2)
	defer hub.Close()
	runAll(ctx, nodes)

	content := []byte("a message replicated between exactly two peers")
	if err := nodes[0].Upload(ctx, "obj", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got, ok := waitForDecode(t, nodes[1], "obj", time.Second)
	if !ok {
		t.Fatal("peer 1 never became able to decode the object")
	}
	if string(got) != string(content) {
		t.Errorf("decoded content = %q, want %q", got, content)
	}
}

func TestNode_SurvivesLossOfTheUploader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 8
	hub, nodes := newNetwork(t, n)
	defer hub.Close()
	runAll(ctx, nodes)

	// 29 bytes -> k = 1, m = 1: the two shards go round-robin to two of
	// the other seven peers, and either holder can decode on its own.
	content := []byte("spread thin across many peers")
	if err := nodes[0].Upload(ctx, "obj", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// Give the initial Create/Replicate fan-out time to land before the
	// uploader goes away.
	time.Sleep(100 * time.Millisecond)
	hub.Disable(network.PeerID("peer-0"))

	// Peer 1 either already holds a shard or pulls one from a surviving
	// holder through Request; the offline uploader is not needed.
	nodes[1].Download(ctx, "obj")

	if _, ok := waitForDecode(t, nodes[1], "obj", 2*time.Second); !ok {
		t.Fatal("no surviving peer could pool enough shards after the uploader went offline")
	}
}

func TestNode_RequestRecoversAfterLateJoin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub, nodes := newNetwork(t, 3)
	defer hub.Close()

	// Only the uploader and one peer are running when the upload happens.
	go nodes[0].Run(ctx)
	go nodes[1].Run(ctx)

	content := []byte("an object uploaded before the third peer joins the network")
	if err := nodes[0].Upload(ctx, "obj", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if _, ok := waitForDecode(t, nodes[1], "obj", time.Second); !ok {
		t.Fatal("peer 1 never became able to decode the object")
	}

	// Peer 2 joins late and asks around for the object.
	go nodes[2].Run(ctx)
	nodes[2].Download(ctx, "obj")

	if _, ok := waitForDecode(t, nodes[2], "obj", time.Second); !ok {
		t.Fatal("peer 2 never recovered the object after requesting it")
	}
}

func TestNode_OrphanReplicateBufferedUntilMatchingCreate(t *testing.T) {
	hub := simnet.NewHub(0)
	port := hub.Register("peer-x", 4)
	defer hub.Close()
	n := New("peer-x", port)

	content := []byte("short enough for k=1, m=1")
	meta, set, err := codec.Encode(content)
	if err != nil {
		t.Fatalf("codec.Encode() error = %v", err)
	}
	shard := set.PresentIter()[0]

	// The shard arrives before its reserving Create: it must be held in
	// the orphan buffer, not merged into a not-yet-existing entry.
	n.handleReplicate(&protocol.ReplicatePayload{Name: "obj", Shard: shard})
	if n.Has("obj") {
		t.Fatal("Has() = true before the matching Create arrived")
	}

	// The Create arrives and should drain the buffered shard in, making
	// the entry immediately decodable since k=1.
	n.handleCreate(&protocol.CreatePayload{Name: "obj", Meta: meta})

	got, ok := n.TryDecode("obj")
	if !ok {
		t.Fatal("TryDecode() = false after Create drained the buffered orphan shard, want true")
	}
	if string(got) != string(content) {
		t.Errorf("TryDecode() = %q, want %q", got, content)
	}
}

func TestNode_TooManyLossesNeverConverges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 8
	hub, nodes := newNetwork(t, n)
	defer hub.Close()
	runAll(ctx, nodes)

	// 360 bytes -> k = ceil(360/64) = 6, n = 12; round-robin over the
	// seven other peers leaves each holder with at most 2 shards, so
	// recovery needs shards pooled from at least 3 distinct holders.
	content := make([]byte, 360)
	for i := range content {
		content[i] = byte(i)
	}
	if err := nodes[0].Upload(ctx, "obj", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	for i := 0; i <= 5; i++ {
		hub.Disable(network.PeerID(fmt.Sprintf("peer-%d", i)))
	}

	// Only peer-6 and peer-7 remain reachable; repeated polling must
	// never succeed since the surviving pair cannot hold k=6 distinct
	// shards between them.
	for i := 0; i < 20; i++ {
		nodes[7].Download(ctx, "obj")
		if _, ok := nodes[7].TryDecode("obj"); ok {
			t.Fatal("peer 7 decoded the object despite too few surviving holders")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
