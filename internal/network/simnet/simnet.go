// Package simnet is an in-memory, single-process network.Port
// implementation used by the CLI driver (cmd/peerctl) and by tests. It
// stands in for a real transport and peer discovery mechanism: a
// harness, not a protocol requirement.
//
// It is modeled on the hand-rolled mock repositories in
// file_service_test.go (in-memory maps behind the real interface) and on
// file_service.go's semaphore/goroutine fan-out for concurrent delivery.
package simnet

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shardmesh/peershard/internal/network"
	"github.com/shardmesh/peershard/internal/protocol"
)

// Hub owns every node's inbox and reachability state. Nodes register
// with the hub to obtain a network.Port bound to their identity.
type Hub struct {
	mu      sync.RWMutex
	nodes   map[network.PeerID]*link
	dropPct int // 0-100, percent of sends silently dropped, simulating TransportLoss
	rng     *rand.Rand
}

type link struct {
	id      network.PeerID
	inbox   chan network.Inbound
	enabled bool
}

// NewHub constructs an empty hub. dropPct sets a uniform random
// send-loss rate (0 disables it) so tests can exercise tolerated,
// sender-invisible message loss without a real transport.
func NewHub(dropPct int) *Hub {
	return &Hub{
		nodes:   make(map[network.PeerID]*link),
		dropPct: dropPct,
		rng:     rand.New(rand.NewSource(1)),
	}
}

// Register creates an inbox for id and returns a network.Port bound to
// it. inboxSize bounds the per-node buffered channel; a full inbox drops
// the pending send attempt rather than blocking the sender.
func (h *Hub) Register(id network.PeerID, inboxSize int) network.Port {
	h.mu.Lock()
	defer h.mu.Unlock()

	l := &link{id: id, inbox: make(chan network.Inbound, inboxSize), enabled: true}
	h.nodes[id] = l
	return &port{hub: h, self: id}
}

// Disable marks id unreachable: Discover stops listing it for every other
// node, and sends addressed to it are dropped. It models a peer outage,
// not a crash — its own in-flight Recv loop keeps running against
// whatever is already queued.
func (h *Hub) Disable(id network.PeerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.nodes[id]; ok {
		l.enabled = false
	}
}

// Enable reverses Disable.
func (h *Hub) Enable(id network.PeerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.nodes[id]; ok {
		l.enabled = true
	}
}

// Close terminates every registered node's Recv loop by closing its
// inbox, used to shut a simulation down cleanly.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.nodes {
		close(l.inbox)
	}
}

type port struct {
	hub  *Hub
	self network.PeerID
}

func (p *port) Discover(ctx context.Context) ([]network.PeerID, error) {
	p.hub.mu.RLock()
	defer p.hub.mu.RUnlock()

	peers := make([]network.PeerID, 0, len(p.hub.nodes))
	for id, l := range p.hub.nodes {
		if id == p.self || !l.enabled {
			continue
		}
		peers = append(peers, id)
	}
	return peers, nil
}

func (p *port) Send(ctx context.Context, to network.PeerID, cmd protocol.Command) {
	p.hub.mu.RLock()
	target, ok := p.hub.nodes[to]
	dropPct := p.hub.dropPct
	p.hub.mu.RUnlock()

	if !ok || !target.enabled {
		return
	}
	if dropPct > 0 && p.hub.rng.Intn(100) < dropPct {
		return
	}

	select {
	case target.inbox <- network.Inbound{From: p.self, Cmd: cmd}:
	default:
		// Inbox full: best-effort send, drop rather than block the sender.
	}
}

func (p *port) Recv(ctx context.Context) (network.Inbound, bool) {
	p.hub.mu.RLock()
	self, ok := p.hub.nodes[p.self]
	p.hub.mu.RUnlock()
	if !ok {
		return network.Inbound{}, false
	}

	select {
	case in, ok := <-self.inbox:
		return in, ok
	case <-ctx.Done():
		return network.Inbound{}, false
	}
}
