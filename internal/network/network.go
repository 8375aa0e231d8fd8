// Package network declares the abstract transport the node engine
// consumes: discover reachable peers, send a command best-effort, and
// receive the next inbound command. The core never implements a
// concrete transport — the physical transport and peer discovery
// mechanism are external collaborators by design. Concrete adapters
// live in the sibling simnet and dynamodirectory packages.
package network

import (
	"context"

	"github.com/shardmesh/peershard/internal/protocol"
)

// PeerID is an opaque byte-string peer identifier; equality is the peer
// identity relation.
type PeerID string

// Inbound pairs a received command with the peer it arrived from.
type Inbound struct {
	From PeerID
	Cmd  protocol.Command
}

// Port is the abstract transport a Node consumes. Implementations may
// drop, delay, or reorder messages freely; none of that is observable to
// the sender.
type Port interface {
	// Discover returns the currently reachable peers, excluding self. May
	// change between calls; there is no stability guarantee.
	Discover(ctx context.Context) ([]PeerID, error)

	// Send is best-effort and fire-and-forget: it never fails
	// observably from the caller's perspective.
	Send(ctx context.Context, to PeerID, cmd protocol.Command)

	// Recv returns the next inbound command, blocking until one arrives.
	// It returns ok=false only once the transport has terminated,
	// signaling the reactor loop to exit.
	Recv(ctx context.Context) (Inbound, bool)
}
