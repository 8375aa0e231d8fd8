// Package protocol defines the three-command wire taxonomy peers
// exchange: Create reserves an entry, Replicate stores one shard,
// Request asks a peer to resend everything it holds for a name. All
// three are unacknowledged and idempotent under the ShardSet's monotone
// merge rule.
package protocol

import (
	"github.com/shardmesh/peershard/internal/codec"
	"github.com/shardmesh/peershard/internal/shardset"
)

// Kind identifies which payload a Command carries.
type Kind string

const (
	KindCreate    Kind = "create"
	KindReplicate Kind = "replicate"
	KindRequest   Kind = "request"
)

// Command is a tagged union over the three protocol messages. Exactly
// one of Create/Replicate/Request is populated, selected by Kind.
type Command struct {
	Kind      Kind              `json:"kind"`
	Create    *CreatePayload    `json:"create,omitempty"`
	Replicate *ReplicatePayload `json:"replicate,omitempty"`
	Request   *RequestPayload   `json:"request,omitempty"`
}

// CreatePayload reserves an ObjectEntry of this shape on the receiver.
type CreatePayload struct {
	Name string        `json:"name"`
	Meta codec.Metadata `json:"meta"`
}

// ReplicatePayload stores one shard under name on the receiver.
type ReplicatePayload struct {
	Name  string        `json:"name"`
	Shard shardset.Shard `json:"shard"`
}

// RequestPayload asks the receiver to reply with one Replicate per
// present shard it holds for name.
type RequestPayload struct {
	Name string `json:"name"`
}

// NewCreate builds a Create command.
func NewCreate(name string, meta codec.Metadata) Command {
	return Command{Kind: KindCreate, Create: &CreatePayload{Name: name, Meta: meta}}
}

// NewReplicate builds a Replicate command.
func NewReplicate(name string, shard shardset.Shard) Command {
	return Command{Kind: KindReplicate, Replicate: &ReplicatePayload{Name: name, Shard: shard}}
}

// NewRequest builds a Request command.
func NewRequest(name string) Command {
	return Command{Kind: KindRequest, Request: &RequestPayload{Name: name}}
}
