// Package objectentry implements the per-object metadata+shards pairing:
// an Entry is constructed either fully populated by the uploading node,
// or empty (reserved) on a peer's first Create.
package objectentry

import (
	"unicode/utf8"

	"github.com/shardmesh/peershard/internal/codec"
	"github.com/shardmesh/peershard/internal/shardset"
)

// Entry pairs an object's Metadata with its ShardSet.
type Entry struct {
	Meta  codec.Metadata
	Shard *shardset.Set
}

// Empty constructs a reserved entry with all n slots absent, used by a
// peer on first Create{name, meta}.
func Empty(meta codec.Metadata) *Entry {
	return &Entry{
		Meta:  meta,
		Shard: shardset.New(meta.N(), int(meta.K)),
	}
}

// FromEncoded constructs a fully-populated entry, used by the uploading
// node after codec.Encode.
func FromEncoded(meta codec.Metadata, set *shardset.Set) *Entry {
	return &Entry{Meta: meta, Shard: set}
}

// CanDecode reports whether present >= k.
func (e *Entry) CanDecode() bool {
	return e.Shard.CanDecode()
}

// Decode reconstructs the original content if CanDecode(); otherwise
// returns (nil, false). The underlying ShardSet is cloned before
// reconstruction so a mixed or parity-only set remains usable afterward
// for a repeat decode or for answering a peer's request. Reconstructed
// bytes that are not valid UTF-8 are reported as absent, matching the
// core decode operation's contract: objects are byte strings interpreted
// as text.
func (e *Entry) Decode() ([]byte, bool) {
	if !e.CanDecode() {
		return nil, false
	}

	clone := e.Shard.Clone()
	content, err := codec.Reconstruct(clone, e.Meta)
	if err != nil {
		return nil, false
	}
	if !utf8.Valid(content) {
		return nil, false
	}
	return content, true
}
