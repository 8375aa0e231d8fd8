// Package codec implements the Reed-Solomon erasure coding core: turning
// a byte string into a fixed-width shard vector over GF(2^8), and
// reconstructing it from any k-of-n present subset.
//
// The split/encode/reconstruct/join calls are the same shape as
// erasure_coding_service.go's ShardFile/ReconstructFile, generalized from
// variable-size shards and a configurable data/parity ratio to a fixed
// W=64, m=k policy, and rehomed onto the sparse shardset.Set
// representation instead of a plain [][]byte so a partially-filled shard
// vector can be held in an object store between reservation and a
// decodable delivery.
package codec

import (
	"bytes"
	"fmt"

	"github.com/klauspost/reedsolomon"

	"github.com/shardmesh/peershard/internal/shardset"
	"github.com/shardmesh/peershard/internal/xerrors"
)

// Metadata is the immutable descriptor of an encoded object: the
// original byte length plus the data/parity shard counts. n = K + M.
// This node's own encoder always sets M = K, though the wire format
// (and this struct) can represent objects produced with a different
// ratio by another implementation.
type Metadata struct {
	Len uint64 `json:"len"`
	K   uint32 `json:"k"`
	M   uint32 `json:"m"`
}

// N returns the total shard count.
func (m Metadata) N() int { return int(m.K) + int(m.M) }

// Encode partitions content into ceil(len/W) data shards, computes an
// equal number of parity shards (policy: m = k), and returns the
// resulting Metadata and a fully-populated shardset.Set.
//
// Empty input is rejected explicitly: k would be 0, which
// reedsolomon.New refuses, so an empty upload fails fast with a named
// error instead of panicking deep inside the codec.
func Encode(content []byte) (Metadata, *shardset.Set, error) {
	if len(content) == 0 {
		return Metadata{}, nil, xerrors.EncodeFailure("cannot encode zero-length content")
	}

	k := (len(content) + shardset.Width - 1) / shardset.Width
	m := k

	enc, err := reedsolomon.New(k, m)
	if err != nil {
		return Metadata{}, nil, xerrors.EncodeFailure(err.Error())
	}

	shards, err := enc.Split(padToShardBoundary(content, k))
	if err != nil {
		return Metadata{}, nil, xerrors.EncodeFailure(err.Error())
	}
	// Split only allocates the k data shards; grow to n and let Encode
	// fill the parity shards.
	for len(shards) < k+m {
		shards = append(shards, make([]byte, shardset.Width))
	}

	if err := enc.Encode(shards); err != nil {
		return Metadata{}, nil, xerrors.EncodeFailure(err.Error())
	}

	meta := Metadata{Len: uint64(len(content)), K: uint32(k), M: uint32(m)}

	set := shardset.New(k+m, k)
	for i, shard := range shards {
		var buf [shardset.Width]byte
		copy(buf[:], shard)
		set.Insert(i, buf)
	}

	return meta, set, nil
}

// Reconstruct rebuilds the original byte string from set, which must have
// at least meta.K present shards. It works on a copy of the shard
// buffers (set.RawShards) and does not mutate set; only the joined
// content is returned, not the recovered shards. Decode callers also
// clone before calling Reconstruct so a parity-only set remains usable
// for a future re-decode or for answering a peer's request for shards.
func Reconstruct(set *shardset.Set, meta Metadata) ([]byte, error) {
	if set.Present() < int(meta.K) {
		return nil, xerrors.ErrNotDecodable
	}

	enc, err := reedsolomon.New(int(meta.K), int(meta.M))
	if err != nil {
		return nil, fmt.Errorf("construct codec for reconstruction: %w", err)
	}

	raw := set.RawShards()
	if err := enc.Reconstruct(raw); err != nil {
		return nil, xerrors.ErrNotDecodable
	}

	var buf bytes.Buffer
	if err := enc.Join(&buf, raw, int(meta.Len)); err != nil {
		return nil, fmt.Errorf("join reconstructed shards: %w", err)
	}

	return buf.Bytes(), nil
}

// padToShardBoundary returns content padded with zero bytes up to
// k*Width, matching reedsolomon.Split's own zero-padding behavior but
// performed up front so callers can rely on exactly k*Width bytes being
// handed to Split regardless of reedsolomon's internal rounding.
func padToShardBoundary(content []byte, k int) []byte {
	total := k * shardset.Width
	if len(content) == total {
		return content
	}
	padded := make([]byte, total)
	copy(padded, content)
	return padded
}
