package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shardmesh/peershard/internal/shardset"
	"github.com/shardmesh/peershard/internal/xerrors"
)

func TestEncode_RejectsEmptyContent(t *testing.T) {
	_, _, err := Encode(nil)
	if err == nil {
		t.Fatal("Encode(nil) = nil error, want a rejection")
	}
}

func TestEncodeReconstruct_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "Simple", content: []byte("hello, world")},
		{name: "Big", content: bytes.Repeat([]byte("peer-to-peer erasure coding "), 500)},
		{name: "single byte", content: []byte{0x42}},
		{name: "exact shard boundary", content: bytes.Repeat([]byte{1}, shardset.Width*3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, set, err := Encode(tt.content)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := Reconstruct(set, meta)
			if err != nil {
				t.Fatalf("Reconstruct() error = %v", err)
			}
			if !bytes.Equal(got, tt.content) {
				t.Errorf("Reconstruct() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestReconstruct_FromParityOnly(t *testing.T) {
	content := []byte(strings.Repeat("x", shardset.Width*5))
	meta, set, err := Encode(content)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	parityOnly := shardset.New(meta.N(), int(meta.K))
	for _, shard := range set.PresentIter() {
		if shard.Index >= int(meta.K) {
			parityOnly.Insert(shard.Index, shard.Data)
		}
	}

	got, err := Reconstruct(parityOnly, meta)
	if err != nil {
		t.Fatalf("Reconstruct() from parity-only set error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Reconstruct() from parity-only set = %q, want %q", got, content)
	}
}

func TestReconstruct_FailsBelowK(t *testing.T) {
	content := []byte(strings.Repeat("y", shardset.Width*6))
	meta, set, err := Encode(content)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tooFew := shardset.New(meta.N(), int(meta.K))
	for i, shard := range set.PresentIter() {
		if i >= int(meta.K)-1 {
			break
		}
		tooFew.Insert(shard.Index, shard.Data)
	}

	_, err = Reconstruct(tooFew, meta)
	if err == nil {
		t.Fatal("Reconstruct() with fewer than k shards present = nil error, want ErrNotDecodable")
	}
	if err != xerrors.ErrNotDecodable {
		t.Errorf("Reconstruct() error = %v, want %v", err, xerrors.ErrNotDecodable)
	}
}
