package store

import (
	"testing"

	"github.com/shardmesh/peershard/internal/codec"
	"github.com/shardmesh/peershard/internal/objectentry"
	"github.com/shardmesh/peershard/internal/shardset"
)

func testMeta(t *testing.T) codec.Metadata {
	t.Helper()
	meta, _, err := codec.Encode([]byte("content long enough to split into a few shards"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return meta
}

func TestStore_EnsureFirstCreateWins(t *testing.T) {
	s := New()
	meta := testMeta(t)

	s.Ensure("obj", meta)
	s.Ensure("obj", codec.Metadata{Len: 999, K: 1, M: 1})

	if !s.Has("obj") {
		t.Fatal("Has() = false after Ensure")
	}
	if got := s.entries["obj"].Meta; got != meta {
		t.Errorf("retained Meta = %+v, want the first Create's %+v", got, meta)
	}
	// SnapshotPresent on the still-empty entry should report nothing.
	if got := s.SnapshotPresent("obj"); len(got) != 0 {
		t.Errorf("SnapshotPresent() = %v, want empty", got)
	}
}

func TestStore_MergeDropsShardsForUnknownName(t *testing.T) {
	s := New()
	s.Merge("never-created", shardset.Shard{Index: 0})

	if s.Has("never-created") {
		t.Error("Merge() on an unknown name created an entry")
	}
}

func TestStore_MergeFoldsIntoExistingEntry(t *testing.T) {
	s := New()
	meta := testMeta(t)
	s.Ensure("obj", meta)

	var buf [shardset.Width]byte
	buf[0] = 1
	s.Merge("obj", shardset.Shard{Index: 0, Data: buf})

	present := s.SnapshotPresent("obj")
	if len(present) != 1 || present[0].Index != 0 {
		t.Errorf("SnapshotPresent() = %v, want one shard at index 0", present)
	}
}

func TestStore_TryDecodeUnknownNameReturnsFalse(t *testing.T) {
	s := New()
	if _, ok := s.TryDecode("nope"); ok {
		t.Error("TryDecode() on unknown name = true, want false")
	}
}

func TestStore_PutThenTryDecode(t *testing.T) {
	content := []byte("a complete object ready to decode")
	meta, set, err := codec.Encode(content)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	s := New()
	s.Put("obj", objectentry.FromEncoded(meta, set))

	got, ok := s.TryDecode("obj")
	if !ok {
		t.Fatal("TryDecode() = false, want true")
	}
	if string(got) != string(content) {
		t.Errorf("TryDecode() = %q, want %q", got, content)
	}
}

func TestStore_Len(t *testing.T) {
	s := New()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	s.Ensure("a", testMeta(t))
	s.Ensure("b", testMeta(t))
	s.Ensure("a", testMeta(t)) // duplicate, must not double count
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
