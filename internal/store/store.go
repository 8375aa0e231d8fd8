// Package store implements a node-local mapping from object name to
// object entry, protected by a single mutual-exclusion region. Every
// exported method executes atomically; none may suspend on network I/O
// while holding the lock, so everything here is non-blocking bookkeeping
// only.
package store

import (
	"sync"

	"github.com/shardmesh/peershard/internal/codec"
	"github.com/shardmesh/peershard/internal/objectentry"
	"github.com/shardmesh/peershard/internal/shardset"
)

// Store maps object name to object entry for the node's lifetime.
// Entries are never removed once created.
type Store struct {
	mu      sync.Mutex
	entries map[string]*objectentry.Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*objectentry.Entry)}
}

// Ensure inserts an empty entry for name if absent; if an entry already
// exists, it is left untouched — the first Create seen for a name wins,
// and every later one is a no-op.
func (s *Store) Ensure(name string, meta codec.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return
	}
	s.entries[name] = objectentry.Empty(meta)
}

// Put installs entry for name unconditionally, overwriting any prior
// entry. Used only by the uploading node's own upload path, never by
// inbound protocol handling.
func (s *Store) Put(name string, entry *objectentry.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry
}

// Merge folds shard into name's ShardSet if name exists; otherwise the
// shard is dropped silently. A Replicate arriving before the matching
// Create is simply lost, not buffered, unless the caller layers its own
// orphan-shard holding area on top (see internal/node).
func (s *Store) Merge(name string, shard shardset.Shard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return
	}
	entry.Shard.Merge(shard)
}

// SnapshotPresent returns an owned list of all present shards for name,
// empty if the name is absent. Used by the reactor to answer Request
// commands: the snapshot must be taken inside the store region and the
// outbound sends performed outside it, since sending must never happen
// while the lock is held.
func (s *Store) SnapshotPresent(name string) []shardset.Shard {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil
	}
	return entry.Shard.PresentIter()
}

// TryDecode returns the decoded plaintext for name if decodable, else
// (nil, false). An unknown name folds into the same false result: the
// node has no opinion on names it hasn't seen.
func (s *Store) TryDecode(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Decode()
}

// Has reports whether name has any entry (reserved, partial, or
// decodable) — used by internal/node's Replicate handling to decide
// whether to merge a shard or hold it in the orphan-shard buffer.
func (s *Store) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

// Len reports the number of distinct names known to the store, used for
// diagnostics and tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
