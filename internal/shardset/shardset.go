// Package shardset implements the fixed-size, sparse shard vector backing
// a single object's replication state. A Set never grows or shrinks
// after construction; slots are filled monotonically and never
// overwritten, which is what makes it safe to fold in shards that
// arrive out of order, duplicated, or more than once.
package shardset

// Width is the fixed shard buffer size in bytes. Changing this is a
// wire-breaking change: every node in a deployment must agree on it.
const Width = 64

// Shard is one fixed-size buffer plus its position in the shard vector.
// Shard values are immutable once produced; Data is always exactly Width
// bytes.
type Shard struct {
	Index int
	Data  [Width]byte
}

// Set is an ordered sequence of length N = K+M where each slot is either
// absent (nil) or holds an owned copy of a Width-byte buffer. Length is
// fixed at construction. Merge never overwrites an occupied slot; Insert
// and FromRawShards do.
// Slot i only ever holds data for index i, enforced by construction:
// callers address slots by index, never by value.
type Set struct {
	slots []*[Width]byte
	k     int
}

// New allocates an empty Set of n = k+m slots. k is retained for
// CanDecode's present>=k check.
func New(n, k int) *Set {
	return &Set{slots: make([]*[Width]byte, n), k: k}
}

// Len returns n, the fixed slot count.
func (s *Set) Len() int { return len(s.slots) }

// K returns the data-shard count used by CanDecode.
func (s *Set) K() int { return s.k }

// Insert unconditionally sets slot i to a copy of buf, overwriting any
// prior value. Used only by the codec at encode time, where the
// uploading node is the sole writer.
func (s *Set) Insert(i int, buf [Width]byte) {
	cp := buf
	s.slots[i] = &cp
}

// Delete clears slot i. Used only by tests to simulate shard loss.
func (s *Set) Delete(i int) {
	s.slots[i] = nil
}

// Merge places shard.Data into slot shard.Index if that slot is absent;
// otherwise the call is a no-op. This is the monotone join that makes
// concurrent, reordered, duplicated Replicate delivery safe: merge is
// commutative and idempotent regardless of application order.
func (s *Set) Merge(shard Shard) {
	if shard.Index < 0 || shard.Index >= len(s.slots) {
		return
	}
	if s.slots[shard.Index] != nil {
		return
	}
	cp := shard.Data
	s.slots[shard.Index] = &cp
}

// Present returns the count of occupied slots.
func (s *Set) Present() int {
	n := 0
	for _, slot := range s.slots {
		if slot != nil {
			n++
		}
	}
	return n
}

// CanDecode reports whether enough slots are present to reconstruct:
// present >= k.
func (s *Set) CanDecode() bool {
	return s.Present() >= s.k
}

// PresentIter returns an independent owned copy of every occupied shard,
// in ascending index order, safe to transmit to peers or hand to the
// codec without risk of the caller observing later mutation.
func (s *Set) PresentIter() []Shard {
	out := make([]Shard, 0, len(s.slots))
	for i, slot := range s.slots {
		if slot == nil {
			continue
		}
		out = append(out, Shard{Index: i, Data: *slot})
	}
	return out
}

// Size returns the sum of the lengths of occupied slots.
func (s *Set) Size() int {
	return s.Present() * Width
}

// Clone returns an independent deep copy, used before a non-destructive
// decode attempt so the original set remains usable for future re-decode
// or for answering peer Requests.
func (s *Set) Clone() *Set {
	out := New(len(s.slots), s.k)
	for i, slot := range s.slots {
		if slot == nil {
			continue
		}
		cp := *slot
		out.slots[i] = &cp
	}
	return out
}

// RawShards returns an n-length [][]byte (nil for absent) in the shape
// klauspost/reedsolomon expects. Each present buffer is copied into a
// newly allocated slice, so the codec's in-place writes never alias a
// shardset.Set's storage.
func (s *Set) RawShards() [][]byte {
	out := make([][]byte, len(s.slots))
	for i, slot := range s.slots {
		if slot == nil {
			continue
		}
		buf := make([]byte, Width)
		copy(buf, slot[:])
		out[i] = buf
	}
	return out
}

// FromRawShards rebuilds slot contents from a [][]byte of length n,
// copying each non-empty entry into an owned Width-byte slot and
// overwriting whatever that slot held before. Empty entries leave their
// slot unchanged.
func (s *Set) FromRawShards(raw [][]byte) {
	for i, buf := range raw {
		if i >= len(s.slots) || len(buf) == 0 {
			continue
		}
		var cp [Width]byte
		copy(cp[:], buf)
		s.slots[i] = &cp
	}
}
