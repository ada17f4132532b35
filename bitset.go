package loom

import (
	"encoding/binary"
	"hash/fnv"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// BitSet is a dense bit vector keyed by ComponentID. It backs an
// archetype's signature: the fingerprint used to look the archetype up
// in the graph, and the set tested against a QueryDescription.
//
// Collisions in Hash are expected and tolerated — callers must still
// compare with Equal before treating two BitSets as the same signature
// (§4.2, §9 "Hash collisions").
type BitSet struct {
	bits *bitset.BitSet
}

// NewBitSet returns an empty BitSet.
func NewBitSet() *BitSet {
	return &BitSet{bits: bitset.New(64)}
}

// Set marks id as present.
func (b *BitSet) Set(id ComponentID) { b.bits.Set(uint(id)) }

// Clear marks id as absent.
func (b *BitSet) Clear(id ComponentID) { b.bits.Clear(uint(id)) }

// Test reports whether id is present.
func (b *BitSet) Test(id ComponentID) bool { return b.bits.Test(uint(id)) }

// IsEmpty reports whether no bits are set.
func (b *BitSet) IsEmpty() bool { return b.bits.None() }

// Clone returns an independent copy.
func (b *BitSet) Clone() *BitSet { return &BitSet{bits: b.bits.Clone()} }

// Equal is content equality: the canonical way to disambiguate a Hash
// collision between two archetype signatures.
func (b *BitSet) Equal(other *BitSet) bool { return b.bits.Equal(other.bits) }

// ContainsAll reports whether b is a superset of other (used for the
// QueryDescription.All test).
func (b *BitSet) ContainsAll(other *BitSet) bool { return b.bits.IsSuperSet(other.bits) }

// ContainsAny reports whether b and other share at least one bit (used
// for the QueryDescription.Any test).
func (b *BitSet) ContainsAny(other *BitSet) bool {
	return b.bits.IntersectionCardinality(other.bits) > 0
}

// ContainsNone reports whether b and other share no bits (used for the
// QueryDescription.None test).
func (b *BitSet) ContainsNone(other *BitSet) bool {
	return b.bits.IntersectionCardinality(other.bits) == 0
}

// Components returns the set bits as a sorted slice of ComponentIDs —
// an archetype signature in canonical order.
func (b *BitSet) Components() []ComponentID {
	out := make([]ComponentID, 0, b.bits.Count())
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		out = append(out, ComponentID(i))
	}
	return out
}

// Hash returns a content hash stable across equal sets, used as the
// archetype graph's fingerprint key. It is not an identity: two
// distinct sets may collide, so graph lookups must re-check Equal.
func (b *BitSet) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		binary.LittleEndian.PutUint32(buf[:], uint32(i))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// SpanBitSet is the allocation-free counterpart to BitSet: it operates
// on a caller-provided word slice that it never grows or reallocates,
// so an archetype transition can probe the graph without allocating a
// heap BitSet (§4.2).
type SpanBitSet struct {
	words []uint64
}

// NewSpanBitSet wraps buf as bit storage. The caller owns buf's
// lifetime; SpanBitSet never reallocates it.
func NewSpanBitSet(buf []uint64) SpanBitSet {
	return SpanBitSet{words: buf}
}

// RequiredWords returns the number of uint64 words needed to hold bits
// up to and including maxID.
func RequiredWords(maxID ComponentID) int {
	return int(maxID)/64 + 1
}

// Reset clears all bits without releasing the backing storage.
func (s *SpanBitSet) Reset() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// Set marks id as present. The caller is responsible for sizing the
// backing buffer to RequiredWords(id) or larger.
func (s *SpanBitSet) Set(id ComponentID) {
	s.words[id/64] |= 1 << (id % 64)
}

// Clear marks id as absent.
func (s *SpanBitSet) Clear(id ComponentID) {
	s.words[id/64] &^= 1 << (id % 64)
}

// Test reports whether id is present.
func (s *SpanBitSet) Test(id ComponentID) bool {
	word := id / 64
	if int(word) >= len(s.words) {
		return false
	}
	return s.words[word]&(1<<(id%64)) != 0
}

// ToBitSet copies the span into a heap-owned BitSet, used once a
// transient transition signature needs to be stored long-term (e.g. as
// a new archetype's identity).
func (s *SpanBitSet) ToBitSet() *BitSet {
	b := NewBitSet()
	for w, word := range s.words {
		for bit := 0; bit < 64; bit++ {
			if word&(1<<uint(bit)) != 0 {
				b.Set(ComponentID(w*64 + bit))
			}
		}
	}
	return b
}

// Hash returns the same content hash BitSet.Hash would for the same
// bits (it hashes the sequence of set-bit indices, not the raw words,
// so word-count differences between a span and its eventual heap
// BitSet don't change the result), letting a transient SpanBitSet probe
// the archetype graph before anything is allocated.
func (s *SpanBitSet) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for w, word := range s.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			word &^= 1 << uint(bit)
			binary.LittleEndian.PutUint32(buf[:], uint32(w*64+bit))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
