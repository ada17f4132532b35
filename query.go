package loom

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// QueryDescription declares which archetypes a Query should match:
// every id in All must be present, at least one id in Any must be
// present (if Any is non-empty), no id in None may be present, and the
// matched archetype's signature must equal Exclusive exactly when
// Exclusive is non-empty (§6).
type QueryDescription struct {
	All       []ComponentID
	Any       []ComponentID
	None      []ComponentID
	Exclusive []ComponentID
}

// key renders a canonical cache key for this description so that two
// descriptions with the same sets in different slice order dedupe to
// the same cached Query.
func (d QueryDescription) key() string {
	var b strings.Builder
	writeSorted := func(label string, ids []ComponentID) {
		b.WriteString(label)
		sorted := append([]ComponentID(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, id := range sorted {
			b.WriteByte(',')
			b.WriteString(strconv.FormatUint(uint64(id), 10))
		}
		b.WriteByte(';')
	}
	writeSorted("all", d.All)
	writeSorted("any", d.Any)
	writeSorted("none", d.None)
	writeSorted("excl", d.Exclusive)
	return b.String()
}

func (d QueryDescription) matches(sig *BitSet) bool {
	if len(d.Exclusive) > 0 {
		excl := NewBitSet()
		for _, id := range d.Exclusive {
			excl.Set(id)
		}
		if !sig.Equal(excl) {
			return false
		}
	}
	if len(d.All) > 0 {
		all := NewBitSet()
		for _, id := range d.All {
			all.Set(id)
		}
		if !sig.ContainsAll(all) {
			return false
		}
	}
	if len(d.Any) > 0 {
		any := NewBitSet()
		for _, id := range d.Any {
			any.Set(id)
		}
		if !sig.ContainsAny(any) {
			return false
		}
	}
	if len(d.None) > 0 {
		none := NewBitSet()
		for _, id := range d.None {
			none.Set(id)
		}
		if !sig.ContainsNone(none) {
			return false
		}
	}
	return true
}

// Query is a compiled QueryDescription bound to a World. It caches the
// list of archetypes it currently matches and re-scans only when the
// World's archetype graph has changed (an archetype was created or
// removed, or the World was cleared) since the cache was built (§4.7).
//
// A single Query may be shared and iterated by several goroutines at
// once — that is exactly the "concurrent read-only queries" §5
// permits. refreshMu guards only the bookkeeping that makes the cache
// itself safe to share (archetypes, generation); it never contends
// with World's own latch, which instead serializes the query side as
// a whole against structural changes.
type Query struct {
	world       *World
	description QueryDescription
	archetypes  []*Archetype
	generation  uint64
	refreshMu   sync.Mutex
}

func newQuery(w *World, desc QueryDescription) *Query {
	q := &Query{world: w, description: desc}
	q.refresh()
	return q
}

// refresh rescans the full archetype graph against the description and
// records the graph generation the scan was taken at. Callers must
// hold refreshMu and q.world.mu's read side. It allocates a fresh
// slice rather than reusing the previous one in place, since a
// goroutine iterating a snapshot handed out by an earlier Archetypes()
// call may still be reading it.
func (q *Query) refresh() {
	matched := make([]*Archetype, 0, len(q.archetypes))
	for _, a := range q.world.graph.All() {
		if q.description.matches(a.signature) {
			matched = append(matched, a)
		}
	}
	q.archetypes = matched
	q.generation = q.world.graph.Generation()
}

// archetypesLocked rescans if the World's archetype graph has changed
// since the last scan, and returns the current match set. Called lazily, at
// iteration time, rather than eagerly on every structural change — a
// Query nobody iterates never pays to refresh. A single *Query may be
// handed out to several concurrent readers (World.Query memoizes by
// description), so the check-and-scan is serialized through refreshMu
// rather than assumed race-free.
//
// Callers must already hold q.world.mu, either side: Archetypes takes
// the read side itself for ordinary iteration; the bulk structural
// operations call in while already holding the write side, so they
// don't re-enter q.world.mu from inside their own lock.
func (q *Query) archetypesLocked() []*Archetype {
	q.refreshMu.Lock()
	defer q.refreshMu.Unlock()
	if q.generation != q.world.graph.Generation() {
		q.refresh()
	}
	return q.archetypes
}

// Archetypes returns the archetypes currently matched by this query.
// The returned slice must be treated as read-only and may be
// invalidated by the next structural change.
func (q *Query) Archetypes() []*Archetype {
	q.world.mu.RLock()
	defer q.world.mu.RUnlock()
	return q.archetypesLocked()
}

// Count returns the number of entities across every matched archetype.
func (q *Query) Count() int {
	n := 0
	for _, a := range q.Archetypes() {
		n += a.Count()
	}
	return n
}

// EachEntity calls fn for every entity matched by the query, stopping
// early if fn returns false.
func (q *Query) EachEntity(fn func(e Entity) bool) {
	for _, a := range q.Archetypes() {
		stop := false
		a.EachEntity(func(id uint32) bool {
			if !fn(Entity{ID: id, World: q.world.id}) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}
