package loom

// edge caches the archetype reached by adding or removing a single
// component from a given archetype, so repeated single-component
// transitions (the common case for AddComponent/RemoveComponent) skip
// the graph lookup entirely after the first time (§4.6).
type edge struct {
	add    map[ComponentID]*Archetype
	remove map[ComponentID]*Archetype
}

func newEdge() *edge {
	return &edge{
		add:    make(map[ComponentID]*Archetype),
		remove: make(map[ComponentID]*Archetype),
	}
}

// archetypeGraph indexes every archetype in a World by the hash of its
// component signature. Hashes are not unique, so each bucket is a
// short list re-checked with BitSet.Equal before being trusted (§4.6,
// §9 "Hash collisions").
type archetypeGraph struct {
	buckets    map[uint64][]*Archetype
	edges      map[*Archetype]*edge
	generation uint64
}

func newArchetypeGraph() *archetypeGraph {
	return &archetypeGraph{
		buckets: make(map[uint64][]*Archetype),
		edges:   make(map[*Archetype]*edge),
	}
}

// Find returns the archetype whose signature equals sig, if one has
// already been created.
func (g *archetypeGraph) Find(sig *BitSet) (*Archetype, bool) {
	for _, a := range g.buckets[sig.Hash()] {
		if a.signature.Equal(sig) {
			return a, true
		}
	}
	return nil, false
}

// FindSpan is Find's allocation-free counterpart, used to probe the
// graph with a transient SpanBitSet before committing to allocate a
// heap BitSet for a brand new archetype.
func (g *archetypeGraph) FindSpan(sig *SpanBitSet) (*Archetype, bool) {
	hash := sig.Hash()
	for _, a := range g.buckets[hash] {
		if spanEqualsBitSet(sig, a.signature) {
			return a, true
		}
	}
	return nil, false
}

func spanEqualsBitSet(span *SpanBitSet, b *BitSet) bool {
	var n uint
	for w, word := range span.words {
		for bit := 0; bit < 64; bit++ {
			if word&(1<<uint(bit)) == 0 {
				continue
			}
			if !b.Test(ComponentID(w*64 + bit)) {
				return false
			}
			n++
		}
	}
	return n == b.bits.Count()
}

// Insert registers a newly created archetype under its signature's
// hash bucket and bumps the graph generation, invalidating every
// Query's cached archetype list (§4.7).
func (g *archetypeGraph) Insert(a *Archetype) {
	hash := a.signature.Hash()
	g.buckets[hash] = append(g.buckets[hash], a)
	g.edges[a] = newEdge()
	g.generation++
}

// Generation returns the current graph generation, bumped on every
// Insert, Remove and Reset.
func (g *archetypeGraph) Generation() uint64 {
	return g.generation
}

// EdgeAdd returns the archetype reached from a by adding id, if cached.
func (g *archetypeGraph) EdgeAdd(a *Archetype, id ComponentID) (*Archetype, bool) {
	e, ok := g.edges[a]
	if !ok {
		return nil, false
	}
	dst, ok := e.add[id]
	return dst, ok
}

// EdgeRemove returns the archetype reached from a by removing id, if cached.
func (g *archetypeGraph) EdgeRemove(a *Archetype, id ComponentID) (*Archetype, bool) {
	e, ok := g.edges[a]
	if !ok {
		return nil, false
	}
	dst, ok := e.remove[id]
	return dst, ok
}

// CacheEdgeAdd records that adding id to a reaches dst.
func (g *archetypeGraph) CacheEdgeAdd(a *Archetype, id ComponentID, dst *Archetype) {
	g.edges[a].add[id] = dst
}

// CacheEdgeRemove records that removing id from a reaches dst.
func (g *archetypeGraph) CacheEdgeRemove(a *Archetype, id ComponentID, dst *Archetype) {
	g.edges[a].remove[id] = dst
}

// Remove drops a from the graph: its bucket entry, its own edge cache,
// and any sibling edge pointing at it (so a destroyed archetype can
// never be handed back out of a stale edge, preserving P4). Bumps the
// generation like Insert, invalidating every Query's cached list.
func (g *archetypeGraph) Remove(a *Archetype) {
	hash := a.signature.Hash()
	bucket := g.buckets[hash]
	for i, b := range bucket {
		if b == a {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.buckets, hash)
	} else {
		g.buckets[hash] = bucket
	}

	delete(g.edges, a)
	for _, e := range g.edges {
		for id, dst := range e.add {
			if dst == a {
				delete(e.add, id)
			}
		}
		for id, dst := range e.remove {
			if dst == a {
				delete(e.remove, id)
			}
		}
	}
	g.generation++
}

// Reset drops every archetype from the graph, for World.Clear. The
// generation counter keeps climbing rather than resetting to zero, so
// a Query cached against the pre-Reset graph can never coincide with a
// freshly-reset generation and skip the rescan it actually needs (P7).
func (g *archetypeGraph) Reset() {
	g.buckets = make(map[uint64][]*Archetype)
	g.edges = make(map[*Archetype]*edge)
	g.generation++
}

// All returns every archetype in the graph. The returned slice is a
// fresh copy; callers may not mutate graph state through it.
func (g *archetypeGraph) All() []*Archetype {
	out := make([]*Archetype, 0, len(g.edges))
	for a := range g.edges {
		out = append(out, a)
	}
	return out
}

// Count returns the number of distinct archetypes in the graph.
func (g *archetypeGraph) Count() int {
	return len(g.edges)
}
