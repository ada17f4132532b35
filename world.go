package loom

import "sync"

// World is a single, self-contained entity store: its own component
// registry, archetype graph, entity directory, and query cache. An id
// registered on one World is meaningless on another (§5 "exclusive
// ownership").
//
// Structural changes — Create, Destroy, AddComponent, RemoveComponent —
// must not run concurrently with each other or with an in-flight
// Cursor walk over the same World; that discipline is the caller's to
// keep (§5). mu provides the one latch the core itself guarantees: the
// archetype graph and query cache stay internally consistent no matter
// how many Query/Archetypes/Size/Capacity/IsAlive/Ref calls (mu's read
// side) race a structural change (mu's write side). A Query object
// carries a second, finer latch (Query.refreshMu) since World.Query
// hands the same cached *Query out to every caller with an equal
// description, and two of them can be rescanning it at once.
//
// Every public structural method is a thin wrapper that takes mu and
// delegates to an unexported *Locked twin. Playback and the bulk query
// operations call the *Locked twins directly under a single mu.Lock of
// their own, so a whole batch applies as one structural change instead
// of one lock/unlock pair per operation (§6).
type World struct {
	id       uint16
	registry *ComponentRegistry
	dir      *directory
	graph    *archetypeGraph
	cache    *queryCache
	events   EventSink

	mu   sync.RWMutex
	size int
}

// defaultQueryCacheCapacity bounds how many distinct QueryDescriptions
// a World will memoize before Query starts recompiling on every call.
const defaultQueryCacheCapacity = 256

// NewWorld returns an empty World identified by id. id distinguishes
// Entities from different Worlds that might otherwise collide on raw
// index (§4.1).
func NewWorld(id uint16) *World {
	w := &World{
		id:       id,
		registry: newComponentRegistry(),
		dir:      newDirectory(0),
		graph:    newArchetypeGraph(),
		cache:    newQueryCache(defaultQueryCacheCapacity),
		events:   Config.events,
	}
	if w.events == nil {
		w.events = NopEventSink{}
	}
	return w
}

// SetEvents installs sink as this World's EventSink, replacing
// whichever one it started with.
func (w *World) SetEvents(sink EventSink) {
	if sink == nil {
		sink = NopEventSink{}
	}
	w.events = sink
}

func (w *World) perChunkCapacity(components []ComponentID) int {
	rowSize := uintptr(4) // entity id
	for _, id := range components {
		rowSize += w.registry.SizeOf(id)
	}
	n := int(uintptr(Config.chunkByteBudget) / rowSize)
	if n < 1 {
		n = 1
	}
	return n
}

// getOrCreateArchetype returns the archetype with the given signature,
// creating it (and registering it in the graph) if none exists yet.
func (w *World) getOrCreateArchetype(sig *BitSet) *Archetype {
	if a, ok := w.graph.Find(sig); ok {
		return a
	}
	components := sig.Components()
	var id uint32
	for _, other := range w.graph.All() {
		if other.id >= id {
			id = other.id + 1
		}
	}
	a := newArchetype(id, sig, w.registry, w.perChunkCapacity(components))
	w.graph.Insert(a)
	w.events.OnArchetypeCreated(a)
	return a
}

// Create adds a new entity with exactly the given components, each
// zero-valued, and returns its handle.
func (w *World) Create(components ...ComponentID) Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.createLocked(components...)
}

// createLocked is Create's body, callable by Playback and the bulk
// operations while already holding w.mu.
func (w *World) createLocked(components ...ComponentID) Entity {
	sig := NewBitSet()
	for _, id := range components {
		sig.Set(id)
	}
	arch := w.getOrCreateArchetype(sig)

	entID, _ := w.dir.allocate()
	w.dir.EnsureCapacity(int(entID) + 1)
	chunkIndex, row := arch.Push(entID)
	w.dir.bind(entID, arch, chunkIndex, row)
	w.size++

	e := Entity{ID: entID, World: w.id}
	w.events.OnEntityCreated(e)
	return e
}

// Destroy removes e from its archetype via swap-remove and recycles
// its id. Destroying an already-dead or foreign entity is a no-op
// error, not a panic — callers that lost track of liveness (e.g. after
// a deferred command buffer runs) are expected to check first.
func (w *World) Destroy(e Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyLocked(e)
}

// destroyLocked is Destroy's body, callable by Playback while already
// holding w.mu.
func (w *World) destroyLocked(e Entity) error {
	if e.World != w.id {
		return EntityNotAliveError{Entity: e}
	}
	arch, chunkIndex, row, ok := w.dir.Get(e.ID)
	if !ok {
		return EntityNotAliveError{Entity: e}
	}

	movedID, moved := arch.Remove(chunkIndex, row)
	if moved {
		w.dir.move(movedID, arch, chunkIndex, row)
	}
	w.dir.release(e.ID)
	w.size--

	w.events.OnEntityDestroyed(e)
	return nil
}

// IsAlive reports whether e currently refers to a live entity in w.
func (w *World) IsAlive(e Entity) bool {
	if e.World != w.id {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dir.IsAlive(e.ID)
}

// Ref returns an EntityRef for e tagged with its current directory
// version, suitable for holding across structural changes and
// checking with IsAlive later.
func (w *World) Ref(e Entity) EntityRef {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return EntityRef{Entity: e, Version: w.dir.Version(e.ID)}
}

// locate resolves e to its current row, returning a PreconditionViolation
// wrapped error if e is not alive in w.
func (w *World) locate(e Entity) (*Archetype, int, int, error) {
	if e.World != w.id {
		return nil, 0, 0, AddTrace(EntityNotAliveError{Entity: e})
	}
	arch, chunkIndex, row, ok := w.dir.Get(e.ID)
	if !ok {
		return nil, 0, 0, AddTrace(EntityNotAliveError{Entity: e})
	}
	return arch, chunkIndex, row, nil
}

// transition moves e from its current archetype to dst, copying every
// component dst and the source archetype have in common, and fixing up
// the directory for both e and whichever entity backfilled e's old row.
func (w *World) transition(e Entity, src *Archetype, srcChunkIndex, srcRow int, dst *Archetype) {
	dstChunkIndex, dstRow := dst.Push(e.ID)
	dstChunk := dst.ChunkAt(dstChunkIndex)
	srcChunk := src.ChunkAt(srcChunkIndex)

	for _, id := range dst.Components() {
		if !src.Has(id) {
			continue
		}
		srcPtr, srcSize, _ := srcChunk.Column(id)
		dstPtr, _, _ := dstChunk.Column(id)
		if srcSize == 0 {
			continue
		}
		copyComponentBytes(dstPtr, dstRow, srcPtr, srcRow, srcSize)
	}

	movedID, moved := src.Remove(srcChunkIndex, srcRow)
	if moved {
		w.dir.move(movedID, src, srcChunkIndex, srcRow)
	}
	w.dir.move(e.ID, dst, dstChunkIndex, dstRow)
}

// resolveArchetypeEdge returns the archetype reached from src by
// adding or removing id, consulting (and populating) the edge cache
// first. Shared by the per-entity AddComponent/RemoveComponent path
// and the archetype-at-a-time bulk operations.
func (w *World) resolveArchetypeEdge(src *Archetype, id ComponentID, adding bool) *Archetype {
	var dst *Archetype
	var ok bool
	if adding {
		dst, ok = w.graph.EdgeAdd(src, id)
	} else {
		dst, ok = w.graph.EdgeRemove(src, id)
	}
	if ok {
		return dst
	}

	dst = w.resolveTransition(src, id, adding)
	if adding {
		w.graph.CacheEdgeAdd(src, id, dst)
		w.graph.CacheEdgeRemove(dst, id, src)
	} else {
		w.graph.CacheEdgeRemove(src, id, dst)
		w.graph.CacheEdgeAdd(dst, id, src)
	}
	return dst
}

// AddComponent adds id to e, moving it to the archetype one edge away
// in the graph. It returns ComponentExistsError if e already carries id.
func (w *World) AddComponent(e Entity, id ComponentID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addComponentLocked(e, id)
}

// addComponentLocked is AddComponent's body, callable by Playback and
// the bulk operations while already holding w.mu.
func (w *World) addComponentLocked(e Entity, id ComponentID) error {
	src, chunkIndex, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if src.Has(id) {
		return AddTrace(ComponentExistsError{Entity: e, Component: id})
	}

	dst := w.resolveArchetypeEdge(src, id, true)
	w.transition(e, src, chunkIndex, row, dst)
	w.events.OnComponentAdded(e, id)
	return nil
}

// resolveTransition finds (or creates) the archetype reached from src
// by toggling id on or off, without the edge cache's help — the slow
// path taken only the first time a given (archetype, component) edge
// is walked.
//
// It probes the graph with a SpanBitSet over a scratch word slice first, so the
// common case of "the destination archetype already exists" never
// allocates a heap BitSet; only a genuinely new archetype pays for one.
func (w *World) resolveTransition(src *Archetype, id ComponentID, adding bool) *Archetype {
	maxID := id
	if srcMax := maxComponentID(src.Components()); srcMax > maxID {
		maxID = srcMax
	}
	buf := make([]uint64, RequiredWords(maxID))
	span := NewSpanBitSet(buf)
	for _, c := range src.Components() {
		span.Set(c)
	}
	if adding {
		span.Set(id)
	} else {
		span.Clear(id)
	}

	if dst, ok := w.graph.FindSpan(&span); ok {
		return dst
	}
	return w.getOrCreateArchetype(span.ToBitSet())
}

func maxComponentID(ids []ComponentID) ComponentID {
	var highest ComponentID
	for _, id := range ids {
		if id > highest {
			highest = id
		}
	}
	return highest
}

// RemoveComponent removes id from e, moving it to the archetype one
// edge away in the graph. It returns ComponentNotFoundError if e does
// not carry id.
func (w *World) RemoveComponent(e Entity, id ComponentID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removeComponentLocked(e, id)
}

// removeComponentLocked is RemoveComponent's body, callable by
// Playback and the bulk operations while already holding w.mu.
func (w *World) removeComponentLocked(e Entity, id ComponentID) error {
	src, chunkIndex, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if !src.Has(id) {
		return AddTrace(ComponentNotFoundError{Entity: e, Component: id})
	}

	dst := w.resolveArchetypeEdge(src, id, false)
	w.transition(e, src, chunkIndex, row, dst)
	w.events.OnComponentRemoved(e, id)
	return nil
}

// Query compiles desc into a Query, reusing a cached compilation when
// desc was seen before.
func (w *World) Query(desc QueryDescription) *Query {
	key := desc.key()

	w.mu.RLock()
	if q, ok := w.cache.lookup(key); ok {
		w.mu.RUnlock()
		return q
	}
	w.mu.RUnlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if q, ok := w.cache.lookup(key); ok {
		return q
	}
	q := newQuery(w, desc)
	if err := w.cache.register(key, q); err != nil {
		// Cache is full: the Query still works, it simply won't be
		// memoized for next time.
		return q
	}
	return q
}

// Archetypes returns every archetype currently in the World.
func (w *World) Archetypes() []*Archetype {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.graph.All()
}

// Size returns the number of live entities (I6).
func (w *World) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Capacity returns the total row capacity across every chunk in every
// archetype (I6). It is recomputed on demand rather than tracked
// incrementally (DESIGN.md).
func (w *World) Capacity() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.capacityLocked()
}

func (w *World) capacityLocked() int {
	total := 0
	for _, a := range w.graph.All() {
		total += a.Capacity()
	}
	return total
}

// Reserve grows the archetype whose signature is exactly components so its chunk list
// holds at least n rows without an intervening allocation, per §4.4's
// "grow chunk list so that chunks*N >= n". Archetypes not yet created
// are left alone — there is nothing to pre-size until the first Create
// with that exact signature brings one into existence.
func (w *World) Reserve(components []ComponentID, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sig := NewBitSet()
	for _, id := range components {
		sig.Set(id)
	}
	if a, ok := w.graph.Find(sig); ok {
		a.Reserve(n)
	}
}

// TrimExcess releases every archetype's trailing empty chunks and
// drops any archetype left with zero entities from the graph entirely,
// reclaiming memory that Remove deliberately leaves allocated during
// normal operation (§4.8, S6). Idempotent: calling it twice with no
// structural change between calls does nothing the second time (P7).
func (w *World) TrimExcess() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range w.graph.All() {
		a.TrimExcess()
		if a.Count() == 0 {
			w.graph.Remove(a)
		}
	}
}

// Clear removes every entity and archetype from w, resetting it to the
// state a freshly constructed World would be in — except the component
// registry, which stays put, since ComponentIDs are meant to remain
// stable for the lifetime of a World regardless of what it currently
// holds (§4.8). Calling Clear on an already-empty World is a no-op (P7).
func (w *World) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size == 0 && w.graph.Count() == 0 {
		return
	}
	w.graph.Reset()
	w.dir.reset()
	w.cache.clear()
	w.size = 0
}
