package loom

// Archetype is the set of entities sharing an exact component
// signature. It owns a list of fixed-capacity chunks; rows within each
// chunk are packed. Push appends to the tail chunk (starting a new one
// when the tail is full) and Remove backfills from the archetype's last
// live row, but chunks emptied by Remove stay allocated until
// TrimExcess, so a chunk before the last is not necessarily full (§4.4).
type Archetype struct {
	id         uint32
	signature  *BitSet
	components []ComponentID
	registry   *ComponentRegistry
	perChunk   int
	chunks     []*Chunk
	count      int
}

func newArchetype(id uint32, signature *BitSet, registry *ComponentRegistry, perChunk int) *Archetype {
	return &Archetype{
		id:         id,
		signature:  signature,
		components: signature.Components(),
		registry:   registry,
		perChunk:   perChunk,
	}
}

// ID returns the archetype's identity within its World.
func (a *Archetype) ID() uint32 { return a.id }

// Signature returns the archetype's component set. Callers must treat
// it as read-only.
func (a *Archetype) Signature() *BitSet { return a.signature }

// Components returns the archetype's component ids in canonical order.
func (a *Archetype) Components() []ComponentID { return a.components }

// Has reports whether the archetype carries id.
func (a *Archetype) Has(id ComponentID) bool { return a.signature.Test(id) }

// Count returns the number of live entities across all chunks.
func (a *Archetype) Count() int { return a.count }

// ChunkCount returns the number of chunks, full or partial.
func (a *Archetype) ChunkCount() int { return len(a.chunks) }

// ChunkAt returns the chunk at index i.
func (a *Archetype) ChunkAt(i int) *Chunk { return a.chunks[i] }

// Capacity returns the total row capacity across all chunks.
func (a *Archetype) Capacity() int { return len(a.chunks) * a.perChunk }

// lastChunk returns the archetype's tail chunk, allocating a fresh one
// if there is none or the current tail is full.
func (a *Archetype) lastChunk() *Chunk {
	if len(a.chunks) == 0 {
		a.chunks = append(a.chunks, newChunk(a.components, a.registry, a.perChunk))
		return a.chunks[len(a.chunks)-1]
	}
	tail := a.chunks[len(a.chunks)-1]
	if tail.Full() {
		a.chunks = append(a.chunks, newChunk(a.components, a.registry, a.perChunk))
		return a.chunks[len(a.chunks)-1]
	}
	return tail
}

// Push appends id as a new row in this archetype, growing a chunk if
// needed. It returns the chunk index and row the entity now occupies.
func (a *Archetype) Push(id uint32) (chunkIndex, row int) {
	c := a.lastChunk()
	row, ok := c.Push(id)
	if !ok {
		// lastChunk guarantees room; a false here means perChunk <= 0.
		panic(AddTrace(ErrOutOfCapacity))
	}
	a.count++
	return len(a.chunks) - 1, row
}

// Remove deletes the row at (chunkIndex, row) via swap-remove: the
// archetype's true last live row — which may live in a chunk other
// than the one being removed from, since a chunk after chunkIndex can
// itself have gone empty from an earlier Remove — is moved into the
// vacated slot. Chunks are never released here; that is trim_excess's
// job (§3 "chunks allocated on demand ... released by trim_excess"),
// not an incidental side effect of every Remove.
//
// It returns the id of whatever entity ended up at (chunkIndex, row)
// after the move, and whether a move actually happened — the caller
// must update that entity's directory slot when moved is true.
func (a *Archetype) Remove(chunkIndex, row int) (movedID uint32, moved bool) {
	target := a.chunks[chunkIndex]

	lastChunkIndex, lastRow := a.lastLiveRow(chunkIndex)
	lastChunk := a.chunks[lastChunkIndex]

	if lastChunkIndex == chunkIndex {
		// target.SwapRemove already handles row == last row (no-op
		// backfill) and row < last row (copy last into row).
		movedID, moved = target.SwapRemove(row)
		a.count--
		return movedID, moved
	}

	movedID = lastChunk.EntityAt(lastRow)
	target.ids[row] = movedID
	for i := range target.columns {
		srcIdx, ok := lastChunk.colIndex[target.columns[i].id]
		if !ok {
			continue
		}
		copyBetween(&target.columns[i], row, &lastChunk.columns[srcIdx], lastRow)
	}
	lastChunk.count--
	a.count--
	return movedID, true
}

// lastLiveRow scans backward from the archetype's tail chunk to find
// the chunk and row actually holding the archetype's last live entity,
// never looking past from (the chunk being removed from). A chunk
// after from can legitimately be empty already — an earlier Remove
// shrank it without releasing it — but from itself still holds the
// row about to be deleted, so it is guaranteed non-empty going in.
func (a *Archetype) lastLiveRow(from int) (chunkIndex, row int) {
	for i := len(a.chunks) - 1; i > from; i-- {
		if n := a.chunks[i].Count(); n > 0 {
			return i, n - 1
		}
	}
	return from, a.chunks[from].Count() - 1
}

// TrimExcess drops every trailing chunk that has gone completely
// empty, but always keeps at least one chunk allocated. Called from
// World.TrimExcess, never automatically from Remove (§3, §4.8).
func (a *Archetype) TrimExcess() {
	for len(a.chunks) > 1 {
		last := a.chunks[len(a.chunks)-1]
		if last.Count() > 0 {
			return
		}
		a.chunks = a.chunks[:len(a.chunks)-1]
	}
}

// Reserve grows the chunk list so chunks*perChunk >= n (§4.4). It
// never shrinks; pass a smaller n than current capacity to no-op.
func (a *Archetype) Reserve(n int) {
	if a.perChunk <= 0 {
		return
	}
	for a.Capacity() < n {
		a.chunks = append(a.chunks, newChunk(a.components, a.registry, a.perChunk))
	}
}

// clearAll empties every row across every chunk without releasing the
// chunks themselves, leaving the archetype at zero entities until a
// later TrimExcess reclaims the now-empty tail (§4.8 bulk destroy).
func (a *Archetype) clearAll() {
	for _, c := range a.chunks {
		c.Clear()
	}
	a.count = 0
}

// movedEntityRow records where an entity landed after a bulk move, so
// the caller can fix up the directory for a whole archetype at once
// instead of looking each moved entity up individually.
type movedEntityRow struct {
	id         uint32
	chunkIndex int
	row        int
}

// BulkMoveTo relocates every live row from a into dst in one pass,
// copying each component the two signatures share and leaving
// components unique to dst at their zero value, then clears a. It is
// the archetype-at-a-time counterpart to World.transition's per-entity
// move, used by the bulk query operations (§4.7, §4.8) to avoid a
// directory lookup per entity during the copy itself.
func (a *Archetype) BulkMoveTo(dst *Archetype) []movedEntityRow {
	if a.count == 0 {
		return nil
	}
	dst.Reserve(dst.count + a.count)

	moved := make([]movedEntityRow, 0, a.count)
	for _, c := range a.chunks {
		for row := 0; row < c.Count(); row++ {
			id := c.EntityAt(row)
			dstChunkIndex, dstRow := dst.Push(id)
			dstChunk := dst.ChunkAt(dstChunkIndex)
			for _, cid := range dst.components {
				srcIdx, ok := c.colIndex[cid]
				if !ok {
					continue
				}
				dstPtr, dstSize, _ := dstChunk.Column(cid)
				if dstSize == 0 {
					continue
				}
				copyComponentBytes(dstPtr, dstRow, c.columns[srcIdx].ptr, row, dstSize)
			}
			moved = append(moved, movedEntityRow{id: id, chunkIndex: dstChunkIndex, row: dstRow})
		}
	}
	a.clearAll()
	return moved
}

// EachEntity calls fn for every live entity id in the archetype, in
// (chunk, row) order. fn returning false stops iteration early.
func (a *Archetype) EachEntity(fn func(id uint32) bool) {
	for _, c := range a.chunks {
		for row := 0; row < c.Count(); row++ {
			if !fn(c.EntityAt(row)) {
				return
			}
		}
	}
}
