package loom

// slot is one entity id's directory entry: where its row currently
// lives, and enough liveness metadata to validate stale EntityRefs
// without touching the archetype itself (§4.5).
type slot struct {
	archetype *Archetype
	chunk     int
	row       int
	version   uint32
	alive     bool
}

// directory maps entity ids to their current (archetype, chunk, row)
// location. It owns id recycling: destroyed ids return to a free list
// and are reissued with a bumped version (I5) before any fresh id is
// minted, so the live id space stays dense.
type directory struct {
	slots []slot
	free  []RecycledEntity
}

func newDirectory(capacityHint int) *directory {
	return &directory{
		slots: make([]slot, 0, capacityHint),
	}
}

// EnsureCapacity grows the backing slice so ids up to n-1 are valid
// indices without triggering further growth (Create calls it for every
// id it allocates).
func (d *directory) EnsureCapacity(n int) {
	if n <= len(d.slots) {
		return
	}
	grown := make([]slot, n)
	copy(grown, d.slots)
	d.slots = grown
}

// allocate returns an id for a new entity: a recycled id with its
// version bumped, or a freshly minted one if none are free.
func (d *directory) allocate() (id uint32, version uint32) {
	if n := len(d.free); n > 0 {
		r := d.free[n-1]
		d.free = d.free[:n-1]
		d.slots[r.ID].version = r.NextVersion
		return r.ID, r.NextVersion
	}
	id = uint32(len(d.slots))
	d.slots = append(d.slots, slot{})
	return id, 0
}

// bind records where id's row now lives and marks it alive.
func (d *directory) bind(id uint32, archetype *Archetype, chunk, row int) {
	s := &d.slots[id]
	s.archetype = archetype
	s.chunk = chunk
	s.row = row
	s.alive = true
}

// move updates only the location fields, used when a structural change
// relocates an already-live entity's row.
func (d *directory) move(id uint32, archetype *Archetype, chunk, row int) {
	s := &d.slots[id]
	s.archetype = archetype
	s.chunk = chunk
	s.row = row
}

// setRow updates only the row index, for a swap-remove backfill that
// keeps a surviving entity within the same chunk.
func (d *directory) setRow(id uint32, row int) {
	d.slots[id].row = row
}

// release marks id dead and returns it to the free list with its next
// version (I5); the slot's own version changes when allocate reissues
// the id.
func (d *directory) release(id uint32) {
	s := &d.slots[id]
	s.alive = false
	s.archetype = nil
	next := s.version + 1
	d.free = append(d.free, RecycledEntity{ID: id, NextVersion: next})
}

// Get returns id's current location. ok is false for an out-of-range
// or dead id.
func (d *directory) Get(id uint32) (archetype *Archetype, chunk, row int, ok bool) {
	if int(id) >= len(d.slots) {
		return nil, 0, 0, false
	}
	s := &d.slots[id]
	if !s.alive {
		return nil, 0, 0, false
	}
	return s.archetype, s.chunk, s.row, true
}

// IsAlive reports whether id currently refers to a live entity.
func (d *directory) IsAlive(id uint32) bool {
	if int(id) >= len(d.slots) {
		return false
	}
	return d.slots[id].alive
}

// TryGetVersion returns id's current version regardless of liveness,
// used by EntityRef.IsAlive to detect recycling.
func (d *directory) TryGetVersion(id uint32) (uint32, bool) {
	if int(id) >= len(d.slots) {
		return 0, false
	}
	return d.slots[id].version, true
}

// Version returns id's current version (alias of TryGetVersion for
// callers that already know id is in range).
func (d *directory) Version(id uint32) uint32 {
	return d.slots[id].version
}

// Len returns the number of slots ever allocated, alive or not — the
// directory's high-water mark, not the live entity count.
func (d *directory) Len() int {
	return len(d.slots)
}

// reset drops every slot and recycled id, for World.Clear. A recycled
// id left dangling in the free list after slots is truncated would let
// a later allocate hand out an id with no backing slot, so the two
// must always be cleared together. TrimExcess never calls this: ids
// here are assigned from one monotonic directory shared by every
// archetype, not carved out of each archetype's own row capacity, so
// releasing an archetype's trailing chunks never strands a recycled id
// out of bounds the way a capacity-indexed directory would (DESIGN.md).
func (d *directory) reset() {
	d.slots = d.slots[:0]
	d.free = d.free[:0]
}
