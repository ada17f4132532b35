package loom

import "iter"

// Cursor provides stateful iteration over the entities matched by a
// Query, walking archetype-by-archetype and chunk-by-chunk so that
// consumers touch dense, column-major memory in order (§4.7).
type Cursor struct {
	query *Query

	archetypes  []*Archetype
	archIndex   int
	chunkIndex  int
	chunk       *Chunk
	row         int
	initialized bool
}

// NewCursor returns a Cursor over q's match set, read on the first
// Next call (and again after Reset). The cursor reads from q's World;
// w is not used.
func NewCursor(w *World, q *Query) *Cursor {
	return &Cursor{query: q}
}

func (c *Cursor) init() {
	c.archetypes = c.query.Archetypes()
	c.archIndex = 0
	c.chunkIndex = -1
	c.row = -1
	c.initialized = true
}

// Next advances the cursor to the next matched entity, returning false
// once iteration is exhausted. Callers must check Next before calling
// Entity, Chunk, or Row.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.init()
	}

	for {
		if c.chunk != nil && c.row+1 < c.chunk.Count() {
			c.row++
			return true
		}

		c.chunkIndex++
		for c.archIndex < len(c.archetypes) && c.chunkIndex >= c.archetypes[c.archIndex].ChunkCount() {
			c.archIndex++
			c.chunkIndex = 0
		}
		if c.archIndex >= len(c.archetypes) {
			c.chunk = nil
			return false
		}
		c.chunk = c.archetypes[c.archIndex].ChunkAt(c.chunkIndex)
		c.row = -1
	}
}

// Entity returns the entity at the cursor's current position.
func (c *Cursor) Entity() Entity {
	return Entity{ID: c.chunk.EntityAt(c.row), World: c.query.world.id}
}

// Chunk returns the chunk the cursor is currently positioned in,
// letting callers batch-process whole columns instead of one row at a
// time.
func (c *Cursor) Chunk() *Chunk { return c.chunk }

// Row returns the cursor's row within the current chunk.
func (c *Cursor) Row() int { return c.row }

// Reset rewinds the cursor so the next Next call starts iteration over.
func (c *Cursor) Reset() {
	c.initialized = false
	c.chunk = nil
}

// Entities returns a range-over-func iterator over every entity q
// matches, for callers that prefer `for e := range q.Entities()`.
func (q *Query) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		cur := NewCursor(q.world, q)
		for cur.Next() {
			if !yield(cur.Entity()) {
				return
			}
		}
	}
}

// Chunks returns a range-over-func iterator over every chunk q
// matches, for callers that want to operate on whole columns.
func (q *Query) Chunks() iter.Seq[*Chunk] {
	return func(yield func(*Chunk) bool) {
		for _, a := range q.Archetypes() {
			for i := 0; i < a.ChunkCount(); i++ {
				c := a.ChunkAt(i)
				if c.Count() == 0 {
					continue
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}
