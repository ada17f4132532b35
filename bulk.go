package loom

// Destroy removes every entity currently matched by q in one
// structural-change window, archetype at a time instead of the
// per-entity Destroy loop a naive caller would otherwise write (§4.7).
// Since Query membership is exact-signature, matching an archetype at
// all means every one of its rows qualifies, so there is nothing to
// filter row by row.
func (q *Query) Destroy() error {
	w := q.world
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range q.archetypesLocked() {
		if a.Count() == 0 {
			continue
		}
		a.EachEntity(func(id uint32) bool {
			w.dir.release(id)
			w.events.OnEntityDestroyed(Entity{ID: id, World: w.id})
			return true
		})
		w.size -= a.Count()
		a.clearAll()
	}
	return nil
}

// BulkAddComponent adds component T, zero-valued, to every entity
// currently matched by q, moving each matching archetype's entities to
// the archetype reached by adding T in a single archetype-at-a-time
// pass per archetype instead of one World.AddComponent call per entity
// (§4.7, §4.8, S5).
func BulkAddComponent[T any](q *Query) error {
	id := RegisterComponent[T](q.world)
	return bulkTransition(q, id, true)
}

// BulkRemoveComponent removes component T from every entity currently
// matched by q, moving each matching archetype's entities to the
// archetype reached by removing T.
func BulkRemoveComponent[T any](q *Query) error {
	id, ok := componentIDOf[T](q.world.registry)
	if !ok {
		return nil
	}
	return bulkTransition(q, id, false)
}

// bulkTransition is the archetype-at-a-time move shared by
// BulkAddComponent and BulkRemoveComponent (§4.8): for every matching
// archetype that actually needs the change, resolve the destination
// archetype once via the same edge cache AddComponent/RemoveComponent
// use, move every row across with BulkMoveTo, then fix up the
// directory for the whole batch at once.
func bulkTransition(q *Query, id ComponentID, adding bool) error {
	w := q.world
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, src := range q.archetypesLocked() {
		if src.Count() == 0 {
			continue
		}
		if src.Has(id) == adding {
			continue
		}

		dst := w.resolveArchetypeEdge(src, id, adding)
		e := Entity{World: w.id}
		for _, m := range src.BulkMoveTo(dst) {
			w.dir.move(m.id, dst, m.chunkIndex, m.row)
			e.ID = m.id
			if adding {
				w.events.OnComponentAdded(e, id)
			} else {
				w.events.OnComponentRemoved(e, id)
			}
		}
	}
	return nil
}

// BulkSet overwrites component T with value for every entity currently
// matched by q. Unlike BulkAddComponent/BulkRemoveComponent this never
// moves an entity between archetypes — it is a plain column write — so
// it only needs the read side of w.mu, the same latch Set uses, rather
// than excluding every other reader for the whole batch.
func BulkSet[T any](q *Query, value T) error {
	w := q.world
	id, ok := componentIDOf[T](w.registry)
	if !ok {
		return AddTrace(ErrComponentNotRegistered)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	e := Entity{World: w.id}
	for _, a := range q.archetypesLocked() {
		if !a.Has(id) {
			continue
		}
		for ci := 0; ci < a.ChunkCount(); ci++ {
			c := a.ChunkAt(ci)
			for row := 0; row < c.Count(); row++ {
				*chunkGet[T](c, id, row) = value
				e.ID = c.EntityAt(row)
				w.events.OnComponentSet(e, id)
			}
		}
	}
	return nil
}
