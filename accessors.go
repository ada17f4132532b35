package loom

// Get returns a pointer to e's component of type T, letting callers
// read or mutate it in place. ok is false if e is not alive or does
// not carry a registered T.
func Get[T any](w *World, e Entity) (*T, bool) {
	id, ok := componentIDOf[T](w.registry)
	if !ok {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	arch, chunkIndex, row, ok := w.dir.Get(e.ID)
	if !ok || e.World != w.id || !arch.Has(id) {
		return nil, false
	}
	return chunkGet[T](arch.ChunkAt(chunkIndex), id, row), true
}

// Set overwrites e's component of type T with value and fires
// OnComponentSet. It panics with a ComponentNotFoundError if e does
// not carry T — use AddComponent first to attach it.
func Set[T any](w *World, e Entity, value T) {
	id, _ := componentIDOf[T](w.registry)
	ptr, ok := Get[T](w, e)
	if !ok {
		panic(AddTrace(ComponentNotFoundError{Entity: e, Component: id}))
	}
	*ptr = value
	w.events.OnComponentSet(e, id)
}

// AddComponentValue registers T, adds it to e and then sets it to
// value. It is AddComponent followed by Set: each step takes the
// World's lock separately, and both OnComponentAdded and
// OnComponentSet fire.
func AddComponentValue[T any](w *World, e Entity, value T) error {
	id := RegisterComponent[T](w)
	if err := w.AddComponent(e, id); err != nil {
		return err
	}
	Set(w, e, value)
	return nil
}

// HasComponent reports whether e carries a registered T.
func HasComponent[T any](w *World, e Entity) bool {
	id, ok := componentIDOf[T](w.registry)
	if !ok {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	arch, _, _, ok := w.dir.Get(e.ID)
	return ok && e.World == w.id && arch.Has(id)
}
