package loom

import "fmt"

// Operation is one deferred structural change, recorded by a caller
// while iterating a query (where issuing a structural change directly
// would invalidate the very Cursor doing the iterating) and applied
// later via World.Playback (§6).
//
// Loom does not provide a command buffer that auto-defers calls made
// during iteration — that policy belongs to a layer above this
// package. Operation only standardizes what such a layer plays back.
type Operation interface {
	Apply(w *World) error
}

// lockedApplier is implemented by every Operation this package
// defines, letting Playback run a whole batch under a single w.mu.Lock
// instead of the per-operation lock/unlock pair Apply uses standalone
// (§6 "single structural-change window"). A foreign Operation that
// only implements Apply is rejected by Playback rather than risked
// deadlocking on a re-entrant lock.
type lockedApplier interface {
	applyLocked(w *World) error
}

// CreateOperation creates one entity with the given components.
type CreateOperation struct {
	Components []ComponentID
}

func (op CreateOperation) applyLocked(w *World) error {
	w.createLocked(op.Components...)
	return nil
}

func (op CreateOperation) Apply(w *World) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return op.applyLocked(w)
}

// DestroyOperation destroys an entity, guarded by the EntityRef's
// version so a stale reference recorded before an id was recycled
// silently does nothing instead of destroying an unrelated entity.
type DestroyOperation struct {
	Entity EntityRef
}

func (op DestroyOperation) applyLocked(w *World) error {
	if !op.Entity.IsAlive(w) {
		return nil
	}
	return w.destroyLocked(op.Entity.Entity)
}

func (op DestroyOperation) Apply(w *World) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return op.applyLocked(w)
}

// AddComponentOperation adds a component to an entity, guarded the
// same way as DestroyOperation.
type AddComponentOperation struct {
	Entity    EntityRef
	Component ComponentID
}

func (op AddComponentOperation) applyLocked(w *World) error {
	if !op.Entity.IsAlive(w) {
		return nil
	}
	return w.addComponentLocked(op.Entity.Entity, op.Component)
}

func (op AddComponentOperation) Apply(w *World) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return op.applyLocked(w)
}

// RemoveComponentOperation removes a component from an entity, guarded
// the same way as DestroyOperation.
type RemoveComponentOperation struct {
	Entity    EntityRef
	Component ComponentID
}

func (op RemoveComponentOperation) applyLocked(w *World) error {
	if !op.Entity.IsAlive(w) {
		return nil
	}
	return w.removeComponentLocked(op.Entity.Entity, op.Component)
}

func (op RemoveComponentOperation) Apply(w *World) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return op.applyLocked(w)
}

// Playback applies ops to w in order, stopping at the first error,
// under a single w.mu.Lock held for the whole batch — a concurrent
// read-only Query can never observe a partially-applied batch (§6).
// Every Operation this package defines supports this; an Operation
// from outside the package that only implements Apply is rejected
// rather than invited to take w.mu a second time from inside the loop.
func (w *World) Playback(ops []Operation) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, op := range ops {
		la, ok := op.(lockedApplier)
		if !ok {
			return AddTrace(fmt.Errorf("loom: %T does not support batched playback", op))
		}
		if err := la.applyLocked(w); err != nil {
			return err
		}
	}
	return nil
}
