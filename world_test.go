package loom

import "testing"

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

type Tag struct{}

func TestWorldCreate(t *testing.T) {
	tests := []struct {
		name       string
		components func(w *World) []ComponentID
		wantCount  int
	}{
		{
			name:       "no components",
			components: func(w *World) []ComponentID { return nil },
			wantCount:  1,
		},
		{
			name: "single component",
			components: func(w *World) []ComponentID {
				return []ComponentID{RegisterComponent[Position](w)}
			},
			wantCount: 1,
		},
		{
			name: "multiple components",
			components: func(w *World) []ComponentID {
				return []ComponentID{
					RegisterComponent[Position](w),
					RegisterComponent[Velocity](w),
				}
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld(1)
			ids := tt.components(w)
			e := w.Create(ids...)
			if !w.IsAlive(e) {
				t.Fatalf("entity %v not alive after Create", e)
			}
			if w.Size() != tt.wantCount {
				t.Fatalf("Size() = %d, want %d", w.Size(), tt.wantCount)
			}
		})
	}
}

func TestWorldDestroyRecyclesID(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)

	e1 := w.Create(position)
	ref := w.Ref(e1)

	if err := w.Destroy(e1); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if w.IsAlive(e1) {
		t.Fatalf("entity still alive after Destroy")
	}
	if ref.IsAlive(w) {
		t.Fatalf("stale ref reports alive after Destroy")
	}

	e2 := w.Create(position)
	if e2.ID != e1.ID {
		t.Fatalf("expected id reuse, got %d then %d", e1.ID, e2.ID)
	}
	if w.Ref(e2).Version == ref.Version {
		t.Fatalf("recycled entity kept the old version")
	}
}

func TestWorldDestroySwapRemoveKeepsSurvivorsReachable(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)

	var entities []Entity
	for i := 0; i < 50; i++ {
		e := w.Create(position)
		Set(w, e, Position{X: float64(i)})
		entities = append(entities, e)
	}

	// Remove from the middle, forcing a swap from the tail.
	if err := w.Destroy(entities[10]); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	for i, e := range entities {
		if i == 10 {
			continue
		}
		pos, ok := Get[Position](w, e)
		if !ok {
			t.Fatalf("entity %d lost its component after unrelated destroy", i)
		}
		if pos.X != float64(i) {
			t.Fatalf("entity %d has corrupted data after swap-remove: got %v want %v", i, pos.X, i)
		}
	}
	if w.Size() != 49 {
		t.Fatalf("Size() = %d, want 49", w.Size())
	}
}

func TestWorldAddRemoveComponent(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	velocity := RegisterComponent[Velocity](w)

	e := w.Create(position)
	Set(w, e, Position{X: 1, Y: 2})

	if err := w.AddComponent(e, velocity); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	Set(w, e, Velocity{X: 3, Y: 4})

	pos, ok := Get[Position](w, e)
	if !ok || pos.X != 1 || pos.Y != 2 {
		t.Fatalf("Position lost across AddComponent transition: %+v ok=%v", pos, ok)
	}
	vel, ok := Get[Velocity](w, e)
	if !ok || vel.X != 3 || vel.Y != 4 {
		t.Fatalf("Velocity not set after AddComponent: %+v ok=%v", vel, ok)
	}

	if err := w.AddComponent(e, velocity); err == nil {
		t.Fatalf("expected ComponentExistsError re-adding velocity")
	}

	if err := w.RemoveComponent(e, velocity); err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if HasComponent[Velocity](w, e) {
		t.Fatalf("velocity still present after RemoveComponent")
	}
	pos, ok = Get[Position](w, e)
	if !ok || pos.X != 1 {
		t.Fatalf("Position lost across RemoveComponent transition: %+v ok=%v", pos, ok)
	}

	if err := w.RemoveComponent(e, velocity); err == nil {
		t.Fatalf("expected ComponentNotFoundError removing velocity twice")
	}
}

func TestWorldDestroyDeadEntity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	e := w.Create(position)
	if err := w.Destroy(e); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := w.Destroy(e); err == nil {
		t.Fatalf("expected error destroying an already-dead entity")
	}
}

func TestWorldStatsAndCapacity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)

	for i := 0; i < 10; i++ {
		w.Create(position)
	}

	stats := w.Stats()
	if stats.EntityCount != 10 {
		t.Fatalf("EntityCount = %d, want 10", stats.EntityCount)
	}
	if stats.ArchetypeCount != 1 {
		t.Fatalf("ArchetypeCount = %d, want 1", stats.ArchetypeCount)
	}
	if w.Capacity() < 10 {
		t.Fatalf("Capacity() = %d, want >= 10", w.Capacity())
	}
}

func TestWorldTrimExcessReclaimsEmptyArchetypesAndChunks(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)

	var entities []Entity
	for i := 0; i < 10000; i++ {
		entities = append(entities, w.Create(position))
	}
	for _, e := range entities {
		if err := w.Destroy(e); err != nil {
			t.Fatalf("Destroy: %v", err)
		}
	}

	before := w.Stats()
	if before.ChunkCount == 0 {
		t.Fatalf("expected chunks still allocated before TrimExcess")
	}

	w.TrimExcess()

	after := w.Stats()
	if after.ArchetypeCount != 0 {
		t.Fatalf("ArchetypeCount after TrimExcess = %d, want 0 (empty archetype should be dropped)", after.ArchetypeCount)
	}

	e := w.Create(position)
	if !w.IsAlive(e) {
		t.Fatalf("Create after TrimExcess did not produce a live entity")
	}
}

func TestWorldTrimExcessIsIdempotent(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	for i := 0; i < 20; i++ {
		w.Create(position)
	}
	e := w.Create(position)
	if err := w.Destroy(e); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	w.TrimExcess()
	first := w.Stats()
	w.TrimExcess()
	second := w.Stats()

	if first.ChunkCount != second.ChunkCount || first.ArchetypeCount != second.ArchetypeCount {
		t.Fatalf("TrimExcess not idempotent: %+v then %+v", first, second)
	}
}

func TestWorldClearResetsToEmpty(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	velocity := RegisterComponent[Velocity](w)

	for i := 0; i < 100; i++ {
		w.Create(position)
	}
	for i := 0; i < 50; i++ {
		w.Create(position, velocity)
	}
	_ = w.Query(QueryDescription{All: []ComponentID{position}})

	w.Clear()

	if w.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", w.Size())
	}
	if len(w.Archetypes()) != 0 {
		t.Fatalf("Archetypes() after Clear = %d, want 0", len(w.Archetypes()))
	}

	// The component registry must survive Clear: the same id still
	// refers to the same type, so a fresh Create with it works.
	e := w.Create(position)
	if !w.IsAlive(e) {
		t.Fatalf("Create after Clear did not produce a live entity")
	}
	if w.Size() != 1 {
		t.Fatalf("Size() after Clear+Create = %d, want 1", w.Size())
	}
}

func TestWorldClearIsIdempotentOnEmptyWorld(t *testing.T) {
	w := NewWorld(1)
	w.Clear()
	w.Clear()
	if w.Size() != 0 || len(w.Archetypes()) != 0 {
		t.Fatalf("double Clear on empty World left residue: size=%d archetypes=%d", w.Size(), len(w.Archetypes()))
	}
}

func TestWorldReserveGrowsExistingArchetypeCapacity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	w.Create(position)

	before := w.Capacity()
	w.Reserve([]ComponentID{position}, 10000)
	if w.Capacity() <= before {
		t.Fatalf("Capacity() after Reserve = %d, want > %d", w.Capacity(), before)
	}

	for _, a := range w.Archetypes() {
		if a.Capacity() < 10000 {
			t.Fatalf("archetype Capacity() = %d, want >= 10000", a.Capacity())
		}
	}
}

func TestWorldReserveOnMissingArchetypeIsNoop(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	before := w.Capacity()
	w.Reserve([]ComponentID{position}, 1000)
	if w.Capacity() != before {
		t.Fatalf("Capacity() changed = %d, want unchanged %d (no archetype exists yet)", w.Capacity(), before)
	}
}
