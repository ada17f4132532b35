package loom

import "testing"

func TestBulkAddComponentMovesEveryMatchingEntity(t *testing.T) {
	w := NewWorld(1)
	a := RegisterComponent[Position](w)

	var entities []Entity
	for i := 0; i < 1000; i++ {
		e := w.Create(a)
		Set(w, e, Position{X: float64(i)})
		entities = append(entities, e)
	}

	q := w.Query(QueryDescription{All: []ComponentID{a}})
	if err := BulkAddComponent[Velocity](q); err != nil {
		t.Fatalf("BulkAddComponent: %v", err)
	}

	onlyA := w.Query(QueryDescription{Exclusive: []ComponentID{a}})
	if n := onlyA.Count(); n != 0 {
		t.Fatalf("entities remaining in {Position} = %d, want 0", n)
	}
	both := w.Query(QueryDescription{All: []ComponentID{a, RegisterComponent[Velocity](w)}})
	if n := both.Count(); n != 1000 {
		t.Fatalf("entities in {Position,Velocity} = %d, want 1000", n)
	}

	for i, e := range entities {
		pos, ok := Get[Position](w, e)
		if !ok || pos.X != float64(i) {
			t.Fatalf("entity %d lost Position data across bulk add: %+v ok=%v", i, pos, ok)
		}
		if !HasComponent[Velocity](w, e) {
			t.Fatalf("entity %d missing Velocity after BulkAddComponent", i)
		}
	}
}

func TestBulkRemoveComponentMovesEveryMatchingEntity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	velocity := RegisterComponent[Velocity](w)

	for i := 0; i < 50; i++ {
		w.Create(position, velocity)
	}
	for i := 0; i < 10; i++ {
		w.Create(position)
	}

	q := w.Query(QueryDescription{All: []ComponentID{position, velocity}})
	if err := BulkRemoveComponent[Velocity](q); err != nil {
		t.Fatalf("BulkRemoveComponent: %v", err)
	}

	onlyPosition := w.Query(QueryDescription{Exclusive: []ComponentID{position}})
	if n := onlyPosition.Count(); n != 60 {
		t.Fatalf("entities in {Position} = %d, want 60", n)
	}
	withVelocity := w.Query(QueryDescription{All: []ComponentID{velocity}})
	if n := withVelocity.Count(); n != 0 {
		t.Fatalf("entities still carrying Velocity = %d, want 0", n)
	}
}

func TestBulkRemoveComponentUnregisteredTypeIsNoop(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	w.Create(position)

	q := w.Query(QueryDescription{All: []ComponentID{position}})
	if err := BulkRemoveComponent[Health](q); err != nil {
		t.Fatalf("BulkRemoveComponent on never-registered type: %v", err)
	}
	if w.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (no-op expected)", w.Size())
	}
}

func TestBulkSetOverwritesEveryMatchingRow(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)

	var entities []Entity
	for i := 0; i < 25; i++ {
		e := w.Create(position)
		Set(w, e, Position{X: float64(i)})
		entities = append(entities, e)
	}

	q := w.Query(QueryDescription{All: []ComponentID{position}})
	if err := BulkSet(q, Position{X: 7, Y: 7}); err != nil {
		t.Fatalf("BulkSet: %v", err)
	}

	for i, e := range entities {
		pos, ok := Get[Position](w, e)
		if !ok || pos.X != 7 || pos.Y != 7 {
			t.Fatalf("entity %d not overwritten by BulkSet: %+v ok=%v", i, pos, ok)
		}
	}
}

func TestQueryDestroyRemovesEveryMatchingEntity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	velocity := RegisterComponent[Velocity](w)

	for i := 0; i < 30; i++ {
		w.Create(position)
	}
	survivor := w.Create(position, velocity)

	q := w.Query(QueryDescription{Exclusive: []ComponentID{position}})
	if err := q.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if w.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", w.Size())
	}
	if !w.IsAlive(survivor) {
		t.Fatalf("survivor entity destroyed by unrelated query")
	}
}

func TestBulkAddComponentFiresOnComponentAdded(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	e := w.Create(position)

	var fired []Entity
	w.SetEvents(&recordingSink{onAdded: func(e Entity, id ComponentID) {
		fired = append(fired, e)
	}})

	q := w.Query(QueryDescription{All: []ComponentID{position}})
	if err := BulkAddComponent[Velocity](q); err != nil {
		t.Fatalf("BulkAddComponent: %v", err)
	}
	if len(fired) != 1 || fired[0] != e {
		t.Fatalf("OnComponentAdded fired for %v, want exactly [%v]", fired, e)
	}
}

// recordingSink lets a test observe exactly one hook without implementing
// every EventSink method inline at each call site.
type recordingSink struct {
	NopEventSink
	onAdded func(e Entity, id ComponentID)
}

func (s *recordingSink) OnComponentAdded(e Entity, id ComponentID) {
	if s.onAdded != nil {
		s.onAdded(e, id)
	}
}
