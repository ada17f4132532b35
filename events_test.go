package loom

import "testing"

type setSink struct {
	NopEventSink
	sets []ComponentID
}

func (s *setSink) OnComponentSet(e Entity, id ComponentID) {
	s.sets = append(s.sets, id)
}

func TestSetFiresOnComponentSet(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	e := w.Create(position)

	sink := &setSink{}
	w.SetEvents(sink)

	Set(w, e, Position{X: 1, Y: 2})
	Set(w, e, Position{X: 3, Y: 4})

	if len(sink.sets) != 2 || sink.sets[0] != position || sink.sets[1] != position {
		t.Fatalf("OnComponentSet fired %v, want [%d %d]", sink.sets, position, position)
	}
}

func TestBulkSetFiresOnComponentSetPerEntity(t *testing.T) {
	w := NewWorld(1)
	position := RegisterComponent[Position](w)
	for i := 0; i < 5; i++ {
		w.Create(position)
	}

	sink := &setSink{}
	w.SetEvents(sink)

	q := w.Query(QueryDescription{All: []ComponentID{position}})
	if err := BulkSet(q, Position{X: 1}); err != nil {
		t.Fatalf("BulkSet: %v", err)
	}
	if len(sink.sets) != 5 {
		t.Fatalf("OnComponentSet fired %d times, want 5", len(sink.sets))
	}
	for _, id := range sink.sets {
		if id != position {
			t.Fatalf("OnComponentSet fired for wrong component id %d, want %d", id, position)
		}
	}
}
