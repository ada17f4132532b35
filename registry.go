package loom

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// ComponentID is a dense, stable small-integer identifier assigned to a
// component kind on first registration. Ids are never reused within the
// lifetime of the registry that issued them (§4.1).
type ComponentID uint32

// componentEntry records everything the core needs to read and write a
// component's bytes without knowing its static type: its size, and the
// reflect.Type used to build column buffers and zero values.
type componentEntry struct {
	id    ComponentID
	rtype reflect.Type
	size  uintptr
}

// ComponentRegistry assigns and resolves ComponentIDs for a single
// World. Registration is monotonic and may be called concurrently with
// itself; lookups by id are lock-free, served from an atomically
// published snapshot that registration swaps in.
type ComponentRegistry struct {
	mu       sync.Mutex
	byType   map[reflect.Type]ComponentID
	entries  atomic.Pointer[[]componentEntry]
	maxID    ComponentID
}

func newComponentRegistry() *ComponentRegistry {
	r := &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentID),
	}
	empty := make([]componentEntry, 0)
	r.entries.Store(&empty)
	return r
}

// register returns the ComponentID for rtype, assigning a new one on
// first sight. Safe for concurrent use.
func (r *ComponentRegistry) register(rtype reflect.Type) ComponentID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byType[rtype]; ok {
		return id
	}

	id := ComponentID(len(r.byType))
	r.byType[rtype] = id

	old := *r.entries.Load()
	next := make([]componentEntry, len(old), len(old)+1)
	copy(next, old)
	next = append(next, componentEntry{id: id, rtype: rtype, size: rtype.Size()})
	r.entries.Store(&next)
	if id > r.maxID {
		r.maxID = id
	}
	return id
}

// RegisterComponent assigns (or resolves) the ComponentID for T on w.
// Calling it twice for the same type returns the same id.
func RegisterComponent[T any](w *World) ComponentID {
	var zero T
	rtype := reflect.TypeOf(zero)
	return w.registry.register(rtype)
}

func componentIDOf[T any](r *ComponentRegistry) (ComponentID, bool) {
	var zero T
	rtype := reflect.TypeOf(zero)
	r.mu.Lock()
	id, ok := r.byType[rtype]
	r.mu.Unlock()
	return id, ok
}

// SizeOf returns the byte size of the component registered under id.
func (r *ComponentRegistry) SizeOf(id ComponentID) uintptr {
	entries := *r.entries.Load()
	if int(id) >= len(entries) {
		return 0
	}
	return entries[id].size
}

// TypeOf returns the reflect.Type registered under id.
func (r *ComponentRegistry) TypeOf(id ComponentID) reflect.Type {
	entries := *r.entries.Load()
	if int(id) >= len(entries) {
		return nil
	}
	return entries[id].rtype
}

// MaxID returns the largest ComponentID issued so far;
// RequiredWords(MaxID()) words hold every registered id.
func (r *ComponentRegistry) MaxID() ComponentID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxID
}
