package loom

import "fmt"

// Entity is a lightweight handle to a row of component data. It carries
// no liveness guarantee by itself — a recycled id can be reused by a
// different row once its previous owner is destroyed. Pair it with the
// version from EntityRef when a reference must outlive the entity it
// points at (e.g. stored across frames).
type Entity struct {
	ID    uint32
	World uint16
}

// String renders the entity as "id@world" for logging and error messages.
func (e Entity) String() string {
	return fmt.Sprintf("%d@%d", e.ID, e.World)
}

// EntityRef is an Entity tagged with the directory version it was
// observed at. IsAlive reports whether that version is still current.
type EntityRef struct {
	Entity
	Version uint32
}

// IsAlive reports whether the reference's id is live in w and its
// current directory version matches the reference's. A dead reference
// is never an error — it is simply stale data the caller should discard.
func (r EntityRef) IsAlive(w *World) bool {
	version, ok := w.dir.TryGetVersion(r.ID)
	return ok && w.dir.IsAlive(r.ID) && version == r.Version
}

// RecycledEntity is a freed id waiting to be reused. The version it
// carries is strictly greater than the version the id had while alive
// (I5), so stale EntityRefs naturally fail IsAlive after recycling.
type RecycledEntity struct {
	ID          uint32
	NextVersion uint32
}
