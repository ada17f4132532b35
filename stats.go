package loom

// Stats is a point-in-time snapshot of a World's storage shape, useful
// for diagnostics and capacity planning (I6).
type Stats struct {
	EntityCount    int
	ArchetypeCount int
	ChunkCount     int
	Capacity       int
	Archetypes     []ArchetypeStats
}

// ArchetypeStats summarizes a single archetype.
type ArchetypeStats struct {
	Components []ComponentID
	EntityCount int
	ChunkCount  int
	Capacity    int
}

// Stats computes a fresh snapshot. It is O(archetypes), not O(1) — the
// World does not maintain incremental capacity bookkeeping (DESIGN.md).
func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := Stats{EntityCount: w.size}
	for _, a := range w.graph.All() {
		s.ArchetypeCount++
		s.ChunkCount += a.ChunkCount()
		s.Capacity += a.Capacity()
		s.Archetypes = append(s.Archetypes, ArchetypeStats{
			Components:  a.Components(),
			EntityCount: a.Count(),
			ChunkCount:  a.ChunkCount(),
			Capacity:    a.Capacity(),
		})
	}
	return s
}
