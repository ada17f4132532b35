/*
Package loom provides an archetype-based Entity Component System (ECS)
storage core.

Loom groups entities by their exact component set into archetypes, and
splits each archetype into fixed-capacity, column-major chunks so that
iterating a query touches only dense, cache-friendly arrays. Structural
changes (creating or destroying an entity, adding or removing a
component) move an entity's row between chunks; everything else —
command buffers, schedulers, descriptor/template layers, world
registries — lives outside this package.

Core Concepts:

  - Entity: a lightweight (id, world) handle to a row of data.
  - Component: any Go type registered with a World via RegisterComponent.
  - Archetype: the set of entities sharing the exact same component set.
  - Chunk: a fixed-capacity, column-major block inside an archetype.
  - Query: a compiled All/Any/None/Exclusive predicate over component sets.

Basic Usage:

	w := loom.NewWorld(1)
	position := loom.RegisterComponent[Position](w)
	velocity := loom.RegisterComponent[Velocity](w)

	e := w.Create(position, velocity)
	loom.Set(w, e, Position{X: 10, Y: 20})
	loom.Set(w, e, Velocity{X: 1, Y: 2})

	q := w.Query(loom.QueryDescription{All: []loom.ComponentID{position, velocity}})
	cur := loom.NewCursor(w, q)
	for cur.Next() {
		pos, _ := loom.Get[Position](w, cur.Entity())
		vel, _ := loom.Get[Velocity](w, cur.Entity())
		pos.X += vel.X
		pos.Y += vel.Y
	}

Loom is single-threaded with respect to structural changes: no two
operations that alter the entity set, an entity's archetype, or the
archetype graph may run concurrently on the same World. Read-only
queries may run concurrently with each other. See World's doc comment
for the full discipline.
*/
package loom
