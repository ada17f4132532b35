package loom

import (
	"reflect"
	"unsafe"
)

// column is one archetype's component array inside a single chunk: a
// fixed-capacity, contiguously-allocated buffer of a single component
// type, addressed through unsafe.Pointer arithmetic so the core can
// move bytes between columns without knowing their static Go type.
type column struct {
	id       ComponentID
	itemSize uintptr
	buffer   reflect.Value // backing [capacity]T array, kept addressable
	ptr      unsafe.Pointer
}

func newColumn(id ComponentID, rtype reflect.Type, capacity int) column {
	buffer := reflect.New(reflect.ArrayOf(capacity, rtype)).Elem()
	return column{
		id:       id,
		itemSize: rtype.Size(),
		buffer:   buffer,
		ptr:      buffer.Addr().UnsafePointer(),
	}
}

// at returns a pointer to row's element. Zero-sized components (empty
// structs used as tags) return nil; callers must not dereference it.
func (c *column) at(row int) unsafe.Pointer {
	if c.itemSize == 0 {
		return nil
	}
	return unsafe.Add(c.ptr, c.itemSize*uintptr(row))
}

func (c *column) zero(row int) {
	if c.itemSize == 0 {
		return
	}
	dst := (*[1 << 30]byte)(c.at(row))[:c.itemSize:c.itemSize]
	clear(dst)
}

// copyRow copies the element at srcRow into dstRow within the same
// column (used by swap-remove's backfill).
func (c *column) copyRow(dstRow, srcRow int) {
	if c.itemSize == 0 || dstRow == srcRow {
		return
	}
	dst := (*[1 << 30]byte)(c.at(dstRow))[:c.itemSize:c.itemSize]
	src := (*[1 << 30]byte)(c.at(srcRow))[:c.itemSize:c.itemSize]
	copy(dst, src)
}

// copyBetween copies one element from src[srcRow] into dst[dstRow].
// Both columns must carry the same component (same itemSize).
func copyBetween(dst *column, dstRow int, src *column, srcRow int) {
	if dst.itemSize == 0 {
		return
	}
	dstBuf := (*[1 << 30]byte)(dst.at(dstRow))[:dst.itemSize:dst.itemSize]
	srcBuf := (*[1 << 30]byte)(src.at(srcRow))[:src.itemSize:src.itemSize]
	copy(dstBuf, srcBuf)
}

// Chunk is a fixed-capacity, column-major block of entities: one
// parallel array per component kind in its archetype, plus an
// entity-id array (§3, §4.3). Rows [0, count) are live and packed; rows
// [count, capacity) are logically dead and hold stale bytes.
type Chunk struct {
	capacity int
	count    int
	ids      []uint32
	columns  []column
	colIndex map[ComponentID]int
}

func newChunk(components []ComponentID, registry *ComponentRegistry, capacity int) *Chunk {
	columns := make([]column, len(components))
	colIndex := make(map[ComponentID]int, len(components))
	for i, id := range components {
		columns[i] = newColumn(id, registry.TypeOf(id), capacity)
		colIndex[id] = i
	}
	return &Chunk{
		capacity: capacity,
		ids:      make([]uint32, capacity),
		columns:  columns,
		colIndex: colIndex,
	}
}

// Count returns the number of live rows.
func (c *Chunk) Count() int { return c.count }

// Capacity returns the fixed row capacity N.
func (c *Chunk) Capacity() int { return c.capacity }

// Full reports whether the chunk has no free rows.
func (c *Chunk) Full() bool { return c.count >= c.capacity }

// EntityAt returns the entity id stored at row.
func (c *Chunk) EntityAt(row int) uint32 { return c.ids[row] }

// Push appends id as a new row, zeroing its component columns. It never
// moves existing rows. ok is false when the chunk is already full.
func (c *Chunk) Push(id uint32) (row int, ok bool) {
	if c.Full() {
		return 0, false
	}
	row = c.count
	c.ids[row] = id
	for i := range c.columns {
		c.columns[i].zero(row)
	}
	c.count++
	return row, true
}

// SwapRemove overwrites row with the chunk's last valid row and shrinks
// count by one. It reports the id of the entity that was moved into
// row so the caller can fix up its directory slot, or ok=false if row
// was already the last row (nothing needed to move).
func (c *Chunk) SwapRemove(row int) (movedID uint32, ok bool) {
	last := c.count - 1
	if row < 0 || row > last {
		return 0, false
	}
	if row == last {
		c.count--
		return 0, false
	}
	c.ids[row] = c.ids[last]
	for i := range c.columns {
		c.columns[i].copyRow(row, last)
	}
	c.count--
	return c.ids[row], true
}

// Column returns the raw component array for id and whether the
// archetype owning this chunk carries that component. Typed access is
// performed by the caller (see Get/Set) using the registry's type info.
func (c *Chunk) Column(id ComponentID) (ptr unsafe.Pointer, itemSize uintptr, ok bool) {
	idx, ok := c.colIndex[id]
	if !ok {
		return nil, 0, false
	}
	return c.columns[idx].ptr, c.columns[idx].itemSize, true
}

// Clear resets count to zero without releasing any memory (I2: rows
// become logically dead, not deallocated).
func (c *Chunk) Clear() {
	c.count = 0
}

// copyComponentBytes copies one component's bytes from (srcPtr, srcRow)
// into (dstPtr, dstRow), given both columns share itemSize. Used when
// moving an entity's row across archetypes during AddComponent or
// RemoveComponent, where the two columns live in different Chunks and
// so aren't reachable as a single *column receiver.
func copyComponentBytes(dstPtr unsafe.Pointer, dstRow int, srcPtr unsafe.Pointer, srcRow int, size uintptr) {
	dst := (*[1 << 30]byte)(unsafe.Add(dstPtr, size*uintptr(dstRow)))[:size:size]
	src := (*[1 << 30]byte)(unsafe.Add(srcPtr, size*uintptr(srcRow)))[:size:size]
	copy(dst, src)
}

// chunkGet returns a typed pointer to component T at row within c.
// Callers must already know c's archetype carries id for T.
func chunkGet[T any](c *Chunk, id ComponentID, row int) *T {
	ptr, _, ok := c.Column(id)
	if !ok {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return (*T)(unsafe.Add(ptr, size*uintptr(row)))
}
