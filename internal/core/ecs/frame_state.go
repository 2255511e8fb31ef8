package ecs

import (
	"encoding/binary"
	"fmt"
	"io"

	"netplay-arena/internal/core/ecs/bitset"
)

// FrameState owns the live entity population for one simulation frame: one
// storage per registered component type, the active-entity bitset, and the
// entity allocator cursor. All mutation goes through this API; saved frames
// are deep copies produced by World.SaveFrame.
type FrameState struct {
	schema *Schema
	limit  EntityLimit

	slots  []storageSlot
	active *bitset.Set

	// Cursor-scan allocator. IDs below nextEntity are not recycled within a
	// run; see the known-limitation note on CreateEntity.
	nextEntity  EntityID
	entityCount uint32
}

// NewFrameState builds an empty frame state from the schema, sealing the
// schema so every later copy shares its storage layout.
func NewFrameState(schema *Schema, limit EntityLimit) (*FrameState, error) {
	if !limit.Valid() {
		return nil, fmt.Errorf("unsupported entity limit %d", limit)
	}
	schema.seal()
	return &FrameState{
		schema: schema,
		limit:  limit,
		slots:  schema.buildSlots(limit),
		active: bitset.New(uint32(limit)),
	}, nil
}

// Limit returns the configured entity capacity.
func (f *FrameState) Limit() EntityLimit {
	return f.limit
}

// EntityCount returns the number of live entities.
func (f *FrameState) EntityCount() int {
	return int(f.entityCount)
}

// IsAlive reports whether e is a live entity.
func (f *FrameState) IsAlive(e EntityID) bool {
	return uint32(e) < uint32(f.limit) && f.active.Test(uint32(e))
}

// ActiveBits exposes the live-entity bitset for queries and invariant
// checks. The returned set must not be mutated.
func (f *FrameState) ActiveBits() *bitset.Set {
	return f.active
}

// CreateEntity allocates the smallest free entity ID at or above the
// allocator cursor, failing with ErrEntityLimitExceeded when none exists
// below the limit.
//
// Known limitation: the cursor only moves forward, so IDs freed below it are
// not reused within a run. Rollback restores the cursor along with the rest
// of the frame, which keeps replay deterministic.
func (f *FrameState) CreateEntity() (EntityID, error) {
	e := f.nextEntity
	for uint32(e) < uint32(f.limit) && f.active.Test(uint32(e)) {
		e++
	}
	if uint32(e) >= uint32(f.limit) {
		return InvalidEntity, fmt.Errorf("create entity at capacity %d: %w", f.limit, ErrEntityLimitExceeded)
	}
	f.active.Set(uint32(e))
	f.entityCount++
	f.nextEntity = e + 1
	return e, nil
}

// DestroyEntity removes e and swap-removes its component from every storage.
// Destroying a dead or out-of-range entity is a no-op.
func (f *FrameState) DestroyEntity(e EntityID) {
	if !f.IsAlive(e) {
		return
	}
	for _, slot := range f.slots {
		slot.removeEntity(e)
	}
	f.active.Clear(uint32(e))
	f.entityCount--
}

// clone deep-copies the frame state, including the allocator cursor.
func (f *FrameState) clone() *FrameState {
	out := &FrameState{
		schema:      f.schema,
		limit:       f.limit,
		slots:       make([]storageSlot, len(f.slots)),
		active:      f.active.Clone(),
		nextEntity:  f.nextEntity,
		entityCount: f.entityCount,
	}
	for i, slot := range f.slots {
		out.slots[i] = slot.clone()
	}
	return out
}

// copyFrom overwrites f with the contents of src. Both states must have been
// built from the same schema and limit.
func (f *FrameState) copyFrom(src *FrameState) {
	f.active.CopyFrom(src.active)
	f.nextEntity = src.nextEntity
	f.entityCount = src.entityCount
	for i, slot := range f.slots {
		slot.copyFrom(src.slots[i])
	}
}

// WriteCanonical writes a byte-order-canonical walk of the frame state: the
// allocator counters, the active bitset words, then each storage in
// registration order with its entities ascending. Equal states produce equal
// walks regardless of mutation history.
func (f *FrameState) WriteCanonical(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(f.nextEntity)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.entityCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.active.Words()); err != nil {
		return err
	}
	for _, slot := range f.slots {
		if err := slot.writeCanonical(w); err != nil {
			return err
		}
	}
	return nil
}
