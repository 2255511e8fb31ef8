package ecs

import (
	"encoding/binary"
	"fmt"
	"io"

	"netplay-arena/internal/core/ecs/bitset"
)

// storageSlot is the type-erased view of one component storage, used by the
// frame state for lifecycle, snapshot, and checksum walks. All hot-path
// component access goes through the concrete Storage[T] instead.
type storageSlot interface {
	bits() *bitset.Set
	removeEntity(e EntityID) bool
	clone() storageSlot
	copyFrom(src storageSlot)
	writeCanonical(w io.Writer) error
}

// Storage holds every component of type T as a packed array plus the
// entity-indexed bookkeeping that makes add/get/remove O(1):
//
//	dense[entityToIndex[e]] is e's component value
//	indexToEntity[i] is the owner of dense[i]
//	presence bit e mirrors membership
//
// entityToIndex slots for absent entities hold stale values; presence is the
// source of truth. Dense order is not part of the contract and changes under
// swap-remove.
type Storage[T any] struct {
	dense         []T
	entityToIndex []uint32
	indexToEntity []uint32
	presence      *bitset.Set
	limit         uint32
}

func newStorage[T any](limit EntityLimit) *Storage[T] {
	return &Storage[T]{
		entityToIndex: make([]uint32, limit),
		presence:      bitset.New(uint32(limit)),
		limit:         uint32(limit),
	}
}

// Add appends value v for entity e. Out-of-range entities are rejected with
// ErrEntityLimitExceeded; adding to an entity that already has the component
// is a no-op.
func (s *Storage[T]) Add(e EntityID, v T) error {
	if uint32(e) >= s.limit {
		return fmt.Errorf("entity %d out of range [0, %d): %w", e, s.limit, ErrEntityLimitExceeded)
	}
	if s.presence.Test(uint32(e)) {
		return nil
	}
	s.entityToIndex[e] = uint32(len(s.dense))
	s.dense = append(s.dense, v)
	s.indexToEntity = append(s.indexToEntity, uint32(e))
	s.presence.Set(uint32(e))
	return nil
}

// Get returns a pointer into the dense array for e's component, or nil when
// absent. The pointer is invalidated by the next Add/Remove on this storage.
func (s *Storage[T]) Get(e EntityID) *T {
	if uint32(e) >= s.limit || !s.presence.Test(uint32(e)) {
		return nil
	}
	return &s.dense[s.entityToIndex[e]]
}

// Has reports whether e carries the component.
func (s *Storage[T]) Has(e EntityID) bool {
	return uint32(e) < s.limit && s.presence.Test(uint32(e))
}

// Remove swap-removes e's component, keeping the dense array packed. It
// returns false when e did not carry the component; removing twice is
// equivalent to removing once.
func (s *Storage[T]) Remove(e EntityID) bool {
	if !s.Has(e) {
		return false
	}
	i := s.entityToIndex[e]
	last := uint32(len(s.dense) - 1)
	if i != last {
		movedEntity := s.indexToEntity[last]
		s.dense[i] = s.dense[last]
		s.indexToEntity[i] = movedEntity
		s.entityToIndex[movedEntity] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.indexToEntity = s.indexToEntity[:last]
	s.presence.Clear(uint32(e))
	return true
}

// Count returns the number of live components, equal to the dense length and
// the presence popcount.
func (s *Storage[T]) Count() int {
	return len(s.dense)
}

// Bits exposes the presence bitset for query intersection and invariant
// checks. The returned set must not be mutated.
func (s *Storage[T]) Bits() *bitset.Set {
	return s.presence
}

// storageSlot implementation.

func (s *Storage[T]) bits() *bitset.Set { return s.presence }

func (s *Storage[T]) removeEntity(e EntityID) bool { return s.Remove(e) }

func (s *Storage[T]) clone() storageSlot {
	out := &Storage[T]{
		dense:         append([]T(nil), s.dense...),
		entityToIndex: append([]uint32(nil), s.entityToIndex...),
		indexToEntity: append([]uint32(nil), s.indexToEntity...),
		presence:      s.presence.Clone(),
		limit:         s.limit,
	}
	return out
}

func (s *Storage[T]) copyFrom(src storageSlot) {
	from := src.(*Storage[T])
	s.dense = append(s.dense[:0], from.dense...)
	s.indexToEntity = append(s.indexToEntity[:0], from.indexToEntity...)
	copy(s.entityToIndex, from.entityToIndex)
	s.presence.CopyFrom(from.presence)
}

// writeCanonical writes the storage contents in ascending entity order, so
// the digest is independent of the dense permutation left behind by
// swap-remove history. Component bytes use the little-endian fixed-size
// encoding; types encoding/binary cannot size fail with ErrNotEncodable.
func (s *Storage[T]) writeCanonical(w io.Writer) error {
	var zero T
	if binary.Size(zero) < 0 {
		return fmt.Errorf("%T: %w", zero, ErrNotEncodable)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.dense))); err != nil {
		return err
	}
	it := s.presence.Iter()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, s.dense[s.entityToIndex[e]]); err != nil {
			return err
		}
	}
	return nil
}
