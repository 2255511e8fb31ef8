package ecs

import "netplay-arena/internal/core/ecs/bitset"

// Query is a transient view over the entities that are alive and carry every
// listed component. The result bitset is fixed at construction; structural
// mutation of a queried storage during iteration invalidates the component
// lookups (the iteration itself stays on the frozen result set), so systems
// must not add or remove on queried storages mid-iteration.
type Query struct {
	result *bitset.Set
	iter   bitset.Iterator
}

// Query intersects the active-entity bitset with the presence bitset of each
// listed component, in order. An empty ID list yields every active entity;
// any empty required storage yields an empty result. Iteration delivers
// entity IDs in strictly ascending order.
func (f *FrameState) Query(ids ...ComponentID) Query {
	result := f.active.Clone()
	for _, id := range ids {
		result.IntersectWith(f.slots[id].bits())
	}
	return Query{result: result, iter: result.Iter()}
}

// Count returns the number of matching entities.
func (q *Query) Count() int {
	return q.result.Count()
}

// Next yields the next matching entity in ascending ID order, or false when
// the query is exhausted.
func (q *Query) Next() (EntityID, bool) {
	i, ok := q.iter.Next()
	return EntityID(i), ok
}

// Reset restarts iteration from the smallest matching entity.
func (q *Query) Reset() {
	q.iter = q.result.Iter()
}
