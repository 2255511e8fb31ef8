// Package components defines the plain value components used by the demo
// systems and the integration tests. Components carry no behavior and no
// references to other entities; cross-entity links use a bare EntityID plus
// a lookup, which keeps every saved frame a cycle-free deep copy.
package components

import "netplay-arena/internal/core/ecs"

// Position is an entity's location in world units.
type Position struct {
	X float32
	Y float32
}

// Velocity is an entity's movement in world units per second.
type Velocity struct {
	DX float32
	DY float32
}

// Health tracks current and maximum hit points.
type Health struct {
	Current int32
	Max     int32
}

// Target links an entity to another by ID. Lookup happens at use time; a
// stale ID simply misses.
type Target struct {
	Entity ecs.EntityID
}
