// Package systems holds the demo simulation systems driven by the rollback
// manager. Systems are deterministic functions of the frame they receive:
// all state they touch lives in the frame, and any randomness must derive
// from frame metadata so replay from a snapshot reproduces them exactly.
package systems

import (
	"netplay-arena/internal/core/ecs"
	"netplay-arena/internal/core/ecs/components"
)

// Movement integrates position by velocity each tick.
type Movement struct {
	pos ecs.Handle[components.Position]
	vel ecs.Handle[components.Velocity]
}

// NewMovement builds the movement system over the given handles.
func NewMovement(pos ecs.Handle[components.Position], vel ecs.Handle[components.Velocity]) *Movement {
	return &Movement{pos: pos, vel: vel}
}

// Step advances every entity that has both Position and Velocity by
// vel·dt, in ascending entity order.
func (m *Movement) Step(state *ecs.FrameState, dt float64) error {
	positions := m.pos.Storage(state)
	velocities := m.vel.Storage(state)

	q := state.Query(m.pos.ID(), m.vel.ID())
	for e, ok := q.Next(); ok; e, ok = q.Next() {
		p := positions.Get(e)
		v := velocities.Get(e)
		p.X += v.DX * float32(dt)
		p.Y += v.DY * float32(dt)
	}
	return nil
}
