package systems

import (
	"netplay-arena/internal/core/ecs"
	"netplay-arena/internal/core/ecs/components"
)

// Damage drains one hit point per tick and wraps exhausted entities back to
// full, the periodic load pattern used to exercise single-component queries.
type Damage struct {
	health ecs.Handle[components.Health]
}

// NewDamage builds the damage system over the given handle.
func NewDamage(health ecs.Handle[components.Health]) *Damage {
	return &Damage{health: health}
}

// Step decrements Health.Current for every entity carrying Health.
func (d *Damage) Step(state *ecs.FrameState) error {
	healths := d.health.Storage(state)

	q := state.Query(d.health.ID())
	for e, ok := q.Next(); ok; e, ok = q.Next() {
		h := healths.Get(e)
		h.Current--
		if h.Current < 0 {
			h.Current = h.Max
		}
	}
	return nil
}
