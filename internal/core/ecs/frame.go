package ecs

// Frame is one simulation tick: the frame state plus the metadata the tick
// was produced with. I is the host's input type, a plain value copied into
// the frame each tick.
type Frame[I any] struct {
	State *FrameState

	// Input is the host-supplied input the tick was simulated with.
	Input I

	// DeltaTime is the simulated seconds advanced by this tick.
	DeltaTime float64

	// Time is the total simulated seconds at the end of this tick.
	Time float64

	// Number counts ticks since world creation. Frame 0 is the initial,
	// never-simulated state.
	Number uint64
}
