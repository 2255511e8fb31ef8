package ecs

// World is the ECS container: it owns the current frame and produces and
// consumes deep-copied snapshots of it. World performs no simulation itself;
// system callbacks are driven by the host (normally the rollback manager).
type World[I any] struct {
	frame Frame[I]
}

// NewWorld builds a world with an empty frame 0 from the schema.
func NewWorld[I any](schema *Schema, limit EntityLimit) (*World[I], error) {
	state, err := NewFrameState(schema, limit)
	if err != nil {
		return nil, err
	}
	return &World[I]{frame: Frame[I]{State: state}}, nil
}

// Frame returns the mutable current frame.
func (w *World[I]) Frame() *Frame[I] {
	return &w.frame
}

// State returns the current frame's state.
func (w *World[I]) State() *FrameState {
	return w.frame.State
}

// Update stamps the next tick's metadata onto the current frame: input,
// delta time, total simulated time, and an incremented frame number. It performs no
// simulation.
func (w *World[I]) Update(input I, dt, time float64) {
	w.frame.Input = input
	w.frame.DeltaTime = dt
	w.frame.Time = time
	w.frame.Number++
}

// SavedFrame is a deep copy of a frame. It owns its memory independently of
// the world it was saved from and stays valid until Free.
type SavedFrame[I any] struct {
	state     *FrameState
	input     I
	deltaTime float64
	time      float64
	number    uint64
}

// Number returns the frame number the copy was taken at.
func (s *SavedFrame[I]) Number() uint64 {
	return s.number
}

// Input returns the input the saved frame was simulated with.
func (s *SavedFrame[I]) Input() I {
	return s.input
}

// Time returns the saved frame's simulated time.
func (s *SavedFrame[I]) Time() float64 {
	return s.time
}

// EntityCount returns the number of live entities in the copy.
func (s *SavedFrame[I]) EntityCount() int {
	return s.state.EntityCount()
}

// Free releases the copy's storage. A freed frame must not be restored or
// reused.
func (s *SavedFrame[I]) Free() {
	s.state = nil
}

// SaveFrame deep-copies the current frame: every storage's dense array and
// lookup tables, both bitsets, the allocator cursor, and the metadata.
func (w *World[I]) SaveFrame() *SavedFrame[I] {
	return &SavedFrame[I]{
		state:     w.frame.State.clone(),
		input:     w.frame.Input,
		deltaTime: w.frame.DeltaTime,
		time:      w.frame.Time,
		number:    w.frame.Number,
	}
}

// SaveFrameInto refills dst with a copy of the current frame, reusing its
// buffers, and returns it. A nil or freed dst falls back to a fresh copy.
// This is the ring-buffer save path: steady-state operation recycles the
// replaced occupant instead of allocating.
func (w *World[I]) SaveFrameInto(dst *SavedFrame[I]) *SavedFrame[I] {
	if dst == nil || dst.state == nil {
		return w.SaveFrame()
	}
	dst.state.copyFrom(w.frame.State)
	dst.input = w.frame.Input
	dst.deltaTime = w.frame.DeltaTime
	dst.time = w.frame.Time
	dst.number = w.frame.Number
	return dst
}

// RestoreFrame overwrites the current frame from src. Afterwards the world
// is indistinguishable from its state at the save point through the public
// API: entity IDs, component presence and values, allocator cursor, and
// frame metadata all match. Restoring a freed frame panics.
func (w *World[I]) RestoreFrame(src *SavedFrame[I]) {
	if src.state == nil {
		panic("ecs: restore from freed frame")
	}
	w.frame.State.copyFrom(src.state)
	w.frame.Input = src.input
	w.frame.DeltaTime = src.deltaTime
	w.frame.Time = src.time
	w.frame.Number = src.number
}
