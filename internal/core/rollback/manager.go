// Package rollback drives deterministic fixed-timestep simulation over the
// ECS world, keeps a bounded ring of restorable frame snapshots and the
// input history that produced them, and serves rollback, replay, and
// confirmation for a lockstep/rollback-networked host.
package rollback

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"netplay-arena/internal/core/ecs"
)

// System is one simulation step callback. Systems run in registration order
// inside every tick and must be deterministic functions of the frame they
// receive; registration order is part of the determinism contract.
type System[I any] func(*ecs.Frame[I]) error

// StoredFrame is one occupant of the history ring: a deep-copied frame, its
// checksum, and the snapshot/confirmed flags. A slot is overwritten when the
// frame max-rollback-frames ahead of it is produced; the confirmed flag
// sticks until that overwrite.
type StoredFrame[I any] struct {
	frame      *ecs.SavedFrame[I]
	checksum   uint64
	number     uint64
	isSnapshot bool
	confirmed  bool
	valid      bool
}

// StoredFrameMeta is the externally observable view of a ring slot.
type StoredFrameMeta struct {
	Number     uint64 `json:"number"`
	Checksum   uint64 `json:"checksum"`
	IsSnapshot bool   `json:"is_snapshot"`
	Confirmed  bool   `json:"confirmed"`
}

// Manager owns the world and its history. All operations are synchronous
// and single-threaded; a tick runs to completion before the next begins.
type Manager[I any] struct {
	cfg     Config
	fixedDT float64

	world   *ecs.World[I]
	systems []System[I]

	history []StoredFrame[I]
	inputs  InputBuffer[I]

	currentFrame       uint64
	oldestFrame        uint64
	lastConfirmedFrame uint64
	accumulator        float64
	totalTime          float64

	// onConfirm, when set, observes every successful confirmation.
	onConfirm func(StoredFrameMeta)

	log   logrus.FieldLogger
	stats Stats
}

// NewManager builds a manager over world. The world's current frame,
// including whatever initial entities the host has seeded, is saved
// immediately as the frame-0 snapshot, so construction comes after initial
// state setup.
func NewManager[I any](world *ecs.World[I], cfg Config) (*Manager[I], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager[I]{
		cfg:     cfg,
		fixedDT: cfg.FixedDT(),
		world:   world,
		history: make([]StoredFrame[I], cfg.MaxRollbackFrames),
		log:     logrus.StandardLogger(),
	}
	m.storeCurrentFrame(true)
	return m, nil
}

// SetLogger replaces the manager's logger. Logging is observational only;
// it never alters simulation state.
func (m *Manager[I]) SetLogger(log logrus.FieldLogger) {
	m.log = log
}

// SetConfirmObserver registers the host callback invoked on every successful
// ConfirmFrame. Pass nil to clear.
func (m *Manager[I]) SetConfirmObserver(fn func(StoredFrameMeta)) {
	m.onConfirm = fn
}

// AddSystem appends fn to the ordered system list.
func (m *Manager[I]) AddSystem(fn System[I]) {
	m.systems = append(m.systems, fn)
}

// ClearSystems empties the system list.
func (m *Manager[I]) ClearSystems() {
	m.systems = m.systems[:0]
}

// World returns the managed world.
func (m *Manager[I]) World() *ecs.World[I] {
	return m.world
}

// CurrentFrame returns the number of the most recently produced frame.
func (m *Manager[I]) CurrentFrame() uint64 {
	return m.currentFrame
}

// OldestFrame returns the oldest frame still retained in the ring.
func (m *Manager[I]) OldestFrame() uint64 {
	return m.oldestFrame
}

// LastConfirmedFrame returns the highest frame confirmed so far.
func (m *Manager[I]) LastConfirmedFrame() uint64 {
	return m.lastConfirmedFrame
}

// Stats returns the work counters accumulated since construction.
func (m *Manager[I]) Stats() Stats {
	return m.stats
}

// InterpolationAlpha returns the fraction of a tick accumulated but not yet
// simulated, clamped to [0, 1], for render interpolation. No side effects.
func (m *Manager[I]) InterpolationAlpha() float64 {
	alpha := m.accumulator / m.fixedDT
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// CanRollbackTo reports whether frame lies inside the retained range. It is
// a pure range check; the rollback itself can still fail with
// ErrSnapshotNotFound when no snapshot survives at or below the target.
func (m *Manager[I]) CanRollbackTo(frame uint64) bool {
	return frame >= m.oldestFrame && frame <= m.currentFrame
}

// Stored returns the metadata of the ring slot holding frame, if retained.
func (m *Manager[I]) Stored(frame uint64) (StoredFrameMeta, bool) {
	if frame < m.oldestFrame || frame > m.currentFrame {
		return StoredFrameMeta{}, false
	}
	sf := &m.history[frame%uint64(len(m.history))]
	if !sf.valid || sf.number != frame {
		return StoredFrameMeta{}, false
	}
	return StoredFrameMeta{
		Number:     sf.number,
		Checksum:   sf.checksum,
		IsSnapshot: sf.isSnapshot,
		Confirmed:  sf.confirmed,
	}, true
}

// Update is the variable-timestep pump: it accumulates real elapsed time and
// simulates whole fixed ticks while a full tick's worth is pending. The
// given input is recorded against each frame produced, then the input buffer
// is trimmed to the retained range.
func (m *Manager[I]) Update(realDT float64, input I) error {
	m.accumulator += realDT
	for m.accumulator >= m.fixedDT {
		m.inputs.Record(m.currentFrame+1, input)
		m.stats.InputsRecorded++
		if err := m.SimulateFrame(input); err != nil {
			return err
		}
		m.accumulator -= m.fixedDT
	}
	m.inputs.Trim(m.oldestFrame)
	return nil
}

// SimulateFrame runs exactly one deterministic tick: advance the counters,
// stamp the frame, run every system in order, then save the result into the
// ring. A failing system aborts the tick: the counters revert, the world is
// restored to the pre-tick frame, and history is untouched.
func (m *Manager[I]) SimulateFrame(input I) error {
	prevFrame := m.currentFrame
	prevTime := m.totalTime

	m.currentFrame++
	m.totalTime = float64(m.currentFrame) * m.fixedDT
	m.world.Update(input, m.fixedDT, m.totalTime)

	for i, system := range m.systems {
		if err := system(m.world.Frame()); err != nil {
			m.currentFrame = prevFrame
			m.totalTime = prevTime
			m.restorePreTickFrame(prevFrame)
			return fmt.Errorf("system %d at frame %d: %w", i, prevFrame+1, err)
		}
	}

	m.storeCurrentFrame(false)
	if m.currentFrame >= uint64(m.cfg.MaxRollbackFrames) {
		// Replay re-simulates frames the ring already advanced past, so the
		// watermark only ever moves forward.
		if oldest := m.currentFrame - uint64(m.cfg.MaxRollbackFrames) + 1; oldest > m.oldestFrame {
			m.oldestFrame = oldest
		}
	}
	m.stats.Ticks++
	return nil
}

// restorePreTickFrame rewinds the world to the stored copy of frame after an
// aborted tick, when that copy is still retained.
func (m *Manager[I]) restorePreTickFrame(frame uint64) {
	sf := &m.history[frame%uint64(len(m.history))]
	if sf.valid && sf.number == frame {
		m.world.RestoreFrame(sf.frame)
	}
}

// storeCurrentFrame deep-copies the current frame into its ring slot,
// reusing the replaced occupant's buffers. Snapshot marking follows the
// configured interval unless forced.
func (m *Manager[I]) storeCurrentFrame(forceSnapshot bool) {
	frame := m.world.Frame()
	sf := &m.history[frame.Number%uint64(len(m.history))]

	if sf.valid {
		m.log.WithFields(logrus.Fields{
			"evicted": sf.number,
			"frame":   frame.Number,
		}).Debug("rollback: ring slot overwritten")
	}

	checksum, fellBack := frameChecksum(frame)
	if fellBack {
		m.stats.ChecksumFallbacks++
	}

	sf.frame = m.world.SaveFrameInto(sf.frame)
	sf.checksum = checksum
	sf.number = frame.Number
	sf.isSnapshot = forceSnapshot || frame.Number%uint64(m.cfg.SnapshotInterval) == 0
	sf.confirmed = false
	sf.valid = true

	if sf.isSnapshot {
		m.stats.SnapshotsSaved++
		m.log.WithFields(logrus.Fields{
			"frame":    sf.number,
			"checksum": fmt.Sprintf("%016x", sf.checksum),
			"entities": frame.State.EntityCount(),
		}).Debug("rollback: snapshot saved")
	}
}

// RollbackToFrame restores the world to target and replays recorded inputs
// forward. It finds the nearest retained snapshot at or below target,
// restores it, and re-simulates each frame up to target with the input
// recorded for it (zero input where none is recorded). ErrFrameOutOfRange
// and ErrSnapshotNotFound leave the manager's state unchanged. A system
// error during replay is returned after the snapshot has been restored; the
// manager is then left at the last frame replayed before the failing one.
func (m *Manager[I]) RollbackToFrame(target uint64) error {
	if target < m.oldestFrame || target > m.currentFrame {
		return fmt.Errorf("frame %d outside retained range [%d, %d]: %w",
			target, m.oldestFrame, m.currentFrame, ErrFrameOutOfRange)
	}
	snapFrame, ok := m.findSnapshotAtOrBelow(target)
	if !ok {
		return fmt.Errorf("frame %d: %w", target, ErrSnapshotNotFound)
	}

	sf := &m.history[snapFrame%uint64(len(m.history))]
	m.world.RestoreFrame(sf.frame)
	m.currentFrame = snapFrame
	m.totalTime = float64(snapFrame) * m.fixedDT
	m.stats.Rollbacks++

	m.log.WithFields(logrus.Fields{
		"target":   target,
		"snapshot": snapFrame,
		"replay":   target - snapFrame,
	}).Debug("rollback: restored snapshot")

	for f := snapFrame + 1; f <= target; f++ {
		if err := m.SimulateFrame(m.inputs.InputFor(f)); err != nil {
			return fmt.Errorf("replay frame %d: %w", f, err)
		}
		m.stats.FramesReplayed++
	}
	return nil
}

// findSnapshotAtOrBelow scans backward from target for the greatest retained
// frame marked as a snapshot.
func (m *Manager[I]) findSnapshotAtOrBelow(target uint64) (uint64, bool) {
	f := target
	for {
		sf := &m.history[f%uint64(len(m.history))]
		if sf.valid && sf.number == f && sf.isSnapshot {
			return f, true
		}
		if f == m.oldestFrame {
			return 0, false
		}
		f--
	}
}

// ConfirmFrame marks a retained frame as confirmed by the external network
// authority and advances the confirmation watermark. It returns false for
// frames outside the retained range. Confirmation never triggers rollback
// by itself.
func (m *Manager[I]) ConfirmFrame(frame uint64) bool {
	if frame < m.oldestFrame || frame > m.currentFrame {
		return false
	}
	sf := &m.history[frame%uint64(len(m.history))]
	if !sf.valid || sf.number != frame {
		return false
	}
	sf.confirmed = true
	if frame > m.lastConfirmedFrame {
		m.lastConfirmedFrame = frame
	}
	m.stats.FramesConfirmed++

	meta := StoredFrameMeta{
		Number:     sf.number,
		Checksum:   sf.checksum,
		IsSnapshot: sf.isSnapshot,
		Confirmed:  true,
	}
	if m.onConfirm != nil {
		m.onConfirm(meta)
	}
	m.log.WithFields(logrus.Fields{
		"frame":          frame,
		"last_confirmed": m.lastConfirmedFrame,
	}).Debug("rollback: frame confirmed")
	return true
}
