package rollback

import "fmt"

// Config holds the init-time tuning of the rollback manager.
type Config struct {
	// MaxRollbackFrames is the history ring capacity: how many recent frames
	// stay restorable.
	MaxRollbackFrames int

	// SnapshotInterval is the number of frames between forced full
	// snapshots. Frame 0 is always a snapshot.
	SnapshotInterval int

	// TickRate is the number of simulation ticks per second; the fixed
	// timestep is its inverse.
	TickRate int

	// MaxPredictionFrames bounds speculative advancement beyond the last
	// confirmed frame. Reserved: validated and stored, not yet acted on.
	MaxPredictionFrames int
}

// DefaultConfig returns the standard 60 Hz configuration: ten seconds of
// history with a snapshot every second.
func DefaultConfig() Config {
	return Config{
		MaxRollbackFrames:   600,
		SnapshotInterval:    60,
		TickRate:            60,
		MaxPredictionFrames: 10,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.MaxRollbackFrames <= 0 {
		return fmt.Errorf("max rollback frames %d: %w", c.MaxRollbackFrames, ErrInvalidConfig)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval %d: %w", c.SnapshotInterval, ErrInvalidConfig)
	}
	if c.SnapshotInterval > c.MaxRollbackFrames {
		return fmt.Errorf("snapshot interval %d exceeds ring capacity %d: %w",
			c.SnapshotInterval, c.MaxRollbackFrames, ErrInvalidConfig)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate %d: %w", c.TickRate, ErrInvalidConfig)
	}
	if c.MaxPredictionFrames < 0 {
		return fmt.Errorf("max prediction frames %d: %w", c.MaxPredictionFrames, ErrInvalidConfig)
	}
	return nil
}

// FixedDT returns the simulated seconds advanced per tick.
func (c Config) FixedDT() float64 {
	return 1.0 / float64(c.TickRate)
}
