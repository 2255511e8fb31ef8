package rollback

import "errors"

var (
	// ErrFrameOutOfRange is returned by rollback for a target below the
	// oldest retained frame or above the current frame.
	ErrFrameOutOfRange = errors.New("frame out of range")

	// ErrSnapshotNotFound is returned by rollback when no retained snapshot
	// exists at or below the target frame.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidConfig is returned by config validation.
	ErrInvalidConfig = errors.New("invalid rollback config")
)
