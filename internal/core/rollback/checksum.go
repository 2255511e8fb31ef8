package rollback

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"netplay-arena/internal/core/ecs"
)

// frameChecksum digests the current frame for desync detection: xxhash64
// over the frame number, entity count, simulated time, and the canonical
// state walk. The walk visits entities in ascending ID order, so two frames
// that are equal through the public API hash equal even when their dense
// arrays were permuted by different swap-remove histories.
//
// Component types without a fixed-size binary encoding cannot take the
// canonical walk; those fall back to the weak metadata mix, which detects
// gross mismatch only. The second return reports whether the fallback was
// taken.
func frameChecksum[I any](f *ecs.Frame[I]) (uint64, bool) {
	d := xxhash.New()
	var meta [24]byte
	binary.LittleEndian.PutUint64(meta[0:], f.Number)
	binary.LittleEndian.PutUint64(meta[8:], uint64(f.State.EntityCount()))
	binary.LittleEndian.PutUint64(meta[16:], math.Float64bits(f.Time))
	_, _ = d.Write(meta[:])
	if err := f.State.WriteCanonical(d); err != nil {
		return weakChecksum(f.Number, f.State.EntityCount(), f.Time), true
	}
	return d.Sum64(), false
}

// weakChecksum is the metadata-only mix: frame ⊕ (count << 32) ⊕ μs(time).
func weakChecksum(frame uint64, entityCount int, time float64) uint64 {
	return frame ^ (uint64(entityCount) << 32) ^ uint64(time*1e6)
}
