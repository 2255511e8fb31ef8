package rollback

import "sort"

type inputRecord[I any] struct {
	frame uint64
	input I
}

// InputBuffer is the ordered (frame, input) history the manager replays
// from. Records stay sorted by frame; recording a frame twice overwrites the
// earlier value, which is how a corrected remote input displaces the local
// prediction before replay.
type InputBuffer[I any] struct {
	records []inputRecord[I]
}

// Record stores input against frame.
func (b *InputBuffer[I]) Record(frame uint64, input I) {
	n := len(b.records)
	if n == 0 || b.records[n-1].frame < frame {
		b.records = append(b.records, inputRecord[I]{frame: frame, input: input})
		return
	}
	i := sort.Search(n, func(i int) bool { return b.records[i].frame >= frame })
	if i < n && b.records[i].frame == frame {
		b.records[i].input = input
		return
	}
	b.records = append(b.records, inputRecord[I]{})
	copy(b.records[i+1:], b.records[i:])
	b.records[i] = inputRecord[I]{frame: frame, input: input}
}

// InputFor returns the recorded input for frame, or the zero input when none
// is recorded.
func (b *InputBuffer[I]) InputFor(frame uint64) I {
	i := sort.Search(len(b.records), func(i int) bool { return b.records[i].frame >= frame })
	if i < len(b.records) && b.records[i].frame == frame {
		return b.records[i].input
	}
	var zero I
	return zero
}

// Trim drops records older than oldest, keeping the buffer aligned with the
// history ring.
func (b *InputBuffer[I]) Trim(oldest uint64) {
	i := sort.Search(len(b.records), func(i int) bool { return b.records[i].frame >= oldest })
	if i == 0 {
		return
	}
	b.records = append(b.records[:0], b.records[i:]...)
}

// Len returns the number of retained records.
func (b *InputBuffer[I]) Len() int {
	return len(b.records)
}
