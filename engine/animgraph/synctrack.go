package animgraph

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

// SyncEvent is one phase marker on a SyncTrack. ID and MirrorID are interned event type names.
type SyncEvent struct {
	ID       uint32
	MirrorID uint32
	Time     float32
}

// matches reports whether e is of the given type, honouring the mirrored type when mirror is set.
func (e SyncEvent) matches(id uint32, mirror bool) bool {
	if mirror && e.MirrorID != 0 {
		return e.MirrorID == id
	}
	return e.ID == id
}

// typeID returns the type the event reads as, honouring mirroring.
func (e SyncEvent) typeID(mirror bool) uint32 {
	if mirror && e.MirrorID != 0 {
		return e.MirrorID
	}
	return e.ID
}

// SyncTrack is a time-sorted list of phase markers spanning a motion's duration.
// Tracks are immutable once built and may be shared between instances.
type SyncTrack struct {
	duration float32
	events   []SyncEvent
	mirror   bool
}

// NewSyncTrack builds a track. Events are copied and sorted by time.
//
// Parameters:
//   - duration: the length of the time source in seconds
//   - events: the markers, in any order
//
// Returns:
//   - *SyncTrack: the track
func NewSyncTrack(duration float32, events []SyncEvent) *SyncTrack {
	evs := append([]SyncEvent(nil), events...)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Time < evs[j].Time })
	return &SyncTrack{duration: duration, events: evs}
}

// SyncTrackFromModel converts authored sync events into a track, interning their type names.
func SyncTrackFromModel(duration float32, events []model.SyncEvent) *SyncTrack {
	evs := make([]SyncEvent, len(events))
	for i, e := range events {
		evs[i] = SyncEvent{ID: StringID(e.Type), MirrorID: StringID(e.Mirror), Time: e.Time}
	}
	return NewSyncTrack(duration, evs)
}

// Mirrored returns a view of t whose events read as their mirrored types.
func (t *SyncTrack) Mirrored() *SyncTrack {
	return &SyncTrack{duration: t.duration, events: t.events, mirror: true}
}

// Duration returns the track length.
func (t *SyncTrack) Duration() float32 { return t.duration }

// NumEvents returns the number of markers.
func (t *SyncTrack) NumEvents() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// Event returns the marker at index.
func (t *SyncTrack) Event(index int) SyncEvent { return t.events[index] }

// FindEventIndices finds the markers bracketing time tm. Between the last and the first
// marker the segment wraps: the result is (N-1, 0).
//
// Parameters:
//   - tm: the time in seconds
//
// Returns:
//   - int: index of the marker at or before tm
//   - int: index of the marker after tm
//   - bool: false for an empty track
func (t *SyncTrack) FindEventIndices(tm float32) (int, int, bool) {
	n := t.NumEvents()
	if n == 0 {
		return InvalidIndex, InvalidIndex, false
	}
	if tm < t.events[0].Time || tm >= t.events[n-1].Time {
		return n - 1, 0, true
	}
	j := sort.Search(n, func(i int) bool { return t.events[i].Time > tm })
	return j - 1, j, true
}

// CalcSegmentLength returns the time between two markers, wrapping through the end of the
// track when right does not come after left.
func (t *SyncTrack) CalcSegmentLength(left, right int) float32 {
	if left < right {
		return t.events[right].Time - t.events[left].Time
	}
	return t.duration - t.events[left].Time + t.events[right].Time
}

// FindMatchingEvents searches for a consecutive marker pair of the given types, starting
// at syncIndex and walking in the play direction.
//
// Parameters:
//   - syncIndex: where to start; InvalidIndex starts at the wrapping pair
//   - firstID: type of the left marker
//   - secondID: type of the right marker
//   - forward: the walk direction
//
// Returns:
//   - int: left marker index
//   - int: right marker index
//   - bool: whether a pair was found
func (t *SyncTrack) FindMatchingEvents(syncIndex int, firstID, secondID uint32, forward bool) (int, int, bool) {
	n := t.NumEvents()
	switch n {
	case 0:
		return InvalidIndex, InvalidIndex, false
	case 1:
		return 0, 0, true
	}
	if syncIndex < 0 || syncIndex >= n {
		if forward {
			syncIndex = n - 1
		} else {
			syncIndex = 0
		}
	}
	for i := 0; i < n; i++ {
		var left int
		if forward {
			left = (syncIndex + i) % n
		} else {
			left = ((syncIndex-i)%n + n) % n
		}
		right := (left + 1) % n
		if t.events[left].matches(firstID, t.mirror) && t.events[right].matches(secondID, t.mirror) {
			return left, right, true
		}
	}
	return InvalidIndex, InvalidIndex, false
}

// CalcOccurrence counts how often the type pair at (left, right) occurs on the track up to
// and including that pair. Occurrences start at 1.
func (t *SyncTrack) CalcOccurrence(left, right int) int {
	n := t.NumEvents()
	if n == 0 || left < 0 || right < 0 {
		return 0
	}
	firstID := t.events[left].typeID(t.mirror)
	secondID := t.events[right].typeID(t.mirror)
	occurrence := 0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if t.events[i].matches(firstID, t.mirror) && t.events[j].matches(secondID, t.mirror) {
			occurrence++
		}
		if i == left {
			break
		}
	}
	return occurrence
}

// ExtractOccurrence finds the occurrence-th pair of the given types. When the track holds
// fewer pairs than requested the count wraps around.
//
// Returns:
//   - int: left marker index
//   - int: right marker index
//   - bool: whether any matching pair exists
func (t *SyncTrack) ExtractOccurrence(occurrence int, firstID, secondID uint32) (int, int, bool) {
	n := t.NumEvents()
	if n == 0 {
		return InvalidIndex, InvalidIndex, false
	}
	var pairs [][2]int
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if t.events[i].matches(firstID, t.mirror) && t.events[j].matches(secondID, t.mirror) {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	if len(pairs) == 0 {
		return InvalidIndex, InvalidIndex, false
	}
	if occurrence < 1 {
		occurrence = 1
	}
	p := pairs[(occurrence-1)%len(pairs)]
	return p[0], p[1], true
}
