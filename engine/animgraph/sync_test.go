package animgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	idLeft  = StringID("LeftFoot")
	idRight = StringID("RightFoot")
)

type fakeSyncable struct {
	track    *SyncTrack
	duration float32
	time     float32
	speed    float32
	index    int
	backward bool
	changed  bool
}

func newFakeSyncable(track *SyncTrack, duration, time float32) *fakeSyncable {
	return &fakeSyncable{track: track, duration: duration, time: time, speed: 1, index: InvalidIndex}
}

func (f *fakeSyncable) SyncTrack() *SyncTrack            { return f.track }
func (f *fakeSyncable) Duration() float32                { return f.duration }
func (f *fakeSyncable) CurrentTime() float32             { return f.time }
func (f *fakeSyncable) SetCurrentTime(t float32)         { f.time = t }
func (f *fakeSyncable) PlaySpeed() float32               { return f.speed }
func (f *fakeSyncable) SetPlaySpeed(speed float32)       { f.speed = speed }
func (f *fakeSyncable) SyncIndex() int                   { return f.index }
func (f *fakeSyncable) SetSyncIndex(index int)           { f.index = index }
func (f *fakeSyncable) IsBackward() bool                 { return f.backward }
func (f *fakeSyncable) SyncIndexChanged() bool           { return f.changed }
func (f *fakeSyncable) SetSyncIndexChanged(changed bool) { f.changed = changed }

// footTrack returns a track with left and right markers splitting duration in two.
func footTrack(duration float32) *SyncTrack {
	return NewSyncTrack(duration, []SyncEvent{
		{ID: idRight, MirrorID: idLeft, Time: duration / 2},
		{ID: idLeft, MirrorID: idRight, Time: 0},
	})
}

// doubleStepTrack returns L R L R spread evenly over duration.
func doubleStepTrack(duration float32) *SyncTrack {
	q := duration / 4
	return NewSyncTrack(duration, []SyncEvent{
		{ID: idLeft, Time: 0},
		{ID: idRight, Time: q},
		{ID: idLeft, Time: 2 * q},
		{ID: idRight, Time: 3 * q},
	})
}

func TestSyncTrackSortsAndFindsSegments(t *testing.T) {
	track := footTrack(1)
	require.Equal(t, 2, track.NumEvents())
	assert.Equal(t, idLeft, track.Event(0).ID, "events are sorted by time")

	l, r, ok := track.FindEventIndices(0.25)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, [2]int{l, r})

	l, r, _ = track.FindEventIndices(0.75)
	assert.Equal(t, [2]int{1, 0}, [2]int{l, r}, "the last segment wraps")
	assert.InDelta(t, 0.5, track.CalcSegmentLength(1, 0), 1e-6)
	assert.InDelta(t, 0.5, track.CalcSegmentLength(0, 1), 1e-6)

	late := NewSyncTrack(1, []SyncEvent{{ID: idLeft, Time: 0.2}, {ID: idRight, Time: 0.6}})
	l, r, _ = late.FindEventIndices(0.1)
	assert.Equal(t, [2]int{1, 0}, [2]int{l, r}, "time before the first marker belongs to the wrapping segment")

	_, _, ok = NewSyncTrack(1, nil).FindEventIndices(0.5)
	assert.False(t, ok)
	var none *SyncTrack
	assert.Equal(t, 0, none.NumEvents())
}

func TestSyncTrackFindMatchingEvents(t *testing.T) {
	track := doubleStepTrack(1)

	l, r, ok := track.FindMatchingEvents(0, idRight, idLeft, true)
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 2}, [2]int{l, r})

	l, r, _ = track.FindMatchingEvents(InvalidIndex, idRight, idLeft, true)
	assert.Equal(t, [2]int{3, 0}, [2]int{l, r}, "an unset index starts at the wrapping pair")

	l, r, _ = track.FindMatchingEvents(0, idRight, idLeft, false)
	assert.Equal(t, [2]int{3, 0}, [2]int{l, r})

	_, _, ok = track.FindMatchingEvents(0, idLeft, idLeft, true)
	assert.False(t, ok)

	mirrored := footTrack(1).Mirrored()
	l, r, ok = mirrored.FindMatchingEvents(InvalidIndex, idRight, idLeft, true)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, [2]int{l, r}, "mirrored markers read as their mirror type")
}

func TestSyncTrackOccurrences(t *testing.T) {
	track := doubleStepTrack(1)
	assert.Equal(t, 1, track.CalcOccurrence(0, 1))
	assert.Equal(t, 2, track.CalcOccurrence(2, 3))
	assert.Equal(t, 2, track.CalcOccurrence(3, 0))

	l, r, ok := track.ExtractOccurrence(2, idLeft, idRight)
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 3}, [2]int{l, r})

	l, r, _ = track.ExtractOccurrence(3, idLeft, idRight)
	assert.Equal(t, [2]int{0, 1}, [2]int{l, r}, "occurrences wrap when the track has fewer pairs")

	_, _, ok = footTrack(1).ExtractOccurrence(1, idRight, idRight)
	assert.False(t, ok)
}

func TestCalcSyncFactors(t *testing.T) {
	master := newFakeSyncable(nil, 1, 0)
	slave := newFakeSyncable(nil, 2, 0)
	slave.speed = 2

	a, b, speed := CalcSyncFactors(master, slave, SyncClipBased, 0.5)
	assert.InDelta(t, 0.75, a, 1e-6)
	assert.InDelta(t, 1.5, b, 1e-6)
	assert.InDelta(t, 1.5, speed, 1e-6)

	a, b, speed = CalcSyncFactors(master, slave, SyncDisabled, 0.5)
	assert.Equal(t, [3]float32{1, 1, 1.5}, [3]float32{a, b, speed})

	master.track, slave.track = footTrack(1), footTrack(2)
	a, b, _ = CalcSyncFactors(master, slave, SyncTrackBased, 0)
	assert.Equal(t, [2]float32{1, 1}, [2]float32{a, b}, "unknown segments leave the speeds alone")

	master.index, slave.index = 0, 0
	a, b, _ = CalcSyncFactors(master, slave, SyncTrackBased, 0)
	assert.InDelta(t, 1, a, 1e-6)
	assert.InDelta(t, 2, b, 1e-6)
}

func TestSyncPlayTimeAndSpeeds(t *testing.T) {
	master := newFakeSyncable(nil, 1, 0.25)
	slave := newFakeSyncable(nil, 2, 0)

	SyncPlayTime(master, slave)
	assert.InDelta(t, 0.5, slave.time, 1e-6)

	SyncPlaySpeeds(master, slave, 0, false)
	assert.InDelta(t, 2, slave.speed, 1e-6)
	assert.Equal(t, float32(1), master.speed)

	slave.speed = 1
	SyncPlaySpeeds(master, slave, 1, true)
	assert.InDelta(t, 0.5, master.speed, 1e-6)
	assert.InDelta(t, 1, slave.speed, 1e-6, "at weight 1 the slave keeps its own duration")
}

func TestSyncUsingSyncTracksMatchesPhase(t *testing.T) {
	master := newFakeSyncable(footTrack(1), 1, 0.25)
	slave := newFakeSyncable(footTrack(2), 2, 0)

	SyncUsingSyncTracks(master, slave, 0, false, false)
	assert.InDelta(t, 0.5, slave.time, 1e-6)
	assert.InDelta(t, 2, slave.speed, 1e-6)
	assert.Equal(t, 0, master.index)
	assert.Equal(t, 0, slave.index)
	assert.True(t, slave.changed)

	master = newFakeSyncable(footTrack(1), 1, 0.75)
	slave = newFakeSyncable(footTrack(2), 2, 0)
	SyncUsingSyncTracks(master, slave, 0, false, false)
	assert.InDelta(t, 1.5, slave.time, 1e-6, "the wrapping segment maps onto the wrapping segment")
	assert.Equal(t, 1, slave.index)
}

func TestSyncUsingSyncTracksResyncByOccurrence(t *testing.T) {
	master := newFakeSyncable(doubleStepTrack(2), 2, 1.25)
	slave := newFakeSyncable(doubleStepTrack(1), 1, 0)

	SyncUsingSyncTracks(master, slave, 0, true, false)
	assert.Equal(t, 2, master.index)
	assert.Equal(t, 2, slave.index)
	assert.InDelta(t, 0.625, slave.time, 1e-6)
}

func TestAutoSyncFallsBackToClipSync(t *testing.T) {
	master := newFakeSyncable(nil, 1, 0.5)
	slave := newFakeSyncable(footTrack(4), 4, 0)

	AutoSync(master, slave, 0, SyncTrackBased, false, false)
	assert.InDelta(t, 2, slave.time, 1e-6)
	assert.InDelta(t, 4, slave.speed, 1e-6)

	slave.time = 0
	AutoSync(master, slave, 0, SyncDisabled, false, false)
	assert.Equal(t, float32(0), slave.time)
}
