package animgraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

// SyncMode selects how two time sources are aligned.
type SyncMode int

const (
	// SyncDisabled leaves both sources unsynchronized.
	SyncDisabled SyncMode = iota
	// SyncTrackBased aligns the sources on matching sync track segments, falling back to
	// clip-based alignment when either side has no markers.
	SyncTrackBased
	// SyncClipBased aligns the sources on normalized time.
	SyncClipBased
)

var syncModeNames = [...]string{
	SyncDisabled:   "disabled",
	SyncTrackBased: "track",
	SyncClipBased:  "clip",
}

// String returns the document name of the mode.
func (m SyncMode) String() string {
	if m >= 0 && int(m) < len(syncModeNames) {
		return syncModeNames[m]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m SyncMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SyncMode) UnmarshalText(b []byte) error {
	for i, n := range syncModeNames {
		if n == string(b) {
			*m = SyncMode(i)
			return nil
		}
	}
	return fmt.Errorf("animgraph: unknown sync mode %q", b)
}

// Syncable is a time source that can take part in synchronization: a node within an
// instance, or one motion of a blend space.
type Syncable interface {
	SyncTrack() *SyncTrack
	Duration() float32
	CurrentTime() float32
	SetCurrentTime(t float32)
	PlaySpeed() float32
	SetPlaySpeed(speed float32)
	SyncIndex() int
	SetSyncIndex(index int)
	IsBackward() bool
	SyncIndexChanged() bool
	SetSyncIndexChanged(changed bool)
}

func hasSyncEvents(s Syncable) bool {
	return s.SyncTrack().NumEvents() > 0
}

// CalcSyncFactors computes the play speed multipliers that give master and slave the same
// phase duration at the given blend weight, and the blended play speed.
//
// Parameters:
//   - master: the leading source
//   - slave: the following source
//   - mode: the sync mode
//   - weight: blend weight of the slave in [0, 1]
//
// Returns:
//   - float32: factor for the master
//   - float32: factor for the slave
//   - float32: the blended play speed
func CalcSyncFactors(master, slave Syncable, mode SyncMode, weight float32) (float32, float32, float32) {
	playSpeed := common.Lerp(master.PlaySpeed(), slave.PlaySpeed(), weight)
	if mode == SyncDisabled {
		return 1, 1, playSpeed
	}

	var durA, durB float32
	if mode == SyncTrackBased && hasSyncEvents(master) && hasSyncEvents(slave) {
		idxA, idxB := master.SyncIndex(), slave.SyncIndex()
		trackA, trackB := master.SyncTrack(), slave.SyncTrack()
		if idxA < 0 || idxB < 0 || idxA >= trackA.NumEvents() || idxB >= trackB.NumEvents() {
			return 1, 1, playSpeed
		}
		durA = trackA.CalcSegmentLength(idxA, (idxA+1)%trackA.NumEvents())
		durB = trackB.CalcSegmentLength(idxB, (idxB+1)%trackB.NumEvents())
	} else {
		durA = master.Duration()
		durB = slave.Duration()
	}
	factorA, factorB := durationFactors(durA, durB, weight)
	return factorA, factorB, playSpeed
}

// durationFactors interpolates between "master keeps its duration" at weight 0 and
// "slave keeps its duration" at weight 1.
func durationFactors(durA, durB, weight float32) (float32, float32) {
	if durA <= common.Epsilon || durB <= common.Epsilon {
		return 1, 1
	}
	ratio := durA / durB
	ratio2 := durB / durA
	return common.Lerp(1, ratio, weight), common.Lerp(ratio2, 1, weight)
}

// SyncPlayTime gives the slave the master's normalized play time.
func SyncPlayTime(master, slave Syncable) {
	durA := master.Duration()
	if durA <= common.Epsilon {
		return
	}
	normalized := master.CurrentTime() / durA
	slave.SetCurrentTime(normalized * slave.Duration())
}

// SyncPlaySpeeds scales the play speeds so both sources cover their full duration in the same
// time. The master is only modified when modifyMaster is set.
func SyncPlaySpeeds(master, slave Syncable, weight float32, modifyMaster bool) {
	speedA, speedB := master.PlaySpeed(), slave.PlaySpeed()
	factorA, factorB := durationFactors(master.Duration(), slave.Duration(), weight)
	speed := common.Lerp(speedA, speedB, weight)
	if modifyMaster {
		master.SetPlaySpeed(speed * factorA)
	}
	slave.SetPlaySpeed(speed * factorB)
}

// SyncFullNode syncs play speeds, then normalized time.
func SyncFullNode(master, slave Syncable, weight float32, modifyMaster bool) {
	SyncPlaySpeeds(master, slave, weight, modifyMaster)
	SyncPlayTime(master, slave)
}

// SyncUsingSyncTracks moves the slave to the point of its sync track that matches the
// master's current phase, then matches play speeds using the current segment lengths.
//
// Parameters:
//   - master: the leading source
//   - slave: the following source
//   - weight: blend weight of the slave
//   - resync: match the pair by occurrence instead of walking from the slave's last segment
//   - modifyMaster: also scale the master's play speed
func SyncUsingSyncTracks(master, slave Syncable, weight float32, resync, modifyMaster bool) {
	trackA, trackB := master.SyncTrack(), slave.SyncTrack()
	currentTime := master.CurrentTime()
	forward := !master.IsBackward()

	firstA, firstB, ok := trackA.FindEventIndices(currentTime)
	if !ok {
		return
	}
	if master.SyncIndex() != firstA {
		master.SetSyncIndexChanged(true)
	}

	numB := trackB.NumEvents()
	startIndex := slave.SyncIndex()
	if master.SyncIndexChanged() {
		if forward {
			startIndex++
		} else {
			startIndex--
		}
		if startIndex >= numB {
			startIndex = 0
		}
		if startIndex < 0 {
			startIndex = numB - 1
		}
		slave.SetSyncIndexChanged(true)
	}

	idA, idB := trackA.Event(firstA).typeID(trackA.mirror), trackA.Event(firstB).typeID(trackA.mirror)
	var secA, secB int
	if !resync {
		secA, secB, ok = trackB.FindMatchingEvents(startIndex, idA, idB, forward)
	} else {
		occurrence := trackA.CalcOccurrence(firstA, firstB)
		secA, secB, ok = trackB.ExtractOccurrence(occurrence, idA, idB)
	}
	if !ok {
		return
	}

	master.SetSyncIndex(firstA)
	slave.SetSyncIndex(secA)

	segA := trackA.CalcSegmentLength(firstA, firstB)
	segB := trackB.CalcSegmentLength(secA, secB)

	var offset float32
	if firstA < firstB {
		if segA > common.Epsilon {
			offset = (currentTime - trackA.Event(firstA).Time) / segA
		}
	} else {
		if currentTime > trackA.Event(0).Time {
			offset = currentTime - trackA.Event(firstA).Time
		} else {
			offset = (master.Duration() - trackA.Event(firstA).Time) + currentTime
		}
		if segA > common.Epsilon {
			offset /= segA
		} else {
			offset = 0
		}
	}

	newTimeB := trackB.Event(secA).Time + segB*offset
	if secA >= secB && newTimeB > slave.Duration() {
		newTimeB = common.SafeFMod(newTimeB, slave.Duration())
	}
	slave.SetCurrentTime(newTimeB)

	factorA, factorB := durationFactors(segA, segB, weight)
	speed := common.Lerp(master.PlaySpeed(), slave.PlaySpeed(), weight)
	if modifyMaster {
		master.SetPlaySpeed(speed * factorA)
	}
	slave.SetPlaySpeed(speed * factorB)
}

// AutoSync aligns slave to master according to mode. Track-based sync falls back to
// full-clip sync when either source has no sync markers.
func AutoSync(master, slave Syncable, weight float32, mode SyncMode, resync, modifyMaster bool) {
	if mode == SyncDisabled || master == nil {
		return
	}
	if mode == SyncTrackBased && hasSyncEvents(master) && hasSyncEvents(slave) {
		SyncUsingSyncTracks(master, slave, weight, resync, modifyMaster)
		return
	}
	SyncFullNode(master, slave, weight, modifyMaster)
}
