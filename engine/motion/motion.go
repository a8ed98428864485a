// Package motion provides playable motions: clips with sync and gameplay events,
// a thread-safe motion set, and per-user playback instances.
package motion

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
)

var (
	// ErrDuplicateMotion is returned when a motion id is already registered in a Set.
	ErrDuplicateMotion = errors.New("motion: duplicate motion id")

	// ErrNilClip is returned when a motion is created without a clip.
	ErrNilClip = errors.New("motion: nil clip")
)

// Motion is a read-only animation clip with sorted sync and gameplay events.
// A Motion is shared by every instance that plays it.
type Motion struct {
	id         string
	clip       *model.AnimationClip
	syncEvents []model.SyncEvent
	events     []model.MotionEvent
}

// New wraps a clip as a motion, sorting its event lists by time.
//
// Parameters:
//   - id: the motion id used by graph nodes to reference it
//   - clip: the animation clip
//
// Returns:
//   - *Motion: the motion
//   - error: ErrNilClip when clip is nil
func New(id string, clip *model.AnimationClip) (*Motion, error) {
	if clip == nil {
		return nil, fmt.Errorf("motion %q: %w", id, ErrNilClip)
	}
	m := &Motion{
		id:         id,
		clip:       clip,
		syncEvents: append([]model.SyncEvent(nil), clip.SyncEvents...),
		events:     append([]model.MotionEvent(nil), clip.Events...),
	}
	sort.SliceStable(m.syncEvents, func(i, j int) bool { return m.syncEvents[i].Time < m.syncEvents[j].Time })
	sort.SliceStable(m.events, func(i, j int) bool { return m.events[i].StartTime < m.events[j].StartTime })
	return m, nil
}

// ID returns the motion id.
func (m *Motion) ID() string {
	return m.id
}

// Clip returns the underlying clip.
func (m *Motion) Clip() *model.AnimationClip {
	return m.clip
}

// Duration returns the clip length in seconds.
func (m *Motion) Duration() float32 {
	return m.clip.Duration
}

// SyncEvents returns the sync events sorted by time. The slice must not be modified.
func (m *Motion) SyncEvents() []model.SyncEvent {
	return m.syncEvents
}

// Events returns the gameplay events sorted by start time. The slice must not be modified.
func (m *Motion) Events() []model.MotionEvent {
	return m.events
}

// Set is a thread-safe collection of motions keyed by id.
type Set struct {
	mu      sync.RWMutex
	motions map[string]*Motion
}

// NewSet creates an empty motion set.
func NewSet() *Set {
	return &Set{motions: make(map[string]*Motion)}
}

// Add registers a motion.
//
// Parameters:
//   - m: the motion to add
//
// Returns:
//   - error: ErrDuplicateMotion if the id is taken
func (s *Set) Add(m *Motion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.motions[m.id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateMotion, m.id)
	}
	s.motions[m.id] = m
	return nil
}

// AddClips wraps every clip as a motion named after the clip and registers it.
//
// Parameters:
//   - clips: the clips to add
//
// Returns:
//   - error: the first failure
func (s *Set) AddClips(clips []*model.AnimationClip) error {
	for _, c := range clips {
		m, err := New(c.Name, c)
		if err != nil {
			return err
		}
		if err := s.Add(m); err != nil {
			return err
		}
	}
	return nil
}

// Remove unregisters a motion. Instances already playing it keep their reference.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.motions, id)
}

// Motion looks up a motion by id.
//
// Parameters:
//   - id: the motion id
//
// Returns:
//   - *Motion: the motion, or nil when unknown
func (s *Set) Motion(id string) *Motion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.motions[id]
}

// IDs returns every registered id in ascending order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return common.SortedKeys(s.motions)
}
