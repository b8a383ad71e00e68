// Package sensor holds the device's last known environmental readings and
// the permissive ingestion format external sensor nodes post them in.
package sensor

import (
	"sync"
	"time"
)

// Snapshot is the last known sensor state. Last write wins; there are no
// invariants between fields.
type Snapshot struct {
	Temperature float64
	Humidity    float64
	Water       int
	UpdatedAt   time.Time
}

// Store guards a Snapshot for concurrent readers and writers.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot

	now func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Apply merges an update into the snapshot and stamps the update time.
// Only fields present in the update change.
func (s *Store) Apply(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Temperature != nil {
		s.snap.Temperature = *u.Temperature
	}
	if u.Humidity != nil {
		s.snap.Humidity = *u.Humidity
	}
	if u.Water != nil {
		s.snap.Water = *u.Water
	}
	s.snap.UpdatedAt = s.now()
}

// SetWater records the water flag alone, used by the onboard GPIO input.
func (s *Store) SetWater(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Water = level
	s.snap.UpdatedAt = s.now()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Age reports how long ago the snapshot was last written, or false if it
// never was.
func (s *Store) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap.UpdatedAt.IsZero() {
		return 0, false
	}
	return s.now().Sub(s.snap.UpdatedAt), true
}
