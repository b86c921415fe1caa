// Package history keeps a bounded, newest-first record of session shots.
package history

import (
	"sync"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
)

const defaultLimit = 50

// Entry pairs a validated shot with its local simulation result, when one
// exists. Shots routed to a remote simulator have a nil Result.
type Entry struct {
	Shot       model.ValidatedShot `json:"shot"`
	Result     *model.ShotResult   `json:"result,omitempty"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// Recorder stores the most recent shots of the session.
type Recorder struct {
	mu      sync.RWMutex
	limit   int
	entries []Entry // newest first
}

// NewRecorder creates a Recorder keeping at most limit entries.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Recorder{limit: limit}
}

// Add records a shot, evicting the oldest entry when full.
func (r *Recorder) Add(shot model.ValidatedShot, result *model.ShotResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{Shot: shot, Result: result, RecordedAt: time.Now()}
	r.entries = append([]Entry{entry}, r.entries...)
	if len(r.entries) > r.limit {
		r.entries = r.entries[:r.limit]
	}
}

// Entries returns a copy of the history, newest first.
func (r *Recorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of recorded shots.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear discards the history.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Stats summarizes the recorded shots.
type Stats struct {
	Count           int     `json:"count"`
	AvgBallSpeedMPH float64 `json:"avg_ball_speed"`
	MaxBallSpeedMPH float64 `json:"max_ball_speed"`
	AvgVLADeg       float64 `json:"avg_launch_angle"`
	AvgTotalSpinRPM float64 `json:"avg_total_spin"`
}

// Stats computes aggregates over the current history.
func (r *Recorder) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Count: len(r.entries)}
	if s.Count == 0 {
		return s
	}
	for _, e := range r.entries {
		s.AvgBallSpeedMPH += e.Shot.BallSpeedMPH
		s.AvgVLADeg += e.Shot.VLADeg
		s.AvgTotalSpinRPM += e.Shot.TotalSpinRPM
		if e.Shot.BallSpeedMPH > s.MaxBallSpeedMPH {
			s.MaxBallSpeedMPH = e.Shot.BallSpeedMPH
		}
	}
	n := float64(s.Count)
	s.AvgBallSpeedMPH /= n
	s.AvgVLADeg /= n
	s.AvgTotalSpinRPM /= n
	return s
}
