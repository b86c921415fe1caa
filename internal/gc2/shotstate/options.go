package shotstate

import (
	"time"

	"github.com/okian/gc2link/internal/domain/dedupe"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithSpinWait sets the salvage timeout.
func WithSpinWait(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.spinWait = d
		}
	}
}

// WithRejectZeroSpin toggles the zero-spin misread rejection.
func WithRejectZeroSpin(reject bool) Option {
	return func(t *Tracker) {
		t.rejectZeroSpin = reject
	}
}

// WithDeduper replaces the emitted-id tracker.
func WithDeduper(d dedupe.Deduper) Option {
	return func(t *Tracker) {
		if d != nil {
			t.deduper = d
		}
	}
}
