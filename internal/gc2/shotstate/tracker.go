// Package shotstate accumulates per-shot-id frames and applies the
// completion and validation policy.
//
// The device transmits each shot up to twice: a preliminary frame shortly
// after contact and a refined frame once spin has resolved. Preliminary
// frames are never emitted; they only seed fields a refined frame may lack.
// If the refined frame never completes, the spin-wait timeout salvages
// whatever arrived.
package shotstate

import (
	"context"
	"time"

	"github.com/okian/gc2link/internal/domain/dedupe"
	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/pkg/metrics"
)

// refinedContactMillis separates the device's preliminary transmission from
// the refined one. Heuristic observed on real hardware.
const refinedContactMillis = 500

// DefaultSpinWait is the salvage timeout measured from the first frame of a
// shot id.
const DefaultSpinWait = 1500 * time.Millisecond

// Salvage defaults substituted for angles the device never sent.
const (
	salvageVLADeg = 20.0
	salvageHLADeg = 0.0
)

// Validation bounds.
const (
	sentinelBackSpinRPM = 2222.0 // device error code
	maxBallSpeedMPH     = 250.0
)

// accumulator tracks one shot id between its first frame and resolution.
type accumulator struct {
	frame     model.ShotFrame
	firstSeen time.Time
}

// Tracker is the per-shot-id state machine. Safe for concurrent use, though
// in practice a single pipeline goroutine owns it.
type Tracker struct {
	deduper        dedupe.Deduper
	pending        map[int64]*accumulator
	spinWait       time.Duration
	rejectZeroSpin bool
}

// New creates a Tracker with configuration options.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		deduper:        dedupe.NewInMemoryDeduper(),
		pending:        make(map[int64]*accumulator),
		spinWait:       DefaultSpinWait,
		rejectZeroSpin: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe feeds one parsed shot frame. partial marks a salvage candidate cut
// short by a status interruption. A non-nil ValidatedShot means the shot
// completed and cleared validation; a *Rejection error means it was
// discarded. (nil, nil) means the tracker is still waiting.
func (t *Tracker) Observe(ctx context.Context, f model.ShotFrame, partial bool, now time.Time) (*model.ValidatedShot, error) {
	if f.ShotID <= 0 {
		return nil, &Rejection{Reason: ReasonNoShotID}
	}
	if t.deduper.Seen(ctx, f.ShotID) {
		metrics.RecordShotDuplicate()
		return nil, &Rejection{ShotID: f.ShotID, Reason: ReasonDuplicate}
	}

	acc, ok := t.pending[f.ShotID]
	if !ok {
		acc = &accumulator{firstSeen: now}
		t.pending[f.ShotID] = acc
	} else {
		// Refined values win; earlier preliminary fields seed the gaps.
		f.Merge(&acc.frame)
	}
	acc.frame = f

	preliminary := f.HasContactTime && f.MsecSinceContact < refinedContactMillis

	// Preliminary and interrupted frames are retained, never emitted here.
	if preliminary || partial {
		return nil, nil
	}
	if !t.complete(&acc.frame) {
		// Refined but missing required fields: the spin-wait may still
		// salvage it, or a further frame may fill it in.
		return nil, nil
	}

	return t.resolve(ctx, f.ShotID, acc, now, false)
}

// Expire sweeps accumulators whose spin-wait elapsed. Shots with at least a
// shot id and ball speed are salvaged with defaults; the rest are discarded.
// Returns emitted shots and rejections for diagnostics.
func (t *Tracker) Expire(ctx context.Context, now time.Time) ([]*model.ValidatedShot, []*Rejection) {
	var emitted []*model.ValidatedShot
	var rejected []*Rejection

	for id, acc := range t.pending {
		if now.Sub(acc.firstSeen) < t.spinWait {
			continue
		}
		if !acc.frame.HasBallSpeed {
			delete(t.pending, id)
			rejected = append(rejected, &Rejection{ShotID: id, Reason: ReasonTimedOut})
			continue
		}

		shot, err := t.resolve(ctx, id, acc, now, true)
		if shot != nil {
			emitted = append(emitted, shot)
		}
		if err != nil {
			if rej, ok := err.(*Rejection); ok {
				rejected = append(rejected, rej)
			}
		}
	}
	return emitted, rejected
}

// PendingCount reports accumulators still waiting on refinement or timeout.
func (t *Tracker) PendingCount() int { return len(t.pending) }

// complete reports whether a frame satisfies the completion policy.
func (t *Tracker) complete(f *model.ShotFrame) bool {
	if f.ShotID <= 0 || !f.HasBallSpeed {
		return false
	}
	if !f.HasBackSpin && !f.HasSideSpin {
		return false
	}
	if f.HasHMT && f.Club == nil {
		return false
	}
	return true
}

// resolve validates the accumulated frame and either emits or discards it.
// The accumulator is destroyed either way.
func (t *Tracker) resolve(ctx context.Context, id int64, acc *accumulator, now time.Time, salvage bool) (*model.ValidatedShot, error) {
	delete(t.pending, id)
	f := acc.frame

	if salvage {
		if !f.HasVLA {
			f.VLADeg = salvageVLADeg
		}
		if !f.HasHLA {
			f.HLADeg = salvageHLADeg
		}
	} else if t.rejectZeroSpin && f.BackSpinRPM == 0 && f.SideSpinRPM == 0 {
		// Zero spin on a refined frame is a misread. Salvage emissions are
		// exempt: their spins are legitimately unknown.
		metrics.RecordShotRejected(ReasonZeroSpin)
		return nil, &Rejection{ShotID: id, Reason: ReasonZeroSpin}
	}

	if f.BackSpinRPM == sentinelBackSpinRPM {
		metrics.RecordShotRejected(ReasonErrorSentinel)
		return nil, &Rejection{ShotID: id, Reason: ReasonErrorSentinel}
	}
	if f.BallSpeedMPH <= 0 || f.BallSpeedMPH > maxBallSpeedMPH {
		metrics.RecordShotRejected(ReasonSpeedOutOfRange)
		return nil, &Rejection{ShotID: id, Reason: ReasonSpeedOutOfRange}
	}
	if t.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordShotDuplicate()
		return nil, &Rejection{ShotID: id, Reason: ReasonDuplicate}
	}

	shot := &model.ValidatedShot{
		ShotID:       id,
		AcceptedAt:   now,
		Incomplete:   salvage,
		BallSpeedMPH: f.BallSpeedMPH,
		VLADeg:       f.VLADeg,
		HLADeg:       f.HLADeg,
		TotalSpinRPM: f.TotalSpinRPM,
		BackSpinRPM:  f.BackSpinRPM,
		SideSpinRPM:  f.SideSpinRPM,
		SpinAxisDeg:  f.SpinAxisDeg(),
		Club:         f.Club,
	}

	if salvage {
		metrics.RecordShotSalvaged()
	}
	metrics.RecordShotValidated()
	return shot, nil
}
