// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// ShotFrame is a parsed 0H message. Presence flags distinguish a genuine
// zero from an absent field; the completion policy depends on them.
type ShotFrame struct {
	ShotID int64

	// MsecSinceContact separates the device's preliminary transmission
	// (< 500 ms after contact) from the refined one. Absent on some frames.
	MsecSinceContact int64
	HasContactTime   bool

	BallSpeedMPH float64
	HasBallSpeed bool

	VLADeg float64 // vertical launch angle (ELEVATION_DEG)
	HasVLA bool

	HLADeg float64 // horizontal launch angle (AZIMUTH_DEG)
	HasHLA bool

	TotalSpinRPM float64

	BackSpinRPM float64
	HasBackSpin bool

	SideSpinRPM float64
	HasSideSpin bool

	HasHMT bool
	Club   *ClubFrame
}

// ClubFrame carries the optional head-measurement (HMT) fields of a 0H message.
type ClubFrame struct {
	SpeedMPH        float64
	PathHDeg        float64 // horizontal swing path (HPATH_DEG)
	PathVDeg        float64 // attack angle (VPATH_DEG)
	FaceToTargetDeg float64
	LieDeg          float64
	LoftDeg         float64
	HImpactMM       float64
	VImpactMM       float64
	ClosureRateDegS float64
}

// SpinAxisDeg derives the spin axis from the back/side components.
// Zero backspin pins the axis to zero.
func (f *ShotFrame) SpinAxisDeg() float64 {
	if f.BackSpinRPM == 0 {
		return 0.0
	}
	return math.Atan2(f.SideSpinRPM, f.BackSpinRPM) * 180.0 / math.Pi
}

// Merge fills fields absent on f from an earlier frame for the same shot id.
// Later (refined) values always win; only missing ones are seeded.
func (f *ShotFrame) Merge(earlier *ShotFrame) {
	if earlier == nil {
		return
	}
	if !f.HasBallSpeed && earlier.HasBallSpeed {
		f.BallSpeedMPH, f.HasBallSpeed = earlier.BallSpeedMPH, true
	}
	if !f.HasVLA && earlier.HasVLA {
		f.VLADeg, f.HasVLA = earlier.VLADeg, true
	}
	if !f.HasHLA && earlier.HasHLA {
		f.HLADeg, f.HasHLA = earlier.HLADeg, true
	}
	if !f.HasBackSpin && earlier.HasBackSpin {
		f.BackSpinRPM, f.HasBackSpin = earlier.BackSpinRPM, true
	}
	if !f.HasSideSpin && earlier.HasSideSpin {
		f.SideSpinRPM, f.HasSideSpin = earlier.SideSpinRPM, true
	}
	if f.TotalSpinRPM == 0 {
		f.TotalSpinRPM = earlier.TotalSpinRPM
	}
	if f.Club == nil && earlier.Club != nil {
		f.Club = earlier.Club
		f.HasHMT = f.HasHMT || earlier.HasHMT
	}
}

// StatusFrame is a parsed 0M message.
type StatusFrame struct {
	Flags int64
	Balls int64

	// BallPosition is the optional BALL1=x,y,z payload.
	BallPosition    [3]int64
	HasBallPosition bool
}

// readyFlags is the 3-bit mask the device reports when fully ready (green light).
const readyFlags = 7

// Ready reports whether the device signalled full readiness.
func (s *StatusFrame) Ready() bool { return s.Flags == readyFlags }

// BallDetected reports whether at least one ball is in view.
func (s *StatusFrame) BallDetected() bool { return s.Balls > 0 }

// ValidatedShot is a ShotFrame that cleared validation and completion policy.
type ValidatedShot struct {
	ShotID     int64
	ShotNumber int64 // assigned by the router, strictly increasing per process
	AcceptedAt time.Time

	// Incomplete marks a salvage emission: the refined frame never completed
	// and defaults were substituted for the missing angles.
	Incomplete bool

	BallSpeedMPH float64
	VLADeg       float64
	HLADeg       float64
	TotalSpinRPM float64
	BackSpinRPM  float64
	SideSpinRPM  float64
	SpinAxisDeg  float64

	Club *ClubFrame
}
