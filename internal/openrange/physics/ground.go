package physics

import "math"

// Surface describes the ground the ball lands on.
type Surface struct {
	Name           string
	COR            float64 // coefficient of restitution
	Friction       float64 // tangential friction on bounce
	RollResistance float64
}

var (
	Fairway = Surface{Name: "fairway", COR: 0.60, Friction: 0.50, RollResistance: 0.10}
	Rough   = Surface{Name: "rough", COR: 0.30, Friction: 0.70, RollResistance: 0.30}
	Green   = Surface{Name: "green", COR: 0.40, Friction: 0.30, RollResistance: 0.05}
	Bunker  = Surface{Name: "bunker", COR: 0.20, Friction: 0.80, RollResistance: 0.50}
)

// SurfaceByName looks up a surface by its settings name.
func SurfaceByName(name string) (Surface, bool) {
	switch name {
	case Fairway.Name:
		return Fairway, true
	case Rough.Name:
		return Rough, true
	case Green.Name:
		return Green, true
	case Bunker.Name:
		return Bunker, true
	default:
		return Surface{}, false
	}
}

// Bounce and roll constants.
const (
	// bounceLiftHeight keeps a fresh bounce from re-triggering the landing
	// condition on the next step.
	bounceLiftHeight = 0.001

	// rollingSpeedThreshold ends the bounce phase: a rebound slower than
	// this has no meaningful next arc.
	rollingSpeedThreshold = 1.0

	maxBounces = 5

	// Spin retention on bounce scales with the friction impulse.
	spinRetentionRate  = 0.06
	spinRetentionFloor = 0.4

	minRollDecel = 0.5

	// rollSpinFactor converts residual backspin to a small roll
	// acceleration term. Tunable.
	rollSpinFactor = 0.0001
	rollSpinCap    = 0.3

	stopSpeed = 0.1
)

// bounce reflects the ball off the ground, bleeding tangential velocity and
// spin through friction. The state is modified in place.
func bounce(s *ballState, surf Surface) {
	vn := s.vel.Y
	vt := Vec3{X: s.vel.X, Z: s.vel.Z}
	vtMag := vt.Norm()

	impulse := math.Min(surf.Friction*math.Abs(vn), vtMag)
	if vtMag > 1e-9 {
		vt = vt.Scale((vtMag - impulse) / vtMag)
	}

	s.vel = Vec3{X: vt.X, Y: -surf.COR * vn, Z: vt.Z}
	s.pos.Y = bounceLiftHeight

	retention := 1 - spinRetentionRate*impulse
	if retention < spinRetentionFloor {
		retention = spinRetentionFloor
	}
	s.backRPM *= retention
	s.sideRPM *= retention
}

// startRolling flattens the state onto the ground for the roll phase.
func startRolling(s *ballState) {
	s.vel.Y = 0
	s.pos.Y = 0
}

// rollStep advances the rolling ball one step. Returns true once stopped.
// Residual backspin slightly brakes (positive) or extends (negative) the
// roll.
func rollStep(s *ballState, surf Surface) bool {
	speed := math.Hypot(s.vel.X, s.vel.Z)
	if speed < stopSpeed {
		s.vel = Vec3{}
		return true
	}

	decel := math.Max(minRollDecel, surf.RollResistance*gravity)
	spinTerm := rollSpinFactor * s.backRPM * gravity
	if spinTerm > rollSpinCap {
		spinTerm = rollSpinCap
	} else if spinTerm < -rollSpinCap {
		spinTerm = -rollSpinCap
	}

	newSpeed := speed - (decel+spinTerm)*dt
	if newSpeed < stopSpeed {
		s.pos.X += s.vel.X * dt
		s.pos.Z += s.vel.Z * dt
		s.t += dt
		s.vel = Vec3{}
		return true
	}

	scale := newSpeed / speed
	s.vel.X *= scale
	s.vel.Z *= scale
	s.pos.X += s.vel.X * dt
	s.pos.Z += s.vel.Z * dt
	s.t += dt

	decay := 1 - spinDecayRate*dt
	s.backRPM *= decay
	s.sideRPM *= decay
	return false
}
