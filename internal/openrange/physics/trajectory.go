package physics

import (
	"math"

	"github.com/okian/gc2link/internal/domain/model"
)

// Integration constants.
const (
	dt = 0.01 // s, fixed RK4 step

	// spinDecayRate is the multiplicative spin loss per step.
	spinDecayRate = 0.01

	// minFlightTime guards against the launch sample itself triggering the
	// landing condition.
	minFlightTime = 0.1

	maxSimTime = 30.0
)

// Wind log-profile constants, in meters.
const (
	windMinHeight = 0.03
	windRoughness = 0.01 * feetToMeters
	windRefHeight = 10.0 * feetToMeters
)

// ballState is the full integration state.
type ballState struct {
	pos Vec3 // m
	vel Vec3 // m/s
	// Spin in rpm; decayed during integration.
	backRPM float64
	sideRPM float64
	t       float64 // s
}

// environment holds quantities precomputed from Conditions.
type environment struct {
	rho      float64
	windRef  float64 // m/s at reference height
	windDirX float64
	windDirZ float64
}

func newEnvironment(cond model.Conditions) environment {
	dir := cond.WindDirDeg * math.Pi / 180.0
	return environment{
		rho:     airDensity(cond),
		windRef: cond.WindSpeedMPH * mphToMps,
		// 0° is a headwind: air moving toward the tee.
		windDirX: -math.Cos(dir),
		windDirZ: -math.Sin(dir),
	}
}

// windAt returns the wind vector at height h using a logarithmic profile,
// clamped to [0, 2·ref]. Below the cutoff height the air is still.
func (e environment) windAt(h float64) Vec3 {
	if e.windRef == 0 || h <= windMinHeight {
		return Vec3{}
	}
	speed := e.windRef * math.Log(h/windRoughness) / math.Log(windRefHeight/windRoughness)
	if speed < 0 {
		speed = 0
	}
	if max := 2 * e.windRef; speed > max {
		speed = max
	}
	return Vec3{X: speed * e.windDirX, Z: speed * e.windDirZ}
}

// launchState builds the initial integration state from launch data.
func launchState(launch model.LaunchData) ballState {
	v := launch.BallSpeedMPH * mphToMps
	vla := launch.VLADeg * math.Pi / 180.0
	hla := launch.HLADeg * math.Pi / 180.0

	return ballState{
		vel: Vec3{
			X: v * math.Cos(vla) * math.Cos(hla),
			Y: v * math.Sin(vla),
			Z: v * math.Cos(vla) * math.Sin(hla),
		},
		backRPM: launch.BackSpinRPM,
		sideRPM: launch.SideSpinRPM,
	}
}

// spinAxis builds the combined unit spin axis. Backspin rotates about the
// horizontal axis perpendicular to the flight azimuth; sidespin about the
// vertical, signed so positive sidespin curves the ball right.
func spinAxis(rel Vec3, backRPM, sideRPM float64) Vec3 {
	backAxis := Vec3{X: rel.X, Z: rel.Z}.Cross(Vec3{Y: 1}).Unit()
	if backAxis == (Vec3{}) {
		backAxis = Vec3{Z: 1}
	}
	sideAxis := Vec3{Y: -1}
	return backAxis.Scale(backRPM).Add(sideAxis.Scale(sideRPM)).Unit()
}

// acceleration evaluates gravity, drag and Magnus at one integration point.
func (e environment) acceleration(pos, vel Vec3, backRPM, sideRPM float64) Vec3 {
	a := Vec3{Y: -gravity}

	rel := vel.Sub(e.windAt(pos.Y))
	speed := rel.Norm()
	if speed < 1e-9 {
		return a
	}

	omega := math.Hypot(backRPM, sideRPM) * rpmToRadSec
	spinRatio := omega * ballRadius / speed

	cd := dragCoefficient(reynolds(speed), spinRatio)
	drag := rel.Scale(-0.5 * e.rho * speed * cd * ballArea / ballMass)

	cl := liftCoefficient(spinRatio)
	magnus := spinAxis(rel, backRPM, sideRPM).
		Cross(rel.Unit()).
		Scale(0.5 * e.rho * speed * speed * cl * ballArea / ballMass)

	return a.Add(drag).Add(magnus)
}

// step advances the state one RK4 step and applies spin decay.
func (e environment) step(s ballState) ballState {
	k1v := e.acceleration(s.pos, s.vel, s.backRPM, s.sideRPM)
	k1p := s.vel

	k2v := e.acceleration(s.pos.Add(k1p.Scale(dt/2)), s.vel.Add(k1v.Scale(dt/2)), s.backRPM, s.sideRPM)
	k2p := s.vel.Add(k1v.Scale(dt / 2))

	k3v := e.acceleration(s.pos.Add(k2p.Scale(dt/2)), s.vel.Add(k2v.Scale(dt/2)), s.backRPM, s.sideRPM)
	k3p := s.vel.Add(k2v.Scale(dt / 2))

	k4v := e.acceleration(s.pos.Add(k3p.Scale(dt)), s.vel.Add(k3v.Scale(dt)), s.backRPM, s.sideRPM)
	k4p := s.vel.Add(k3v.Scale(dt))

	next := ballState{
		pos: s.pos.Add(k1p.Add(k2p.Scale(2)).Add(k3p.Scale(2)).Add(k4p).Scale(dt / 6)),
		vel: s.vel.Add(k1v.Add(k2v.Scale(2)).Add(k3v.Scale(2)).Add(k4v).Scale(dt / 6)),
		t:   s.t + dt,
	}
	decay := 1 - spinDecayRate*dt
	next.backRPM = s.backRPM * decay
	next.sideRPM = s.sideRPM * decay
	return next
}

// interpolateLanding linearly interpolates the ground crossing between the
// last airborne state and the first below-ground one.
func interpolateLanding(prev, next ballState) ballState {
	if prev.pos.Y <= next.pos.Y {
		return next
	}
	f := prev.pos.Y / (prev.pos.Y - next.pos.Y)

	lerp := func(a, b float64) float64 { return a + f*(b-a) }
	return ballState{
		pos:     Vec3{lerp(prev.pos.X, next.pos.X), 0, lerp(prev.pos.Z, next.pos.Z)},
		vel:     Vec3{lerp(prev.vel.X, next.vel.X), lerp(prev.vel.Y, next.vel.Y), lerp(prev.vel.Z, next.vel.Z)},
		backRPM: lerp(prev.backRPM, next.backRPM),
		sideRPM: lerp(prev.sideRPM, next.sideRPM),
		t:       lerp(prev.t, next.t),
	}
}
