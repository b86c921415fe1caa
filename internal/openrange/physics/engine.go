package physics

import (
	"context"
	"math"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/pkg/metrics"
)

// Sampling intervals, in integration steps.
const (
	maxTrajectoryPoints = 600
	flightSampleSteps   = 2 // 20 ms
	rollSampleSteps     = 5 // 50 ms
)

// Engine composes the aerodynamic, trajectory and ground models into full
// shot simulations. Stateless and safe for concurrent use.
type Engine struct{}

// NewEngine creates a simulation engine.
func NewEngine() *Engine { return &Engine{} }

// Simulate runs one shot from launch to rest. The result is deterministic
// for identical inputs. Returns ErrTimeout if the simulation exceeds its
// time cap before the ball stops.
func (e *Engine) Simulate(ctx context.Context, launch model.LaunchData, cond model.Conditions, surf Surface) (*model.ShotResult, error) {
	env := newEnvironment(cond)
	st := launchState(launch)

	points := make([]model.TrajectoryPoint, 0, maxTrajectoryPoints)
	record := func(s ballState, phase model.Phase) {
		p := model.TrajectoryPoint{
			T:     s.t,
			X:     s.pos.X * metersToYard,
			Y:     s.pos.Y * metersToFeet,
			Z:     s.pos.Z * metersToYard,
			Phase: phase,
		}
		if len(points) < maxTrajectoryPoints {
			points = append(points, p)
		} else {
			points[len(points)-1] = p
		}
	}

	record(st, model.PhaseFlight)

	// Flight phase: integrate until the ball comes back down.
	maxHeight, maxHeightTime := 0.0, 0.0
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := env.step(st)

		if next.pos.Y <= 0 && next.t > minFlightTime {
			st = interpolateLanding(st, next)
			break
		}
		st = next
		if st.pos.Y > maxHeight {
			maxHeight, maxHeightTime = st.pos.Y, st.t
		}
		if steps%flightSampleSteps == 0 {
			record(st, model.PhaseFlight)
		}
		if st.t > maxSimTime {
			metrics.RecordPhysicsTimeout()
			return nil, ErrTimeout
		}
	}

	record(st, model.PhaseFlight)
	carryDist := math.Hypot(st.pos.X, st.pos.Z) * metersToYard
	flightTime := st.t

	// Bounce phase: short arcs until the rebound dies out.
	bounces := 0
	for {
		bounce(&st, surf)
		bounces++
		record(st, model.PhaseBounce)

		if st.vel.Y < rollingSpeedThreshold || bounces >= maxBounces {
			startRolling(&st)
			break
		}

		for steps := 0; ; steps++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			next := env.step(st)
			if next.pos.Y <= 0 {
				st = interpolateLanding(st, next)
				break
			}
			st = next
			if steps%flightSampleSteps == 0 {
				record(st, model.PhaseBounce)
			}
			if st.t > maxSimTime {
				metrics.RecordPhysicsTimeout()
				return nil, ErrTimeout
			}
		}
	}

	// Roll phase.
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rollStep(&st, surf) {
			break
		}
		if steps%rollSampleSteps == 0 {
			record(st, model.PhaseRolling)
		}
		if st.t > maxSimTime {
			metrics.RecordPhysicsTimeout()
			return nil, ErrTimeout
		}
	}
	record(st, model.PhaseStopped)

	totalDist := math.Hypot(st.pos.X, st.pos.Z) * metersToYard
	return &model.ShotResult{
		Trajectory: points,
		Summary: model.ShotSummary{
			CarryDistance:   carryDist,
			TotalDistance:   totalDist,
			RollDistance:    totalDist - carryDist,
			OfflineDistance: st.pos.Z * metersToYard,
			MaxHeight:       maxHeight * metersToFeet,
			MaxHeightTime:   maxHeightTime,
			FlightTime:      flightTime,
			TotalTime:       st.t,
			BounceCount:     bounces,
		},
		Launch:     launch,
		Conditions: cond,
	}, nil
}
