// Package openrange is the local driving range: it turns validated shots
// into simulated ball flights when no remote simulator is attached.
package openrange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/openrange/physics"
	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// Range wraps the physics engine with mutable environment settings. It
// implements the router's local sink contract.
type Range struct {
	mu      sync.RWMutex
	cond    model.Conditions
	surface physics.Surface

	engine *physics.Engine
	log    logger.Logger
}

// New creates a Range with the given environment.
func New(opts ...Option) *Range {
	r := &Range{
		cond:    model.StandardConditions(),
		surface: physics.Fairway,
		engine:  physics.NewEngine(),
		log:     logger.Named("openrange"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Conditions returns the current environment snapshot.
func (r *Range) Conditions() model.Conditions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cond
}

// SetConditions replaces the environment. Takes effect on the next shot;
// a running simulation keeps its snapshot.
func (r *Range) SetConditions(cond model.Conditions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cond = cond
}

// Surface returns the active landing surface name.
func (r *Range) Surface() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.surface.Name
}

// SetSurface switches the landing surface by name.
func (r *Range) SetSurface(name string) error {
	surf, ok := physics.SurfaceByName(name)
	if !ok {
		return fmt.Errorf("openrange: unknown surface %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface = surf
	return nil
}

// SimulateShot runs the full flight for one validated shot.
func (r *Range) SimulateShot(ctx context.Context, shot *model.ValidatedShot) (*model.ShotResult, error) {
	r.mu.RLock()
	cond := r.cond
	surf := r.surface
	r.mu.RUnlock()

	launch := model.LaunchData{
		BallSpeedMPH: shot.BallSpeedMPH,
		VLADeg:       shot.VLADeg,
		HLADeg:       shot.HLADeg,
		BackSpinRPM:  shot.BackSpinRPM,
		SideSpinRPM:  shot.SideSpinRPM,
	}

	start := time.Now()
	result, err := r.engine.Simulate(ctx, launch, cond, surf)
	elapsed := time.Since(start)
	metrics.RecordPhysicsDuration(elapsed.Seconds())

	if err != nil {
		return nil, err
	}

	r.log.Info(ctx, "shot simulated",
		logger.Int64("shot_id", shot.ShotID),
		logger.Float64("carry_yd", result.Summary.CarryDistance),
		logger.Float64("total_yd", result.Summary.TotalDistance),
		logger.Duration("elapsed", elapsed))
	return result, nil
}
