package openrange

import (
	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/openrange/physics"
)

// Option applies a configuration option to the Range.
type Option func(*Range)

// WithConditions sets the initial environment.
func WithConditions(cond model.Conditions) Option {
	return func(r *Range) {
		r.cond = cond
	}
}

// WithSurface sets the initial landing surface; unknown names are ignored.
func WithSurface(name string) Option {
	return func(r *Range) {
		if surf, ok := physics.SurfaceByName(name); ok {
			r.surface = surf
		}
	}
}
