package router

import "github.com/okian/gc2link/internal/domain/model"

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithModeCallback registers a listener for mode changes.
func WithModeCallback(cb func(Mode)) Option {
	return func(r *Router) {
		r.onMode = cb
	}
}

// WithResultCallback registers a listener for local simulation results.
func WithResultCallback(cb func(*model.ShotResult)) Option {
	return func(r *Router) {
		r.onResult = cb
	}
}
