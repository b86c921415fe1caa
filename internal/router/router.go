// Package router delivers validated shots to exactly one destination: the
// remote simulator or the local range engine.
package router

import (
	"context"
	"sync"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// Mode selects the shot destination.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Valid reports whether the mode is a known destination.
func (m Mode) Valid() bool { return m == ModeRemote || m == ModeLocal }

// RemoteSink sends a shot to the simulator.
type RemoteSink interface {
	SendShot(ctx context.Context, shot *model.ValidatedShot) error
}

// LocalSink simulates a shot locally.
type LocalSink interface {
	SimulateShot(ctx context.Context, shot *model.ValidatedShot) (*model.ShotResult, error)
}

// Router assigns shot numbers and routes each shot to the active sink.
// Routing is serialized: a mode switch never splits one shot across sinks.
type Router struct {
	mu         sync.Mutex
	mode       Mode
	shotNumber int64

	remote RemoteSink
	local  LocalSink

	onMode   func(Mode)
	onResult func(*model.ShotResult)
	log      logger.Logger
}

// New creates a Router starting in the given mode.
func New(mode Mode, remote RemoteSink, local LocalSink, opts ...Option) *Router {
	if !mode.Valid() {
		mode = ModeRemote
	}
	r := &Router{
		mode:   mode,
		remote: remote,
		local:  local,
		log:    logger.Named("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the active destination.
func (r *Router) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode switches the destination. Idempotent; listeners are only notified
// on an actual change.
func (r *Router) SetMode(mode Mode) error {
	if !mode.Valid() {
		return &UnknownModeError{Mode: mode}
	}

	r.mu.Lock()
	changed := r.mode != mode
	r.mode = mode
	r.mu.Unlock()

	if changed && r.onMode != nil {
		r.onMode(mode)
	}
	return nil
}

// Route assigns the next shot number and delivers the shot to the sink
// active at call time. Exactly one sink sees each shot.
func (r *Router) Route(ctx context.Context, shot *model.ValidatedShot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shotNumber++
	shot.ShotNumber = r.shotNumber
	mode := r.mode

	r.log.Debug(ctx, "routing shot",
		logger.Int64("shot_id", shot.ShotID),
		logger.Int64("shot_number", shot.ShotNumber),
		logger.String("mode", string(mode)))
	metrics.RecordRoutedShot(string(mode))

	switch mode {
	case ModeRemote:
		if r.remote == nil {
			return ErrNoRemoteSink
		}
		return r.remote.SendShot(ctx, shot)

	case ModeLocal:
		if r.local == nil {
			return ErrNoLocalSink
		}
		result, err := r.local.SimulateShot(ctx, shot)
		if err != nil {
			return err
		}
		if r.onResult != nil {
			r.onResult(result)
		}
		return nil

	default:
		return &UnknownModeError{Mode: mode}
	}
}
