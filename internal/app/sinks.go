package app

import (
	"context"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/events"
)

// remoteSink delivers shots to the simulator client and records them in the
// session history.
type remoteSink struct {
	svc *Service
}

func (r *remoteSink) SendShot(ctx context.Context, shot *model.ValidatedShot) error {
	_, err := r.svc.sim.SendShot(ctx, shot)
	if err != nil {
		return err
	}
	r.svc.hist.Add(*shot, nil)
	return nil
}

// localSink runs the range simulation and publishes the result.
type localSink struct {
	svc *Service
}

func (l *localSink) SimulateShot(ctx context.Context, shot *model.ValidatedShot) (*model.ShotResult, error) {
	result, err := l.svc.rng.SimulateShot(ctx, shot)
	if err != nil {
		return nil, err
	}
	l.svc.hist.Add(*shot, result)
	l.svc.bus.Publish(events.Event{Type: events.TypeShotSimulated, Shot: shot, Result: result})
	return result, nil
}
