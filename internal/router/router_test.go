package router_test

import (
	"context"
	"testing"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/router"
	"github.com/okian/gc2link/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type countingRemote struct {
	shots []*model.ValidatedShot
	err   error
}

func (c *countingRemote) SendShot(_ context.Context, shot *model.ValidatedShot) error {
	c.shots = append(c.shots, shot)
	return c.err
}

type countingLocal struct {
	shots []*model.ValidatedShot
}

func (c *countingLocal) SimulateShot(_ context.Context, shot *model.ValidatedShot) (*model.ShotResult, error) {
	c.shots = append(c.shots, shot)
	return &model.ShotResult{}, nil
}

func TestRouter(t *testing.T) {
	ctx := context.Background()

	Convey("Given a router with both sinks", t, func() {
		remote := &countingRemote{}
		local := &countingLocal{}

		Convey("When routing shots in remote mode", func() {
			r := router.New(router.ModeRemote, remote, local)
			err1 := r.Route(ctx, &model.ValidatedShot{ShotID: 10})
			err2 := r.Route(ctx, &model.ValidatedShot{ShotID: 11})

			Convey("Then shot numbers increase strictly and only the remote sink is called", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(remote.shots, ShouldHaveLength, 2)
				So(local.shots, ShouldBeEmpty)
				So(remote.shots[0].ShotNumber, ShouldEqual, 1)
				So(remote.shots[1].ShotNumber, ShouldEqual, 2)
			})
		})

		Convey("When the mode switches just before a shot", func() {
			r := router.New(router.ModeRemote, remote, local)
			So(r.SetMode(router.ModeLocal), ShouldBeNil)
			err := r.Route(ctx, &model.ValidatedShot{ShotID: 12})

			Convey("Then the shot is simulated locally and never reaches the remote sink", func() {
				So(err, ShouldBeNil)
				So(local.shots, ShouldHaveLength, 1)
				So(remote.shots, ShouldBeEmpty)
			})
		})

		Convey("When the shot number sequence spans a mode switch", func() {
			r := router.New(router.ModeRemote, remote, local)
			r.Route(ctx, &model.ValidatedShot{ShotID: 1})
			r.SetMode(router.ModeLocal)
			r.Route(ctx, &model.ValidatedShot{ShotID: 2})

			Convey("Then numbering continues across sinks", func() {
				So(remote.shots[0].ShotNumber, ShouldEqual, 1)
				So(local.shots[0].ShotNumber, ShouldEqual, 2)
			})
		})

		Convey("When SetMode repeats the current mode", func() {
			notified := 0
			r := router.New(router.ModeRemote, remote, local,
				router.WithModeCallback(func(router.Mode) { notified++ }))

			So(r.SetMode(router.ModeRemote), ShouldBeNil)
			So(r.SetMode(router.ModeLocal), ShouldBeNil)
			So(r.SetMode(router.ModeLocal), ShouldBeNil)

			Convey("Then listeners hear only actual changes", func() {
				So(notified, ShouldEqual, 1)
				So(r.Mode(), ShouldEqual, router.ModeLocal)
			})
		})

		Convey("When an unknown mode is requested", func() {
			r := router.New(router.ModeRemote, remote, local)
			err := r.SetMode(router.Mode("bogus"))

			Convey("Then it is refused and the mode is unchanged", func() {
				So(err, ShouldNotBeNil)
				So(r.Mode(), ShouldEqual, router.ModeRemote)
			})
		})

		Convey("When the active sink fails", func() {
			remote.err = context.DeadlineExceeded
			r := router.New(router.ModeRemote, remote, local)
			err := r.Route(ctx, &model.ValidatedShot{ShotID: 13})

			Convey("Then the error propagates without a retry", func() {
				So(err, ShouldEqual, context.DeadlineExceeded)
				So(remote.shots, ShouldHaveLength, 1)
			})
		})

		Convey("When a local result is produced", func() {
			var results []*model.ShotResult
			r := router.New(router.ModeLocal, remote, local,
				router.WithResultCallback(func(res *model.ShotResult) { results = append(results, res) }))
			r.Route(ctx, &model.ValidatedShot{ShotID: 14})

			Convey("Then the result callback fires once", func() {
				So(results, ShouldHaveLength, 1)
			})
		})
	})
}
