package physics_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/openrange/physics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine(t *testing.T) {
	ctx := context.Background()
	eng := physics.NewEngine()
	std := model.StandardConditions()

	Convey("Given the flight engine at standard conditions", t, func() {
		Convey("When simulating a clean driver shot", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 167.0,
				VLADeg:       10.9,
				HLADeg:       0.0,
				BackSpinRPM:  2686,
				SideSpinRPM:  0,
			}
			res, err := eng.Simulate(ctx, launch, std, physics.Fairway)

			Convey("Then the carry lands within the expected window", func() {
				So(err, ShouldBeNil)
				So(res.Summary.CarryDistance, ShouldBeGreaterThanOrEqualTo, 261.25)
				So(res.Summary.CarryDistance, ShouldBeLessThanOrEqualTo, 288.75)
			})

			Convey("And the trajectory is well formed", func() {
				So(err, ShouldBeNil)
				So(len(res.Trajectory), ShouldBeLessThanOrEqualTo, 600)
				So(res.Trajectory[0].T, ShouldEqual, 0.0)
				So(res.Trajectory[len(res.Trajectory)-1].Phase, ShouldEqual, model.PhaseStopped)
				So(res.Summary.TotalDistance, ShouldBeGreaterThanOrEqualTo, res.Summary.CarryDistance)
				So(res.Summary.MaxHeight, ShouldBeGreaterThan, 0)
				So(res.Summary.TotalTime, ShouldBeGreaterThan, res.Summary.FlightTime)
				So(res.Summary.BounceCount, ShouldBeBetweenOrEqual, 1, 5)
			})

			Convey("And a straight shot stays on line", func() {
				So(err, ShouldBeNil)
				So(res.Summary.OfflineDistance, ShouldAlmostEqual, 0.0, 1.0)
			})
		})

		Convey("When simulating a 7-iron with a slight draw", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 120.0,
				VLADeg:       16.3,
				HLADeg:       0.0,
				BackSpinRPM:  7097,
				SideSpinRPM:  -400,
			}
			res, err := eng.Simulate(ctx, launch, std, physics.Fairway)

			Convey("Then the carry and shape match", func() {
				So(err, ShouldBeNil)
				So(res.Summary.CarryDistance, ShouldBeGreaterThanOrEqualTo, 163.4)
				So(res.Summary.CarryDistance, ShouldBeLessThanOrEqualTo, 180.6)
				So(res.Summary.OfflineDistance, ShouldBeLessThan, 0)
			})
		})

		Convey("When the same inputs run twice", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 145.0,
				VLADeg:       13.0,
				BackSpinRPM:  4200,
				SideSpinRPM:  250,
			}
			a, errA := eng.Simulate(ctx, launch, std, physics.Green)
			b, errB := eng.Simulate(ctx, launch, std, physics.Green)

			Convey("Then the trajectories are bitwise identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(reflect.DeepEqual(a, b), ShouldBeTrue)
			})
		})

		Convey("When a headwind blows", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 150.0,
				VLADeg:       12.0,
				BackSpinRPM:  3000,
			}
			calm, _ := eng.Simulate(ctx, launch, std, physics.Fairway)

			windy := std
			windy.WindSpeedMPH = 15
			windy.WindDirDeg = 0
			against, err := eng.Simulate(ctx, launch, windy, physics.Fairway)

			Convey("Then the carry shortens", func() {
				So(err, ShouldBeNil)
				So(against.Summary.CarryDistance, ShouldBeLessThan, calm.Summary.CarryDistance)
			})
		})

		Convey("When the landing surface differs", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 150.0,
				VLADeg:       12.0,
				BackSpinRPM:  3000,
			}
			fairway, _ := eng.Simulate(ctx, launch, std, physics.Fairway)
			bunker, err := eng.Simulate(ctx, launch, std, physics.Bunker)

			Convey("Then a bunker kills the roll-out", func() {
				So(err, ShouldBeNil)
				So(bunker.Summary.TotalDistance, ShouldBeLessThan, fairway.Summary.TotalDistance)
				So(bunker.Summary.CarryDistance, ShouldAlmostEqual, fairway.Summary.CarryDistance, 0.5)
			})
		})

		Convey("When the shot runs under a tight deadline", func() {
			launch := model.LaunchData{
				BallSpeedMPH: 167.0,
				VLADeg:       10.9,
				BackSpinRPM:  2686,
			}
			start := time.Now()
			_, err := eng.Simulate(ctx, launch, std, physics.Fairway)

			Convey("Then it completes well under the latency budget", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, 100*time.Millisecond)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := eng.Simulate(cancelled, model.LaunchData{BallSpeedMPH: 150, VLADeg: 12, BackSpinRPM: 3000}, std, physics.Fairway)

			Convey("Then the simulation aborts", func() {
				So(err, ShouldEqual, context.Canceled)
			})
		})
	})
}
