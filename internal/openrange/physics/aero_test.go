package physics

import (
	"testing"

	"github.com/okian/gc2link/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAerodynamics(t *testing.T) {
	Convey("Given the drag coefficient model", t, func() {
		Convey("When the flow is below the drag crisis", func() {
			So(dragCoefficient(4e4, 0), ShouldEqual, 0.500)
			So(dragCoefficient(5e4, 0), ShouldEqual, 0.500)
		})

		Convey("When the flow is above the drag crisis", func() {
			So(dragCoefficient(1e5, 0), ShouldEqual, 0.212)
			So(dragCoefficient(2e5, 0), ShouldEqual, 0.212)
		})

		Convey("When the flow is inside the transition", func() {
			mid := dragCoefficient(7.5e4, 0)
			So(mid, ShouldAlmostEqual, (0.500+0.212)/2, 1e-12)
		})

		Convey("When spin is added", func() {
			So(dragCoefficient(2e5, 0.2), ShouldAlmostEqual, 0.212+0.15*0.2, 1e-12)

			Convey("Then the spin term saturates at ratio 0.4", func() {
				So(dragCoefficient(2e5, 0.9), ShouldAlmostEqual, 0.212+0.15*0.4, 1e-12)
			})
		})
	})

	Convey("Given the lift coefficient model", t, func() {
		Convey("When there is no spin", func() {
			So(liftCoefficient(0), ShouldEqual, 0.0)
		})

		Convey("When spin is moderate", func() {
			s := 0.1
			So(liftCoefficient(s), ShouldAlmostEqual, 1.990*s-3.250*s*s, 1e-12)
		})

		Convey("When spin is high", func() {
			So(liftCoefficient(0.3), ShouldEqual, 0.305)
			So(liftCoefficient(0.5), ShouldEqual, 0.305)
		})
	})

	Convey("Given the air density model", t, func() {
		Convey("When conditions are standard", func() {
			rho := airDensity(model.StandardConditions())

			Convey("Then density is about 1.194 kg/m3", func() {
				So(rho, ShouldAlmostEqual, 1.194, 0.005)
			})
		})

		Convey("When the air is hotter", func() {
			cond := model.StandardConditions()
			cond.TempF = 100
			So(airDensity(cond), ShouldBeLessThan, airDensity(model.StandardConditions()))
		})

		Convey("When elevation rises", func() {
			cond := model.StandardConditions()
			cond.ElevationFt = 5000
			So(airDensity(cond), ShouldBeLessThan, airDensity(model.StandardConditions()))
		})
	})

	Convey("Given the Reynolds number", t, func() {
		Convey("When airspeed is typical of a drive", func() {
			// 70 m/s with D=0.04267 m and nu=1.5e-5 is well past the crisis.
			So(reynolds(70), ShouldBeGreaterThan, 1e5)
		})
	})
}

func TestSurfaces(t *testing.T) {
	Convey("Given the surface table", t, func() {
		Convey("When looking surfaces up by name", func() {
			for _, want := range []Surface{Fairway, Rough, Green, Bunker} {
				got, ok := SurfaceByName(want.Name)
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, want)
			}
		})

		Convey("When the name is unknown", func() {
			_, ok := SurfaceByName("moon")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the constants match the tuned table", func() {
			So(Fairway.COR, ShouldEqual, 0.60)
			So(Fairway.Friction, ShouldEqual, 0.50)
			So(Fairway.RollResistance, ShouldEqual, 0.10)
			So(Green.RollResistance, ShouldEqual, 0.05)
			So(Bunker.Friction, ShouldEqual, 0.80)
		})
	})
}
