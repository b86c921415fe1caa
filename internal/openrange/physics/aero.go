// Package physics simulates golf ball flight: aerodynamic forces, RK4
// trajectory integration, and bounce/roll ground interaction.
package physics

import (
	"math"

	"github.com/okian/gc2link/internal/domain/model"
)

// Ball and air constants (SI).
const (
	gravity      = 9.81
	ballMass     = 0.04593
	ballDiameter = 0.04267
	ballRadius   = ballDiameter / 2

	// kinematicViscosity of air, m²/s.
	kinematicViscosity = 1.5e-5
)

var ballArea = math.Pi * ballRadius * ballRadius

// Unit conversions.
const (
	mphToMps     = 0.44704
	metersToYard = 1.0936133
	metersToFeet = 3.2808399
	feetToMeters = 0.3048
	rpmToRadSec  = math.Pi / 30
	inHgToMmHg   = 25.4
)

// reynolds computes the Reynolds number at airspeed v (m/s).
func reynolds(v float64) float64 {
	return v * ballDiameter / kinematicViscosity
}

// Drag coefficient breakpoints. Below the drag crisis the ball behaves like
// a smooth sphere; above it the dimples have tripped the boundary layer.
const (
	reSubcritical = 5e4
	reCritical    = 1e5
	cdSubcritical = 0.500
	cdCritical    = 0.212
)

// dragCoefficient interpolates Cd across the drag crisis and adds the spin
// contribution, capped at spin ratio 0.4.
func dragCoefficient(re, spinRatio float64) float64 {
	var cd float64
	switch {
	case re <= reSubcritical:
		cd = cdSubcritical
	case re >= reCritical:
		cd = cdCritical
	default:
		frac := (re - reSubcritical) / (reCritical - reSubcritical)
		cd = cdSubcritical + frac*(cdCritical-cdSubcritical)
	}
	return cd + 0.15*math.Min(spinRatio, 0.4)
}

// Lift saturates once the spin ratio reaches 0.30; past that point the
// quadratic fit turns back down and no longer tracks measured data.
const (
	clSaturationRatio = 0.30
	clMax             = 0.305
)

// liftCoefficient computes Cl from the spin ratio S = ω·r/v.
func liftCoefficient(spinRatio float64) float64 {
	if spinRatio <= 0 {
		return 0
	}
	if spinRatio >= clSaturationRatio {
		return clMax
	}
	cl := 1.990*spinRatio - 3.250*spinRatio*spinRatio
	if cl < 0 {
		return 0
	}
	if cl > clMax {
		return clMax
	}
	return cl
}

// airDensity computes ρ in kg/m³ from the environment. Humidity enters via
// the Magnus saturation vapor pressure; elevation corrects the barometric
// pressure with an isothermal scale height of 27000 ft.
func airDensity(cond model.Conditions) float64 {
	tempC := (cond.TempF - 32.0) * 5.0 / 9.0
	tempK := tempC + 273.15

	// Magnus formula gives saturation pressure in hPa; convert to mmHg.
	satHPa := 6.1078 * math.Exp(17.27*tempC/(tempC+237.3))
	vaporMmHg := satHPa * 0.750062 * cond.HumidityPct / 100.0

	pressureMmHg := cond.PressureInHg * inHgToMmHg * math.Exp(-cond.ElevationFt/27000.0)

	return 1.2929 * (273.15 / tempK) * (pressureMmHg - 0.3783*vaporMmHg) / 760.0
}
