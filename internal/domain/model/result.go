package model

// Phase of ball motion within a simulated trajectory.
type Phase string

const (
	PhaseFlight  Phase = "flight"
	PhaseBounce  Phase = "bounce"
	PhaseRolling Phase = "rolling"
	PhaseStopped Phase = "stopped"
)

// TrajectoryPoint is a single sample of a simulated shot.
//
// Coordinate system:
//   - X: forward toward target, yards
//   - Y: height, feet
//   - Z: lateral, yards (+ = right)
type TrajectoryPoint struct {
	T     float64 `json:"t"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Phase Phase   `json:"phase"`
}

// ShotSummary holds the outcome metrics of a simulated shot.
type ShotSummary struct {
	CarryDistance   float64 `json:"carry_distance"`   // yards
	TotalDistance   float64 `json:"total_distance"`   // yards
	RollDistance    float64 `json:"roll_distance"`    // yards
	OfflineDistance float64 `json:"offline_distance"` // yards, + right / - left
	MaxHeight       float64 `json:"max_height"`       // feet
	MaxHeightTime   float64 `json:"max_height_time"`  // seconds
	FlightTime      float64 `json:"flight_time"`      // seconds
	TotalTime       float64 `json:"total_time"`       // seconds
	BounceCount     int     `json:"bounce_count"`
}

// LaunchData are the inputs a simulation ran with.
type LaunchData struct {
	BallSpeedMPH float64 `json:"ball_speed"`
	VLADeg       float64 `json:"vla"`
	HLADeg       float64 `json:"hla"`
	BackSpinRPM  float64 `json:"backspin"`
	SideSpinRPM  float64 `json:"sidespin"`
}

// Conditions is an immutable environment snapshot for the physics engine.
type Conditions struct {
	TempF        float64 `json:"temp_f"`
	ElevationFt  float64 `json:"elevation_ft"`
	HumidityPct  float64 `json:"humidity_pct"`
	PressureInHg float64 `json:"pressure_inhg"`
	WindSpeedMPH float64 `json:"wind_speed_mph"`
	WindDirDeg   float64 `json:"wind_dir_deg"` // 0 = headwind
}

// StandardConditions returns the default environment (70F, sea level,
// 50% humidity, standard pressure, no wind).
func StandardConditions() Conditions {
	return Conditions{
		TempF:        70.0,
		ElevationFt:  0.0,
		HumidityPct:  50.0,
		PressureInHg: 29.92,
		WindSpeedMPH: 0.0,
		WindDirDeg:   0.0,
	}
}

// ShotResult is a complete simulation outcome.
type ShotResult struct {
	Trajectory []TrajectoryPoint `json:"trajectory"`
	Summary    ShotSummary       `json:"summary"`
	Launch     LaunchData        `json:"launch_data"`
	Conditions Conditions        `json:"conditions"`
}
