package simulator

import "github.com/okian/gc2link/internal/domain/model"

// Fixed identity fields sent on every message.
const (
	deviceID   = "GC2 Connect"
	units      = "Yards"
	apiVersion = "1"
)

// ShotMessage is the JSON payload written to the simulator.
type ShotMessage struct {
	DeviceID        string          `json:"DeviceID"`
	Units           string          `json:"Units"`
	ShotNumber      int64           `json:"ShotNumber"`
	APIVersion      string          `json:"APIversion"`
	BallData        *BallData       `json:"BallData,omitempty"`
	ClubData        *ClubData       `json:"ClubData,omitempty"`
	ShotDataOptions ShotDataOptions `json:"ShotDataOptions"`
}

// BallData carries launch conditions.
type BallData struct {
	Speed     float64 `json:"Speed"`
	SpinAxis  float64 `json:"SpinAxis"`
	TotalSpin float64 `json:"TotalSpin"`
	BackSpin  float64 `json:"BackSpin"`
	SideSpin  float64 `json:"SideSpin"`
	HLA       float64 `json:"HLA"`
	VLA       float64 `json:"VLA"`
}

// ClubData carries head-measurement fields when the attachment was fitted.
type ClubData struct {
	Speed                float64 `json:"Speed"`
	AngleOfAttack        float64 `json:"AngleOfAttack"`
	FaceToTarget         float64 `json:"FaceToTarget"`
	Lie                  float64 `json:"Lie"`
	Loft                 float64 `json:"Loft"`
	Path                 float64 `json:"Path"`
	SpeedAtImpact        float64 `json:"SpeedAtImpact"`
	VerticalFaceImpact   float64 `json:"VerticalFaceImpact"`
	HorizontalFaceImpact float64 `json:"HorizontalFaceImpact"`
	ClosureRate          float64 `json:"ClosureRate"`
}

// ShotDataOptions tells the simulator what the message contains.
type ShotDataOptions struct {
	ContainsBallData          bool `json:"ContainsBallData"`
	ContainsClubData          bool `json:"ContainsClubData"`
	LaunchMonitorIsReady      bool `json:"LaunchMonitorIsReady"`
	LaunchMonitorBallDetected bool `json:"LaunchMonitorBallDetected"`
	IsHeartBeat               bool `json:"IsHeartBeat"`
}

// Response is the simulator's reply to a shot message. Codes are HTTP-like:
// 2xx accepted, anything else an error. 201 carries player information.
type Response struct {
	Code    int     `json:"Code"`
	Message string  `json:"Message"`
	Player  *Player `json:"Player,omitempty"`
}

// Player describes the simulator-side player state reported on code 201.
type Player struct {
	Handed           string  `json:"Handed"`
	Club             string  `json:"Club"`
	DistanceToTarget float64 `json:"DistanceToTarget"`
}

// newShotMessage builds the wire message for a validated shot. The shot
// number must already be assigned by the router.
func newShotMessage(shot *model.ValidatedShot) ShotMessage {
	msg := ShotMessage{
		DeviceID:   deviceID,
		Units:      units,
		ShotNumber: shot.ShotNumber,
		APIVersion: apiVersion,
		BallData: &BallData{
			Speed:     shot.BallSpeedMPH,
			SpinAxis:  shot.SpinAxisDeg,
			TotalSpin: shot.TotalSpinRPM,
			BackSpin:  shot.BackSpinRPM,
			SideSpin:  shot.SideSpinRPM,
			HLA:       shot.HLADeg,
			VLA:       shot.VLADeg,
		},
		ShotDataOptions: ShotDataOptions{
			ContainsBallData:     true,
			LaunchMonitorIsReady: true,
		},
	}

	if shot.Club != nil {
		msg.ClubData = &ClubData{
			Speed:                shot.Club.SpeedMPH,
			AngleOfAttack:        shot.Club.PathVDeg,
			FaceToTarget:         shot.Club.FaceToTargetDeg,
			Lie:                  shot.Club.LieDeg,
			Loft:                 shot.Club.LoftDeg,
			Path:                 shot.Club.PathHDeg,
			SpeedAtImpact:        shot.Club.SpeedMPH,
			VerticalFaceImpact:   shot.Club.VImpactMM,
			HorizontalFaceImpact: shot.Club.HImpactMM,
			ClosureRate:          shot.Club.ClosureRateDegS,
		}
		msg.ShotDataOptions.ContainsClubData = true
	}
	return msg
}

// newHeartbeatMessage builds the periodic keepalive.
func newHeartbeatMessage(shotNumber int64, ready, ballDetected bool) ShotMessage {
	return ShotMessage{
		DeviceID:   deviceID,
		Units:      units,
		ShotNumber: shotNumber,
		APIVersion: apiVersion,
		ShotDataOptions: ShotDataOptions{
			LaunchMonitorIsReady:      ready,
			LaunchMonitorBallDetected: ballDetected,
			IsHeartBeat:               true,
		},
	}
}

// newStatusMessage reports device readiness between shots.
func newStatusMessage(shotNumber int64, ready, ballDetected bool) ShotMessage {
	return ShotMessage{
		DeviceID:   deviceID,
		Units:      units,
		ShotNumber: shotNumber,
		APIVersion: apiVersion,
		ShotDataOptions: ShotDataOptions{
			LaunchMonitorIsReady:      ready,
			LaunchMonitorBallDetected: ballDetected,
		},
	}
}
