// Package protocol turns reassembled device messages into typed frames.
//
// Each payload line is KEY=VALUE after trimming ASCII whitespace. Unknown
// keys are dropped; an unparseable value drops that single field, never the
// whole frame.
package protocol

import (
	"strconv"
	"strings"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/gc2/frame"
	"github.com/okian/gc2link/pkg/metrics"
)

// ParseShot parses a 0H message into a ShotFrame.
func ParseShot(m frame.Message) model.ShotFrame {
	var shot model.ShotFrame
	var club model.ClubFrame
	haveClub := false

	for _, line := range m.Lines {
		key, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch key {
		case "SHOT_ID":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				shot.ShotID = v
			} else {
				metrics.RecordParseFieldDrop()
			}
		case "MSEC_SINCE_CONTACT":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
				shot.MsecSinceContact = v
				shot.HasContactTime = true
			} else {
				metrics.RecordParseFieldDrop()
			}
		case "SPEED_MPH":
			parseFloat(value, &shot.BallSpeedMPH, &shot.HasBallSpeed)
		case "ELEVATION_DEG":
			parseFloat(value, &shot.VLADeg, &shot.HasVLA)
		case "AZIMUTH_DEG":
			parseFloat(value, &shot.HLADeg, &shot.HasHLA)
		case "SPIN_RPM":
			parseFloat(value, &shot.TotalSpinRPM, nil)
		case "BACK_RPM":
			parseFloat(value, &shot.BackSpinRPM, &shot.HasBackSpin)
		case "SIDE_RPM":
			parseFloat(value, &shot.SideSpinRPM, &shot.HasSideSpin)
		case "HMT":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				shot.HasHMT = v == 1
			} else {
				metrics.RecordParseFieldDrop()
			}
		case "CLUBSPEED_MPH":
			haveClub = parseFloat(value, &club.SpeedMPH, nil) || haveClub
		case "HPATH_DEG":
			haveClub = parseFloat(value, &club.PathHDeg, nil) || haveClub
		case "VPATH_DEG":
			haveClub = parseFloat(value, &club.PathVDeg, nil) || haveClub
		case "FACE_T_DEG":
			haveClub = parseFloat(value, &club.FaceToTargetDeg, nil) || haveClub
		case "LIE_DEG":
			haveClub = parseFloat(value, &club.LieDeg, nil) || haveClub
		case "LOFT_DEG":
			haveClub = parseFloat(value, &club.LoftDeg, nil) || haveClub
		case "HIMPACT_MM":
			haveClub = parseFloat(value, &club.HImpactMM, nil) || haveClub
		case "VIMPACT_MM":
			haveClub = parseFloat(value, &club.VImpactMM, nil) || haveClub
		case "CLOSING_RATE_DEGSEC":
			haveClub = parseFloat(value, &club.ClosureRateDegS, nil) || haveClub
		default:
			// Unknown key: dropped silently.
		}
	}

	if haveClub || shot.HasHMT {
		shot.Club = &club
	}
	return shot
}

// ParseStatus parses a 0M message into a StatusFrame.
func ParseStatus(m frame.Message) model.StatusFrame {
	var status model.StatusFrame

	for _, line := range m.Lines {
		key, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch key {
		case "FLAGS":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil {
				status.Flags = v
			} else {
				metrics.RecordParseFieldDrop()
			}
		case "BALLS":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
				status.Balls = v
			} else {
				metrics.RecordParseFieldDrop()
			}
		case "BALL1":
			parts := strings.Split(value, ",")
			if len(parts) != 3 {
				metrics.RecordParseFieldDrop()
				continue
			}
			var pos [3]int64
			valid := true
			for i, p := range parts {
				v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
				if err != nil {
					valid = false
					break
				}
				pos[i] = v
			}
			if valid {
				status.BallPosition = pos
				status.HasBallPosition = true
			} else {
				metrics.RecordParseFieldDrop()
			}
		}
	}

	return status
}

// splitField splits a KEY=VALUE line. Lines without '=' are ignored.
func splitField(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// parseFloat stores a parsed decimal float and sets the presence flag.
// Reports whether the value parsed.
func parseFloat(value string, dst *float64, has *bool) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		metrics.RecordParseFieldDrop()
		return false
	}
	*dst = v
	if has != nil {
		*has = true
	}
	return true
}
