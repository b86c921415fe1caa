// Package replay generates device wire traffic for testing without
// hardware: it formats shot and status messages, splits them into the
// fixed-size packets the device emits, and feeds them to a mock device on a
// schedule.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/okian/gc2link/internal/gc2/usb"
)

// PacketSize is the device's fixed USB report size.
const PacketSize = 64

// Shot is a scripted 0H message.
type Shot struct {
	ShotID           int64   `json:"shot_id"`
	MsecSinceContact int64   `json:"msec_since_contact"`
	SpeedMPH         float64 `json:"speed_mph"`
	VLADeg           float64 `json:"vla_deg"`
	HLADeg           float64 `json:"hla_deg"`
	TotalSpinRPM     float64 `json:"total_spin_rpm"`
	BackSpinRPM      float64 `json:"back_spin_rpm"`
	SideSpinRPM      float64 `json:"side_spin_rpm"`
}

// Message formats the shot as device wire text.
func (s Shot) Message() string {
	var b strings.Builder
	b.WriteString("0H\n")
	fmt.Fprintf(&b, "SHOT_ID=%d\n", s.ShotID)
	if s.MsecSinceContact > 0 {
		fmt.Fprintf(&b, "MSEC_SINCE_CONTACT=%d\n", s.MsecSinceContact)
	}
	fmt.Fprintf(&b, "SPEED_MPH=%.2f\n", s.SpeedMPH)
	fmt.Fprintf(&b, "ELEVATION_DEG=%.2f\n", s.VLADeg)
	fmt.Fprintf(&b, "AZIMUTH_DEG=%.2f\n", s.HLADeg)
	if s.TotalSpinRPM != 0 {
		fmt.Fprintf(&b, "SPIN_RPM=%.1f\n", s.TotalSpinRPM)
	}
	fmt.Fprintf(&b, "BACK_RPM=%.1f\n", s.BackSpinRPM)
	fmt.Fprintf(&b, "SIDE_RPM=%.1f\n", s.SideSpinRPM)
	b.WriteString("\t")
	return b.String()
}

// Status is a scripted 0M message.
type Status struct {
	Flags int64 `json:"flags"`
	Balls int64 `json:"balls"`
}

// Message formats the status as device wire text.
func (s Status) Message() string {
	return fmt.Sprintf("0M\nFLAGS=%d\nBALLS=%d\n\t", s.Flags, s.Balls)
}

// Packets splits wire text into NUL-padded fixed-size packets, matching the
// device's framing.
func Packets(msg string) [][]byte {
	data := []byte(msg)
	var out [][]byte
	for len(data) > 0 {
		pkt := make([]byte, PacketSize)
		n := copy(pkt, data)
		data = data[n:]
		out = append(out, pkt)
	}
	return out
}

// Step is one scripted action: wait, then emit a shot or status message.
type Step struct {
	DelayMS int     `json:"delay_ms"`
	Shot    *Shot   `json:"shot,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// Script is an ordered list of steps loaded from JSON.
type Script struct {
	Steps []Step `json:"steps"`
}

// LoadScript reads a script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("replay: read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("replay: parse script: %w", err)
	}
	return s, nil
}

// Run plays the script into the mock device, honoring step delays.
func Run(ctx context.Context, script Script, dev *usb.MockDevice) error {
	for _, step := range script.Steps {
		if step.DelayMS > 0 {
			select {
			case <-time.After(time.Duration(step.DelayMS) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var msg string
		switch {
		case step.Shot != nil:
			msg = step.Shot.Message()
		case step.Status != nil:
			msg = step.Status.Message()
		default:
			continue
		}

		for _, pkt := range Packets(msg) {
			dev.Enqueue(pkt)
		}
	}
	return nil
}
