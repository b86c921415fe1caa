package replay_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gc2link/internal/gc2/frame"
	"github.com/okian/gc2link/internal/gc2/protocol"
	"github.com/okian/gc2link/internal/gc2/usb"
	"github.com/okian/gc2link/internal/replay"
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

func TestPackets(t *testing.T) {
	Convey("Given wire text longer than one packet", t, func() {
		msg := replay.Shot{ShotID: 1, SpeedMPH: 167, VLADeg: 10.9, BackSpinRPM: 2686}.Message()
		So(len(msg), ShouldBeGreaterThan, replay.PacketSize)

		Convey("When split into packets", func() {
			pkts := replay.Packets(msg)

			Convey("Then every packet is exactly the device report size", func() {
				for _, pkt := range pkts {
					So(len(pkt), ShouldEqual, replay.PacketSize)
				}
			})

			Convey("And the last packet is NUL padded", func() {
				last := pkts[len(pkts)-1]
				tail := len(msg) % replay.PacketSize
				for _, b := range last[tail:] {
					So(b, ShouldEqual, 0)
				}
			})

			Convey("And concatenating recovers the original text", func() {
				var joined []byte
				for _, pkt := range pkts {
					joined = append(joined, pkt...)
				}
				So(string(joined[:len(msg)]), ShouldEqual, msg)
			})
		})
	})
}

func TestMessageRoundTrip(t *testing.T) {
	Convey("Given a scripted shot", t, func() {
		shot := replay.Shot{
			ShotID:           17,
			MsecSinceContact: 1000,
			SpeedMPH:         144.5,
			VLADeg:           12.25,
			HLADeg:           -1.5,
			TotalSpinRPM:     3100,
			BackSpinRPM:      3050,
			SideSpinRPM:      -550,
		}

		Convey("When its packets pass through the assembler and parser", func() {
			asm := frame.NewAssembler()
			var msgs []frame.Message
			for _, pkt := range replay.Packets(shot.Message()) {
				out, err := asm.Push(pkt)
				So(err, ShouldBeNil)
				msgs = append(msgs, out...)
			}

			Convey("Then exactly one complete shot frame emerges", func() {
				So(msgs, ShouldHaveLength, 1)
				So(msgs[0].Tag, ShouldEqual, frame.TagShot)
				So(msgs[0].Partial, ShouldBeFalse)

				f := protocol.ParseShot(msgs[0])
				So(f.ShotID, ShouldEqual, 17)
				So(f.MsecSinceContact, ShouldEqual, 1000)
				So(f.BallSpeedMPH, ShouldEqual, 144.5)
				So(f.VLADeg, ShouldEqual, 12.25)
				So(f.HLADeg, ShouldEqual, -1.5)
				So(f.TotalSpinRPM, ShouldEqual, 3100.0)
				So(f.BackSpinRPM, ShouldEqual, 3050.0)
				So(f.SideSpinRPM, ShouldEqual, -550.0)
			})
		})
	})

	Convey("Given a scripted status", t, func() {
		status := replay.Status{Flags: 7, Balls: 1}

		Convey("When its packets are reassembled", func() {
			asm := frame.NewAssembler()
			var msgs []frame.Message
			for _, pkt := range replay.Packets(status.Message()) {
				out, err := asm.Push(pkt)
				So(err, ShouldBeNil)
				msgs = append(msgs, out...)
			}

			Convey("Then the status frame carries the flags", func() {
				So(msgs, ShouldHaveLength, 1)
				So(msgs[0].Tag, ShouldEqual, frame.TagStatus)

				f := protocol.ParseStatus(msgs[0])
				So(f.Flags, ShouldEqual, 7)
				So(f.Balls, ShouldEqual, 1)
				So(f.Ready(), ShouldBeTrue)
				So(f.BallDetected(), ShouldBeTrue)
			})
		})
	})
}

func TestScript(t *testing.T) {
	Convey("Given a script file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "script.json")
		body := `{
			"steps": [
				{"shot": {"shot_id": 1, "speed_mph": 167.0, "vla_deg": 10.9, "back_spin_rpm": 2686}},
				{"delay_ms": 5, "status": {"flags": 7, "balls": 1}}
			]
		}`
		So(os.WriteFile(path, []byte(body), 0o644), ShouldBeNil)

		Convey("When loaded", func() {
			script, err := replay.LoadScript(path)

			Convey("Then both steps parse", func() {
				So(err, ShouldBeNil)
				So(script.Steps, ShouldHaveLength, 2)
				So(script.Steps[0].Shot, ShouldNotBeNil)
				So(script.Steps[0].Shot.ShotID, ShouldEqual, 1)
				So(script.Steps[1].Status, ShouldNotBeNil)
				So(script.Steps[1].DelayMS, ShouldEqual, 5)
			})
		})

		Convey("When the file is missing", func() {
			_, err := replay.LoadScript(filepath.Join(t.TempDir(), "absent.json"))

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a mock device and a two-step script", t, func() {
		dev := usb.NewMockDevice(32)
		script := replay.Script{Steps: []replay.Step{
			{Shot: &replay.Shot{ShotID: 3, SpeedMPH: 120, VLADeg: 16.3, BackSpinRPM: 7097, SideSpinRPM: -400}},
			{Status: &replay.Status{Flags: 7, Balls: 1}},
		}}

		Convey("When the script runs", func() {
			err := replay.Run(context.Background(), script, dev)
			So(err, ShouldBeNil)

			Convey("Then the device yields both messages as chunks", func() {
				asm := frame.NewAssembler()
				var msgs []frame.Message

				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				for len(msgs) < 2 {
					chunk, err := dev.ReadChunk(ctx)
					So(err, ShouldBeNil)
					out, pushErr := asm.Push(chunk)
					So(pushErr, ShouldBeNil)
					msgs = append(msgs, out...)
				}

				So(msgs[0].Tag, ShouldEqual, frame.TagShot)
				So(msgs[1].Tag, ShouldEqual, frame.TagStatus)
				So(protocol.ParseShot(msgs[0]).ShotID, ShouldEqual, 3)
			})
		})

		Convey("When the context is already cancelled and a delay is pending", func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			delayed := replay.Script{Steps: []replay.Step{
				{DelayMS: 50, Shot: &replay.Shot{ShotID: 9, SpeedMPH: 100}},
			}}

			Convey("Then the run aborts with the context error", func() {
				So(replay.Run(cancelled, delayed, dev), ShouldEqual, context.Canceled)
			})
		})
	})
}
