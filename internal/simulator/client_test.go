package simulator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/simulator"
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

// fakeSimulator accepts one connection and exchanges JSON objects with the
// client under test.
type fakeSimulator struct {
	ln    net.Listener
	conns chan net.Conn
}

func newFakeSimulator(t *testing.T) *fakeSimulator {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSimulator{ln: ln, conns: make(chan net.Conn, 1)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			f.conns <- conn
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeSimulator) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, _ := net.SplitHostPort(f.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (f *fakeSimulator) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case conn := <-f.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func readMessage(t *testing.T, conn net.Conn) simulator.ShotMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg simulator.ShotMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return msg
}

func writeResponse(t *testing.T, conn net.Conn, resp simulator.Response) {
	t.Helper()
	data, _ := json.Marshal(resp)
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("write response: %v", err)
	}
}

func testShot() *model.ValidatedShot {
	return &model.ValidatedShot{
		ShotID:       1,
		ShotNumber:   1,
		BallSpeedMPH: 167.0,
		VLADeg:       10.9,
		HLADeg:       0.0,
		TotalSpinRPM: 2686,
		BackSpinRPM:  2686,
	}
}

// quietHeartbeat keeps the keepalive out of send/response pairing tests.
const quietHeartbeat = time.Hour

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a simulator listening on TCP", t, func() {
		fake := newFakeSimulator(t)
		host, port := fake.hostPort(t)

		Convey("When the client connects", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			err := c.Connect(ctx, host, port)
			fake.accept(t)

			Convey("Then it reaches the connected state", func() {
				So(err, ShouldBeNil)
				So(c.State(), ShouldEqual, simulator.StateConnected)
				So(c.Disconnect(), ShouldBeNil)
				So(c.State(), ShouldEqual, simulator.StateDisconnected)
			})

			Convey("And a second connect is refused", func() {
				So(c.Connect(ctx, host, port), ShouldEqual, simulator.ErrAlreadyConnected)
				c.Disconnect()
			})
		})

		Convey("When a shot is sent and accepted", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			done := make(chan simulator.ShotMessage, 1)
			go func() {
				msg := readMessage(t, conn)
				writeResponse(t, conn, simulator.Response{Code: 200, Message: "ok"})
				done <- msg
			}()

			resp, err := c.SendShot(ctx, testShot())

			Convey("Then the wire message carries the fixed identity and ball data", func() {
				So(err, ShouldBeNil)
				So(resp.Code, ShouldEqual, 200)

				msg := <-done
				So(msg.DeviceID, ShouldEqual, "GC2 Connect")
				So(msg.Units, ShouldEqual, "Yards")
				So(msg.APIVersion, ShouldEqual, "1")
				So(msg.ShotNumber, ShouldEqual, 1)
				So(msg.BallData, ShouldNotBeNil)
				So(msg.BallData.Speed, ShouldEqual, 167.0)
				So(msg.BallData.VLA, ShouldEqual, 10.9)
				So(msg.BallData.BackSpin, ShouldEqual, 2686)
				So(msg.ShotDataOptions.ContainsBallData, ShouldBeTrue)
				So(msg.ShotDataOptions.IsHeartBeat, ShouldBeFalse)
			})
			c.Disconnect()
		})

		Convey("When the simulator refuses the shot", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			go func() {
				readMessage(t, conn)
				writeResponse(t, conn, simulator.Response{Code: 501, Message: "not ready"})
			}()

			resp, err := c.SendShot(ctx, testShot())

			Convey("Then a typed error surfaces and the connection survives", func() {
				var simErr *simulator.SimulatorError
				So(errors.As(err, &simErr), ShouldBeTrue)
				So(simErr.Code, ShouldEqual, 501)
				So(resp.Code, ShouldEqual, 501)
				So(c.State(), ShouldEqual, simulator.StateConnected)
			})
			c.Disconnect()
		})

		Convey("When a 201 response carries player info", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			go func() {
				readMessage(t, conn)
				writeResponse(t, conn, simulator.Response{
					Code:    201,
					Message: "player",
					Player:  &simulator.Player{Handed: "RH", Club: "DR", DistanceToTarget: 420},
				})
			}()

			_, err := c.SendShot(ctx, testShot())

			Convey("Then the client retains the latest player", func() {
				So(err, ShouldBeNil)
				So(c.Player(), ShouldNotBeNil)
				So(c.Player().Handed, ShouldEqual, "RH")
				So(c.Player().Club, ShouldEqual, "DR")
			})
			c.Disconnect()
		})

		Convey("When stale bytes sit on the socket before a send", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			// A late error response from an earlier exchange. Pairing it with
			// the next shot would surface as a bogus rejection.
			writeResponse(t, conn, simulator.Response{Code: 500, Message: "stale"})
			time.Sleep(50 * time.Millisecond)

			go func() {
				readMessage(t, conn)
				writeResponse(t, conn, simulator.Response{Code: 200, Message: "fresh"})
			}()

			resp, err := c.SendShot(ctx, testShot())

			Convey("Then the shot pairs with the fresh response", func() {
				So(err, ShouldBeNil)
				So(resp.Message, ShouldEqual, "fresh")
			})
			c.Disconnect()
		})

		Convey("When a status update is sent", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			err := c.SendStatus(ctx, true, true)
			msg := readMessage(t, conn)

			Convey("Then no response is awaited and the flags are set", func() {
				So(err, ShouldBeNil)
				So(msg.ShotDataOptions.LaunchMonitorIsReady, ShouldBeTrue)
				So(msg.ShotDataOptions.LaunchMonitorBallDetected, ShouldBeTrue)
				So(msg.ShotDataOptions.ContainsBallData, ShouldBeFalse)
				So(c.State(), ShouldEqual, simulator.StateConnected)
			})
			c.Disconnect()
		})

		Convey("When heartbeats are enabled", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(20 * time.Millisecond))
			So(c.Connect(ctx, host, port), ShouldBeNil)
			conn := fake.accept(t)

			msg := readMessage(t, conn)

			Convey("Then keepalives flow with the heartbeat flag", func() {
				So(msg.ShotDataOptions.IsHeartBeat, ShouldBeTrue)
				So(msg.BallData, ShouldBeNil)
			})
			c.Disconnect()
		})

		Convey("When the state callback calls back into the client", func() {
			var seen []simulator.State
			var c *simulator.Client
			c = simulator.NewClient(
				simulator.WithHeartbeatInterval(quietHeartbeat),
				simulator.WithStateCallback(func(s simulator.State) {
					// Reading state here deadlocks if the callback ever runs
					// under the client's lock.
					c.State()
					seen = append(seen, s)
				}),
			)

			So(c.Connect(ctx, host, port), ShouldBeNil)
			fake.accept(t)
			So(c.Disconnect(), ShouldBeNil)

			Convey("Then every transition is delivered without deadlock", func() {
				So(seen, ShouldResemble, []simulator.State{
					simulator.StateConnecting,
					simulator.StateConnected,
					simulator.StateDisconnecting,
					simulator.StateDisconnected,
				})
			})
		})

		Convey("When sending while disconnected", func() {
			c := simulator.NewClient(simulator.WithHeartbeatInterval(quietHeartbeat))
			_, err := c.SendShot(ctx, testShot())

			Convey("Then the send is refused", func() {
				So(err, ShouldEqual, simulator.ErrNotConnected)
			})
		})
	})
}
