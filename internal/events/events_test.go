package events_test

import (
	"testing"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/events"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBus(t *testing.T) {
	Convey("Given a bus with room for a few events", t, func() {
		bus := events.NewBus(4)

		Convey("When two subscribers listen and an event is published", func() {
			a, cancelA := bus.Subscribe()
			b, cancelB := bus.Subscribe()
			defer cancelA()
			defer cancelB()

			bus.Publish(events.Event{
				Type: events.TypeShotValidated,
				Shot: &model.ValidatedShot{ShotID: 42},
			})

			Convey("Then both receive it with a timestamp", func() {
				for _, ch := range []<-chan events.Event{a, b} {
					select {
					case ev := <-ch:
						So(ev.Type, ShouldEqual, events.TypeShotValidated)
						So(ev.Shot.ShotID, ShouldEqual, 42)
						So(ev.At.IsZero(), ShouldBeFalse)
					case <-time.After(time.Second):
						t.Fatal("event never arrived")
					}
				}
			})
		})

		Convey("When a subscriber's buffer fills up", func() {
			slow, cancelSlow := bus.Subscribe()
			fast, cancelFast := bus.Subscribe()
			defer cancelSlow()
			defer cancelFast()

			// Fill the slow channel without draining it, then drain fast
			// to keep it open.
			for i := 0; i < 6; i++ {
				bus.Publish(events.Event{Type: events.TypeFrameReceived})
				select {
				case <-fast:
				default:
				}
			}

			Convey("Then the overflow is dropped for that subscriber only", func() {
				So(len(slow), ShouldEqual, 4)
			})
		})

		Convey("When a subscription is cancelled", func() {
			ch, cancel := bus.Subscribe()
			cancel()

			Convey("Then the channel is closed", func() {
				_, open := <-ch
				So(open, ShouldBeFalse)
			})

			Convey("And a second cancel is harmless", func() {
				So(cancel, ShouldNotPanic)
			})
		})

		Convey("When the bus is closed", func() {
			ch, cancel := bus.Subscribe()
			defer cancel()
			bus.Close()

			Convey("Then subscriber channels close", func() {
				_, open := <-ch
				So(open, ShouldBeFalse)
			})

			Convey("And publishing afterwards is a no-op", func() {
				So(func() { bus.Publish(events.Event{Type: events.TypeStatusChanged}) }, ShouldNotPanic)
			})

			Convey("And a late subscriber gets an already-closed channel", func() {
				late, lateCancel := bus.Subscribe()
				defer lateCancel()
				_, open := <-late
				So(open, ShouldBeFalse)
			})
		})
	})
}
