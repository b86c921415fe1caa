package reconnect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/gc2link/internal/reconnect"
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

var errDial = errors.New("dial refused")

func TestSupervisor(t *testing.T) {
	Convey("Given a reconnect supervisor with short delays", t, func() {
		var statuses []reconnect.Status
		var attempts []int
		record := func(st reconnect.Status, attempt int, err error) {
			statuses = append(statuses, st)
			attempts = append(attempts, attempt)
		}

		Convey("When the connection succeeds on the third attempt", func() {
			calls := 0
			sup := reconnect.New("simulator",
				reconnect.WithBaseDelay(time.Millisecond),
				reconnect.WithMaxDelay(4*time.Millisecond),
				reconnect.WithCallback(record),
			)
			err := sup.Run(context.Background(), func(context.Context) error {
				calls++
				if calls < 3 {
					return errDial
				}
				return nil
			})

			Convey("Then it reports each attempt and stops retrying", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 3)
				So(statuses, ShouldResemble, []reconnect.Status{
					reconnect.StatusAttempting, reconnect.StatusFailed,
					reconnect.StatusAttempting, reconnect.StatusFailed,
					reconnect.StatusAttempting, reconnect.StatusConnected,
				})
				So(attempts[len(attempts)-1], ShouldEqual, 3)
			})
		})

		Convey("When every attempt fails", func() {
			calls := 0
			sup := reconnect.New("usb",
				reconnect.WithBaseDelay(time.Millisecond),
				reconnect.WithMaxDelay(2*time.Millisecond),
				reconnect.WithMaxRetries(4),
				reconnect.WithCallback(record),
			)
			err := sup.Run(context.Background(), func(context.Context) error {
				calls++
				return errDial
			})

			Convey("Then the retry budget is exhausted", func() {
				So(err, ShouldEqual, reconnect.ErrExhausted)
				So(calls, ShouldEqual, 4)
				So(statuses[len(statuses)-1], ShouldEqual, reconnect.StatusFailed)
			})
		})

		Convey("When the delays are measured", func() {
			base := 10 * time.Millisecond
			var gaps []time.Duration
			last := time.Now()
			sup := reconnect.New("usb",
				reconnect.WithBaseDelay(base),
				reconnect.WithMaxDelay(40*time.Millisecond),
				reconnect.WithMaxRetries(4),
			)
			sup.Run(context.Background(), func(context.Context) error {
				now := time.Now()
				gaps = append(gaps, now.Sub(last))
				last = now
				return errDial
			})

			Convey("Then they follow min(base*2^(n-1), cap)", func() {
				So(gaps, ShouldHaveLength, 4)
				expected := []time.Duration{
					10 * time.Millisecond,
					20 * time.Millisecond,
					40 * time.Millisecond,
					40 * time.Millisecond,
				}
				for i, want := range expected {
					So(gaps[i], ShouldBeGreaterThanOrEqualTo, want)
					So(gaps[i], ShouldBeLessThan, want+want/2+20*time.Millisecond)
				}
			})
		})

		Convey("When the context is cancelled during the backoff sleep", func() {
			ctx, cancel := context.WithCancel(context.Background())
			calls := 0
			sup := reconnect.New("simulator",
				reconnect.WithBaseDelay(time.Second),
				reconnect.WithCallback(record),
			)

			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			err := sup.Run(ctx, func(context.Context) error {
				calls++
				return errDial
			})

			Convey("Then no attempt runs and the context error surfaces", func() {
				So(err, ShouldEqual, context.Canceled)
				So(calls, ShouldEqual, 0)
				So(statuses[len(statuses)-1], ShouldEqual, reconnect.StatusCancelled)
			})
		})
	})
}
