// Command replay drives the full pipeline from a canned shot script instead
// of real hardware. Useful for exercising a simulator connection or the
// local range without a launch monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/okian/gc2link/internal/app"
	"github.com/okian/gc2link/internal/config"
	"github.com/okian/gc2link/internal/events"
	"github.com/okian/gc2link/internal/gc2/usb"
	"github.com/okian/gc2link/internal/replay"
	"github.com/okian/gc2link/internal/router"
	"github.com/okian/gc2link/pkg/logger"
)

// drainWait covers the tracker's spin-wait plus routing after the last
// scripted packet.
const drainWait = 2 * time.Second

func main() {
	scriptPath := flag.String("script", "", "path to a JSON shot script (required)")
	mode := flag.String("mode", "local", "shot destination: local or remote")
	host := flag.String("host", "127.0.0.1", "simulator host for remote mode")
	port := flag.Int("port", 921, "simulator port for remote mode")
	flag.Parse()

	if *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *scriptPath, *mode, *host, *port); err != nil {
		os.Stderr.WriteString("replay failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, scriptPath, mode, host string, port int) error {
	script, err := replay.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	// Keep replay state away from the user's real settings file.
	tmpDir, err := os.MkdirTemp("", "gc2link-replay-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	cfg := config.Config{
		LogLevel:        "info",
		SettingsPath:    filepath.Join(tmpDir, "settings.json"),
		EventBufferSize: 256,
	}

	mock := usb.NewMockDevice(len(script.Steps) * 4)
	svc, err := app.New(ctx, cfg, app.WithDeviceOpener(func() (usb.Device, error) {
		return mock, nil
	}))
	if err != nil {
		return err
	}
	defer svc.Stop()

	if err := svc.SetMode(router.Mode(mode)); err != nil {
		return err
	}
	if err := svc.ConnectDevice(ctx); err != nil {
		return err
	}
	if router.Mode(mode) == router.ModeRemote {
		if err := svc.ConnectRemote(ctx, host, port); err != nil {
			return err
		}
	}

	ch, cancel := svc.Events()
	defer cancel()
	go printEvents(ch)

	if err := replay.Run(ctx, script, mock); err != nil {
		return err
	}

	select {
	case <-time.After(drainWait):
	case <-ctx.Done():
	}
	return nil
}

func printEvents(ch <-chan events.Event) {
	for ev := range ch {
		switch ev.Type {
		case events.TypeShotValidated:
			fmt.Printf("shot %d validated: %.1f mph, vla %.1f, spin %.0f\n",
				ev.Shot.ShotID, ev.Shot.BallSpeedMPH, ev.Shot.VLADeg, ev.Shot.TotalSpinRPM)
		case events.TypeShotSimulated:
			fmt.Printf("shot %d simulated: carry %.1f yd, total %.1f yd, offline %.1f yd\n",
				ev.Shot.ShotID, ev.Result.Summary.CarryDistance,
				ev.Result.Summary.TotalDistance, ev.Result.Summary.OfflineDistance)
		case events.TypeShotRejected:
			fmt.Printf("shot %d rejected: %s\n", ev.Shot.ShotID, ev.Reason)
		}
	}
}
