// Package app wires the pipeline together: USB session, frame reassembly,
// parsing, shot tracking, routing, and the event bus. It is the core API
// surface for frontends.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/gc2link/internal/config"
	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/internal/events"
	"github.com/okian/gc2link/internal/gc2/frame"
	"github.com/okian/gc2link/internal/gc2/protocol"
	"github.com/okian/gc2link/internal/gc2/shotstate"
	"github.com/okian/gc2link/internal/gc2/usb"
	"github.com/okian/gc2link/internal/history"
	"github.com/okian/gc2link/internal/openrange"
	"github.com/okian/gc2link/internal/reconnect"
	"github.com/okian/gc2link/internal/router"
	"github.com/okian/gc2link/internal/settings"
	"github.com/okian/gc2link/internal/simulator"
	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// expiryInterval drives the shot tracker's spin-wait sweep.
const expiryInterval = 100 * time.Millisecond

// DeviceOpener opens the launch monitor. Injectable for tests and replay.
type DeviceOpener func() (usb.Device, error)

// Service is the assembled bridge.
type Service struct {
	cfg   config.Config
	store *settings.Store

	bus     *events.Bus
	tracker *shotstate.Tracker
	rtr     *router.Router
	sim     *simulator.Client
	rng     *openrange.Range
	hist    *history.Recorder

	openDevice DeviceOpener

	mu           sync.Mutex
	sets         settings.Settings
	runCtx       context.Context
	runCancel    context.CancelFunc
	deviceCancel context.CancelFunc
	deviceDone   chan struct{}
	remoteBusy   bool
	// remoteWanted is true between ConnectRemote and DisconnectRemote; an
	// unrequested drop (heartbeat failure, dead peer) while it is set kicks
	// the reconnect supervisor.
	remoteWanted bool
	lastReady    bool
	lastBall     bool
	haveStatus   bool

	wg  sync.WaitGroup
	log logger.Logger
}

// New builds a Service from process config and persisted settings. A corrupt
// settings file is logged and replaced by defaults in memory only.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Service, error) {
	store, err := settings.NewStore(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	log := logger.Named("app")
	sets, err := store.Load()
	if err != nil {
		var corrupt *settings.CorruptError
		if !errors.As(err, &corrupt) {
			var version *settings.VersionError
			if !errors.As(err, &version) {
				return nil, err
			}
		}
		log.Warn(ctx, "settings unusable, using defaults", logger.Error(err))
	}

	s := &Service{
		cfg:        cfg,
		store:      store,
		sets:       sets,
		bus:  events.NewBus(cfg.EventBufferSize),
		hist: history.NewRecorder(sets.UI.HistoryLimit),
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracker = shotstate.New(shotstate.WithRejectZeroSpin(sets.Device.RejectZeroSpin))

	s.sim = simulator.NewClient(simulator.WithStateCallback(func(st simulator.State) {
		s.bus.Publish(events.Event{
			Type:      events.TypeTransportStateChanged,
			Transport: "simulator",
			Connected: st == simulator.StateConnected,
		})
		if st != simulator.StateDisconnected {
			return
		}
		s.mu.Lock()
		wanted := s.remoteWanted
		s.mu.Unlock()
		if wanted {
			s.superviseRemote()
		}
	}))

	s.rng = openrange.New(
		openrange.WithConditions(sets.OpenRange.Conditions.ModelConditions()),
		openrange.WithSurface(sets.OpenRange.Surface),
	)

	s.rtr = router.New(router.Mode(sets.Mode),
		&remoteSink{svc: s},
		&localSink{svc: s},
		router.WithModeCallback(func(m router.Mode) {
			s.bus.Publish(events.Event{Type: events.TypeModeChanged, Mode: string(m)})
		}),
	)

	return s, nil
}

// Start brings up configured transports. It does not block.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.runCtx = runCtx
	s.runCancel = cancel
	sets := s.sets
	s.mu.Unlock()

	if sets.Device.AutoConnect {
		if err := s.ConnectDevice(runCtx); err != nil {
			s.log.Warn(runCtx, "device connect failed at startup", logger.Error(err))
			if !errors.Is(err, usb.ErrPermissionDenied) {
				s.superviseDevice()
			}
		}
	}
	if sets.Mode == string(router.ModeRemote) && sets.Remote.AutoConnect {
		if err := s.ConnectRemote(runCtx, sets.Remote.Host, sets.Remote.Port); err != nil {
			s.log.Warn(runCtx, "simulator connect failed at startup", logger.Error(err))
			s.superviseRemote()
		}
	}
	return nil
}

// Stop tears everything down and waits for the pipeline to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.runCancel
	s.remoteWanted = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.DisconnectDevice()
	s.sim.Disconnect()
	s.wg.Wait()
	s.bus.Close()
}

// Events subscribes to the notification stream.
func (s *Service) Events() (<-chan events.Event, func()) {
	return s.bus.Subscribe()
}

// History returns the session shot recorder.
func (s *Service) History() *history.Recorder { return s.hist }

// Settings returns the current in-memory settings document.
func (s *Service) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// SaveSettings persists the document and applies the live parts: routing
// mode, range environment, and surface. Device options take effect on the
// next device connect.
func (s *Service) SaveSettings(sets settings.Settings) error {
	if err := s.store.Save(sets); err != nil {
		return err
	}

	s.mu.Lock()
	s.sets = sets
	s.mu.Unlock()

	s.rng.SetConditions(sets.OpenRange.Conditions.ModelConditions())
	if err := s.rng.SetSurface(sets.OpenRange.Surface); err != nil {
		return err
	}
	return s.rtr.SetMode(router.Mode(sets.Mode))
}

// SetMode switches the shot destination and persists it.
func (s *Service) SetMode(mode router.Mode) error {
	if err := s.rtr.SetMode(mode); err != nil {
		return err
	}

	s.mu.Lock()
	s.sets.Mode = string(mode)
	sets := s.sets
	s.mu.Unlock()
	return s.store.Save(sets)
}

// Mode returns the active routing mode.
func (s *Service) Mode() router.Mode { return s.rtr.Mode() }

// ConnectDevice opens the launch monitor and starts the pipeline for its
// session.
func (s *Service) ConnectDevice(ctx context.Context) error {
	s.mu.Lock()
	if s.deviceCancel != nil {
		s.mu.Unlock()
		return ErrDeviceAlreadyConnected
	}
	useMock := s.sets.Device.UseMock
	s.mu.Unlock()

	var dev usb.Device
	var err error
	switch {
	case s.openDevice != nil:
		dev, err = s.openDevice()
	case useMock:
		dev = usb.NewMockDevice(0)
	default:
		dev, err = usb.Open()
	}
	if err != nil {
		return err
	}

	sess := usb.NewSession(dev)
	devCtx, devCancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.deviceCancel = devCancel
	s.deviceDone = done
	s.mu.Unlock()

	metrics.UpdateTransportConnected("usb", true)
	s.bus.Publish(events.Event{Type: events.TypeTransportStateChanged, Transport: "usb", Connected: true})
	s.log.Info(ctx, "device connected", logger.String("session_id", sess.ID()), logger.Bool("mock", useMock))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		err := sess.Run(devCtx)

		s.mu.Lock()
		s.deviceCancel = nil
		s.deviceDone = nil
		s.mu.Unlock()

		metrics.UpdateTransportConnected("usb", false)
		s.bus.Publish(events.Event{Type: events.TypeTransportStateChanged, Transport: "usb", Connected: false})
		close(done)

		if errors.Is(err, usb.ErrDisconnected) {
			s.superviseDevice()
		}
	}()
	go func() {
		defer s.wg.Done()
		s.runPipeline(devCtx, sess)
	}()

	return nil
}

// DisconnectDevice stops the current device session, if any.
func (s *Service) DisconnectDevice() {
	s.mu.Lock()
	cancel := s.deviceCancel
	done := s.deviceDone
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// ConnectRemote dials the simulator and marks the connection as wanted, so
// later unrequested drops trigger reconnect supervision.
func (s *Service) ConnectRemote(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	s.remoteWanted = true
	s.mu.Unlock()
	return s.sim.Connect(ctx, host, port)
}

// DisconnectRemote closes the simulator connection without triggering
// reconnection.
func (s *Service) DisconnectRemote() error {
	s.mu.Lock()
	s.remoteWanted = false
	s.mu.Unlock()
	return s.sim.Disconnect()
}

// Player returns the simulator-reported player info, if any.
func (s *Service) Player() *simulator.Player { return s.sim.Player() }

// superviseDevice retries the device connection in the background when the
// settings allow it.
func (s *Service) superviseDevice() {
	s.mu.Lock()
	ctx := s.runCtx
	auto := s.sets.Device.AutoConnect
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil || !auto {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sup := reconnect.New("usb", reconnect.WithCallback(s.reconnectEvent))
		err := sup.Run(ctx, func(ctx context.Context) error {
			return s.ConnectDevice(ctx)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error(ctx, "device reconnect gave up", logger.Error(err))
		}
	}()
}

// superviseRemote retries the simulator connection in the background. Only
// one supervisor runs at a time.
func (s *Service) superviseRemote() {
	s.mu.Lock()
	ctx := s.runCtx
	host, port := s.sets.Remote.Host, s.sets.Remote.Port
	auto := s.sets.Remote.AutoConnect
	if ctx == nil || ctx.Err() != nil || !auto || s.remoteBusy {
		s.mu.Unlock()
		return
	}
	s.remoteBusy = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.remoteBusy = false
			s.mu.Unlock()
		}()

		sup := reconnect.New("simulator", reconnect.WithCallback(s.reconnectEvent))
		err := sup.Run(ctx, func(ctx context.Context) error {
			return s.sim.Connect(ctx, host, port)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error(ctx, "simulator reconnect gave up", logger.Error(err))
		}
	}()
}

func (s *Service) reconnectEvent(status reconnect.Status, attempt int, err error) {
	ev := events.Event{
		Type:    events.TypeReconnectStatus,
		Reason:  status.String(),
		Attempt: attempt,
	}
	s.bus.Publish(ev)
}

// runPipeline owns the chunk → message → frame → shot flow for one session.
func (s *Service) runPipeline(ctx context.Context, sess *usb.Session) {
	asm := frame.NewAssembler()
	ticker := time.NewTicker(expiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case chunk, ok := <-sess.Chunks():
			if !ok {
				return
			}
			msgs, err := asm.Push(chunk)
			if err != nil {
				s.log.Warn(ctx, "framing error, buffer reset", logger.Error(err))
			}
			for i := range msgs {
				s.handleMessage(ctx, msgs[i])
			}

		case now := <-ticker.C:
			emitted, rejected := s.tracker.Expire(ctx, now)
			for _, shot := range emitted {
				s.dispatch(ctx, shot)
			}
			for _, rej := range rejected {
				s.publishRejection(rej)
			}
		}
	}
}

func (s *Service) handleMessage(ctx context.Context, m frame.Message) {
	switch m.Tag {
	case frame.TagShot:
		metrics.RecordMessage("shot")
		f := protocol.ParseShot(m)
		s.bus.Publish(events.Event{Type: events.TypeFrameReceived, Frame: &f})

		shot, err := s.tracker.Observe(ctx, f, m.Partial, time.Now())
		if err != nil {
			var rej *shotstate.Rejection
			if errors.As(err, &rej) {
				s.publishRejection(rej)
			}
			return
		}
		if shot != nil {
			s.dispatch(ctx, shot)
		}

	case frame.TagStatus:
		metrics.RecordMessage("status")
		st := protocol.ParseStatus(m)
		s.bus.Publish(events.Event{Type: events.TypeStatusChanged, Status: &st})
		s.forwardStatus(ctx, &st)
	}
}

// forwardStatus relays readiness changes to a connected simulator.
func (s *Service) forwardStatus(ctx context.Context, st *model.StatusFrame) {
	ready, ball := st.Ready(), st.BallDetected()

	s.mu.Lock()
	unchanged := s.haveStatus && s.lastReady == ready && s.lastBall == ball
	s.lastReady, s.lastBall, s.haveStatus = ready, ball, true
	s.mu.Unlock()
	if unchanged {
		return
	}

	if s.rtr.Mode() != router.ModeRemote || s.sim.State() != simulator.StateConnected {
		return
	}
	if err := s.sim.SendStatus(ctx, ready, ball); err != nil {
		s.log.Warn(ctx, "status forward failed", logger.Error(err))
	}
}

// dispatch routes one validated shot and reports transport failures.
func (s *Service) dispatch(ctx context.Context, shot *model.ValidatedShot) {
	s.bus.Publish(events.Event{Type: events.TypeShotValidated, Shot: shot})

	if err := s.rtr.Route(ctx, shot); err != nil {
		s.log.Error(ctx, "shot routing failed",
			logger.Int64("shot_id", shot.ShotID),
			logger.Error(err))

		var simErr *simulator.SimulatorError
		if errors.As(err, &simErr) {
			// Protocol-level refusal; connection is still good.
			return
		}
		if s.rtr.Mode() == router.ModeRemote && s.sim.State() != simulator.StateConnected {
			s.superviseRemote()
		}
	}
}

func (s *Service) publishRejection(rej *shotstate.Rejection) {
	s.bus.Publish(events.Event{
		Type:   events.TypeShotRejected,
		Reason: rej.Reason,
		Shot:   &model.ValidatedShot{ShotID: rej.ShotID},
	})
}
