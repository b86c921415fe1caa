// Package metrics provides Prometheus metrics for the GC2 Link bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus metrics for the bridge.
type Manager struct {
	registry *prometheus.Registry

	// Device pipeline
	usbChunks        prometheus.Counter
	usbBytes         prometheus.Counter
	framingErrors    prometheus.Counter
	messages         *prometheus.CounterVec
	parseDrops       prometheus.Counter
	shotsValidated   prometheus.Counter
	shotsSalvaged    prometheus.Counter
	shotsRejected    *prometheus.CounterVec
	shotsDuplicate   prometheus.Counter

	// Routing
	routedShots *prometheus.CounterVec

	// Simulator client
	simShotsSent     prometheus.Counter
	simSendErrors    prometheus.Counter
	simResponses     *prometheus.CounterVec
	simHeartbeats    prometheus.Counter
	simStatusUpdates prometheus.Counter

	// Transports
	transportState    *prometheus.GaugeVec
	reconnectAttempts *prometheus.CounterVec

	// Physics
	physicsDuration prometheus.Histogram
	physicsTimeouts prometheus.Counter

	// Event bus
	busPublished prometheus.Counter
	busDropped   prometheus.Counter
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	defaultManager = NewManager()
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.usbChunks = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_usb_chunks_total",
		Help: "USB chunks read from the device",
	})
	m.usbBytes = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_usb_bytes_total",
		Help: "Payload bytes read from the device",
	})
	m.framingErrors = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_framing_errors_total",
		Help: "Frame reassembler buffer overflows",
	})
	m.messages = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gc2link_messages_total",
		Help: "Complete device messages by kind",
	}, []string{"kind"})
	m.parseDrops = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_parse_field_drops_total",
		Help: "Fields dropped because the value failed to parse",
	})
	m.shotsValidated = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_shots_validated_total",
		Help: "Shots that cleared validation and completion policy",
	})
	m.shotsSalvaged = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_shots_salvaged_total",
		Help: "Shots emitted incomplete after the spin-wait timeout",
	})
	m.shotsRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gc2link_shots_rejected_total",
		Help: "Shots rejected by validation, by reason",
	}, []string{"reason"})
	m.shotsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_shots_duplicate_total",
		Help: "Frames discarded because the shot id already emitted",
	})

	m.routedShots = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gc2link_routed_shots_total",
		Help: "Validated shots dispatched, by sink mode",
	}, []string{"mode"})

	m.simShotsSent = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_simulator_shots_sent_total",
		Help: "Shot messages written to the simulator",
	})
	m.simSendErrors = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_simulator_send_errors_total",
		Help: "Simulator write failures",
	})
	m.simResponses = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gc2link_simulator_responses_total",
		Help: "Simulator responses by code",
	}, []string{"code"})
	m.simHeartbeats = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_simulator_heartbeats_total",
		Help: "Heartbeat messages written to the simulator",
	})
	m.simStatusUpdates = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_simulator_status_updates_total",
		Help: "Launch monitor status messages written to the simulator",
	})

	m.transportState = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gc2link_transport_connected",
		Help: "1 when the transport is connected, 0 otherwise",
	}, []string{"transport"})
	m.reconnectAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "gc2link_reconnect_attempts_total",
		Help: "Reconnect attempts by transport",
	}, []string{"transport"})

	m.physicsDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "gc2link_physics_duration_seconds",
		Help:    "Wall time of a full shot simulation",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	})
	m.physicsTimeouts = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_physics_timeouts_total",
		Help: "Simulations that hit the iteration or time cap",
	})

	m.busPublished = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_events_published_total",
		Help: "Events published on the bus",
	})
	m.busDropped = factory.NewCounter(prometheus.CounterOpts{
		Name: "gc2link_events_dropped_total",
		Help: "Events dropped because a subscriber channel was full",
	})
}

// Package-level helpers operating on the default manager.

func RecordUSBChunk(size int) {
	defaultManager.usbChunks.Inc()
	defaultManager.usbBytes.Add(float64(size))
}

func RecordFramingError() { defaultManager.framingErrors.Inc() }

func RecordMessage(kind string) { defaultManager.messages.WithLabelValues(kind).Inc() }

func RecordParseFieldDrop() { defaultManager.parseDrops.Inc() }

func RecordShotValidated() { defaultManager.shotsValidated.Inc() }

func RecordShotSalvaged() { defaultManager.shotsSalvaged.Inc() }

func RecordShotRejected(reason string) {
	defaultManager.shotsRejected.WithLabelValues(reason).Inc()
}

func RecordShotDuplicate() { defaultManager.shotsDuplicate.Inc() }

func RecordRoutedShot(mode string) { defaultManager.routedShots.WithLabelValues(mode).Inc() }

func RecordSimulatorShotSent() { defaultManager.simShotsSent.Inc() }

func RecordSimulatorSendError() { defaultManager.simSendErrors.Inc() }

func RecordSimulatorResponse(code string) {
	defaultManager.simResponses.WithLabelValues(code).Inc()
}

func RecordSimulatorHeartbeat() { defaultManager.simHeartbeats.Inc() }

func RecordSimulatorStatusUpdate() { defaultManager.simStatusUpdates.Inc() }

func UpdateTransportConnected(transport string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	defaultManager.transportState.WithLabelValues(transport).Set(v)
}

func RecordReconnectAttempt(transport string) {
	defaultManager.reconnectAttempts.WithLabelValues(transport).Inc()
}

func RecordPhysicsDuration(seconds float64) { defaultManager.physicsDuration.Observe(seconds) }

func RecordPhysicsTimeout() { defaultManager.physicsTimeouts.Inc() }

func RecordEventPublished() { defaultManager.busPublished.Inc() }

func RecordEventDropped() { defaultManager.busDropped.Inc() }

// GetRegistry returns the default registry for HTTP exposition.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}
