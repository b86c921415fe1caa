// Package simulator implements the JSON-over-TCP client for the simulator's
// open connection protocol.
//
// Each message is a single JSON object written in one send with no trailing
// newline. Shot messages expect a JSON response object; heartbeats and
// status updates do not. Stale bytes are drained before every send so a late
// response can never be paired with the wrong shot.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// State of the client connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	DefaultPort              = 921
	DefaultSendTimeout       = 5 * time.Second
	DefaultHeartbeatInterval = time.Second

	// drainWindow bounds the pre-send drain. It must be positive: a deadline
	// already in the past fails the read before the kernel buffer is looked
	// at, leaving stale bytes in place.
	drainWindow = 5 * time.Millisecond

	transportName = "simulator"
)

// Client is the simulator connection. All sends are serialized: the
// protocol pairs each shot with the next response on the socket.
type Client struct {
	mu       sync.Mutex
	state    State
	conn     net.Conn
	leftover []byte

	// lastShotNumber is echoed on heartbeats and status updates so the
	// simulator can correlate them with the preceding shot.
	lastShotNumber int64
	player         *Player

	ready        bool
	ballDetected bool

	heartbeatInterval time.Duration
	heartbeatCancel   context.CancelFunc
	heartbeatDone     chan struct{}

	sendTimeout time.Duration
	onState     func(State)
	// pendingStates queues transitions made under c.mu until the lock is
	// released; the callback must never run with the mutex held or a
	// re-entrant call into the client would deadlock.
	pendingStates []State
	log           logger.Logger
}

// NewClient creates a disconnected client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		state:             StateDisconnected,
		heartbeatInterval: DefaultHeartbeatInterval,
		sendTimeout:       DefaultSendTimeout,
		log:               logger.Named("simulator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Player returns the most recent player info the simulator reported, or nil.
func (c *Client) Player() *Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// Connect dials the simulator and starts the heartbeat.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	c.notifyState()

	if port <= 0 {
		port = DefaultPort
	}
	dialer := net.Dialer{Timeout: c.sendTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		c.notifyState()
		return fmt.Errorf("simulator: dial %s:%d: %w", host, port, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Shot latency matters more than throughput.
		tcp.SetNoDelay(true)
	}

	c.mu.Lock()
	c.conn = conn
	c.leftover = nil
	c.setStateLocked(StateConnected)
	c.mu.Unlock()
	c.notifyState()
	metrics.UpdateTransportConnected(transportName, true)
	c.log.Info(ctx, "connected", logger.String("host", host), logger.Int("port", port))

	c.startHeartbeat()
	return nil
}

// Disconnect stops the heartbeat and closes the socket. Safe to call when
// already disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateDisconnecting)
	cancel := c.heartbeatCancel
	done := c.heartbeatDone
	c.mu.Unlock()
	c.notifyState()

	if cancel != nil {
		cancel()
		<-done
	}

	c.mu.Lock()
	err := c.teardownLocked()
	c.mu.Unlock()
	c.notifyState()
	return err
}

// SendShot writes a validated shot and waits for the paired response.
// A non-2xx code returns *SimulatorError with the connection kept open.
func (c *Client) SendShot(ctx context.Context, shot *model.ValidatedShot) (*Response, error) {
	c.mu.Lock()
	defer c.notifyState()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return nil, ErrNotConnected
	}
	c.lastShotNumber = shot.ShotNumber

	msg := newShotMessage(shot)
	if err := c.writeLocked(&msg); err != nil {
		metrics.RecordSimulatorSendError()
		c.teardownLocked()
		return nil, fmt.Errorf("simulator: send shot %d: %w", shot.ShotNumber, err)
	}
	metrics.RecordSimulatorShotSent()

	resp, err := c.readResponseLocked()
	if err != nil {
		// A missing response is a protocol failure, not a transport one.
		// The socket stays up; the next send drains whatever arrives late.
		metrics.RecordSimulatorSendError()
		return nil, fmt.Errorf("simulator: shot %d response: %w", shot.ShotNumber, err)
	}
	metrics.RecordSimulatorResponse(strconv.Itoa(resp.Code))

	if resp.Code == 201 && resp.Player != nil {
		c.player = resp.Player
	}
	if resp.Code < 200 || resp.Code > 299 {
		return resp, &SimulatorError{Code: resp.Code, Message: resp.Message}
	}
	return resp, nil
}

// SendStatus reports readiness changes. Status messages get no response.
func (c *Client) SendStatus(ctx context.Context, ready, ballDetected bool) error {
	c.mu.Lock()
	defer c.notifyState()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return ErrNotConnected
	}
	c.ready = ready
	c.ballDetected = ballDetected

	msg := newStatusMessage(c.lastShotNumber, ready, ballDetected)
	if err := c.writeLocked(&msg); err != nil {
		metrics.RecordSimulatorSendError()
		c.teardownLocked()
		return fmt.Errorf("simulator: send status: %w", err)
	}
	metrics.RecordSimulatorStatusUpdate()
	return nil
}

// startHeartbeat launches the keepalive goroutine for the current session.
func (c *Client) startHeartbeat() {
	hctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.heartbeatCancel = cancel
	c.heartbeatDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-hctx.Done():
				return
			case <-ticker.C:
				if err := c.sendHeartbeat(); err != nil {
					c.log.Warn(hctx, "heartbeat failed", logger.Error(err))
					return
				}
			}
		}
	}()
}

func (c *Client) sendHeartbeat() error {
	c.mu.Lock()
	defer c.notifyState()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return ErrNotConnected
	}
	msg := newHeartbeatMessage(c.lastShotNumber, c.ready, c.ballDetected)
	if err := c.writeLocked(&msg); err != nil {
		c.teardownLocked()
		return err
	}
	metrics.RecordSimulatorHeartbeat()
	return nil
}

// writeLocked drains stale bytes then writes one message as a single send
// with no trailing newline. Caller holds c.mu.
func (c *Client) writeLocked(msg *ShotMessage) error {
	if err := c.drainLocked(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

// drainLocked discards unread bytes already on the socket. Responses to
// heartbeats or late replies must not be read as the next shot's response.
// The deadline is absolute, so the whole loop finishes within drainWindow.
func (c *Client) drainLocked() error {
	c.leftover = nil
	if err := c.conn.SetReadDeadline(time.Now().Add(drainWindow)); err != nil {
		return err
	}
	var buf [512]byte
	for {
		if _, err := c.conn.Read(buf[:]); err != nil {
			break
		}
	}
	return nil
}

// readResponseLocked reads exactly one JSON response, keeping any bytes the
// decoder over-read for the next call. Caller holds c.mu.
func (c *Client) readResponseLocked() (*Response, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(io.MultiReader(bytes.NewReader(c.leftover), c.conn))
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		c.leftover = nil
		return nil, err
	}

	rest, _ := io.ReadAll(dec.Buffered())
	c.leftover = rest
	return &resp, nil
}

// teardownLocked closes the socket and resets state. Caller holds c.mu.
func (c *Client) teardownLocked() error {
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.leftover = nil
	c.setStateLocked(StateDisconnected)
	metrics.UpdateTransportConnected(transportName, false)
	return err
}

// setStateLocked records a transition; the callback fires later via
// notifyState once the mutex is released. Caller holds c.mu.
func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.pendingStates = append(c.pendingStates, s)
	}
}

// notifyState delivers queued transitions to the state callback. Must be
// called without c.mu held.
func (c *Client) notifyState() {
	c.mu.Lock()
	pending := c.pendingStates
	c.pendingStates = nil
	cb := c.onState
	c.mu.Unlock()

	if cb == nil {
		return
	}
	for _, s := range pending {
		cb(s)
	}
}
