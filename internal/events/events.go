// Package events is the in-process notification bus between the pipeline
// and frontends. Publishing never blocks: a slow subscriber loses events
// rather than stalling shot delivery.
package events

import (
	"sync"
	"time"

	"github.com/okian/gc2link/internal/domain/model"
	"github.com/okian/gc2link/pkg/metrics"
)

// Type discriminates event payloads.
type Type string

const (
	TypeFrameReceived         Type = "frame_received"
	TypeStatusChanged         Type = "status_changed"
	TypeShotValidated         Type = "shot_validated"
	TypeShotRejected          Type = "shot_rejected"
	TypeShotSimulated         Type = "shot_simulated"
	TypeTransportStateChanged Type = "transport_state_changed"
	TypeReconnectStatus       Type = "reconnect_status"
	TypeModeChanged           Type = "mode_changed"
)

// Event is one bus notification. Only the fields relevant to the Type are
// populated.
type Event struct {
	Type Type
	At   time.Time

	Frame  *model.ShotFrame
	Status *model.StatusFrame
	Shot   *model.ValidatedShot
	Result *model.ShotResult

	// Transport identifies "usb" or "simulator" for connection events.
	Transport string
	Connected bool

	Mode string

	// Reason carries the rejection or reconnect status string.
	Reason  string
	Attempt int
}

const defaultBuffer = 256

// Bus fans events out to subscribers over bounded channels.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// NewBus creates a bus with the given per-subscriber buffer.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release the channel; after cancel the channel is closed.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber, stamping At if unset.
// Full subscriber buffers drop the event for that subscriber only.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- ev:
			metrics.RecordEventPublished()
		default:
			metrics.RecordEventDropped()
		}
	}
}

// Close shuts the bus; all subscriber channels are closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
