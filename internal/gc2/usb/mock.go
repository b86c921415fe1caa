package usb

import (
	"context"
	"errors"
	"sync"
)

// MockDevice replays scripted chunks. Used by tests and the replay tool.
type MockDevice struct {
	queue chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMockDevice creates a mock with a bounded chunk queue.
func NewMockDevice(buffer int) *MockDevice {
	if buffer <= 0 {
		buffer = 64
	}
	return &MockDevice{
		queue:  make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

// Enqueue schedules a chunk for delivery. Blocks if the queue is full.
func (m *MockDevice) Enqueue(chunk []byte) {
	select {
	case m.queue <- chunk:
	case <-m.closed:
	}
}

func (m *MockDevice) ReadChunk(ctx context.Context) ([]byte, error) {
	select {
	case chunk := <-m.queue:
		return chunk, nil
	case <-m.closed:
		return nil, ErrDisconnected
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrReadTimeout
		}
		return nil, ctx.Err()
	}
}

// Close simulates unplugging the device.
func (m *MockDevice) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
