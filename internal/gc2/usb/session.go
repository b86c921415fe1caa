package usb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// Session defaults.
const (
	DefaultReadTimeout = 100 * time.Millisecond

	// defaultErrorThreshold is the consecutive I/O error count treated as a
	// disconnection.
	defaultErrorThreshold = 3

	// defaultZeroReadLimit is how long a stream of zero-byte reads may last
	// before the device is considered gone.
	defaultZeroReadLimit = time.Second
)

// Session runs the read loop for one device connection. Chunks flow out on
// the Chunks channel until Run returns; the channel is closed on exit.
type Session struct {
	id     string
	dev    Device
	chunks chan []byte

	readTimeout    time.Duration
	errorThreshold int
	zeroReadLimit  time.Duration

	log logger.Logger
}

// NewSession wraps an open device.
func NewSession(dev Device, opts ...Option) *Session {
	s := &Session{
		id:             uuid.NewString(),
		dev:            dev,
		chunks:         make(chan []byte, 64),
		readTimeout:    DefaultReadTimeout,
		errorThreshold: defaultErrorThreshold,
		zeroReadLimit:  defaultZeroReadLimit,
		log:            logger.Named("usb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier, unique per connection.
func (s *Session) ID() string { return s.id }

// Chunks returns the stream of raw device chunks.
func (s *Session) Chunks() <-chan []byte { return s.chunks }

// Run blocks reading the device until the context is cancelled or the
// device disconnects. Always closes the chunk channel and the device.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.chunks)
	defer s.dev.Close()

	consecutiveErrs := 0
	var zeroSince time.Time

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rctx, cancel := context.WithTimeout(ctx, s.readTimeout)
		chunk, err := s.dev.ReadChunk(rctx)
		cancel()

		switch {
		case err == nil && len(chunk) > 0:
			consecutiveErrs = 0
			zeroSince = time.Time{}
			metrics.RecordUSBChunk(len(chunk))
			select {
			case s.chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err == nil:
			// Zero-byte reads are not idle polls: a healthy idle device
			// times out instead. A sustained stream of them means the
			// handle is dead.
			if zeroSince.IsZero() {
				zeroSince = time.Now()
			} else if time.Since(zeroSince) >= s.zeroReadLimit {
				s.log.Warn(ctx, "device returning empty reads, treating as disconnected",
					logger.String("session_id", s.id))
				return ErrDisconnected
			}

		case errors.Is(err, ErrReadTimeout):
			consecutiveErrs = 0
			zeroSince = time.Time{}

		case errors.Is(err, ErrDisconnected):
			s.log.Info(ctx, "device disconnected", logger.String("session_id", s.id))
			return ErrDisconnected

		case errors.Is(err, context.Canceled):
			return err

		default:
			consecutiveErrs++
			s.log.Warn(ctx, "device read error",
				logger.String("session_id", s.id),
				logger.Int("consecutive", consecutiveErrs),
				logger.Error(err))
			if consecutiveErrs >= s.errorThreshold {
				return ErrDisconnected
			}
		}
	}
}
