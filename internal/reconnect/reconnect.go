// Package reconnect retries a connect function with exponential backoff.
//
// The supervisor sleeps before every attempt, including the first, so a
// freshly dropped connection is not hammered. With the defaults the delays
// run 1s, 2s, 4s, 8s, 16s and stay capped at 16s.
package reconnect

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/gc2link/pkg/logger"
	"github.com/okian/gc2link/pkg/metrics"
)

// Status of one supervision cycle, reported through the callback.
type Status int

const (
	StatusAttempting Status = iota
	StatusConnected
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusAttempting:
		return "attempting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Callback receives progress updates. attempt counts from 1; err is set for
// StatusFailed and StatusCancelled.
type Callback func(status Status, attempt int, err error)

// Defaults.
const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 16 * time.Second
)

// Supervisor drives reconnection for one transport.
type Supervisor struct {
	transport  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	onStatus   Callback
	log        logger.Logger
}

// New creates a Supervisor for the named transport ("usb" or "simulator").
func New(transport string, opts ...Option) *Supervisor {
	s := &Supervisor{
		transport:  transport,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		log:        logger.Named("reconnect"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run retries connect until it succeeds, the retry budget is exhausted, or
// the context is cancelled. Returns nil on success, ErrExhausted after the
// final failure, or the context error.
func (s *Supervisor) Run(ctx context.Context, connect func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.baseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = s.maxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			s.notify(StatusCancelled, attempt, ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}

		s.notify(StatusAttempting, attempt, nil)
		metrics.RecordReconnectAttempt(s.transport)

		err := connect(ctx)
		if err == nil {
			s.notify(StatusConnected, attempt, nil)
			return nil
		}
		if ctx.Err() != nil {
			s.notify(StatusCancelled, attempt, ctx.Err())
			return ctx.Err()
		}

		lastErr = err
		s.notify(StatusFailed, attempt, err)
		s.log.Warn(ctx, "connect attempt failed",
			logger.String("transport", s.transport),
			logger.Int("attempt", attempt),
			logger.Int("max_retries", s.maxRetries),
			logger.Error(err))
	}

	s.log.Error(ctx, "reconnect exhausted",
		logger.String("transport", s.transport),
		logger.Int("attempts", s.maxRetries),
		logger.Error(lastErr))
	return ErrExhausted
}

func (s *Supervisor) notify(status Status, attempt int, err error) {
	if s.onStatus != nil {
		s.onStatus(status, attempt, err)
	}
}
