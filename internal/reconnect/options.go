package reconnect

import "time"

// Option applies a configuration option to the Supervisor.
type Option func(*Supervisor)

// WithMaxRetries sets the retry budget per Run.
func WithMaxRetries(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithBaseDelay sets the delay before the first attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.maxDelay = d
		}
	}
}

// WithCallback registers a status callback.
func WithCallback(cb Callback) Option {
	return func(s *Supervisor) {
		s.onStatus = cb
	}
}
