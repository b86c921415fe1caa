package usb

import "time"

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithReadTimeout sets the per-poll read deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithErrorThreshold sets how many consecutive read errors count as a
// disconnection.
func WithErrorThreshold(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.errorThreshold = n
		}
	}
}

// WithZeroReadLimit sets how long zero-byte reads may persist before the
// device counts as disconnected.
func WithZeroReadLimit(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.zeroReadLimit = d
		}
	}
}
