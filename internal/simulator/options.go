package simulator

import "time"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSendTimeout sets the write and response-read deadline.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithHeartbeatInterval sets the keepalive period.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.heartbeatInterval = d
		}
	}
}

// WithStateCallback registers a connection state listener. The callback is
// invoked outside the client's lock, so it may call back into the client.
func WithStateCallback(cb func(State)) Option {
	return func(c *Client) {
		c.onState = cb
	}
}
