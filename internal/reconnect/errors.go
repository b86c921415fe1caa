package reconnect

import "errors"

// ErrExhausted is returned once every retry failed. Manual action is needed
// to connect again.
var ErrExhausted = errors.New("reconnect: retries exhausted")
