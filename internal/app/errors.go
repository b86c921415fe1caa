package app

import "errors"

// ErrDeviceAlreadyConnected is returned when a device session is already
// running.
var ErrDeviceAlreadyConnected = errors.New("app: device already connected")
