package usb

import "errors"

var (
	// ErrDeviceNotFound indicates no launch monitor is attached.
	ErrDeviceNotFound = errors.New("usb: device not found")

	// ErrPermissionDenied indicates the OS refused access to the device.
	// Fatal: retrying cannot help until permissions change.
	ErrPermissionDenied = errors.New("usb: permission denied")

	// ErrReadTimeout indicates a poll completed with no data. Normal when
	// the device is idle.
	ErrReadTimeout = errors.New("usb: read timeout")

	// ErrDisconnected indicates the device was unplugged or stopped
	// responding.
	ErrDisconnected = errors.New("usb: device disconnected")
)
