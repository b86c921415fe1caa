// Package usb owns the launch monitor connection: device discovery, the
// bulk-in read loop, and disconnection detection.
package usb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
)

// USB identity of the launch monitor.
const (
	VendorID  gousb.ID = 0x2C79
	ProductID gousb.ID = 0x0110
)

// Device abstracts the raw transport so the pipeline and tests can run
// against scripted packets.
type Device interface {
	// ReadChunk returns the next raw chunk. ErrReadTimeout when the poll
	// found no data, ErrDisconnected when the device is gone.
	ReadChunk(ctx context.Context) ([]byte, error)

	Close() error
}

// gousbDevice reads from the device's first bulk-in endpoint.
type gousbDevice struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()
	ep   *gousb.InEndpoint
	buf  []byte
}

// Open claims the launch monitor's default interface.
func Open() (Device, error) {
	gctx := gousb.NewContext()

	dev, err := gctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		gctx.Close()
		if errors.Is(err, gousb.ErrorAccess) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("usb: open device: %w", err)
	}
	if dev == nil {
		gctx.Close()
		return nil, ErrDeviceNotFound
	}

	// The kernel HID driver claims the device first on Linux.
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		gctx.Close()
		return nil, fmt.Errorf("usb: auto detach: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		gctx.Close()
		if errors.Is(err, gousb.ErrorAccess) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("usb: claim interface: %w", err)
	}

	ep, err := firstInEndpoint(intf)
	if err != nil {
		done()
		dev.Close()
		gctx.Close()
		return nil, err
	}

	return &gousbDevice{
		ctx:  gctx,
		dev:  dev,
		intf: intf,
		done: done,
		ep:   ep,
		buf:  make([]byte, ep.Desc.MaxPacketSize),
	}, nil
}

func firstInEndpoint(intf *gousb.Interface) (*gousb.InEndpoint, error) {
	for _, desc := range intf.Setting.Endpoints {
		if desc.Direction == gousb.EndpointDirectionIn {
			return intf.InEndpoint(desc.Number)
		}
	}
	return nil, fmt.Errorf("usb: no IN endpoint on interface %d", intf.Setting.Number)
}

func (d *gousbDevice) ReadChunk(ctx context.Context) ([]byte, error) {
	n, err := d.ep.ReadContext(ctx, d.buf)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, gousb.TransferTimedOut):
			return nil, ErrReadTimeout
		case errors.Is(err, gousb.ErrorNoDevice):
			return nil, ErrDisconnected
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			return nil, fmt.Errorf("usb: read: %w", err)
		}
	}

	chunk := make([]byte, n)
	copy(chunk, d.buf[:n])
	return chunk, nil
}

func (d *gousbDevice) Close() error {
	d.done()
	d.intf = nil
	err := d.dev.Close()
	if cerr := d.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
