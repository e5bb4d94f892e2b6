//go:build !tinygo && !baremetal

package hostlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"

	proto "github.com/irdroid/irtoy/protocol"
)

// CDC data interface and its bulk endpoints.
const (
	dataInterface = 1
	endpointOut   = 0x02
	endpointIn    = 0x82
)

// usbConn talks to the CDC data endpoints directly, bypassing the kernel tty.
type usbConn struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	done    func()
	out     *gousb.OutEndpoint
	in      *gousb.InEndpoint
	timeout time.Duration
	pending []byte
	buf     []byte
}

// OpenUSB claims the first IrToy-compatible device over libusb.
func OpenUSB(opts ...Option) (*Client, error) {
	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == proto.USBVendorID && uint16(desc.Product) == proto.USBProductID
	})
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("enumerate usb: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, proto.ErrNotFound
	}
	dev := devs[0]
	for _, d := range devs[1:] {
		d.Close()
	}
	fail := func(err error) (*Client, error) {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	if err := dev.SetAutoDetach(true); err != nil {
		return fail(fmt.Errorf("auto detach: %w", err))
	}
	cfg, err := dev.Config(1)
	if err != nil {
		return fail(fmt.Errorf("config 1: %w", err))
	}
	intf, err := cfg.Interface(dataInterface, 0)
	if err != nil {
		cfg.Close()
		return fail(fmt.Errorf("claim interface %d: %w", dataInterface, err))
	}
	done := func() {
		intf.Close()
		cfg.Close()
	}
	out, err := intf.OutEndpoint(endpointOut)
	if err != nil {
		done()
		return fail(fmt.Errorf("bulk out endpoint: %w", err))
	}
	in, err := intf.InEndpoint(endpointIn)
	if err != nil {
		done()
		return fail(fmt.Errorf("bulk in endpoint: %w", err))
	}

	conn := &usbConn{
		ctx:     ctx,
		dev:     dev,
		done:    done,
		out:     out,
		in:      in,
		timeout: time.Second,
		buf:     make([]byte, in.Desc.MaxPacketSize),
	}
	return New(conn, opts...), nil
}

func (u *usbConn) Write(b []byte) (int, error) {
	return u.out.Write(b)
}

// Read returns buffered bytes first; a bulk transfer always reads whole packets.
func (u *usbConn) Read(b []byte) (int, error) {
	if len(u.pending) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
		n, err := u.in.ReadContext(ctx, u.buf)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.TransferCancelled) ||
				errors.Is(err, gousb.ErrorTimeout) {
				return 0, nil
			}
			return 0, err
		}
		u.pending = u.buf[:n]
	}
	n := copy(b, u.pending)
	u.pending = u.pending[n:]
	return n, nil
}

func (u *usbConn) SetReadTimeout(t time.Duration) error {
	u.timeout = t
	return nil
}

func (u *usbConn) Close() error {
	u.done()
	err := u.dev.Close()
	if cerr := u.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
