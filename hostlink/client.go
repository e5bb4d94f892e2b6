//go:build !tinygo && !baremetal

// Package hostlink is the host side of the IrToy sampling protocol. It
// drives a device over a serial port or raw USB bulk endpoints.
package hostlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	proto "github.com/irdroid/irtoy/protocol"
)

// Conn is a byte stream to the device. Read returns 0, nil when the read timeout expires.
type Conn interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Client talks to one device.
type Client struct {
	conn    Conn
	log     logrus.FieldLogger
	timeout time.Duration
	poll    time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds every wait for a response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New wraps an open connection.
func New(conn Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		log:     logrus.StandardLogger(),
		timeout: 2 * time.Second,
		poll:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) write(b ...byte) error {
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readFull reads exactly len(buf) bytes or fails with ErrTimeout.
func (c *Client) readFull(buf []byte) error {
	if err := c.conn.SetReadTimeout(c.poll); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	got := 0
	for got < len(buf) {
		n, err := c.conn.Read(buf[got:])
		got += n
		if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 && time.Now().After(deadline) {
			return fmt.Errorf("%w after %d of %d bytes", proto.ErrTimeout, got, len(buf))
		}
	}
	return nil
}

// drain discards input until the line has been quiet for one poll interval.
func (c *Client) drain() error {
	if err := c.conn.SetReadTimeout(c.poll); err != nil {
		return err
	}
	buf := make([]byte, proto.PacketSize)
	deadline := time.Now().Add(c.timeout)
	for time.Now().Before(deadline) {
		n, err := c.conn.Read(buf)
		if err != nil || n == 0 {
			return nil
		}
	}
	return nil
}

// Reset returns the device to main mode from any state.
func (c *Client) Reset() error {
	if err := c.write(0, 0, 0, 0, 0); err != nil {
		return err
	}
	return c.drain()
}

// Version queries the hardware and firmware revision.
func (c *Client) Version() (proto.Version, error) {
	if err := c.write(proto.CmdVersion); err != nil {
		return proto.Version{}, err
	}
	buf := make([]byte, 4)
	if err := c.readFull(buf); err != nil {
		return proto.Version{}, err
	}
	return proto.ParseVersion(buf)
}

// EnterSampling switches the device to sampling mode.
func (c *Client) EnterSampling() error {
	if err := c.write(proto.CmdSamplingUpper); err != nil {
		return err
	}
	buf := make([]byte, 3)
	if err := c.readFull(buf); err != nil {
		return err
	}
	if string(buf) != string(proto.SamplingAck[:]) {
		return fmt.Errorf("%w: sampling ack %q", proto.ErrBadResponse, buf)
	}
	c.log.WithField("protocol", string(buf)).Debug("sampling mode")
	return nil
}

// Result describes a finished transmission.
type Result struct {
	Count    uint16 // payload bytes the device received, sentinel included
	Complete bool   // false if the device ran out of data mid-stream
}

// Transmit plays durations with handshaking, count reporting and completion
// notification enabled. A trailing sentinel is added if missing.
func (c *Client) Transmit(durations []proto.Tick) (Result, error) {
	payload := make([]byte, 0, 2*len(durations)+2)
	for _, d := range durations {
		hi, lo := d.Bytes()
		payload = append(payload, hi, lo)
	}
	if len(durations) == 0 || durations[len(durations)-1] != proto.Sentinel {
		payload = append(payload, 0xFF, 0xFF)
	}

	err := c.write(proto.CmdHandshake, proto.CmdNotifyOnComplete, proto.CmdReturnTxCount, proto.CmdTransmit)
	if err != nil {
		return Result{}, err
	}

	one := make([]byte, 1)
	for len(payload) > 0 {
		if err := c.readFull(one); err != nil {
			return Result{}, fmt.Errorf("handshake: %w", err)
		}
		switch one[0] {
		case proto.HandshakeAck:
		case proto.RespCount:
			// the device gave up early
			return c.finish()
		default:
			return Result{}, fmt.Errorf("%w: handshake byte %#x", proto.ErrBadResponse, one[0])
		}
		n := int(proto.HandshakeAck)
		if n > len(payload) {
			n = len(payload)
		}
		if err := c.write(payload[:n]...); err != nil {
			return Result{}, err
		}
		payload = payload[n:]
	}

	for {
		if err := c.readFull(one); err != nil {
			return Result{}, fmt.Errorf("count: %w", err)
		}
		if one[0] == proto.RespCount {
			return c.finish()
		}
		if one[0] != proto.HandshakeAck {
			return Result{}, fmt.Errorf("%w: expected count, got %#x", proto.ErrBadResponse, one[0])
		}
	}
}

// finish reads the count bytes after 't' and the completion byte.
func (c *Client) finish() (Result, error) {
	buf := make([]byte, 3)
	if err := c.readFull(buf); err != nil {
		return Result{}, fmt.Errorf("completion: %w", err)
	}
	res := Result{Count: uint16(buf[0])<<8 | uint16(buf[1])}
	switch buf[2] {
	case proto.RespComplete:
		res.Complete = true
	case proto.RespFailed:
	default:
		return res, fmt.Errorf("%w: completion byte %#x", proto.ErrBadResponse, buf[2])
	}
	c.log.WithFields(logrus.Fields{"bytes": res.Count, "complete": res.Complete}).Debug("transmit done")
	return res, nil
}

// Capture delivers received pairs to fn until ctx is done or fn fails.
func (c *Client) Capture(ctx context.Context, fn func(proto.Pair) error) error {
	if err := c.conn.SetReadTimeout(c.poll); err != nil {
		return err
	}
	var rec [proto.PairSize]byte
	have := 0
	buf := make([]byte, proto.PacketSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := c.conn.Read(buf)
		for _, b := range buf[:n] {
			rec[have] = b
			have++
			if have == proto.PairSize {
				have = 0
				if err := fn(proto.ParsePair(rec[:])); err != nil {
					return err
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("capture: %w", err)
		}
	}
}
