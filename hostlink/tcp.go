//go:build !tinygo && !baremetal

package hostlink

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// netConn turns read deadlines into the 0, nil timeout of Conn.
type netConn struct {
	net.Conn
	timeout time.Duration
}

// NewNetConn adapts a network connection, such as one to the simulator.
func NewNetConn(c net.Conn) Conn {
	return &netConn{Conn: c, timeout: time.Second}
}

func (c *netConn) SetReadTimeout(t time.Duration) error {
	c.timeout = t
	return nil
}

func (c *netConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// Dial connects to a simulator listening on addr.
func Dial(addr string, opts ...Option) (*Client, error) {
	c, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(NewNetConn(c), opts...), nil
}
