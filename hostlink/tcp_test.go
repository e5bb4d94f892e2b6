//go:build !tinygo && !baremetal

package hostlink

import (
	"net"
	"testing"
	"time"

	proto "github.com/irdroid/irtoy/protocol"
)

func TestNetConnTimeout(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	conn := NewNetConn(a)
	if err := conn.SetReadTimeout(5 * time.Millisecond); err != nil {
		t.Fatalf("SetReadTimeout() error = %v", err)
	}
	n, err := conn.Read(make([]byte, 4))
	if n != 0 || err != nil {
		t.Errorf("Read() = %d, %v on idle pipe, want 0, nil", n, err)
	}
}

func TestNetConnVersion(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		cmd := make([]byte, 1)
		if _, err := b.Read(cmd); err != nil || cmd[0] != proto.CmdVersion {
			return
		}
		r := proto.DefaultVersion.Reply()
		b.Write(r[:])
	}()

	c := New(NewNetConn(a), WithTimeout(time.Second))
	v, err := c.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != proto.DefaultVersion {
		t.Errorf("Version() = %v, want %v", v, proto.DefaultVersion)
	}
}
