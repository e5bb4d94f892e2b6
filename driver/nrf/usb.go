//go:build tinygo || baremetal

package nrf

import proto "github.com/irdroid/irtoy/protocol"

// serial is the subset of machine.Serial used here.
type serial interface {
	Buffered() int
	ReadByte() (byte, error)
	Write([]byte) (int, error)
}

// Port adapts the USB CDC stream to transport.Port. The CDC stack queues
// whole endpoint packets itself, so the ready waits return at once and a
// "packet" is whatever arrived by the time the buffer is read.
type Port struct {
	usb serial
	out [proto.PacketSize]byte
	n   int
}

func NewPort(usb serial) *Port {
	return &Port{usb: usb}
}

func (p *Port) Available() int { return p.usb.Buffered() }

func (p *Port) ReadByte() byte {
	b, err := p.usb.ReadByte()
	if err != nil {
		return 0
	}
	return b
}

func (p *Port) ReadAvailable(buf []byte) int {
	n := p.usb.Buffered()
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = p.ReadByte()
	}
	return n
}

func (p *Port) WriteByte(b byte) {
	p.out[p.n] = b
	p.n++
	if p.n == len(p.out) {
		p.Flush()
	}
}

func (p *Port) Flush() {
	if p.n == 0 {
		return
	}
	p.usb.Write(p.out[:p.n])
	p.n = 0
}

func (p *Port) WaitInReady()    {}
func (p *Port) WaitOutReady()   {}
func (p *Port) PacketSize() int { return proto.PacketSize }
