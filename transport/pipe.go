package transport

import (
	"io"
	"sync"

	proto "github.com/irdroid/irtoy/protocol"
)

// Pipe is an in-memory Port that keeps USB packet boundaries. The device
// side is the Port; the host side is an io.ReadWriteCloser obtained with Host.
type Pipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	size   int
	out    [][]byte // packets from the host not yet accepted
	cur    []byte   // packet being read by the device
	in     []byte   // packet being filled by the device
	sent   []byte   // flushed bytes not yet read by the host
	total  int      // bytes ever flushed to the host
	closed bool
}

// NewPipe returns a pipe with the given packet size (protocol.PacketSize if <= 0).
func NewPipe(packetSize int) *Pipe {
	if packetSize <= 0 {
		packetSize = proto.PacketSize
	}
	p := &Pipe{size: packetSize}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Pipe) PacketSize() int { return p.size }

func (p *Pipe) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accept()
	return len(p.cur)
}

// accept moves the next host packet into cur once cur is drained.
func (p *Pipe) accept() {
	if len(p.cur) == 0 && len(p.out) > 0 {
		p.cur = p.out[0]
		p.out[0] = nil
		p.out = p.out[1:]
	}
}

func (p *Pipe) ReadByte() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accept()
	if len(p.cur) == 0 {
		return 0
	}
	b := p.cur[0]
	p.cur = p.cur[1:]
	return b
}

func (p *Pipe) ReadAvailable(buf []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accept()
	n := copy(buf, p.cur)
	p.cur = p.cur[n:]
	return n
}

func (p *Pipe) WriteByte(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, b)
	if len(p.in) >= p.size {
		p.flushLocked()
	}
}

func (p *Pipe) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

func (p *Pipe) flushLocked() {
	if len(p.in) == 0 {
		return
	}
	p.sent = append(p.sent, p.in...)
	p.total += len(p.in)
	p.in = p.in[:0]
	p.cond.Broadcast()
}

func (p *Pipe) WaitInReady()  {}
func (p *Pipe) WaitOutReady() {}

// Send queues data from the host, split into packets.
func (p *Pipe) Send(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(data) > 0 {
		n := len(data)
		if n > p.size {
			n = p.size
		}
		pkt := make([]byte, n)
		copy(pkt, data[:n])
		p.out = append(p.out, pkt)
		data = data[n:]
	}
}

// Received returns and clears everything the device has flushed so far.
func (p *Pipe) Received() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.sent
	p.sent = nil
	return out
}

// Pending reports whether host packets are still waiting to be read by the device.
func (p *Pipe) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cur) > 0 || len(p.out) > 0
}

// Flushed returns the number of bytes ever flushed to the host.
func (p *Pipe) Flushed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Host returns the host side of the pipe.
func (p *Pipe) Host() io.ReadWriteCloser { return hostEnd{p} }

type hostEnd struct{ p *Pipe }

func (h hostEnd) Write(b []byte) (int, error) {
	h.p.mu.Lock()
	closed := h.p.closed
	h.p.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	h.p.Send(b)
	return len(b), nil
}

// Read blocks until the device flushes data or the pipe is closed.
func (h hostEnd) Read(b []byte) (int, error) {
	p := h.p
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.sent) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.sent) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.sent)
	p.sent = p.sent[n:]
	return n, nil
}

func (h hostEnd) Close() error {
	h.p.mu.Lock()
	defer h.p.mu.Unlock()
	h.p.closed = true
	h.p.cond.Broadcast()
	return nil
}
