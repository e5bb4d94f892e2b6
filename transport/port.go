package transport

// Port is the byte-stream link to the host, typically a USB CDC pair of
// bulk endpoints. Reads drain the packet most recently received from the
// host; writes fill the next packet to the host.
type Port interface {
	// Available returns the number of unread bytes from the host. When the
	// current packet is exhausted the next one is accepted.
	Available() int
	// ReadByte returns the next byte from the host, or 0 if none is available.
	ReadByte() byte
	// ReadAvailable copies up to len(buf) available bytes and returns the count.
	ReadAvailable(buf []byte) int
	// WriteByte queues b for the host. A full packet is sent immediately.
	WriteByte(b byte)
	// Flush sends any partially filled packet.
	Flush()
	// WaitInReady blocks until the host has collected the previous packet.
	WaitInReady()
	// WaitOutReady blocks until the receive endpoint can accept a packet.
	WaitOutReady()
	PacketSize() int
}

// Write queues every byte of b on p.
func Write(p Port, b ...byte) {
	for _, c := range b {
		p.WriteByte(c)
	}
}
