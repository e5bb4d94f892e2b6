package protocol

// Tick is the host-visible time unit (21.333 µs), carried as 2 bytes big-endian.
type Tick uint16

// Scale holds the tick conversion factors. TX and RX are independent: the
// transmit timer and the capture timers need not run from the same clock.
type Scale struct {
	TX uint16 // device ticks per protocol tick when transmitting
	RX uint16 // device ticks per protocol tick when capturing
}

// DefaultScale matches a 6 MHz transmit timer and a 2 MHz capture timer.
var DefaultScale = Scale{TX: 128, RX: 43}

// DeviceTicks converts a host duration to transmit timer ticks.
func (s Scale) DeviceTicks(t Tick) uint32 {
	return uint32(t) * uint32(s.TX)
}

// Ticks converts a captured device duration to protocol ticks, rounding down
// and saturating below the sentinel.
func (s Scale) Ticks(device uint32) Tick {
	if s.RX == 0 {
		return 0
	}
	v := device / uint32(s.RX)
	if v > uint32(MaxTick) {
		return MaxTick
	}
	return Tick(v)
}

// ReloadFor returns the preload value that makes a 16-bit up-counter
// overflow after n ticks: the two's complement of n. ReloadFor(0) is 0,
// which on a 16-bit counter is a full 65536-tick period.
func ReloadFor(n uint16) uint16 {
	return -n
}

// TickFromBytes decodes a big-endian duration.
func TickFromBytes(hi, lo byte) Tick {
	return Tick(hi)<<8 | Tick(lo)
}

// Bytes returns the big-endian wire encoding of t.
func (t Tick) Bytes() (hi, lo byte) {
	return byte(t >> 8), byte(t)
}

// Micros returns the nominal duration of t in microseconds.
func (t Tick) Micros() uint32 {
	return uint32((uint64(t)*TickNanos + 500) / 1000)
}

// TickFromMicros converts microseconds to the nearest protocol tick, saturating below the sentinel.
func TickFromMicros(us uint32) Tick {
	v := (uint64(us)*1000 + TickNanos/2) / TickNanos
	if v > uint64(MaxTick) {
		return MaxTick
	}
	return Tick(v)
}
