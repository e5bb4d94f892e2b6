package nrf

// rebase maps a load of v onto a 16-bit counter that keeps running from now.
// The counter reaches cc, and is cleared, after exactly 0x10000-v ticks, and
// base+counter reads as v immediately after the load.
func rebase(now, v uint16) (cc, base uint16) {
	return now - v, v - now
}
