// Package hal describes the peripherals the IR core drives. Boards under
// driver/ implement these interfaces; the core never touches registers.
//
// Handlers registered here run in interrupt context: they must not block,
// allocate or take locks held by the main loop.
package hal

// Timer is a 16-bit up-counter that interrupts when it overflows from
// 0xFFFF to 0. After an overflow it keeps counting from 0 unless the
// handler loads a new value.
type Timer interface {
	// ClockHz is the counting rate in ticks per second.
	ClockHz() uint32
	// SetHandler installs the overflow interrupt handler. nil disables it.
	SetHandler(isr func())
	// Load writes the counter. Safe to call while running.
	Load(value uint16)
	// Count reads the counter.
	Count() uint16
	Start()
	Stop()
}

// Edge selects which input transitions raise an interrupt.
type Edge uint8

const (
	EdgeFalling Edge = iota + 1
	EdgeRising
)

// Input is a digital input with edge interrupts, such as the demodulating IR receiver.
type Input interface {
	Get() bool
	// SetHandler installs the handler for edge. nil disables it.
	SetHandler(edge Edge, isr func())
}

// Output is a digital output pin.
type Output interface {
	High()
	Low()
	Set(high bool)
}

// PWM is one channel of a PWM peripheral. Set(0) holds the output low.
type PWM interface {
	// Configure selects the nearest supported period in nanoseconds.
	Configure(periodNanos uint64) error
	// Frequency returns the output frequency in Hz actually in effect,
	// derived from Top and the counter clock.
	Frequency() uint32
	// Top is the compare value equal to 100 % duty.
	Top() uint32
	Set(value uint32)
}

// Idler suspends the main loop until something may have changed, usually
// by waiting for the next interrupt.
type Idler interface {
	Idle()
}

// Guard runs f with interrupt handlers held off, so the main loop can reset
// state that the handlers own.
type Guard interface {
	Critical(f func())
}

// Unguarded runs f directly. It suits boards whose handlers never run
// concurrently with the main loop.
type Unguarded struct{}

func (Unguarded) Critical(f func()) { f() }

// IdlerFunc adapts a function to Idler.
type IdlerFunc func()

func (f IdlerFunc) Idle() { f() }
