//go:build tinygo || baremetal

package nrf

import (
	"machine"

	"github.com/irdroid/irtoy/hal"
)

// Input is the demodulating IR receiver. GPIOTE allows a single channel per
// pin, so both edges arrive on one toggle interrupt and are told apart by
// the pin level. The gated timer counts only while the pin is high.
type Input struct {
	pin     machine.Pin
	gate    *Timer
	falling func()
	rising  func()
}

// NewInput configures pin with a pull-up. gate may be nil.
func NewInput(pin machine.Pin, gate *Timer) (*Input, error) {
	in := &Input{pin: pin, gate: gate}
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := pin.SetInterrupt(machine.PinToggle, in.toggle); err != nil {
		return nil, err
	}
	if gate != nil {
		gate.gated = true
		gate.open = pin.Get()
	}
	return in, nil
}

func (in *Input) Get() bool { return in.pin.Get() }

func (in *Input) SetHandler(edge hal.Edge, isr func()) {
	switch edge {
	case hal.EdgeFalling:
		in.falling = isr
	case hal.EdgeRising:
		in.rising = isr
	}
}

func (in *Input) toggle(machine.Pin) {
	high := in.pin.Get()
	if in.gate != nil {
		in.gate.setGate(high)
	}
	if high {
		if in.rising != nil {
			in.rising()
		}
		return
	}
	if in.falling != nil {
		in.falling()
	}
}

// Output is a push-pull pin.
type Output struct {
	machine.Pin
}

func NewOutput(pin machine.Pin) Output {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return Output{pin}
}
