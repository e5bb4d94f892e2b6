//go:build tinygo || baremetal

package nrf

import (
	"machine"

	"tinygo.org/x/drivers/irremote"
)

// pwmClockHz is the PWM counter rate for carrier-range periods (prescaler 1).
const pwmClockHz = 16000000

// PWM is one channel of a PWM peripheral. Any irremote.PWM works; on the
// nRF52840 that is machine.PWM0..PWM3.
type PWM struct {
	pwm irremote.PWM
	pin machine.Pin
	ch  uint8
}

func NewPWM(pwm irremote.PWM, pin machine.Pin) *PWM {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &PWM{pwm: pwm, pin: pin}
}

func (p *PWM) Configure(periodNanos uint64) error {
	if err := p.pwm.Configure(machine.PWMConfig{Period: periodNanos}); err != nil {
		return err
	}
	ch, err := p.pwm.Channel(p.pin)
	if err != nil {
		return err
	}
	p.ch = ch
	p.pwm.Set(p.ch, 0)
	return nil
}

func (p *PWM) Frequency() uint32 {
	top := p.pwm.Top()
	if top == 0 {
		return 0
	}
	return (pwmClockHz + top/2) / top
}

func (p *PWM) Top() uint32      { return p.pwm.Top() }
func (p *PWM) Set(value uint32) { p.pwm.Set(p.ch, value) }
