//go:build tinygo || baremetal

// Package nrf runs the IR core on an nRF52840: TIMER1..4 for transmit,
// capture and flush timing, GPIOTE for the receiver, a PWM peripheral for
// the carrier and the native USB CDC port to the host.
package nrf

import (
	"machine"
	"runtime/interrupt"

	"device/arm"
)

// Pins selects the board wiring.
type Pins struct {
	LED   machine.Pin // status LED
	IRLED machine.Pin // IR LED, driven by PWM
	IR    machine.Pin // demodulating receiver output, active low
}

// Board holds the peripherals handed to the core.
type Board struct {
	Port       *Port
	LED        Output
	PWM        *PWM
	IR         *Input
	TxTimer    *Timer
	CycleTimer *Timer
	SpaceTimer *Timer
	FlushTimer *Timer
}

// New brings up the clock and the peripherals. pwm is usually machine.PWM0.
func New(pins Pins, pwm *machine.PWM) (*Board, error) {
	StartHFCLK()
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		return nil, err
	}

	b := &Board{
		Port:       NewPort(machine.Serial),
		LED:        NewOutput(pins.LED),
		PWM:        NewPWM(pwm, pins.IRLED),
		TxTimer:    NewTimer(1, PrescalerTX),
		CycleTimer: NewTimer(2, PrescalerRX),
		SpaceTimer: NewTimer(3, PrescalerRX),
		FlushTimer: NewTimer(4, PrescalerFlush),
	}
	// Carrier edges must not wait behind capture or flush handling.
	b.TxTimer.SetPriority(0x20)
	b.CycleTimer.SetPriority(0x40)
	b.SpaceTimer.SetPriority(0x40)
	b.FlushTimer.SetPriority(0xC0)

	in, err := NewInput(pins.IR, b.SpaceTimer)
	if err != nil {
		return nil, err
	}
	b.IR = in
	return b, nil
}

// Idle sleeps until the next interrupt.
func (b *Board) Idle() { arm.Asm("wfi") }

// Critical runs f with all interrupts masked.
func (b *Board) Critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
