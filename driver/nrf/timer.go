//go:build tinygo || baremetal

package nrf

import (
	"runtime/interrupt"

	"device/nrf"
)

var timers [5]*Timer

// Timer drives a TIMER peripheral in 16-bit mode as an overflow timer.
// The counter cannot be written, so Load leaves it running and moves the
// compare point to where the overflow would happen.
type Timer struct {
	regs    *nrf.TIMER_Type
	irq     interrupt.Interrupt
	clockHz uint32
	handler func()
	base    uint16

	// A gated timer counts only while enabled and the gate is open.
	enabled bool
	gated   bool
	open    bool
}

// NewTimer claims TIMER1..TIMER4. TIMER0 is left to the radio stack.
func NewTimer(n int, prescaler uint32) *Timer {
	t := &Timer{clockHz: baseClockHz >> prescaler}
	switch n {
	case 1:
		t.regs = nrf.TIMER1
		t.irq = interrupt.New(nrf.IRQ_TIMER1, func(interrupt.Interrupt) { timers[1].isr() })
	case 2:
		t.regs = nrf.TIMER2
		t.irq = interrupt.New(nrf.IRQ_TIMER2, func(interrupt.Interrupt) { timers[2].isr() })
	case 3:
		t.regs = nrf.TIMER3
		t.irq = interrupt.New(nrf.IRQ_TIMER3, func(interrupt.Interrupt) { timers[3].isr() })
	case 4:
		t.regs = nrf.TIMER4
		t.irq = interrupt.New(nrf.IRQ_TIMER4, func(interrupt.Interrupt) { timers[4].isr() })
	default:
		panic("nrf: no such timer")
	}
	timers[n] = t

	t.regs.TASKS_STOP.Set(1)
	t.regs.MODE.Set(nrf.TIMER_MODE_MODE_Timer)
	t.regs.BITMODE.Set(nrf.TIMER_BITMODE_BITMODE_16Bit)
	t.regs.PRESCALER.Set(prescaler)
	t.regs.SHORTS.Set(nrf.TIMER_SHORTS_COMPARE0_CLEAR_Enabled << nrf.TIMER_SHORTS_COMPARE0_CLEAR_Pos)
	t.regs.CC[0].Set(0)
	t.regs.TASKS_CLEAR.Set(1)
	t.regs.INTENSET.Set(nrf.TIMER_INTENSET_COMPARE0_Enabled << nrf.TIMER_INTENSET_COMPARE0_Pos)
	t.irq.Enable()
	return t
}

// SetPriority sets the interrupt priority; lower values preempt higher ones.
func (t *Timer) SetPriority(p uint8) { t.irq.SetPriority(p) }

func (t *Timer) ClockHz() uint32 { return t.clockHz }

func (t *Timer) SetHandler(isr func()) { t.handler = isr }

// Load counts from the captured counter value, so ticks spent between the
// overflow and the reload inside a handler are not added to the next period.
func (t *Timer) Load(v uint16) {
	t.regs.TASKS_CAPTURE[1].Set(1)
	cc, base := rebase(uint16(t.regs.CC[1].Get()), v)
	t.base = base
	t.regs.CC[0].Set(uint32(cc))
}

func (t *Timer) Count() uint16 {
	t.regs.TASKS_CAPTURE[1].Set(1)
	return t.base + uint16(t.regs.CC[1].Get())
}

func (t *Timer) Start() {
	t.enabled = true
	if !t.gated || t.open {
		t.regs.TASKS_START.Set(1)
	}
}

func (t *Timer) Stop() {
	t.enabled = false
	t.regs.TASKS_STOP.Set(1)
}

// setGate is called from the gate pin interrupt.
func (t *Timer) setGate(open bool) {
	t.open = open
	if !t.enabled {
		return
	}
	if open {
		t.regs.TASKS_START.Set(1)
	} else {
		t.regs.TASKS_STOP.Set(1)
	}
}

func (t *Timer) isr() {
	if t.regs.EVENTS_COMPARE[0].Get() == 0 {
		return
	}
	t.regs.EVENTS_COMPARE[0].Set(0)
	// COMPARE0_CLEAR restarted the count at 0: next overflow is a full period away.
	t.base = 0
	t.regs.CC[0].Set(0)
	if t.handler != nil {
		t.handler()
	}
}
