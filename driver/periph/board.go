//go:build !tinygo && !baremetal

// Package periph runs the IR core on a Linux single-board computer through
// periph.io. Interrupts are emulated: timers expire on the Go runtime's
// timers and the receiver is watched by a goroutine. Every emulated
// handler runs under one interrupt lock, so handlers never overlap.
package periph

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	proto "github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/transport"
)

// Timer clocks. 3 MHz gives exactly 64 counts per protocol tick.
const (
	TickClockHz  = 3000000
	FlushClockHz = 1000000
)

// Scale converts protocol ticks at TickClockHz.
var Scale = proto.Scale{TX: 64, RX: 64}

// Pins names the GPIOs as gpioreg knows them, e.g. "GPIO17".
type Pins struct {
	LED   string
	IRLED string // must support hardware PWM
	IR    string // demodulating receiver output, active low
}

// Board is the set of peripherals handed to the core.
type Board struct {
	irq  sync.Mutex
	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	log  logrus.FieldLogger

	Port       *transport.Pipe
	LED        *Output
	PWM        *PWM
	IR         *Input
	TxTimer    *Timer
	CycleTimer *Timer
	SpaceTimer *Timer
	FlushTimer *Timer
}

// Open initialises the host drivers and claims the pins.
func Open(pins Pins, log logrus.FieldLogger) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	lookup := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: gpio %q", proto.ErrNotFound, name)
		}
		return p, nil
	}
	led, err := lookup(pins.LED)
	if err != nil {
		return nil, err
	}
	irled, err := lookup(pins.IRLED)
	if err != nil {
		return nil, err
	}
	ir, err := lookup(pins.IR)
	if err != nil {
		return nil, err
	}

	b := newBoard(log)
	if b.LED, err = NewOutput(led, log); err != nil {
		return nil, err
	}
	if b.PWM, err = NewPWM(irled, log); err != nil {
		return nil, err
	}
	if b.IR, err = b.NewInput(ir, b.SpaceTimer); err != nil {
		return nil, err
	}
	return b, nil
}

func newBoard(log logrus.FieldLogger) *Board {
	b := &Board{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log,
		Port: transport.NewPipe(proto.PacketSize),
	}
	b.TxTimer = b.NewTimer(TickClockHz)
	b.CycleTimer = b.NewTimer(TickClockHz)
	b.SpaceTimer = b.NewTimer(TickClockHz)
	b.FlushTimer = b.NewTimer(FlushClockHz)
	return b
}

// interrupt runs isr as an interrupt handler and wakes the main loop.
func (b *Board) interrupt(isr func()) {
	b.irq.Lock()
	isr()
	b.irq.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Critical runs f under the interrupt lock, so no emulated handler runs
// until it returns. f must not call Input.SetHandler.
func (b *Board) Critical(f func()) {
	b.irq.Lock()
	defer b.irq.Unlock()
	f()
}

// Idle waits for the next emulated interrupt, at most one millisecond.
func (b *Board) Idle() {
	select {
	case <-b.wake:
	case <-time.After(time.Millisecond):
	}
}

// Close stops the receiver goroutine, the timers and the outputs.
func (b *Board) Close() error {
	close(b.done)
	for _, t := range []*Timer{b.TxTimer, b.CycleTimer, b.SpaceTimer, b.FlushTimer} {
		t.Stop()
	}
	b.wg.Wait()
	var err error
	if b.PWM != nil {
		b.PWM.Set(0)
	}
	if b.LED != nil {
		err = b.LED.pin.Halt()
	}
	return err
}
