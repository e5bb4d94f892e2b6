//go:build !tinygo && !baremetal

package periph

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"

	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
)

// Input watches a receiver pin from a goroutine. The gate timer counts
// only while the pin is high.
type Input struct {
	b       *Board
	pin     gpio.PinIn
	gate    *Timer
	level   gpio.Level
	falling func()
	rising  func()
}

func (b *Board) NewInput(pin gpio.PinIn, gate *Timer) (*Input, error) {
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("%s: %w", pin, err)
	}
	in := &Input{b: b, pin: pin, gate: gate, level: pin.Read()}
	if gate != nil {
		gate.mu.Lock()
		gate.gated = true
		gate.mu.Unlock()
		gate.setGate(in.level == gpio.High)
	}
	b.wg.Add(1)
	go in.watch()
	return in, nil
}

func (in *Input) Get() bool { return in.pin.Read() == gpio.High }

func (in *Input) SetHandler(edge hal.Edge, isr func()) {
	in.b.irq.Lock()
	defer in.b.irq.Unlock()
	switch edge {
	case hal.EdgeFalling:
		in.falling = isr
	case hal.EdgeRising:
		in.rising = isr
	}
}

func (in *Input) watch() {
	defer in.b.wg.Done()
	for {
		select {
		case <-in.b.done:
			return
		default:
		}
		if !in.pin.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		level := in.pin.Read()
		if level == in.level {
			continue
		}
		in.level = level
		in.b.interrupt(func() { in.edge(level) })
	}
}

func (in *Input) edge(level gpio.Level) {
	if in.gate != nil {
		in.gate.setGate(level == gpio.High)
	}
	if level == gpio.High {
		if in.rising != nil {
			in.rising()
		}
		return
	}
	if in.falling != nil {
		in.falling()
	}
}

// Output is a plain GPIO output.
type Output struct {
	pin gpio.PinOut
	log logrus.FieldLogger
}

func NewOutput(pin gpio.PinOut, log logrus.FieldLogger) (*Output, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%s: %w", pin, err)
	}
	return &Output{pin: pin, log: log}, nil
}

func (o *Output) High() { o.Set(true) }
func (o *Output) Low()  { o.Set(false) }

func (o *Output) Set(high bool) {
	if err := o.pin.Out(gpio.Level(high)); err != nil {
		o.log.WithError(err).WithField("pin", o.pin.String()).Warn("gpio write failed")
	}
}

// PWM drives a hardware PWM capable pin. Compare values are gpio.Duty.
type PWM struct {
	pin  gpio.PinOut
	log  logrus.FieldLogger
	freq physic.Frequency
}

func NewPWM(pin gpio.PinOut, log logrus.FieldLogger) (*PWM, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%s: %w", pin, err)
	}
	return &PWM{pin: pin, log: log}, nil
}

func (p *PWM) Configure(periodNanos uint64) error {
	if periodNanos == 0 {
		return fmt.Errorf("%w: zero pwm period", proto.ErrInvalidFrequency)
	}
	p.freq = physic.Frequency((uint64(physic.Hertz)*1e9 + periodNanos/2) / periodNanos)
	return nil
}

func (p *PWM) Frequency() uint32 {
	return uint32((int64(p.freq) + int64(physic.Hertz)/2) / int64(physic.Hertz))
}

func (p *PWM) Top() uint32 { return uint32(gpio.DutyMax) }

func (p *PWM) Set(value uint32) {
	var err error
	if value == 0 {
		err = p.pin.Out(gpio.Low)
	} else {
		err = p.pin.PWM(gpio.Duty(value), p.freq)
	}
	if err != nil {
		p.log.WithError(err).WithField("pin", p.pin.String()).Warn("pwm write failed")
	}
}
