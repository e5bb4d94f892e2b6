// Package carrier generates the IR modulation frequency (typically 38 kHz,
// 50 % duty) on the IR LED. Start and Stop are called from the transmit
// interrupt and only flip an enable; all arithmetic happens in Configure.
package carrier

import (
	"sync/atomic"

	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
)

// Generator drives the IR LED with a square-wave carrier.
type Generator interface {
	// Configure selects the closest representable frequency and leaves the output inactive.
	Configure(hz uint32) error
	Start()
	Stop()
	// Frequency returns the frequency actually produced.
	Frequency() uint32
	// Running reports whether the carrier is being emitted.
	Running() bool
}

// Hardware uses a PWM peripheral. Frequency and duty are fixed in
// Configure; Start and Stop only change the compare value.
type Hardware struct {
	pwm     hal.PWM
	duty    uint32
	hz      uint32
	running atomic.Bool
}

func NewHardware(pwm hal.PWM) *Hardware {
	return &Hardware{pwm: pwm}
}

func (h *Hardware) Configure(hz uint32) error {
	if hz == 0 {
		return proto.ErrInvalidFrequency
	}
	h.Stop()
	period := (1e9 + uint64(hz)/2) / uint64(hz)
	if err := h.pwm.Configure(period); err != nil {
		return err
	}
	h.duty = h.pwm.Top() / 2
	if h.hz = h.pwm.Frequency(); h.hz == 0 {
		h.hz = hz
	}
	return nil
}

func (h *Hardware) Start() {
	h.pwm.Set(h.duty)
	h.running.Store(true)
}

func (h *Hardware) Stop() {
	h.pwm.Set(0)
	h.running.Store(false)
}

func (h *Hardware) Frequency() uint32 { return h.hz }
func (h *Hardware) Running() bool     { return h.running.Load() }

// Software toggles a plain output pin from a timer overflow interrupt. The
// timer is reloaded every half period with the two's complement of the half
// period, less Drift ticks to absorb interrupt entry latency.
type Software struct {
	timer   hal.Timer
	pin     hal.Output
	drift   uint16
	half    uint16
	reload  uint16
	level   bool
	running atomic.Bool
}

// NewSoftware builds a software carrier. drift is in timer ticks.
func NewSoftware(timer hal.Timer, pin hal.Output, drift uint16) *Software {
	s := &Software{timer: timer, pin: pin, drift: drift}
	timer.SetHandler(s.overflow)
	return s
}

func (s *Software) Configure(hz uint32) error {
	if hz == 0 {
		return proto.ErrInvalidFrequency
	}
	clock := s.timer.ClockHz()
	half := (uint64(clock) + uint64(hz)) / (2 * uint64(hz))
	if half <= uint64(s.drift) || half > 0xFFFF {
		return proto.ErrInvalidFrequency
	}
	s.Stop()
	s.half = uint16(half)
	s.reload = proto.ReloadFor(s.half - s.drift)
	return nil
}

func (s *Software) overflow() {
	s.timer.Load(s.reload)
	s.level = !s.level
	s.pin.Set(s.level)
}

func (s *Software) Start() {
	if s.half == 0 || s.running.Load() {
		return
	}
	s.timer.Load(s.reload)
	s.level = true
	s.pin.High()
	s.running.Store(true)
	s.timer.Start()
}

func (s *Software) Stop() {
	s.timer.Stop()
	s.level = false
	s.pin.Low()
	s.running.Store(false)
}

func (s *Software) Frequency() uint32 {
	if s.half == 0 {
		return 0
	}
	return s.timer.ClockHz() / (2 * uint32(s.half))
}

func (s *Software) Running() bool { return s.running.Load() }
