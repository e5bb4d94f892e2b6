//go:build !tinygo && !baremetal

package stub

import proto "github.com/irdroid/irtoy/protocol"

// PWM is a simulated PWM channel clocked from the system clock. Only the
// on/off state of the output is recorded, not individual carrier cycles.
type PWM struct {
	b       *Board
	top     uint32
	value   uint32
	log     []Transition
	configs int
}

func (p *PWM) Configure(periodNanos uint64) error {
	top := (periodNanos*p.b.clockHz + 5e8) / 1e9
	if top < 2 || top > 0xFFFF {
		return proto.ErrInvalidFrequency
	}
	p.top = uint32(top)
	p.configs++
	return nil
}

func (p *PWM) Frequency() uint32 {
	if p.top == 0 {
		return 0
	}
	return uint32((p.b.clockHz + uint64(p.top)/2) / uint64(p.top))
}

func (p *PWM) Top() uint32 { return p.top }

func (p *PWM) Set(value uint32) {
	on := value > 0
	if on != (p.value > 0) {
		p.log = append(p.log, Transition{At: p.b.now, High: on})
	}
	p.value = value
}

// On reports whether the carrier is being emitted.
func (p *PWM) On() bool { return p.value > 0 }

// Duty returns the current compare value.
func (p *PWM) Duty() uint32 { return p.value }

// Configures returns how many times Configure succeeded.
func (p *PWM) Configures() int { return p.configs }

// Transitions returns the recorded on/off changes.
func (p *PWM) Transitions() []Transition { return append([]Transition(nil), p.log...) }

// Reset clears the transition log.
func (p *PWM) Reset() { p.log = nil }
