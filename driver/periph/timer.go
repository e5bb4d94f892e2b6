//go:build !tinygo && !baremetal

package periph

import (
	"sync"
	"time"
)

// Timer emulates a 16-bit overflow timer against the monotonic clock.
type Timer struct {
	b       *Board
	clockHz uint32

	mu      sync.Mutex
	enabled bool
	gated   bool
	open    bool
	running bool // enabled and, if gated, the gate is open
	base    uint16
	since   time.Time
	isr     func()
	t       *time.Timer
	gen     uint64
}

func (b *Board) NewTimer(clockHz uint32) *Timer {
	return &Timer{b: b, clockHz: clockHz}
}

func (t *Timer) ClockHz() uint32 { return t.clockHz }

func (t *Timer) SetHandler(isr func()) {
	t.mu.Lock()
	t.isr = isr
	t.mu.Unlock()
}

func (t *Timer) Load(v uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.base = v
	t.since = time.Now()
	if t.running {
		t.schedule()
	}
}

func (t *Timer) Count() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count(time.Now())
}

func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
	t.update()
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	t.update()
}

// setGate opens or closes the gate of a gated timer.
func (t *Timer) setGate(open bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = open
	t.update()
}

// update starts or halts counting to match the enable and the gate. t.mu is held.
func (t *Timer) update() {
	run := t.enabled && (!t.gated || t.open)
	if run == t.running {
		return
	}
	now := time.Now()
	if run {
		t.since = now
		t.running = true
		t.schedule()
		return
	}
	t.base = t.count(now)
	t.running = false
	t.gen++
	if t.t != nil {
		t.t.Stop()
	}
}

func (t *Timer) count(now time.Time) uint16 {
	if !t.running {
		return t.base
	}
	elapsed := uint64(now.Sub(t.since)) * uint64(t.clockHz) / uint64(time.Second)
	return t.base + uint16(elapsed)
}

// schedule arms the wall-clock timer for the next overflow. t.mu is held.
func (t *Timer) schedule() {
	t.gen++
	if t.t != nil {
		t.t.Stop()
	}
	left := 0x10000 - uint64(t.base)
	d := time.Duration(left * uint64(time.Second) / uint64(t.clockHz))
	gen := t.gen
	t.t = time.AfterFunc(d, func() { t.b.interrupt(func() { t.overflow(gen) }) })
}

func (t *Timer) overflow(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.base = 0
	t.since = time.Now()
	t.schedule()
	isr := t.isr
	t.mu.Unlock()
	if isr != nil {
		isr()
	}
}
