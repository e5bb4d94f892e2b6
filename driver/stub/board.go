//go:build !tinygo && !baremetal

// Package stub simulates the IR board on the host. Time is virtual: it moves
// only when the core idles, and every interrupt fires synchronously on the
// goroutine that called Idle or Advance. A Board is not safe for concurrent
// use; drive it from the goroutine running the core.
package stub

import (
	"sort"
	"time"

	"github.com/irdroid/irtoy/hal"
	"github.com/irdroid/irtoy/transport"
)

// Board is a simulated microcontroller with the peripherals the IR core needs.
type Board struct {
	clockHz  uint64
	now      uint64 // system clock cycles
	timers   []*Timer
	lines    []*Line
	realtime bool
	epoch    time.Time
	idles    uint64

	Port         *transport.Pipe
	LED          *Pin // status LED
	IRLED        *Pin // IR LED driven by the software carrier
	PWM          *PWM // IR LED driven by the hardware carrier
	IR           *Line
	TxTimer      *Timer
	CarrierTimer *Timer
	CycleTimer   *Timer
	SpaceTimer   *Timer // counts only while IR is idle (high)
	FlushTimer   *Timer
}

type options struct {
	clockHz    uint32
	txDiv      uint32
	rxDiv      uint32
	packetSize int
	realtime   bool
}

// Option configures a Board.
type Option func(*options)

// WithClock sets the system clock in Hz (default 24 MHz).
func WithClock(hz uint32) Option { return func(o *options) { o.clockHz = hz } }

// WithDividers sets the clock dividers of the transmit/carrier timers and of the capture/flush timers.
func WithDividers(tx, rx uint32) Option {
	return func(o *options) { o.txDiv, o.rxDiv = tx, rx }
}

// WithPacketSize sets the port packet size.
func WithPacketSize(n int) Option { return func(o *options) { o.packetSize = n } }

// WithRealtime ties virtual time to the wall clock so a host can talk to the board live.
func WithRealtime() Option { return func(o *options) { o.realtime = true } }

// New returns a board with a 24 MHz clock, a 6 MHz transmit timer and 2 MHz capture timers.
func New(opts ...Option) *Board {
	o := options{clockHz: 24000000, txDiv: 4, rxDiv: 12}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Board{clockHz: uint64(o.clockHz), realtime: o.realtime, epoch: time.Now()}
	b.Port = transport.NewPipe(o.packetSize)
	b.LED = &Pin{b: b}
	b.IRLED = &Pin{b: b}
	b.PWM = &PWM{b: b}
	b.IR = b.NewLine(true)
	b.TxTimer = b.NewTimer(o.txDiv)
	b.CarrierTimer = b.NewTimer(o.txDiv)
	b.CycleTimer = b.NewTimer(o.rxDiv)
	b.SpaceTimer = b.NewGatedTimer(o.rxDiv, b.IR)
	b.FlushTimer = b.NewTimer(o.rxDiv)
	return b
}

// ClockHz returns the system clock rate.
func (b *Board) ClockHz() uint32 { return uint32(b.clockHz) }

// Now returns the virtual time in system clock cycles.
func (b *Board) Now() uint64 { return b.now }

// Cycles converts a duration to system clock cycles.
func (b *Board) Cycles(d time.Duration) uint64 {
	return uint64(d) * b.clockHz / uint64(time.Second)
}

// Idles returns how many times Idle has been called.
func (b *Board) Idles() uint64 { return b.idles }

// NewTimer adds a timer counting once every div system clock cycles.
func (b *Board) NewTimer(div uint32) *Timer {
	if div == 0 {
		div = 1
	}
	t := &Timer{b: b, div: uint64(div)}
	b.timers = append(b.timers, t)
	return t
}

// NewGatedTimer adds a timer that counts only while gate is high.
func (b *Board) NewGatedTimer(div uint32, gate *Line) *Timer {
	t := b.NewTimer(div)
	t.gate = gate
	gate.gated = append(gate.gated, t)
	return t
}

// NewLine adds an input line at the given initial level.
func (b *Board) NewLine(level bool) *Line {
	l := &Line{b: b, level: level}
	b.lines = append(b.lines, l)
	return l
}

// Idle advances virtual time to the next scheduled event and fires it.
// With nothing scheduled it returns at once. In realtime mode it sleeps
// until the wall clock catches up, at most one millisecond per call.
func (b *Board) Idle() {
	b.idles++
	if !b.realtime {
		if next, ok := b.nextEvent(); ok {
			b.advanceTo(next)
		}
		return
	}

	wall := b.wallCycles()
	next, ok := b.nextEvent()
	if !ok || next > wall {
		wait := time.Millisecond
		if ok {
			if d := time.Duration((next - wall) * uint64(time.Second) / b.clockHz); d < wait {
				wait = d
			}
		}
		time.Sleep(wait)
		wall = b.wallCycles()
	}
	b.advanceTo(wall)
}

// Critical runs f directly. Handlers fire only inside Idle, Advance and
// RunFor, never concurrently with the main loop.
func (b *Board) Critical(f func()) { f() }

// Advance moves virtual time forward by cycles, firing everything due on the way.
func (b *Board) Advance(cycles uint64) {
	b.advanceTo(b.now + cycles)
}

// RunFor calls step and Idle alternately until d of virtual time has passed.
func (b *Board) RunFor(d time.Duration, step func()) {
	end := b.now + b.Cycles(d)
	for b.now < end {
		if step != nil {
			step()
		}
		next, ok := b.nextEvent()
		if !ok || next > end {
			b.advanceTo(end)
			return
		}
		b.Idle()
	}
}

func (b *Board) wallCycles() uint64 {
	w := uint64(time.Since(b.epoch)) * b.clockHz / uint64(time.Second)
	if w < b.now {
		return b.now
	}
	return w
}

func (b *Board) advanceTo(target uint64) {
	for {
		next, ok := b.nextEvent()
		if !ok || next > target {
			break
		}
		b.fire(next)
	}
	if target > b.now {
		b.now = target
	}
}

func (b *Board) nextEvent() (uint64, bool) {
	var best uint64
	found := false
	for _, l := range b.lines {
		if len(l.sched) > 0 && (!found || l.sched[0].at < best) {
			best, found = l.sched[0].at, true
		}
	}
	for _, t := range b.timers {
		if d, ok := t.deadline(); ok && (!found || d < best) {
			best, found = d, true
		}
	}
	if found && best < b.now {
		best = b.now
	}
	return best, found
}

// fire runs every event due at the given time: input edges first, then
// timer overflows in creation order.
func (b *Board) fire(at uint64) {
	b.now = at
	for _, l := range b.lines {
		for len(l.sched) > 0 && l.sched[0].at <= at {
			lvl := l.sched[0].level
			l.sched = l.sched[1:]
			l.apply(lvl)
		}
	}
	for _, t := range b.timers {
		if d, ok := t.deadline(); ok && d <= at {
			t.overflow()
		}
	}
}

// Timer is a simulated 16-bit up-counter.
type Timer struct {
	b       *Board
	div     uint64
	gate    *Line
	running bool
	base    uint16 // counter value at since
	since   uint64
	isr     func()
	wraps   int
}

func (t *Timer) ClockHz() uint32     { return uint32(t.b.clockHz / t.div) }
func (t *Timer) SetHandler(f func()) { t.isr = f }

func (t *Timer) counting() bool {
	return t.running && (t.gate == nil || t.gate.level)
}

func (t *Timer) Count() uint16 {
	if !t.counting() {
		return t.base
	}
	return t.base + uint16((t.b.now-t.since)/t.div)
}

func (t *Timer) Load(v uint16) {
	t.base = v
	t.since = t.b.now
}

func (t *Timer) Start() {
	if t.running {
		return
	}
	t.since = t.b.now
	t.running = true
}

func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.base = t.Count()
	t.running = false
}

// Running reports whether the timer is enabled.
func (t *Timer) Running() bool { return t.running }

// Overflows returns how many times the timer has wrapped.
func (t *Timer) Overflows() int { return t.wraps }

func (t *Timer) deadline() (uint64, bool) {
	if !t.counting() {
		return 0, false
	}
	return t.since + (0x10000-uint64(t.base))*t.div, true
}

func (t *Timer) overflow() {
	t.wraps++
	t.base = 0
	t.since = t.b.now
	if t.isr != nil {
		t.isr()
	}
}

type edgeAt struct {
	at    uint64
	level bool
}

// Line is a simulated digital input.
type Line struct {
	b     *Board
	level bool
	fall  func()
	rise  func()
	gated []*Timer
	sched []edgeAt
}

func (l *Line) Get() bool { return l.level }

func (l *Line) SetHandler(e hal.Edge, isr func()) {
	switch e {
	case hal.EdgeFalling:
		l.fall = isr
	case hal.EdgeRising:
		l.rise = isr
	}
}

// Drive sets the level now, firing edge handlers.
func (l *Line) Drive(level bool) { l.apply(level) }

// Schedule sets the level at an absolute virtual time.
func (l *Line) Schedule(at uint64, level bool) {
	l.sched = append(l.sched, edgeAt{at, level})
	sort.SliceStable(l.sched, func(i, j int) bool { return l.sched[i].at < l.sched[j].at })
}

// Signal schedules an active-low burst starting at: the line is low for
// durations[0] cycles, high for durations[1], and so on, and idles high after
// the last entry. It returns the time the burst ends.
func (l *Line) Signal(at uint64, durations ...uint64) uint64 {
	for i, d := range durations {
		l.Schedule(at, i%2 == 1)
		at += d
	}
	l.Schedule(at, true)
	return at
}

func (l *Line) apply(level bool) {
	if level == l.level {
		return
	}
	for _, t := range l.gated {
		t.base = t.Count()
		t.since = l.b.now
	}
	l.level = level
	if level {
		if l.rise != nil {
			l.rise()
		}
	} else if l.fall != nil {
		l.fall()
	}
}

// Transition is one recorded change of an output.
type Transition struct {
	At   uint64
	High bool
}

// Pin is a simulated output that records its transitions.
type Pin struct {
	b     *Board
	level bool
	log   []Transition
}

func (p *Pin) High() { p.Set(true) }
func (p *Pin) Low()  { p.Set(false) }

func (p *Pin) Set(high bool) {
	if high == p.level {
		return
	}
	p.level = high
	p.log = append(p.log, Transition{At: p.b.now, High: high})
}

// Level returns the current output level.
func (p *Pin) Level() bool { return p.level }

// Transitions returns the recorded level changes.
func (p *Pin) Transitions() []Transition { return append([]Transition(nil), p.log...) }

// Reset clears the transition log.
func (p *Pin) Reset() { p.log = nil }
