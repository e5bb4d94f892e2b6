// Package capture measures demodulated IR bursts with two timers. On every
// falling edge of the active-low receiver line a free-running cycle timer and
// a space timer gated by the idle (high) line are read and restarted
// together: the gated count is the space and the difference is the pulse.
// A gated timer overflow means the line has been idle too long and closes
// the burst with an end-of-burst marker.
package capture

import (
	"sync/atomic"

	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/spsc"
)

// Engine turns receiver edges into Pairs and hands them to the main loop.
type Engine struct {
	input hal.Input
	cycle hal.Timer
	space hal.Timer
	flush hal.Timer
	guard hal.Guard
	scale uint16

	flushReload uint16
	pairs       *spsc.Ring[proto.Pair]

	overflows atomic.Uint32 // written by interrupts
	flushes   atomic.Uint32 // written by the flush interrupt
	enabled   atomic.Bool

	// interrupt, or the main loop inside guard.Critical
	armed bool
	wraps uint32

	// main loop only
	seenOverflows uint32
	seenFlushes   uint32
	disarmFn      func()
}

// Config sizes the engine.
type Config struct {
	ScaleRX     uint16 // capture timer ticks per protocol tick
	FlushMillis uint32 // period of the flush timer
	Depth       int    // pairs buffered for the main loop

	// Guard holds the capture interrupts off while the main loop disarms
	// a burst. nil means hal.Unguarded.
	Guard hal.Guard
}

// New wires the engine to its peripherals. space must count only while input is high.
func New(input hal.Input, cycle, space, flush hal.Timer, cfg Config) (*Engine, error) {
	ticks := uint64(flush.ClockHz()) * uint64(cfg.FlushMillis) / 1000
	if ticks == 0 || ticks > 0xFFFF {
		return nil, proto.ErrInvalidConfig
	}
	if cfg.ScaleRX == 0 || cfg.Depth < 1 {
		return nil, proto.ErrInvalidConfig
	}
	e := &Engine{
		input:       input,
		cycle:       cycle,
		space:       space,
		flush:       flush,
		scale:       cfg.ScaleRX,
		flushReload: proto.ReloadFor(uint16(ticks)),
		pairs:       spsc.NewRing[proto.Pair](cfg.Depth),
		guard:       cfg.Guard,
	}
	if e.guard == nil {
		e.guard = hal.Unguarded{}
	}
	e.disarmFn = e.disarm
	cycle.SetHandler(e.cycleWrap)
	space.SetHandler(e.spaceTimeout)
	flush.SetHandler(e.flushTick)
	return e, nil
}

// Start arms the edge interrupt and the flush timer with an empty buffer.
func (e *Engine) Start() {
	e.Stop()
	e.pairs.Reset()
	e.overflows.Store(0)
	e.seenOverflows = 0
	e.flush.Load(e.flushReload)
	e.flush.Start()
	e.Resume()
}

// Stop disarms every capture interrupt. Buffered pairs are kept.
func (e *Engine) Stop() {
	e.Pause()
	e.flush.Stop()
}

// Pause disarms edge capture but keeps the flush timer running.
func (e *Engine) Pause() {
	e.enabled.Store(false)
	e.input.SetHandler(hal.EdgeFalling, nil)
	e.guard.Critical(e.disarmFn)
}

// Resume re-arms edge capture. The first edge starts a new burst.
func (e *Engine) Resume() {
	e.guard.Critical(e.disarmFn)
	e.enabled.Store(true)
	e.input.SetHandler(hal.EdgeFalling, e.edge)
}

// disarm drops any burst in progress. SetHandler may take the same lock as
// Critical, so it is never called from here.
func (e *Engine) disarm() {
	e.cycle.Stop()
	e.space.Stop()
	e.armed = false
	e.wraps = 0
}

// Enabled reports whether edges are being captured.
func (e *Engine) Enabled() bool { return e.enabled.Load() }

func (e *Engine) restart() {
	e.cycle.Load(0)
	e.space.Load(0)
	e.wraps = 0
	e.cycle.Start()
	e.space.Start()
}

// edge runs on every falling edge: the end of a space and the start of a pulse.
func (e *Engine) edge() {
	if e.armed {
		total := e.wraps<<16 | uint32(e.cycle.Count())
		space := uint32(e.space.Count())
		e.emit(total-space, space, false)
	}
	e.restart()
	e.armed = true
}

func (e *Engine) cycleWrap() {
	e.wraps++
}

// spaceTimeout runs when the line stayed idle for a whole space timer period.
func (e *Engine) spaceTimeout() {
	e.space.Stop()
	e.cycle.Stop()
	if !e.armed {
		return
	}
	total := e.wraps<<16 | uint32(e.cycle.Count())
	e.emit(total-0x10000, 0, true)
	e.armed = false
}

func (e *Engine) emit(pulse, space uint32, timeout bool) {
	if pulse > 1<<31 {
		pulse = 0
	}
	p := proto.Pair{Pulse: e.ticks(pulse), Space: proto.Sentinel}
	if !timeout {
		p.Space = e.ticks(space)
	}
	if !e.pairs.Push(p) {
		e.overflows.Add(1)
	}
}

func (e *Engine) ticks(device uint32) proto.Tick {
	return proto.Scale{RX: e.scale}.Ticks(device)
}

func (e *Engine) flushTick() {
	e.flush.Load(e.flushReload)
	e.flushes.Add(1)
}

// Next returns the oldest captured pair.
func (e *Engine) Next() (proto.Pair, bool) {
	return e.pairs.Pop()
}

// Buffered returns the number of pairs waiting.
func (e *Engine) Buffered() int { return e.pairs.Len() }

// FlushDue reports, once per flush timer period, that output should be flushed.
func (e *Engine) FlushDue() bool {
	n := e.flushes.Load()
	if n == e.seenFlushes {
		return false
	}
	e.seenFlushes = n
	return true
}

// TakeOverflow reports how many pairs were dropped since the previous call.
// The count is sticky until read.
func (e *Engine) TakeOverflow() uint32 {
	n := e.overflows.Load()
	dropped := n - e.seenOverflows
	e.seenOverflows = n
	return dropped
}

// Overflows returns the total number of dropped pairs since Start.
func (e *Engine) Overflows() uint32 { return e.overflows.Load() }
