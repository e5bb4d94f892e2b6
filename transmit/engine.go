// Package transmit replays pulse/space durations on the carrier. A 16-bit
// overflow timer measures each duration; its interrupt toggles the carrier
// and reloads the next duration handed over by the main loop through a
// single-slot buffer.
package transmit

import (
	"sync/atomic"

	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/spsc"
)

// maxChunk is the longest interval one timer period can measure.
const maxChunk = 0xFFFF

type slot struct {
	ticks uint32
	last  bool
}

// Engine owns the transmit timer and the carrier while a stream is playing.
type Engine struct {
	timer   hal.Timer
	carrier carrier.Generator
	idler   hal.Idler
	guard   hal.Guard
	scale   uint16

	buf  spsc.Cell[slot]
	put  spsc.Producer[slot] // main loop
	take spsc.Consumer[slot] // timer interrupt

	active   atomic.Bool // set by the main loop while the timer is off, cleared by the interrupt
	underrun atomic.Bool // set by the interrupt
	toggles  atomic.Uint32

	// main loop only
	started bool
	first   slot

	// timer interrupt, or the main loop inside guard.Critical
	on       bool
	remain   uint32
	lastLoad bool

	// bound once so Critical calls do not allocate
	beginFn func()
	abortFn func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithGuard holds the timer interrupt off while a stream is started or
// aborted. Without it the main loop writes interrupt state unguarded.
func WithGuard(g hal.Guard) Option {
	return func(e *Engine) {
		if g != nil {
			e.guard = g
		}
	}
}

// New returns an idle engine. scaleTX is the number of timer ticks per protocol tick.
func New(timer hal.Timer, gen carrier.Generator, idler hal.Idler, scaleTX uint16, opts ...Option) *Engine {
	e := &Engine{timer: timer, carrier: gen, idler: idler, guard: hal.Unguarded{}, scale: scaleTX}
	for _, opt := range opts {
		opt(e)
	}
	e.put, e.take = e.buf.Ends()
	e.beginFn = e.beginLocked
	e.abortFn = e.abortLocked
	timer.SetHandler(e.isr)
	return e
}

// Load queues one duration. The first duration of a stream starts the timer
// with the carrier on; later ones wait until the interrupt has taken the
// previous value. It returns ErrUnderrun if the stream already ran dry.
func (e *Engine) Load(t proto.Tick) error {
	return e.load(e.scale32(t), false)
}

// LoadLast queues the terminating interval that replaces the end-of-stream
// sentinel. The carrier is off for its whole length.
func (e *Engine) LoadLast() error {
	return e.load(e.scale32(proto.TerminatorTicks), true)
}

func (e *Engine) scale32(t proto.Tick) uint32 {
	ticks := uint32(t) * uint32(e.scale)
	if ticks == 0 {
		ticks = 1
	}
	return ticks
}

func (e *Engine) load(ticks uint32, last bool) error {
	if !e.started {
		e.begin(ticks, last)
		return nil
	}
	if e.underrun.Load() {
		return proto.ErrUnderrun
	}
	for !e.put.Put(slot{ticks: ticks, last: last}) {
		e.idler.Idle()
	}
	// The interrupt may have found the slot empty just before Put.
	if !e.active.Load() {
		if e.underrun.Load() {
			e.buf.Reset()
			return proto.ErrUnderrun
		}
	}
	return nil
}

func (e *Engine) begin(ticks uint32, last bool) {
	e.first = slot{ticks: ticks, last: last}
	e.guard.Critical(e.beginFn)
}

func (e *Engine) beginLocked() {
	e.timer.Stop()
	e.buf.Reset()
	e.underrun.Store(false)
	e.toggles.Store(0)
	e.remain = e.first.ticks
	e.lastLoad = e.first.last
	e.on = !e.first.last
	e.reloadChunk()
	e.started = true
	e.active.Store(true)
	if e.on {
		e.carrier.Start()
		e.toggles.Add(1)
	}
	e.timer.Start()
}

func (e *Engine) reloadChunk() {
	chunk := e.remain
	if chunk > maxChunk {
		chunk = maxChunk
	}
	e.remain -= chunk
	e.timer.Load(proto.ReloadFor(uint16(chunk)))
}

// isr runs on every timer overflow.
func (e *Engine) isr() {
	if e.remain > 0 {
		e.reloadChunk()
		return
	}

	s, ok := e.take.Take()
	if !ok {
		e.timer.Stop()
		e.carrier.Stop()
		e.on = false
		if !e.lastLoad {
			e.underrun.Store(true)
		}
		e.active.Store(false)
		return
	}

	if s.last {
		e.carrier.Stop()
		e.on = false
	} else {
		e.on = !e.on
		if e.on {
			e.carrier.Start()
		} else {
			e.carrier.Stop()
		}
		e.toggles.Add(1)
	}
	e.lastLoad = s.last
	e.remain = s.ticks
	e.reloadChunk()
}

// Active reports whether the timer is still playing the stream.
func (e *Engine) Active() bool { return e.active.Load() }

// Started reports whether a stream has been started since the last Abort.
func (e *Engine) Started() bool { return e.started }

// Underrun reports whether the last stream stopped because the buffer ran dry.
func (e *Engine) Underrun() bool { return e.underrun.Load() }

// Done reports whether a started stream has finished playing.
func (e *Engine) Done() bool { return e.started && !e.active.Load() }

// Toggles returns the number of carrier phase changes in the current stream.
func (e *Engine) Toggles() int { return int(e.toggles.Load()) }

// Abort stops the timer interrupt first, then the carrier, then clears all
// stream state. It is idempotent.
func (e *Engine) Abort() {
	e.guard.Critical(e.abortFn)
}

func (e *Engine) abortLocked() {
	e.timer.Stop()
	e.carrier.Stop()
	e.active.Store(false)
	e.buf.Reset()
	e.underrun.Store(false)
	e.on = false
	e.remain = 0
	e.lastLoad = false
	e.started = false
}
