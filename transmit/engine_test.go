package transmit

import (
	"errors"
	"testing"

	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/driver/stub"
	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
)

// one protocol tick is 128 ticks of the 6 MHz timer, 4 system cycles each
const cyclesPerTick = 128 * 4

func newEngine(t *testing.T) (*Engine, *stub.Board) {
	t.Helper()
	b := stub.New()
	gen := carrier.NewHardware(b.PWM)
	if err := gen.Configure(proto.DefaultCarrierHz); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	return New(b.TxTimer, gen, b, 128), b
}

func drain(t *testing.T, e *Engine, b *stub.Board) {
	t.Helper()
	for i := 0; e.Active(); i++ {
		if i > 10000 {
			t.Fatal("engine never went idle")
		}
		b.Idle()
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		durations []proto.Tick
	}{
		{"single pulse", []proto.Tick{10}},
		{"pulse space pulse", []proto.Tick{10, 20, 30}},
		{"ends on a space", []proto.Tick{342, 171, 21, 64, 21, 21}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, b := newEngine(t)
			for _, d := range tt.durations {
				if err := e.Load(d); err != nil {
					t.Fatalf("Load(%d): %v", d, err)
				}
			}
			if err := e.LoadLast(); err != nil {
				t.Fatalf("LoadLast: %v", err)
			}
			drain(t, e, b)

			if e.Underrun() {
				t.Error("Underrun() = true after a terminated stream")
			}
			if got, want := e.Toggles(), len(tt.durations); got != want {
				t.Errorf("Toggles() = %d, want %d", got, want)
			}
			if b.PWM.On() || b.TxTimer.Running() {
				t.Error("carrier or timer left running")
			}

			// Every duration appears as one carrier state, the carrier ends off.
			tr := b.PWM.Transitions()
			at := uint64(0)
			on := true
			idx := 0
			for i, d := range tt.durations {
				if on {
					if idx >= len(tr) || !tr[idx].High || tr[idx].At != at {
						t.Fatalf("duration %d: want carrier on at %d, transitions %+v", i, at, tr)
					}
					idx++
				} else if idx >= len(tr) || tr[idx].High || tr[idx].At != at {
					t.Fatalf("duration %d: want carrier off at %d, transitions %+v", i, at, tr)
				}
				if !on {
					idx++
				}
				at += uint64(d) * cyclesPerTick
				on = !on
			}
			if !on {
				// last duration was a pulse: the terminator turns the carrier off
				if idx >= len(tr) || tr[idx].High || tr[idx].At != at {
					t.Fatalf("want carrier off at %d, transitions %+v", at, tr)
				}
				idx++
			}
			if idx != len(tr) {
				t.Errorf("extra transitions: %+v", tr[idx:])
			}
			if end := at + uint64(proto.TerminatorTicks)*cyclesPerTick; b.Now() != end {
				t.Errorf("stream ended at %d, want %d", b.Now(), end)
			}
		})
	}
}

func TestLongDurationIsChained(t *testing.T) {
	e, b := newEngine(t)
	// 2000 ticks is 256000 timer ticks, four timer periods
	if err := e.Load(2000); err != nil {
		t.Fatal(err)
	}
	if err := e.Load(5); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadLast(); err != nil {
		t.Fatal(err)
	}
	drain(t, e, b)

	tr := b.PWM.Transitions()
	if len(tr) != 2 || tr[1].At != 2000*cyclesPerTick {
		t.Fatalf("transitions = %+v, want off at %d", tr, 2000*cyclesPerTick)
	}
	if e.Toggles() != 2 {
		t.Errorf("Toggles() = %d, want 2", e.Toggles())
	}
}

func TestUnderrun(t *testing.T) {
	e, b := newEngine(t)
	for _, d := range []proto.Tick{10, 20, 30} {
		if err := e.Load(d); err != nil {
			t.Fatal(err)
		}
	}
	drain(t, e, b)

	if !e.Underrun() {
		t.Fatal("Underrun() = false after the stream ran dry")
	}
	if !e.Done() {
		t.Error("Done() = false")
	}
	if b.PWM.On() || b.TxTimer.Running() {
		t.Error("carrier or timer left running after underrun")
	}
	if err := e.Load(10); !errors.Is(err, proto.ErrUnderrun) {
		t.Errorf("Load after underrun = %v, want %v", err, proto.ErrUnderrun)
	}

	// no further interrupts
	before := b.TxTimer.Overflows()
	b.Advance(1 << 24)
	if b.TxTimer.Overflows() != before {
		t.Error("timer kept interrupting after underrun")
	}
}

func TestZeroDurationTakesOneTick(t *testing.T) {
	e, b := newEngine(t)
	if err := e.Load(0); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadLast(); err != nil {
		t.Fatal(err)
	}
	drain(t, e, b)
	tr := b.PWM.Transitions()
	if len(tr) != 2 || tr[1].At != 4 {
		t.Errorf("transitions = %+v, want off after one timer tick", tr)
	}
}

func TestSentinelOnlyStream(t *testing.T) {
	e, b := newEngine(t)
	if err := e.LoadLast(); err != nil {
		t.Fatal(err)
	}
	drain(t, e, b)
	if e.Underrun() || e.Toggles() != 0 || len(b.PWM.Transitions()) != 0 {
		t.Errorf("underrun=%v toggles=%d transitions=%+v", e.Underrun(), e.Toggles(), b.PWM.Transitions())
	}
}

func TestAbortIsIdempotent(t *testing.T) {
	e, b := newEngine(t)
	e.Load(100)
	e.Load(100)
	b.Idle()

	e.Abort()
	e.Abort()
	if e.Active() || e.Started() || e.Underrun() {
		t.Fatal("state left after Abort")
	}
	if b.PWM.On() || b.TxTimer.Running() {
		t.Fatal("carrier or timer left running after Abort")
	}

	// a fresh stream starts cleanly
	if err := e.Load(3); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadLast(); err != nil {
		t.Fatal(err)
	}
	drain(t, e, b)
	if e.Underrun() || e.Toggles() != 1 {
		t.Errorf("after restart: underrun=%v toggles=%d", e.Underrun(), e.Toggles())
	}
}

func TestSoftwareCarrierGatedByPhase(t *testing.T) {
	b := stub.New()
	gen := carrier.NewSoftware(b.CarrierTimer, b.IRLED, 0)
	if err := gen.Configure(proto.DefaultCarrierHz); err != nil {
		t.Fatal(err)
	}
	e := New(b.TxTimer, gen, b, 128)
	e.Load(50)
	e.Load(50)
	e.LoadLast()
	drain(t, e, b)

	tr := b.IRLED.Transitions()
	if len(tr) < 10 {
		t.Fatalf("only %d carrier edges during a 50 tick pulse", len(tr))
	}
	if last := tr[len(tr)-1]; last.High || last.At > 50*cyclesPerTick {
		t.Errorf("carrier edge after the pulse: %+v", last)
	}
	if gen.Running() || b.IRLED.Level() {
		t.Error("software carrier left running")
	}
}

// fence is a guard that also notices timer writes made outside both
// Critical and the timer interrupt.
type fence struct {
	inside, inISR bool
	calls, strays int
}

func (f *fence) Critical(fn func()) {
	f.calls++
	f.inside = true
	fn()
	f.inside = false
}

func (f *fence) note() {
	if !f.inside && !f.inISR {
		f.strays++
	}
}

type fencedTimer struct {
	hal.Timer
	f *fence
}

func (t fencedTimer) SetHandler(isr func()) {
	t.Timer.SetHandler(func() {
		t.f.inISR = true
		isr()
		t.f.inISR = false
	})
}
func (t fencedTimer) Load(v uint16) { t.f.note(); t.Timer.Load(v) }
func (t fencedTimer) Start()        { t.f.note(); t.Timer.Start() }
func (t fencedTimer) Stop()         { t.f.note(); t.Timer.Stop() }

func TestStreamResetsRunGuarded(t *testing.T) {
	tests := []struct {
		name      string
		durations []proto.Tick
		abort     bool
		wantCalls int
	}{
		{"played out", []proto.Tick{10, 20, 30}, false, 1},
		{"chained long duration", []proto.Tick{2000, 10}, false, 1},
		{"aborted mid stream", []proto.Tick{100, 100, 100}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := stub.New()
			gen := carrier.NewHardware(b.PWM)
			if err := gen.Configure(proto.DefaultCarrierHz); err != nil {
				t.Fatalf("Configure: %v", err)
			}
			f := &fence{}
			e := New(fencedTimer{b.TxTimer, f}, gen, b, 128, WithGuard(f))

			for _, d := range tt.durations {
				if err := e.Load(d); err != nil {
					t.Fatalf("Load(%d): %v", d, err)
				}
			}
			if tt.abort {
				b.Idle()
				e.Abort()
			} else {
				if err := e.LoadLast(); err != nil {
					t.Fatalf("LoadLast: %v", err)
				}
				drain(t, e, b)
			}

			if f.strays != 0 {
				t.Errorf("timer writes outside Critical = %d, want 0", f.strays)
			}
			if f.calls != tt.wantCalls {
				t.Errorf("Critical calls = %d, want %d", f.calls, tt.wantCalls)
			}
			if e.on || e.remain != 0 {
				t.Errorf("on = %v, remain = %d after the stream, want false, 0", e.on, e.remain)
			}
		})
	}
}
