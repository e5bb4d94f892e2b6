package stub

import (
	"testing"
	"time"

	"github.com/irdroid/irtoy/hal"
)

func TestTimerOverflowAfterReload(t *testing.T) {
	b := New()
	tm := b.TxTimer
	if tm.ClockHz() != 6000000 {
		t.Fatalf("ClockHz() = %d, want 6000000", tm.ClockHz())
	}

	var fired []uint64
	tm.SetHandler(func() { fired = append(fired, b.Now()) })
	tm.Load(0xFFFF - 9) // overflow after 10 ticks
	tm.Start()

	b.Idle()
	if len(fired) != 1 || fired[0] != 40 {
		t.Fatalf("overflow at %v, want [40]", fired)
	}
	// free-runs from zero afterwards
	b.Idle()
	if len(fired) != 2 || fired[1] != 40+0x10000*4 {
		t.Fatalf("second overflow at %v", fired)
	}
	tm.Stop()
	if _, ok := b.nextEvent(); ok {
		t.Fatal("stopped timer still scheduled")
	}
}

func TestTimerCountAndStop(t *testing.T) {
	b := New()
	tm := b.CycleTimer
	tm.Load(0)
	tm.Start()
	b.Advance(12 * 100)
	if got := tm.Count(); got != 100 {
		t.Fatalf("Count() = %d, want 100", got)
	}
	tm.Stop()
	b.Advance(12 * 100)
	if got := tm.Count(); got != 100 {
		t.Fatalf("Count() after Stop = %d, want 100", got)
	}
	if tm.Running() {
		t.Fatal("Running() = true after Stop")
	}
}

func TestGatedTimerCountsOnlyWhileHigh(t *testing.T) {
	b := New()
	tm := b.SpaceTimer
	tm.Load(0)
	tm.Start()

	b.Advance(12 * 10) // high: counts
	b.IR.Drive(false)
	b.Advance(12 * 50) // low: paused
	b.IR.Drive(true)
	b.Advance(12 * 5)

	if got := tm.Count(); got != 15 {
		t.Fatalf("Count() = %d, want 15", got)
	}
}

func TestLineSignalFiresEdges(t *testing.T) {
	b := New()
	var falls, rises []uint64
	b.IR.SetHandler(hal.EdgeFalling, func() { falls = append(falls, b.Now()) })
	b.IR.SetHandler(hal.EdgeRising, func() { rises = append(rises, b.Now()) })

	end := b.IR.Signal(100, 10, 20, 30)
	if end != 160 {
		t.Fatalf("Signal end = %d, want 160", end)
	}
	b.Advance(1000)

	if len(falls) != 2 || falls[0] != 100 || falls[1] != 130 {
		t.Errorf("falling edges = %v, want [100 130]", falls)
	}
	if len(rises) != 2 || rises[0] != 110 || rises[1] != 160 {
		t.Errorf("rising edges = %v, want [110 160]", rises)
	}
	if !b.IR.Get() {
		t.Error("line not idle high after signal")
	}
}

func TestRunForStopsAtDeadline(t *testing.T) {
	b := New()
	steps := 0
	b.RunFor(time.Millisecond, func() { steps++ })
	if b.Now() != 24000 {
		t.Fatalf("Now() = %d, want 24000", b.Now())
	}
	if steps != 1 {
		t.Errorf("steps = %d, want 1 with nothing scheduled", steps)
	}
}

func TestPinAndPWMRecordTransitions(t *testing.T) {
	b := New()
	b.LED.High()
	b.LED.High()
	b.Advance(5)
	b.LED.Low()
	if got := b.LED.Transitions(); len(got) != 2 || got[1].At != 5 || got[1].High {
		t.Errorf("LED transitions = %+v", got)
	}

	if err := b.PWM.Configure(26316); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if b.PWM.Top() != 632 {
		t.Errorf("Top() = %d, want 632", b.PWM.Top())
	}
	if b.PWM.Frequency() != 37975 {
		t.Errorf("Frequency() = %d, want 37975", b.PWM.Frequency())
	}
	b.PWM.Set(315)
	b.PWM.Set(300)
	b.PWM.Set(0)
	if got := b.PWM.Transitions(); len(got) != 2 || !got[0].High || got[1].High {
		t.Errorf("PWM transitions = %+v", got)
	}
	if err := b.PWM.Configure(10); err == nil {
		t.Error("Configure(10ns) succeeded")
	}
}
