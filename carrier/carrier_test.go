package carrier

import (
	"errors"
	"testing"
	"time"

	"github.com/irdroid/irtoy/driver/stub"
	proto "github.com/irdroid/irtoy/protocol"
)

func TestHardwareConfigure(t *testing.T) {
	tests := []struct {
		name    string
		hz      uint32
		wantHz  uint32
		wantTop uint32
		wantErr error
	}{
		{"38 kHz", 38000, 37975, 632, nil},
		{"36 kHz", 36000, 35982, 667, nil},
		{"56 kHz", 56000, 55944, 429, nil},
		{"30 kHz exact", 30000, 30000, 800, nil},
		{"zero", 0, 0, 0, proto.ErrInvalidFrequency},
		{"too low for 16-bit top", 100, 0, 0, proto.ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := stub.New()
			h := NewHardware(b.PWM)
			err := h.Configure(tt.hz)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Configure(%d) error = %v, want %v", tt.hz, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := h.Frequency(); got != tt.wantHz {
				t.Errorf("Frequency() = %d, want %d", got, tt.wantHz)
			}
			if got := b.PWM.Top(); got != tt.wantTop {
				t.Errorf("Top() = %d, want %d", got, tt.wantTop)
			}
			if b.PWM.On() || h.Running() {
				t.Error("output active after Configure")
			}
		})
	}
}

func TestHardwareStartStop(t *testing.T) {
	b := stub.New()
	h := NewHardware(b.PWM)
	if err := h.Configure(38000); err != nil {
		t.Fatal(err)
	}
	h.Start()
	if !b.PWM.On() || b.PWM.Duty() != b.PWM.Top()/2 {
		t.Fatalf("Start: duty = %d of %d", b.PWM.Duty(), b.PWM.Top())
	}
	h.Stop()
	h.Stop()
	if b.PWM.On() || h.Running() {
		t.Fatal("carrier still on after Stop")
	}
	if n := len(b.PWM.Transitions()); n != 2 {
		t.Errorf("transitions = %d, want 2", n)
	}
}

func TestSoftwareFrequency(t *testing.T) {
	tests := []struct {
		name   string
		hz     uint32
		wantHz uint32
	}{
		{"38 kHz", 38000, 37974}, // half period 79 ticks of 6 MHz
		{"36 kHz", 36000, 36144}, // 83 ticks
		{"40 kHz", 40000, 40000}, // 75 ticks
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := stub.New()
			s := NewSoftware(b.CarrierTimer, b.IRLED, 0)
			if err := s.Configure(tt.hz); err != nil {
				t.Fatalf("Configure: %v", err)
			}
			if got := s.Frequency(); got != tt.wantHz {
				t.Errorf("Frequency() = %d, want %d", got, tt.wantHz)
			}
			if b.IRLED.Level() {
				t.Error("pin active after Configure")
			}

			s.Start()
			b.RunFor(time.Millisecond, nil)
			s.Stop()

			// one millisecond holds 2*f/1000 half periods
			edges := len(b.IRLED.Transitions())
			want := int(2 * tt.wantHz / 1000)
			if edges < want-1 || edges > want+2 {
				t.Errorf("transitions in 1 ms = %d, want about %d", edges, want)
			}
			half := (6000000 + uint64(tt.hz)) / (2 * uint64(tt.hz))
			tr := b.IRLED.Transitions()
			for i := 1; i < len(tr)-1; i++ {
				if gap := tr[i].At - tr[i-1].At; gap != half*4 {
					t.Fatalf("half period %d cycles at edge %d", gap, i)
				}
			}
		})
	}
}

func TestSoftwareDrift(t *testing.T) {
	b := stub.New()
	s := NewSoftware(b.CarrierTimer, b.IRLED, 4)
	if err := s.Configure(38000); err != nil {
		t.Fatal(err)
	}
	s.Start()
	b.Idle()
	b.Idle()
	tr := b.IRLED.Transitions()
	if len(tr) != 3 {
		t.Fatalf("transitions = %d, want 3", len(tr))
	}
	// 79 - 4 ticks of a 6 MHz timer, 4 system cycles each
	if gap := tr[2].At - tr[1].At; gap != 75*4 {
		t.Errorf("half period = %d cycles, want %d", gap, 75*4)
	}
}

func TestSoftwareRejectsUnrepresentable(t *testing.T) {
	b := stub.New()
	s := NewSoftware(b.CarrierTimer, b.IRLED, 0)
	for _, hz := range []uint32{0, 10, 20000000} {
		if err := s.Configure(hz); !errors.Is(err, proto.ErrInvalidFrequency) {
			t.Errorf("Configure(%d) = %v, want %v", hz, err, proto.ErrInvalidFrequency)
		}
	}
	s.Start()
	if s.Running() || b.CarrierTimer.Running() {
		t.Error("unconfigured carrier started")
	}
}

func TestSoftwareStopIsImmediate(t *testing.T) {
	b := stub.New()
	s := NewSoftware(b.CarrierTimer, b.IRLED, 0)
	if err := s.Configure(38000); err != nil {
		t.Fatal(err)
	}
	s.Start()
	b.Idle()
	s.Stop()
	if b.IRLED.Level() || b.CarrierTimer.Running() || s.Running() {
		t.Fatal("carrier left running")
	}
}
