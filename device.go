package irtoy

import (
	"fmt"

	"github.com/irdroid/irtoy/capture"
	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/config"
	"github.com/irdroid/irtoy/hal"
	proto "github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/sampler"
	"github.com/irdroid/irtoy/telemetry"
	"github.com/irdroid/irtoy/transmit"
	"github.com/irdroid/irtoy/transport"
)

// Hardware is everything a board provides to the core.
type Hardware struct {
	Port    transport.Port
	LED     hal.Output
	Carrier carrier.Generator
	IR      hal.Input // demodulating receiver, active low
	TxTimer hal.Timer
	// CycleTimer runs freely; SpaceTimer counts only while IR is high.
	CycleTimer hal.Timer
	SpaceTimer hal.Timer
	FlushTimer hal.Timer
	Idler      hal.Idler
	// Guard holds the interrupts off while the main loop resets engine
	// state. nil runs resets unguarded.
	Guard hal.Guard
}

// Mode is the top-level operating mode.
type Mode uint8

const (
	ModeMain Mode = iota
	ModeSampling
)

func (m Mode) String() string {
	if m == ModeSampling {
		return "sampling"
	}
	return "main"
}

// Device is the main loop body: it answers the version query and enters
// sampling mode on request, then hands every iteration to the session until
// the host resets it.
type Device struct {
	hw      Hardware
	cfg     config.Config
	log     telemetry.Sink
	session *sampler.Session
	mode    Mode
}

// NewDevice wires the engines to hw. All outputs start inactive.
func NewDevice(hw Hardware, cfg config.Config, log telemetry.Sink) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hw.Port.PacketSize() != cfg.PacketSize {
		return nil, fmt.Errorf("%w: port packet size %d, configured %d",
			proto.ErrInvalidConfig, hw.Port.PacketSize(), cfg.PacketSize)
	}
	log = telemetry.Or(log)

	tx := transmit.New(hw.TxTimer, hw.Carrier, hw.Idler, cfg.ScaleTX, transmit.WithGuard(hw.Guard))
	rx, err := capture.New(hw.IR, hw.CycleTimer, hw.SpaceTimer, hw.FlushTimer, capture.Config{
		ScaleRX:     cfg.ScaleRX,
		FlushMillis: cfg.FlushMillis,
		Depth:       cfg.CaptureDepth,
		Guard:       hw.Guard,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	d := &Device{
		hw:  hw,
		cfg: cfg,
		log: log,
		session: sampler.New(hw.Port, hw.LED, hw.Carrier, tx, rx,
			sampler.WithLogger(log),
			sampler.WithVersion(cfg.Version()),
			sampler.WithCarrier(cfg.CarrierHz),
		),
	}
	d.session.Reset()
	return d, nil
}

// Mode returns the current operating mode.
func (d *Device) Mode() Mode { return d.mode }

// Session returns the sampling mode state machine.
func (d *Device) Session() *sampler.Session { return d.session }

// Step runs one main loop iteration.
func (d *Device) Step() {
	if d.mode == ModeSampling {
		if d.session.ServiceTick() {
			d.mode = ModeMain
			d.log.Printf("[Device] main mode\r\n")
		}
		return
	}

	if d.hw.Port.Available() == 0 {
		return
	}
	switch d.hw.Port.ReadByte() {
	case proto.CmdSampling, proto.CmdSamplingUpper:
		d.session.EnterSamplingMode()
		d.mode = ModeSampling
	case proto.CmdVersion, proto.CmdVersionUpper:
		r := d.cfg.Version().Reply()
		d.hw.Port.WaitInReady()
		transport.Write(d.hw.Port, r[:]...)
		d.hw.Port.Flush()
	}
}

// Run steps the device until stop is closed, idling between iterations.
func (d *Device) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			d.session.Reset()
			return
		default:
		}
		d.Step()
		d.Idle()
	}
}

// Idle waits for the board's next interrupt.
func (d *Device) Idle() { d.hw.Idler.Idle() }
