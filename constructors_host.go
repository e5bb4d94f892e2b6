//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (simulation and tests).
package irtoy

import (
	"github.com/sirupsen/logrus"

	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/config"
	"github.com/irdroid/irtoy/driver/periph"
	"github.com/irdroid/irtoy/driver/stub"
	"github.com/irdroid/irtoy/telemetry"
)

// SimulatedHardware maps a simulated board onto the core. With soft set the
// carrier is toggled by CarrierTimer on IRLED instead of using the PWM.
func SimulatedHardware(b *stub.Board, soft bool, drift uint16) Hardware {
	var gen carrier.Generator = carrier.NewHardware(b.PWM)
	if soft {
		gen = carrier.NewSoftware(b.CarrierTimer, b.IRLED, drift)
	}
	return Hardware{
		Port:       b.Port,
		LED:        b.LED,
		Carrier:    gen,
		IR:         b.IR,
		TxTimer:    b.TxTimer,
		CycleTimer: b.CycleTimer,
		SpaceTimer: b.SpaceTimer,
		FlushTimer: b.FlushTimer,
		Idler:      b,
		Guard:      b,
	}
}

// NewSimulated returns a device running on a fresh simulated board.
func NewSimulated(cfg config.Config, log telemetry.Sink, opts ...stub.Option) (*Device, *stub.Board, error) {
	b := stub.New(append([]stub.Option{stub.WithPacketSize(cfg.PacketSize)}, opts...)...)
	dev, err := NewDevice(SimulatedHardware(b, false, cfg.CarrierDrift), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return dev, b, nil
}

// PeriphHardware maps a Linux single-board computer onto the core.
func PeriphHardware(b *periph.Board) Hardware {
	return Hardware{
		Port:       b.Port,
		LED:        b.LED,
		Carrier:    carrier.NewHardware(b.PWM),
		IR:         b.IR,
		TxTimer:    b.TxTimer,
		CycleTimer: b.CycleTimer,
		SpaceTimer: b.SpaceTimer,
		FlushTimer: b.FlushTimer,
		Idler:      b,
		Guard:      b,
	}
}

// NewPeriph claims the pins of a Linux board and returns a device. The
// scales in cfg are replaced by the board's. The host link is the board's Port.
func NewPeriph(pins periph.Pins, cfg config.Config, log logrus.FieldLogger) (*Device, *periph.Board, error) {
	b, err := periph.Open(pins, log.WithField("component", "periph"))
	if err != nil {
		return nil, nil, err
	}
	cfg.ScaleTX, cfg.ScaleRX = periph.Scale.TX, periph.Scale.RX
	dev, err := NewDevice(PeriphHardware(b), cfg, telemetry.Component(log, "core"))
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return dev, b, nil
}
