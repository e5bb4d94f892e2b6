//go:build tinygo || baremetal

// This file is built only for embedded targets.
package irtoy

import (
	"machine"

	"github.com/irdroid/irtoy/carrier"
	"github.com/irdroid/irtoy/config"
	"github.com/irdroid/irtoy/driver/nrf"
	"github.com/irdroid/irtoy/telemetry"
)

// BoardHardware maps an nRF52840 board onto the core.
func BoardHardware(b *nrf.Board) Hardware {
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

// New brings up the board and returns a device using its timer scales.
func New(pins nrf.Pins, log telemetry.Sink, opts ...config.Option) (*Device, error) {
	b, err := nrf.New(pins, machine.PWM0)
	if err != nil {
		return nil, err
	}
	opts = append([]config.Option{config.WithScale(nrf.Scale.TX, nrf.Scale.RX)}, opts...)
	return NewDevice(BoardHardware(b), config.New(opts...), log)
}
