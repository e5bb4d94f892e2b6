// Package config holds the calibration and identity settings of the IR core.
package config

import (
	"fmt"

	proto "github.com/irdroid/irtoy/protocol"
)

// Config is the complete set of tunables. The zero value is not usable; start from Default.
type Config struct {
	// Identity reported by the version query.
	HardwareVersion byte `json:"hardware_version"`
	FirmwareMajor   byte `json:"firmware_major"`
	FirmwareMinor   byte `json:"firmware_minor"`

	// Device ticks per protocol tick on the transmit and capture timers.
	ScaleTX uint16 `json:"scale_tx"`
	ScaleRX uint16 `json:"scale_rx"`

	// Carrier frequency selected on entering sampling mode.
	CarrierHz uint32 `json:"carrier_hz"`
	// Timer ticks subtracted from the software carrier half period to absorb interrupt latency.
	CarrierDrift uint16 `json:"carrier_drift"`

	// Period of the capture flush timer.
	FlushMillis uint32 `json:"flush_millis"`
	// Capture pairs buffered between the edge interrupt and the main loop.
	CaptureDepth int `json:"capture_depth"`

	PacketSize int `json:"packet_size"`
}

// Option mutates a Config.
type Option func(*Config)

// Default returns the settings of the reference hardware.
func Default() Config {
	return Config{
		HardwareVersion: proto.DefaultHardwareVersion,
		FirmwareMajor:   proto.DefaultFirmwareMajor,
		FirmwareMinor:   proto.DefaultFirmwareMinor,
		ScaleTX:         proto.DefaultScale.TX,
		ScaleRX:         proto.DefaultScale.RX,
		CarrierHz:       proto.DefaultCarrierHz,
		FlushMillis:     32,
		CaptureDepth:    64,
		PacketSize:      proto.PacketSize,
	}
}

// New returns Default with opts applied.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithScale(tx, rx uint16) Option {
	return func(c *Config) { c.ScaleTX, c.ScaleRX = tx, rx }
}

func WithCarrier(hz uint32) Option {
	return func(c *Config) { c.CarrierHz = hz }
}

func WithCarrierDrift(ticks uint16) Option {
	return func(c *Config) { c.CarrierDrift = ticks }
}

func WithFlushMillis(ms uint32) Option {
	return func(c *Config) { c.FlushMillis = ms }
}

func WithCaptureDepth(n int) Option {
	return func(c *Config) { c.CaptureDepth = n }
}

func WithVersion(v proto.Version) Option {
	return func(c *Config) {
		c.HardwareVersion, c.FirmwareMajor, c.FirmwareMinor = v.Hardware, v.Major, v.Minor
	}
}

// Scale returns the tick conversion factors.
func (c Config) Scale() proto.Scale {
	return proto.Scale{TX: c.ScaleTX, RX: c.ScaleRX}
}

// Version returns the identity reported to the host.
func (c Config) Version() proto.Version {
	return proto.Version{Hardware: c.HardwareVersion, Major: c.FirmwareMajor, Minor: c.FirmwareMinor}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.ScaleTX == 0 || c.ScaleRX == 0:
		return fmt.Errorf("%w: scale must be non-zero", proto.ErrInvalidConfig)
	case c.CarrierHz == 0:
		return fmt.Errorf("%w: carrier frequency must be non-zero", proto.ErrInvalidConfig)
	case c.FlushMillis == 0:
		return fmt.Errorf("%w: flush interval must be non-zero", proto.ErrInvalidConfig)
	case c.CaptureDepth < 1:
		return fmt.Errorf("%w: capture depth must be positive", proto.ErrInvalidConfig)
	case c.PacketSize < 4:
		return fmt.Errorf("%w: packet size %d too small", proto.ErrInvalidConfig, c.PacketSize)
	}
	return nil
}
