// Package irtoy is the IR transceiver core: an IrToy-compatible sampling
// mode behind a small main-mode dispatcher.
package irtoy

import (
	"github.com/irdroid/irtoy/config"
	"github.com/irdroid/irtoy/protocol"
	"github.com/irdroid/irtoy/sampler"
)

// The board-specific constructors are split into build-tag specific files:
// - constructors_mcu.go - for embedded targets (//go:build tinygo || baremetal)
// - constructors_host.go - for the simulator and tests (//go:build !tinygo && !baremetal)

// Re-exported types
type (
	Tick    = protocol.Tick
	Pair    = protocol.Pair
	Version = protocol.Version
	Config  = config.Config
	State   = sampler.State
)

// Errors exposed in the public API
var (
	ErrUnderrun         = protocol.ErrUnderrun
	ErrOverflow         = protocol.ErrOverflow
	ErrInvalidFrequency = protocol.ErrInvalidFrequency
	ErrInvalidConfig    = protocol.ErrInvalidConfig
	ErrTimeout          = protocol.ErrTimeout
	ErrBadResponse      = protocol.ErrBadResponse
	ErrNotFound         = protocol.ErrNotFound
)

// Constants exposed in the public API
const (
	PacketSize   = protocol.PacketSize
	Sentinel     = protocol.Sentinel
	HandshakeAck = protocol.HandshakeAck
	USBVendorID  = protocol.USBVendorID
	USBProductID = protocol.USBProductID
)

// DefaultConfig returns the reference calibration.
func DefaultConfig() Config { return config.Default() }
