package protocol

import "errors"

var (
	ErrUnderrun         = errors.New("transmit buffer underrun")
	ErrOverflow         = errors.New("capture buffer overflow")
	ErrInvalidFrequency = errors.New("carrier frequency not representable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrTimeout          = errors.New("operation timed out")
	ErrBadResponse      = errors.New("unexpected response from device")
	ErrNotFound         = errors.New("device not found")
)
