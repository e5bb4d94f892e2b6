//go:build !tinygo && !baremetal

package hostlink

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	proto "github.com/irdroid/irtoy/protocol"
)

// FindPort returns the name of the first serial port backed by an IrToy-compatible device.
func FindPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	vid := fmt.Sprintf("%04X", proto.USBVendorID)
	pid := fmt.Sprintf("%04X", proto.USBProductID)
	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.VID, vid) && strings.EqualFold(p.PID, pid) {
			return p.Name, nil
		}
	}
	return "", proto.ErrNotFound
}

// OpenSerial opens a CDC ACM serial port. An empty name selects FindPort.
func OpenSerial(name string, opts ...Option) (*Client, error) {
	if name == "" {
		var err error
		if name, err = FindPort(); err != nil {
			return nil, err
		}
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return New(port, opts...), nil
}
