//go:build tinygo || baremetal

package nrf

import (
	proto "github.com/irdroid/irtoy/protocol"

	"device/nrf"
)

// Timer prescalers; every TIMER peripheral counts 16 MHz >> prescaler.
const (
	baseClockHz = 16000000

	PrescalerTX    = 2 // 4 MHz
	PrescalerRX    = 3 // 2 MHz
	PrescalerFlush = 4 // 1 MHz
)

// Scale converts protocol ticks at the prescalers above.
var Scale = proto.Scale{TX: 85, RX: 43}

// StartHFCLK starts the crystal oscillator. The timers and USB need it for
// an accurate time base.
func StartHFCLK() {
	nrf.CLOCK.EVENTS_HFCLKSTARTED.Set(0)
	nrf.CLOCK.TASKS_HFCLKSTART.Set(1)
	for nrf.CLOCK.EVENTS_HFCLKSTARTED.Get() == 0 {
	}
}
