//go:build tinygo || baremetal

package nrf

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/irdroid/irtoy/telemetry"
)

// Display shows the newest debug lines on an I2C character LCD.
type Display struct {
	lcd    hd44780i2c.Device
	ring   *telemetry.Ring
	height uint8
	shown  []string
}

// NewDisplay configures the LCD at addr (0 selects the default 0x27).
func NewDisplay(bus *machine.I2C, addr uint8, width, height uint8) (*Display, error) {
	if err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		return nil, err
	}
	lcd := hd44780i2c.New(bus, addr)
	if err := lcd.Configure(hd44780i2c.Config{Width: width, Height: height}); err != nil {
		return nil, err
	}
	lcd.ClearDisplay()
	return &Display{
		lcd:    lcd,
		ring:   telemetry.NewRing(int(height), int(width)),
		height: height,
	}, nil
}

// Sink returns the telemetry sink feeding the display.
func (d *Display) Sink() telemetry.Sink { return d.ring }

// Refresh redraws the display if new lines arrived. Call it from the main
// loop, never from an interrupt.
func (d *Display) Refresh() {
	lines := d.ring.Lines()
	if equal(lines, d.shown) {
		return
	}
	d.lcd.ClearDisplay()
	for i, line := range lines {
		d.lcd.SetCursor(0, uint8(i))
		d.lcd.Print([]byte(line))
	}
	d.shown = lines
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
