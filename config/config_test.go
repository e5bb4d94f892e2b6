package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	proto "github.com/irdroid/irtoy/protocol"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if c.Version() != proto.DefaultVersion {
		t.Errorf("Version() = %+v, want %+v", c.Version(), proto.DefaultVersion)
	}
	if c.Scale() != proto.DefaultScale {
		t.Errorf("Scale() = %+v, want %+v", c.Scale(), proto.DefaultScale)
	}
}

func TestOptions(t *testing.T) {
	c := New(
		WithScale(64, 21),
		WithCarrier(36000),
		WithCarrierDrift(3),
		WithFlushMillis(10),
		WithCaptureDepth(8),
		WithVersion(proto.Version{Hardware: '3', Major: '0', Minor: '9'}),
	)
	if c.ScaleTX != 64 || c.ScaleRX != 21 || c.CarrierHz != 36000 || c.CarrierDrift != 3 ||
		c.FlushMillis != 10 || c.CaptureDepth != 8 || c.Version().String() != "V309" {
		t.Errorf("New(...) = %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero tx scale", WithScale(0, 43)},
		{"zero rx scale", WithScale(128, 0)},
		{"zero carrier", WithCarrier(0)},
		{"zero flush", WithFlushMillis(0)},
		{"no capture buffer", WithCaptureDepth(0)},
		{"tiny packet", func(c *Config) { c.PacketSize = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.opt).Validate()
			if !errors.Is(err, proto.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want %v", err, proto.ErrInvalidConfig)
			}
		})
	}
}

func TestLoadJSON5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "irtoy.json5")
	data := []byte(`{
		// capture with a 1 MHz timer
		scale_rx: 21,
		carrier_hz: 36000,
	}`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.ScaleRX != 21 || c.CarrierHz != 36000 {
		t.Errorf("Load() = %+v", c)
	}
	if c.ScaleTX != proto.DefaultScale.TX {
		t.Errorf("ScaleTX = %d, want default %d", c.ScaleTX, proto.DefaultScale.TX)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json5")); err == nil {
		t.Error("Load(missing) succeeded")
	}

	var c Config = Default()
	if err := Parse([]byte(`{scale_tx: 0}`), &c); !errors.Is(err, proto.ErrInvalidConfig) {
		t.Errorf("Parse(scale_tx: 0) = %v, want %v", err, proto.ErrInvalidConfig)
	}
	if err := Parse([]byte(`{scale_tx: `), &c); err == nil {
		t.Error("Parse(truncated) succeeded")
	}
}
