//go:build !tinygo && !baremetal

package config

import (
	"fmt"
	"os"

	"github.com/flynn/json5"
)

// Load reads a json5 file over Default. Fields missing from the file keep their defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes json5 data into c and validates the result.
func Parse(data []byte, c *Config) error {
	if err := json5.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return c.Validate()
}
