// internal/config/normalize.go
package config

import "strings"

const (
	DefaultTimeoutMs  = 1000
	DefaultIntervalMs = 1000
	DefaultBusKind    = "periph"

	deviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Supervisor.StatusMemory.TimeoutMs == 0 {
		cfg.Supervisor.StatusMemory.TimeoutMs = DefaultTimeoutMs
	}

	for ci := range cfg.Supervisor.Converters {
		c := &cfg.Supervisor.Converters[ci]

		c.Bus.Kind = strings.ToLower(c.Bus.Kind)
		if c.Bus.Kind == "" {
			c.Bus.Kind = DefaultBusKind
		}
		if c.Bus.TimeoutMs == 0 {
			c.Bus.TimeoutMs = DefaultTimeoutMs
		}

		if c.Feedback == "" {
			c.Feedback = "internal"
		}
		c.Feedback = strings.ToLower(strings.TrimSpace(c.Feedback))
		if c.LightLoad == "" {
			c.LightLoad = "pfm"
		}
		c.LightLoad = strings.ToLower(strings.TrimSpace(c.LightLoad))

		if c.Monitor.IntervalMs == 0 {
			c.Monitor.IntervalMs = DefaultIntervalMs
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Truncate to max 16 characters
		// - Default to the converter id
		if c.DeviceName == "" {
			c.DeviceName = c.ID
		}
		if len(c.DeviceName) > deviceNameMaxChars {
			c.DeviceName = c.DeviceName[:deviceNameMaxChars]
		}
	}
}
