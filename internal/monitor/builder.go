// internal/monitor/builder.go
package monitor

import (
	"time"

	cfg "github.com/tamzrod/tps55289/internal/config"
)

// Build constructs the monitor for one normalized converter config.
func Build(c cfg.ConverterConfig, conv Converter) (*Monitor, error) {
	return New(
		Config{
			ConverterID: c.ID,
			Interval:    time.Duration(c.Monitor.IntervalMs) * time.Millisecond,
			Verbose:     c.Monitor.Verbose,
		},
		conv,
	)
}
