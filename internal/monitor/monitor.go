// internal/monitor/monitor.go
package monitor

import (
	"errors"
	"time"

	"github.com/tamzrod/tps55289/internal/tps55289"
)

// Converter is the part of the driver the monitor needs.
type Converter interface {
	ReadStatus(verbose bool) (tps55289.StatusReport, error)
	State() tps55289.State
}

// Config is the minimal runtime config the monitor needs.
type Config struct {
	ConverterID string
	Interval    time.Duration
	Verbose     bool
}

// Monitor periodically reads STATUS. Reading STATUS is what disables the
// output on a fault, so the monitor is also the protection loop.
type Monitor struct {
	cfg  Config
	conv Converter
}

// New creates a monitor with immutable config.
func New(cfg Config, conv Converter) (*Monitor, error) {
	if cfg.ConverterID == "" {
		return nil, errors.New("monitor: converter id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("monitor: interval must be > 0")
	}
	if conv == nil {
		return nil, errors.New("monitor: converter required")
	}
	return &Monitor{cfg: cfg, conv: conv}, nil
}

// PollOnce performs exactly one status read.
func (m *Monitor) PollOnce() Result {
	res := Result{
		ConverterID: m.cfg.ConverterID,
		At:          time.Now(),
	}

	res.Report, res.Err = m.conv.ReadStatus(m.cfg.Verbose)
	res.State = m.conv.State()
	return res
}
