// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/tps55289/internal/config"
	wmodbus "github.com/tamzrod/tps55289/internal/writer/modbus"
)

// BuildStatusPlan returns the status plan of one converter, or nil when the
// converter did not opt in.
// Assumes config has already passed validation and normalization.
func BuildStatusPlan(c cfg.ConverterConfig, sm cfg.StatusMemoryConfig) *StatusPlan {
	if c.StatusSlot == nil {
		return nil
	}
	return &StatusPlan{
		ConverterID: c.ID,
		Endpoint:    sm.Endpoint,
		UnitID:      sm.UnitID,
		BaseSlot:    *c.StatusSlot,
		DeviceName:  c.DeviceName,
	}
}

// BuildEndpointClient connects to status memory when at least one converter
// publishes status. It returns a nil client otherwise.
func BuildEndpointClient(c *cfg.Config) (*wmodbus.EndpointClient, func() error, error) {
	noop := func() error { return nil }

	used := false
	for _, conv := range c.Supervisor.Converters {
		if conv.StatusSlot != nil {
			used = true
			break
		}
	}
	if !used {
		return nil, noop, nil
	}

	sm := c.Supervisor.StatusMemory
	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: sm.Endpoint,
		Timeout:  time.Duration(sm.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, noop, err
	}
	return cli, cli.Close, nil
}
