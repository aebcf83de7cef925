// internal/supervisor/builder.go
package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/tps55289/internal/bus"
	"github.com/tamzrod/tps55289/internal/bus/i2cdev"
	bmodbus "github.com/tamzrod/tps55289/internal/bus/modbus"
	"github.com/tamzrod/tps55289/internal/bus/periph"
	"github.com/tamzrod/tps55289/internal/bus/sim"
	cfg "github.com/tamzrod/tps55289/internal/config"
	"github.com/tamzrod/tps55289/internal/monitor"
	"github.com/tamzrod/tps55289/internal/status"
	"github.com/tamzrod/tps55289/internal/tps55289"
	"github.com/tamzrod/tps55289/internal/writer"
)

// opener connects one bus.
type opener func(b cfg.BusConfig) (bus.Transport, error)

// statusClient is the status memory connection shared by all status writers.
type statusClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Build opens every bus, pin and status memory connection the config names
// and constructs one driver per converter. No converter register is touched.
// Assumes config has already passed validation and normalization.
func Build(c *cfg.Config) (*Supervisor, error) {
	cli, closeStatus, err := writer.BuildEndpointClient(c)
	if err != nil {
		return nil, fmt.Errorf("status memory: %w", err)
	}

	var sc statusClient
	if cli != nil {
		sc = cli
	}

	s, err := build(c, sc, openTransport)
	if err != nil {
		_ = closeStatus()
		return nil, err
	}
	s.closers = append(s.closers, closeStatus)
	return s, nil
}

func build(c *cfg.Config, sc statusClient, open opener) (*Supervisor, error) {
	s := &Supervisor{
		transports: make(map[string]bus.Transport),
		shared:     make(map[string]*bus.Locked),
	}

	for _, conv := range c.Supervisor.Converters {
		key := conv.Bus.Key()

		shared, ok := s.shared[key]
		if !ok {
			t, err := open(conv.Bus)
			if err != nil {
				_ = s.closeAll()
				return nil, fmt.Errorf("bus open failed (converter=%s): %w", conv.ID, err)
			}
			shared = bus.NewLocked(t)
			s.transports[key] = t
			s.shared[key] = shared
			s.closers = append(s.closers, shared.Close)
		}

		opts, err := conv.Options()
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("converter %s: %w", conv.ID, err)
		}

		pin, err := openPin(conv, opts.Address, s.transports[key])
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("enable pin failed (converter=%s): %w", conv.ID, err)
		}

		// gateway units are views on the shared connection, which has its own lock
		var drv tps55289.Bus = shared
		if gw, ok := s.transports[key].(*bmodbus.Client); ok {
			drv = gw.Unit(conv.Bus.UnitID)
		}

		dev, err := tps55289.New(drv, pin, opts)
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("converter %s: %w", conv.ID, err)
		}

		mon, err := monitor.Build(conv, dev)
		if err != nil {
			_ = s.closeAll()
			return nil, fmt.Errorf("monitor build failed (converter=%s): %w", conv.ID, err)
		}

		interval := time.Duration(conv.Monitor.IntervalMs) * time.Millisecond
		cv := &Converter{
			ID:      conv.ID,
			Device:  dev,
			Monitor: mon,
			Tracker: status.NewTracker(3 * interval),
		}

		if plan := writer.BuildStatusPlan(conv, c.Supervisor.StatusMemory); plan != nil {
			if sc == nil {
				_ = s.closeAll()
				return nil, fmt.Errorf("converter %s: status_slot set without status memory", conv.ID)
			}
			if sw, ok := writer.NewDeviceStatusWriter(plan, sc); ok {
				cv.Status = sw
			}
		}

		s.converters = append(s.converters, cv)
	}

	return s, nil
}

func openTransport(b cfg.BusConfig) (bus.Transport, error) {
	switch b.Kind {
	case "", "periph":
		return periph.Open(b.Name)
	case "i2cdev":
		return i2cdev.Open(b.Name)
	case "modbus":
		return bmodbus.Dial(bmodbus.Config{
			Endpoint:     b.Endpoint,
			Timeout:      time.Duration(b.TimeoutMs) * time.Millisecond,
			BaudRate:     b.BaudRate,
			RegisterBase: b.RegisterBase,
		})
	case "sim":
		return sim.New(), nil
	}
	return nil, fmt.Errorf("unknown bus kind %q", b.Kind)
}

// openPin returns nil when EN is hard-wired.
func openPin(c cfg.ConverterConfig, addr uint16, t bus.Transport) (tps55289.Pin, error) {
	switch tr := t.(type) {
	case *sim.Bus:
		return tr.Device(addr), nil
	case *bmodbus.Client:
		if c.EnableCoil == nil {
			return nil, nil
		}
		return tr.Unit(c.Bus.UnitID).Pin(addr, *c.EnableCoil), nil
	}

	if c.EnablePin == "" {
		return nil, nil
	}
	p, err := periph.OpenPin(c.EnablePin)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Supervisor) closeAll() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
