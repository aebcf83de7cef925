// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/tps55289/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if len(cfg.Supervisor.Converters) == 0 {
		return errors.New("config: at least one converter required")
	}

	ids := make(map[string]struct{})

	// key = bus key | unit id | address
	deviceOwner := make(map[string]string)

	// converters sharing one bus handle must agree on its connection settings
	busOwner := make(map[string]ConverterConfig)

	// key = endpoint | unit_id | status_slot
	statusOwner := make(map[string]string)

	sm := cfg.Supervisor.StatusMemory
	if sm.TimeoutMs < 0 {
		return errors.New("status_memory: timeout_ms must be >= 0")
	}

	for i, c := range cfg.Supervisor.Converters {
		if c.ID == "" {
			return fmt.Errorf("converter #%d: id required", i)
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("converter %q: duplicate id", c.ID)
		}
		ids[c.ID] = struct{}{}

		if err := validateBus(c); err != nil {
			return fmt.Errorf("converter %q: %w", c.ID, err)
		}

		opts, err := c.Options()
		if err != nil {
			return fmt.Errorf("converter %q: %w", c.ID, err)
		}

		if prev, shared := busOwner[c.Bus.Key()]; shared {
			if err := sameConnection(prev.Bus, c.Bus); err != nil {
				return fmt.Errorf("converters %q and %q share bus %s: %w", prev.ID, c.ID, c.Bus.Key(), err)
			}
		} else {
			busOwner[c.Bus.Key()] = c
		}

		unit := gatewayUnit(c.Bus, opts.Address)
		key := fmt.Sprintf("%s|%d|0x%02x", c.Bus.Key(), unit, opts.Address)
		if prev, exists := deviceOwner[key]; exists {
			return fmt.Errorf(
				"device collision: bus=%s unit_id=%d address=0x%02x used by converters %q and %q",
				c.Bus.Key(),
				unit,
				opts.Address,
				prev,
				c.ID,
			)
		}
		deviceOwner[key] = c.ID

		if c.Monitor.IntervalMs < 0 {
			return fmt.Errorf("converter %q: monitor.interval_ms must be >= 0", c.ID)
		}

		// device_name sanity (ASCII only)
		for j := 0; j < len(c.DeviceName); j++ {
			if c.DeviceName[j] > 0x7F {
				return fmt.Errorf(
					"converter %q: device_name must contain ASCII characters only",
					c.ID,
				)
			}
		}

		// status is opt-in
		if c.StatusSlot == nil {
			continue
		}

		if sm.Endpoint == "" {
			return fmt.Errorf(
				"converter %q: status_slot is set but status_memory.endpoint is empty",
				c.ID,
			)
		}

		slot := *c.StatusSlot
		if int(slot) > status.MaxSlot {
			return fmt.Errorf(
				"converter %q: status_slot %d exceeds %d",
				c.ID,
				slot,
				status.MaxSlot,
			)
		}

		skey := fmt.Sprintf("%s|%d|%d", sm.Endpoint, sm.UnitID, slot)
		if prev, exists := statusOwner[skey]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d slot=%d used by converters %q and %q",
				sm.Endpoint,
				sm.UnitID,
				slot,
				prev,
				c.ID,
			)
		}
		statusOwner[skey] = c.ID
	}

	return nil
}

func validateBus(c ConverterConfig) error {
	b := c.Bus
	kind := strings.ToLower(b.Kind)

	switch kind {
	case "", "periph", "sim":
	case "i2cdev":
		if b.Name == "" {
			return errors.New("bus.name (device path) required for i2cdev")
		}
	case "modbus":
		if b.Endpoint == "" {
			return errors.New("bus.endpoint required for modbus")
		}
	default:
		return fmt.Errorf("bus.kind %q: want periph, i2cdev, modbus or sim", b.Kind)
	}

	if b.TimeoutMs < 0 {
		return errors.New("bus.timeout_ms must be >= 0")
	}
	if b.BaudRate < 0 {
		return errors.New("bus.baud_rate must be >= 0")
	}

	if kind == "modbus" && c.EnablePin != "" {
		return errors.New("enable_pin is not used on a modbus bus, set enable_coil")
	}
	if kind != "modbus" && c.EnableCoil != nil {
		return errors.New("enable_coil requires a modbus bus")
	}
	if kind == "sim" && c.EnablePin != "" {
		return errors.New("enable_pin is not used on a sim bus")
	}
	return nil
}

// gatewayUnit is the Modbus unit a converter is reached through, 0 off modbus.
func gatewayUnit(b BusConfig, addr uint16) uint8 {
	if strings.ToLower(b.Kind) != "modbus" {
		return 0
	}
	if b.UnitID != 0 {
		return b.UnitID
	}
	return uint8(addr)
}

func sameConnection(a, b BusConfig) error {
	if a.TimeoutMs != b.TimeoutMs {
		return errors.New("bus.timeout_ms differs")
	}
	if a.BaudRate != b.BaudRate {
		return errors.New("bus.baud_rate differs")
	}
	if a.RegisterBase != b.RegisterBase {
		return errors.New("bus.register_base differs")
	}
	return nil
}
