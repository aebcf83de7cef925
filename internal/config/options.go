// internal/config/options.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/tps55289/internal/tps55289"
)

// Key identifies the physical bus. Converters with equal keys share a handle.
func (b BusConfig) Key() string {
	kind := strings.ToLower(b.Kind)
	if kind == "" {
		kind = DefaultBusKind
	}
	if kind == "modbus" {
		// one connection per gateway; the unit id is chosen per request
		return fmt.Sprintf("%s|%s", kind, b.Endpoint)
	}
	return fmt.Sprintf("%s|%s|%s", kind, b.Name, b.Endpoint)
}

// Options converts the converter config into driver options. Unset fields
// keep the driver defaults. The result is validated.
func (c ConverterConfig) Options() (tps55289.Options, error) {
	o := tps55289.DefaultOptions()

	if c.Address != 0 {
		o.Address = c.Address
	}
	if c.SenseResistorOhms != 0 {
		o.SenseResistor = c.SenseResistorOhms
		o.InitialCurrentLimit = tps55289.MaxCurrentLimit(c.SenseResistorOhms)
	}
	if c.OutputVoltage != 0 {
		o.InitialVoltage = c.OutputVoltage
	}
	if c.CurrentLimit != nil {
		o.InitialCurrentLimit = *c.CurrentLimit
	}
	if c.Feedback != "" {
		fb, err := tps55289.ParseFeedback(c.Feedback)
		if err != nil {
			return o, err
		}
		o.Feedback = fb
	}
	o.ExternalDividerRatio = c.ExternalDividerRatio
	if c.StepSizeMv != 0 {
		s, ok := tps55289.StepSizeFromMillivolts(c.StepSizeMv)
		if !ok {
			return o, fmt.Errorf("step_size_mv %g: want 2.5, 5, 7.5 or 10: %w", c.StepSizeMv, tps55289.ErrInvalidSelector)
		}
		o.StepSize = s
	}
	if c.SlewRate != nil {
		o.SlewRate = tps55289.SlewRate(*c.SlewRate)
	}
	o.OCPDelay = tps55289.OCPDelay(c.OCPDelay)
	o.CableCompensation = c.CableCompensation
	if c.LightLoad != "" {
		m, err := tps55289.ParseLightLoad(c.LightLoad)
		if err != nil {
			return o, err
		}
		o.LightLoad = m
	}

	return o, o.Validate()
}
