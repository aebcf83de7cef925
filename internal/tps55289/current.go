// internal/tps55289/current.go
package tps55289

// SetOutputCurrentLimit programs the 7-bit current limit. Off-grid requests
// round to the nearest 0.5 mV step across the sense resistor. The enable bit
// is left as it is. Returns the limit the device applies.
func (d *Device) SetOutputCurrentLimit(amps float64) (float64, error) {
	const op = "SetOutputCurrentLimit"

	if err := checkCurrent(op, amps, d.opts.SenseResistor); err != nil {
		return d.EffectiveCurrentLimit(), err
	}
	code := CurrentLimitCode(amps, d.opts.SenseResistor)
	if err := d.writeField(op, fieldCurrentLimit, code); err != nil {
		return d.EffectiveCurrentLimit(), err
	}
	d.targetAmps = amps
	return d.EffectiveCurrentLimit(), nil
}

// EffectiveCurrentLimit is the limit encoded in the shadow IOUT_LIMIT register.
func (d *Device) EffectiveCurrentLimit() float64 {
	return CurrentLimitAmps(d.fieldValue(fieldCurrentLimit), d.opts.SenseResistor)
}

// EnableOutputCurrentLimit sets bit 7 of IOUT_LIMIT.
func (d *Device) EnableOutputCurrentLimit() error {
	return d.writeField("EnableOutputCurrentLimit", fieldCurrentLimitEnable, 1)
}

// DisableOutputCurrentLimit clears bit 7 of IOUT_LIMIT.
func (d *Device) DisableOutputCurrentLimit() error {
	return d.writeField("DisableOutputCurrentLimit", fieldCurrentLimitEnable, 0)
}

func (d *Device) CurrentLimitEnabled() bool {
	return d.fieldValue(fieldCurrentLimitEnable) == 1
}
