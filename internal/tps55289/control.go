// internal/tps55289/control.go
package tps55289

import "errors"

// ---- VOUT_SR ----

// SetSlewRate selects the output transition slope.
func (d *Device) SetSlewRate(sr SlewRate) error {
	if sr > SlewRate10 {
		return selectorError("SetSlewRate", "slew rate code %d: want 0-3", sr)
	}
	return d.writeField("SetSlewRate", fieldSlewRate, uint8(sr))
}

func (d *Device) SlewRate() SlewRate { return SlewRate(d.fieldValue(fieldSlewRate)) }

// SetOCPResponseTime selects how long an overcurrent persists before the
// device reacts.
func (d *Device) SetOCPResponseTime(delay OCPDelay) error {
	if delay > OCPDelay12ms {
		return selectorError("SetOCPResponseTime", "ocp delay code %d: want 0-3", delay)
	}
	return d.writeField("SetOCPResponseTime", fieldOCPDelay, uint8(delay))
}

func (d *Device) OCPResponseTime() OCPDelay { return OCPDelay(d.fieldValue(fieldOCPDelay)) }

// ---- CDC ----

// SetShortCircuitIndication unmasks (true) or masks the short circuit
// indication.
func (d *Device) SetShortCircuitIndication(on bool) error {
	return d.writeField("SetShortCircuitIndication", fieldSCMask, boolBit(on))
}

func (d *Device) SetOvercurrentIndication(on bool) error {
	return d.writeField("SetOvercurrentIndication", fieldOCPMask, boolBit(on))
}

func (d *Device) SetOvervoltageIndication(on bool) error {
	return d.writeField("SetOvervoltageIndication", fieldOVPMask, boolBit(on))
}

// SetCompensationSource picks internal (register) or external (CDC pin)
// cable compensation.
func (d *Device) SetCompensationSource(src CompensationSource) error {
	if src > CompensationExternal {
		return selectorError("SetCompensationSource", "compensation source %d", src)
	}
	return d.writeField("SetCompensationSource", fieldCDCOption, uint8(src))
}

// SetCableCompensation programs 0.0-0.7 V of cable drop compensation in 0.1 V
// steps. Off-grid values are rejected.
func (d *Device) SetCableCompensation(volts float64) (float64, error) {
	const op = "SetCableCompensation"

	code, ok := CableCompensationCode(volts)
	if !ok {
		return d.CableCompensation(), rangeError(op, "compensation %gV: want 0.0-%.1f in 0.1 steps", volts, MaxCableCompensation)
	}
	if err := d.writeField(op, fieldCDCSetting, code); err != nil {
		return d.CableCompensation(), err
	}
	return d.CableCompensation(), nil
}

func (d *Device) CableCompensation() float64 {
	return CableCompensationVolts(d.fieldValue(fieldCDCSetting))
}

// ---- MODE ----

// Enable drives EN high, then sets OE. If the register write fails EN is
// driven low again and the shadow OE bit reverts, so the two never disagree.
func (d *Device) Enable() error {
	const op = "Enable"

	if err := d.setPin(op, true); err != nil {
		return err
	}
	if err := d.writeField(op, fieldOutputEnable, 1); err != nil {
		d.regs[RegMode] = fieldOutputEnable.set(d.regs[RegMode], 0)
		if pinErr := d.setPin(op, false); pinErr != nil {
			return errors.Join(err, pinErr)
		}
		return err
	}
	return nil
}

// Disable drives EN low, then clears OE. The register write is attempted even
// when the pin fails.
func (d *Device) Disable() error {
	const op = "Disable"

	pinErr := d.setPin(op, false)
	if err := d.writeField(op, fieldOutputEnable, 0); err != nil {
		return errors.Join(pinErr, err)
	}
	return pinErr
}

// OutputEnabled reports the OE bit of the shadow MODE register.
func (d *Device) OutputEnabled() bool {
	return d.fieldValue(fieldOutputEnable) == 1
}

// SetFrequencyDoubling doubles the switching frequency in buck-boost operation.
func (d *Device) SetFrequencyDoubling(on bool) error {
	return d.writeField("SetFrequencyDoubling", fieldFSWDouble, boolBit(on))
}

// SetHiccupMode selects hiccup (true) or latch-off short circuit protection.
func (d *Device) SetHiccupMode(on bool) error {
	return d.writeField("SetHiccupMode", fieldHiccup, boolBit(on))
}

// SetOutputDischarge enables the VOUT discharge path while the output is off.
func (d *Device) SetOutputDischarge(on bool) error {
	return d.writeField("SetOutputDischarge", fieldDischarge, boolBit(on))
}

func (d *Device) SetLightLoadMode(m LightLoad) error {
	if m > LightLoadFPWM {
		return selectorError("SetLightLoadMode", "light load mode %d", m)
	}
	return d.writeField("SetLightLoadMode", fieldFPWM, uint8(m))
}

func (d *Device) LightLoadMode() LightLoad { return LightLoad(d.fieldValue(fieldFPWM)) }
