// internal/tps55289/output.go
package tps55289

// SetOutputVoltage programs the reference DAC for volts and returns the
// quantized output voltage the device will regulate to. Out of range requests
// leave both reference registers untouched.
func (d *Device) SetOutputVoltage(volts float64) (float64, error) {
	const op = "SetOutputVoltage"

	if err := checkVoltage(op, volts); err != nil {
		return d.EffectiveVoltage(), err
	}
	if err := d.writeReference(op, ReferenceCode(volts, d.feedbackRatio())); err != nil {
		return d.EffectiveVoltage(), err
	}
	d.targetVolts = volts
	return d.EffectiveVoltage(), nil
}

// EffectiveVoltage is the output voltage implied by the shadow reference code
// and the current feedback selection.
func (d *Device) EffectiveVoltage() float64 {
	ratio := d.feedbackRatio()
	if ratio <= 0 {
		return 0
	}
	return ReferenceVoltage(d.referenceCode(), ratio)
}

// TargetVoltage is the last accepted output voltage request.
func (d *Device) TargetVoltage() float64 { return d.targetVolts }

// SetFeedbackMechanism selects internal or external feedback and rewrites the
// reference so the effective output follows the new ratio.
func (d *Device) SetFeedbackMechanism(fb Feedback) (float64, error) {
	const op = "SetFeedbackMechanism"

	switch fb {
	case FeedbackInternal:
	case FeedbackExternal:
		if err := checkDividerRatio(op, d.opts.ExternalDividerRatio); err != nil {
			return d.EffectiveVoltage(), err
		}
	default:
		return d.EffectiveVoltage(), selectorError(op, "feedback %d", fb)
	}

	if err := d.writeField(op, fieldFeedback, uint8(fb)); err != nil {
		return d.EffectiveVoltage(), err
	}
	return d.reapplyReference(op)
}

// Feedback reports the FB bit of the shadow VOUT_FS register.
func (d *Device) Feedback() Feedback {
	return Feedback(d.fieldValue(fieldFeedback))
}

// SetStepSize selects the internal feedback step (2.5, 5, 7.5 or 10 mV) and
// rewrites the reference so the retained target voltage stays in effect.
func (d *Device) SetStepSize(mv float64) (float64, error) {
	const op = "SetStepSize"

	step, ok := StepSizeFromMillivolts(mv)
	if !ok {
		return d.EffectiveVoltage(), selectorError(op, "step size %gmV: want 2.5, 5, 7.5 or 10", mv)
	}
	if err := d.writeField(op, fieldIntFB, uint8(step)); err != nil {
		return d.EffectiveVoltage(), err
	}
	return d.reapplyReference(op)
}

// StepSize reports the INTFB field of the shadow VOUT_FS register.
func (d *Device) StepSize() StepSize {
	return StepSize(d.fieldValue(fieldIntFB))
}

func (d *Device) feedbackRatio() float64 {
	if d.Feedback() == FeedbackExternal {
		return d.opts.ExternalDividerRatio
	}
	return d.StepSize().Ratio()
}

func (d *Device) referenceCode() uint16 {
	return uint16(d.regs[RegRefLSB]) | uint16(fieldRefMSB.get(d.regs[RegRefMSB]))<<8
}

// reapplyReference re-encodes the retained target after a ratio change.
func (d *Device) reapplyReference(op string) (float64, error) {
	if err := d.writeReference(op, ReferenceCode(d.targetVolts, d.feedbackRatio())); err != nil {
		return d.EffectiveVoltage(), err
	}
	return d.EffectiveVoltage(), nil
}

// writeReference writes the low byte first, then the high byte. Reserved
// bits 3-7 of the high byte are written as zero.
func (d *Device) writeReference(op string, code uint16) error {
	if err := d.writeReg(op, RegRefLSB, byte(code)); err != nil {
		return err
	}
	return d.writeReg(op, RegRefMSB, fieldRefMSB.set(0, uint8(code>>8)))
}
