// internal/tps55289/init.go
package tps55289

import "fmt"

// InitReport summarizes Init.
type InitReport struct {
	Present  bool     // device answered the probe
	Warnings []string // non-fatal findings

	Status StatusReport // verbose status read before enabling

	EffectiveVoltage      float64
	EffectiveCurrentLimit float64
}

// Init brings the converter into the configured state and enables the
// output. The sequence is fixed:
//
//	probe, sync, disable, voltage, current limit, OCP delay, slew rate,
//	feedback, step size, fault indications, compensation, switching mode
//	bits, verbose status read, enable.
//
// An absent device is a warning, not an error; the writes that follow will
// report the bus failure. If the status read finds a fault the output stays
// disabled and Init returns without error.
func (d *Device) Init() (InitReport, error) {
	var rep InitReport

	present, err := d.probe()
	if err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("probe failed: %v", err))
	}
	rep.Present = present
	if present {
		if err := d.Sync(); err != nil {
			return rep, err
		}
	} else {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("no device at address 0x%02x", d.addr))
	}

	steps := []func() error{
		d.Disable,
		func() error { _, err := d.SetOutputVoltage(d.opts.InitialVoltage); return err },
		d.EnableOutputCurrentLimit,
		func() error { _, err := d.SetOutputCurrentLimit(d.opts.InitialCurrentLimit); return err },
		func() error { return d.SetOCPResponseTime(d.opts.OCPDelay) },
		func() error { return d.SetSlewRate(d.opts.SlewRate) },
		func() error { _, err := d.SetFeedbackMechanism(d.opts.Feedback); return err },
		func() error { _, err := d.SetStepSize(d.opts.StepSize.Millivolts()); return err },
		func() error { return d.SetShortCircuitIndication(true) },
		func() error { return d.SetOvercurrentIndication(true) },
		func() error { return d.SetOvervoltageIndication(true) },
		func() error { return d.SetCompensationSource(CompensationInternal) },
		func() error { _, err := d.SetCableCompensation(d.opts.CableCompensation); return err },
		func() error { return d.SetFrequencyDoubling(false) },
		func() error { return d.SetHiccupMode(true) },
		func() error { return d.SetOutputDischarge(false) },
		func() error { return d.SetLightLoadMode(d.opts.LightLoad) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return rep, err
		}
	}

	rep.EffectiveVoltage = d.EffectiveVoltage()
	rep.EffectiveCurrentLimit = d.EffectiveCurrentLimit()

	status, err := d.ReadStatus(true)
	rep.Status = status
	if err != nil {
		return rep, err
	}
	if status.AutoDisabled {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("fault at init (%s), output left disabled", status.Faults()))
		return rep, nil
	}

	return rep, d.Enable()
}

// probe asks the bus whether the device answers. Buses without a probe
// primitive fall back to reading REF_LSB, which unlike STATUS does not clear
// on read.
func (d *Device) probe() (bool, error) {
	if p, ok := d.bus.(Prober); ok {
		return p.Probe(d.addr)
	}
	if _, err := d.bus.ReadRegister(d.addr, RegRefLSB); err != nil {
		return false, nil
	}
	return true, nil
}
