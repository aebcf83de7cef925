// internal/tps55289/device.go

// Package tps55289 drives a TPS55289 buck-boost converter over a register bus.
//
// Device keeps a shadow copy of the eight device registers. Every setter
// composes its field into the shadow byte and writes the whole byte, so bits
// owned by other setters are never disturbed. Setters that quantize return the
// value the device actually applies.
//
// A Device is not safe for concurrent use. Callers sharing one physical bus
// between several devices must serialize access (see bus.Locked).
package tps55289

import (
	"errors"
	"fmt"
	"math"
)

// Bus is the register transport.
type Bus interface {
	WriteRegister(addr uint16, reg uint8, v byte) error
	ReadRegister(addr uint16, reg uint8) (byte, error)
}

// Prober is implemented by buses that can detect a device without touching
// its registers.
type Prober interface {
	Probe(addr uint16) (bool, error)
}

// Pin drives the EN line of the converter.
type Pin interface {
	Set(on bool) error
}

// Options configures a Device. Start from DefaultOptions.
type Options struct {
	Address uint16 // 0 means DefaultAddress

	InitialVoltage      float64 // volts
	InitialCurrentLimit float64 // amps

	Feedback             Feedback
	ExternalDividerRatio float64 // VREF/VOUT of the external divider, used in external feedback mode
	StepSize             StepSize

	SlewRate          SlewRate
	OCPDelay          OCPDelay
	CableCompensation float64 // volts
	LightLoad         LightLoad

	SenseResistor float64 // ohms, 0 means DefaultSenseResistor
}

// DefaultOptions returns the configuration applied by Init when nothing is
// overridden.
func DefaultOptions() Options {
	return Options{
		Address:             DefaultAddress,
		InitialVoltage:      MinOutputVoltage,
		InitialCurrentLimit: MaxCurrentLimit(DefaultSenseResistor),
		Feedback:            FeedbackInternal,
		StepSize:            Step10mV,
		SlewRate:            SlewRate2p5,
		OCPDelay:            OCPDelay128us,
		CableCompensation:   0,
		LightLoad:           LightLoadPFM,
		SenseResistor:       DefaultSenseResistor,
	}
}

// Device is one converter on a bus.
type Device struct {
	bus  Bus
	pin  Pin
	addr uint16
	opts Options

	regs [numRegisters]byte

	targetVolts float64
	targetAmps  float64
}

// State is a snapshot of the converter configuration.
type State struct {
	TargetVoltage    float64
	EffectiveVoltage float64
	ReferenceCode    uint16

	TargetCurrentLimit    float64
	EffectiveCurrentLimit float64
	CurrentLimitEnabled   bool

	StepSize      StepSize
	Feedback      Feedback
	OutputEnabled bool
}

// New creates a Device. No bus traffic happens until a setter, Sync or Init
// is called. pin may be nil when EN is hard-wired.
func New(bus Bus, pin Pin, opts Options) (*Device, error) {
	if bus == nil {
		return nil, errors.New("tps55289: bus required")
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Device{
		bus:         bus,
		pin:         pin,
		addr:        opts.Address,
		opts:        opts,
		regs:        resetValues,
		targetVolts: opts.InitialVoltage,
		targetAmps:  opts.InitialCurrentLimit,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Address == 0 {
		o.Address = DefaultAddress
	}
	if o.SenseResistor == 0 {
		o.SenseResistor = DefaultSenseResistor
	}
	return o
}

// Validate checks every option against the device limits. A zero Address or
// SenseResistor stands for the default.
func (o Options) Validate() error {
	const op = "New"

	o = o.withDefaults()
	if o.Address > 0x7F {
		return rangeError(op, "address 0x%x is not a 7-bit address", o.Address)
	}
	if math.IsNaN(o.SenseResistor) || o.SenseResistor < 0 {
		return rangeError(op, "sense resistor %g ohm", o.SenseResistor)
	}
	if err := checkVoltage(op, o.InitialVoltage); err != nil {
		return err
	}
	if err := checkCurrent(op, o.InitialCurrentLimit, o.SenseResistor); err != nil {
		return err
	}
	if o.Feedback > FeedbackExternal {
		return selectorError(op, "feedback %d", o.Feedback)
	}
	if o.Feedback == FeedbackExternal {
		if err := checkDividerRatio(op, o.ExternalDividerRatio); err != nil {
			return err
		}
	}
	if o.StepSize > Step10mV {
		return selectorError(op, "step size %d", o.StepSize)
	}
	if o.SlewRate > SlewRate10 {
		return selectorError(op, "slew rate %d", o.SlewRate)
	}
	if o.OCPDelay > OCPDelay12ms {
		return selectorError(op, "ocp delay %d", o.OCPDelay)
	}
	if o.LightLoad > LightLoadFPWM {
		return selectorError(op, "light load mode %d", o.LightLoad)
	}
	if _, ok := CableCompensationCode(o.CableCompensation); !ok {
		return rangeError(op, "cable compensation %gV", o.CableCompensation)
	}
	return nil
}

// Address is the 7-bit bus address of the device.
func (d *Device) Address() uint16 { return d.addr }

// Register returns the shadow value of reg.
func (d *Device) Register(reg uint8) byte {
	if int(reg) >= numRegisters {
		return 0
	}
	return d.regs[reg]
}

// Registers returns a copy of the shadow register file.
func (d *Device) Registers() [numRegisters]byte { return d.regs }

// Sync replaces the shadow copy with the device registers. STATUS is left
// alone: reading it clears latched faults, and only ReadStatus may do that.
func (d *Device) Sync() error {
	for reg := uint8(0); reg < numRegisters; reg++ {
		if reg == RegStatus {
			continue
		}
		if err := d.Resync(reg); err != nil {
			return err
		}
	}
	return nil
}

// Resync re-reads one register into the shadow copy. Use it after a failed
// write to learn what the device actually holds.
func (d *Device) Resync(reg uint8) error {
	if int(reg) >= numRegisters {
		return selectorError("Resync", "register 0x%02x", reg)
	}
	v, err := d.bus.ReadRegister(d.addr, reg)
	if err != nil {
		return busError("Resync", reg, err)
	}
	d.regs[reg] = v
	return nil
}

// State returns the current configuration as seen through the shadow copy.
func (d *Device) State() State {
	return State{
		TargetVoltage:         d.targetVolts,
		EffectiveVoltage:      d.EffectiveVoltage(),
		ReferenceCode:         d.referenceCode(),
		TargetCurrentLimit:    d.targetAmps,
		EffectiveCurrentLimit: d.EffectiveCurrentLimit(),
		CurrentLimitEnabled:   d.CurrentLimitEnabled(),
		StepSize:              d.StepSize(),
		Feedback:              d.Feedback(),
		OutputEnabled:         d.OutputEnabled(),
	}
}

// Close leaves the output disabled.
func (d *Device) Close() error {
	return d.Disable()
}

// writeReg records v as the shadow value and pushes it to the device. On
// failure the shadow keeps the attempted value.
func (d *Device) writeReg(op string, reg uint8, v byte) error {
	d.regs[reg] = v
	if err := d.bus.WriteRegister(d.addr, reg, v); err != nil {
		return busError(op, reg, err)
	}
	return nil
}

func (d *Device) writeField(op string, f field, v uint8) error {
	return d.writeReg(op, f.reg, f.set(d.regs[f.reg], v))
}

func (d *Device) fieldValue(f field) uint8 {
	return f.get(d.regs[f.reg])
}

func (d *Device) setPin(op string, on bool) error {
	if d.pin == nil {
		return nil
	}
	if err := d.pin.Set(on); err != nil {
		return &Error{Op: op, Kind: ErrBus, Err: fmt.Errorf("enable pin: %w", err)}
	}
	return nil
}

func checkVoltage(op string, v float64) error {
	if math.IsNaN(v) || v < MinOutputVoltage || v > MaxOutputVoltage {
		return rangeError(op, "output voltage %gV not in [%g, %g]", v, MinOutputVoltage, MaxOutputVoltage)
	}
	return nil
}

func checkCurrent(op string, a, senseOhms float64) error {
	limit := MaxCurrentLimit(senseOhms)
	if math.IsNaN(a) || a < 0 || a > limit+gridEpsilon {
		return rangeError(op, "current limit %gA not in [0, %g]", a, limit)
	}
	return nil
}

func checkDividerRatio(op string, r float64) error {
	if math.IsNaN(r) || r <= 0 || r > 1 {
		return rangeError(op, "external divider ratio %g not in (0, 1]", r)
	}
	return nil
}
