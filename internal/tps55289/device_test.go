// internal/tps55289/device_test.go
package tps55289

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

func TestNew_Defaults(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	if d.Address() != 0x74 {
		t.Fatalf("address got=0x%x want=0x74", d.Address())
	}
	if len(bus.events) != 0 {
		t.Fatalf("New must not touch the bus, got %v", bus.events)
	}
	if d.Registers() != resetValues {
		t.Fatalf("shadow should start from the reset table")
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		kind   error
	}{
		{"voltage low", func(o *Options) { o.InitialVoltage = 0.5 }, ErrOutOfRange},
		{"current high", func(o *Options) { o.InitialCurrentLimit = 7 }, ErrOutOfRange},
		{"address", func(o *Options) { o.Address = 0x80 }, ErrOutOfRange},
		{"external no ratio", func(o *Options) { o.Feedback = FeedbackExternal }, ErrOutOfRange},
		{"slew", func(o *Options) { o.SlewRate = 4 }, ErrInvalidSelector},
		{"compensation", func(o *Options) { o.CableCompensation = 0.25 }, ErrOutOfRange},
	}

	for _, c := range cases {
		opts := DefaultOptions()
		c.mutate(&opts)
		if _, err := New(newFakeBus(), nil, opts); !errors.Is(err, c.kind) {
			t.Fatalf("%s: got err=%v want %v", c.name, err, c.kind)
		}
	}
}

// ---- reference voltage ----

func TestSetOutputVoltage_WritesLowThenHigh(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	eff, err := d.SetOutputVoltage(5.0)
	if err != nil {
		t.Fatalf("SetOutputVoltage err=%v", err)
	}

	// 421 = 0x1a5
	want := []string{"w0=a5", "w1=01"}
	if got := lastEvents(bus, 2); !reflect.DeepEqual(got, want) {
		t.Fatalf("writes got=%v want=%v", got, want)
	}
	if math.Abs(eff-5.0) > ReferenceStep(Step10mV.Ratio()) {
		t.Fatalf("effective %g too far from 5.0", eff)
	}
	if eff == 5.0 {
		t.Fatalf("effective value should be the quantized one, not the request")
	}
	if d.State().ReferenceCode != 421 {
		t.Fatalf("reference code got=%d", d.State().ReferenceCode)
	}
}

func TestSetOutputVoltage_ReservedHighBitsZeroed(t *testing.T) {
	d, bus, _ := newTestDevice(t)
	bus.regs[RegRefMSB] = 0xF8
	if err := d.Sync(); err != nil {
		t.Fatalf("Sync err=%v", err)
	}

	if _, err := d.SetOutputVoltage(20.0); err != nil {
		t.Fatalf("SetOutputVoltage err=%v", err)
	}
	if bus.regs[RegRefMSB]&0xF8 != 0 {
		t.Fatalf("reserved MSB bits leaked: 0x%02x", bus.regs[RegRefMSB])
	}
}

func TestSetOutputVoltage_OutOfRangeLeavesRegisters(t *testing.T) {
	d, bus, _ := newTestDevice(t)
	if _, err := d.SetOutputVoltage(12.0); err != nil {
		t.Fatalf("SetOutputVoltage err=%v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		var v float64
		if i%2 == 0 {
			v = MinOutputVoltage - rng.Float64()*100 - 1e-6
		} else {
			v = MaxOutputVoltage + rng.Float64()*100 + 1e-6
		}

		before := bus.regs
		writes := bus.writes

		eff, err := d.SetOutputVoltage(v)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("v=%g: expected out of range, got %v", v, err)
		}
		if bus.regs != before || bus.writes != writes {
			t.Fatalf("v=%g: registers changed on rejected request", v)
		}
		if eff != d.EffectiveVoltage() || d.TargetVoltage() != 12.0 {
			t.Fatalf("v=%g: state changed on rejected request", v)
		}
	}

	if _, err := d.SetOutputVoltage(math.NaN()); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("NaN accepted: %v", err)
	}
}

func TestSetOutputVoltage_ReadBackProperty(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	for _, mv := range []float64{2.5, 5, 7.5, 10} {
		if _, err := d.SetStepSize(mv); err != nil {
			t.Fatalf("SetStepSize(%g) err=%v", mv, err)
		}
		ratio := d.StepSize().Ratio()

		f := func(r uint32) bool {
			v := MinOutputVoltage + float64(r)/math.MaxUint32*(MaxOutputVoltage-MinOutputVoltage)
			eff, err := d.SetOutputVoltage(v)
			if err != nil {
				return false
			}
			code := uint16(bus.regs[RegRefLSB]) | uint16(bus.regs[RegRefMSB]&0x07)<<8
			if code > MaxReferenceCode || code != d.State().ReferenceCode {
				return false
			}
			if v > MaxReachableVoltage(ratio) {
				return code == MaxReferenceCode
			}
			return math.Abs(eff-v) <= ReferenceStep(ratio)+1e-9
		}
		if err := quick.Check(f, nil); err != nil {
			t.Fatalf("step %gmV: %v", mv, err)
		}
	}
}

func TestSetOutputVoltage_BusFailureKeepsAttempt(t *testing.T) {
	d, bus, _ := newTestDevice(t)
	bus.failWrite[RegRefMSB] = true

	_, err := d.SetOutputVoltage(5.0)
	if !errors.Is(err, ErrBus) || !errors.Is(err, errFakeBus) {
		t.Fatalf("expected bus error, got %v", err)
	}
	if d.Register(RegRefLSB) != 0xa5 || d.Register(RegRefMSB) != 0x01 {
		t.Fatalf("shadow should hold the attempted value")
	}
	if d.TargetVoltage() != MinOutputVoltage {
		t.Fatalf("target should not move on bus failure")
	}

	// resynchronize from the device
	if err := d.Resync(RegRefMSB); err != nil {
		t.Fatalf("Resync err=%v", err)
	}
	if d.Register(RegRefMSB) != 0x00 {
		t.Fatalf("resync got=0x%02x", d.Register(RegRefMSB))
	}
}

// ---- step size / feedback ----

func TestSetStepSize_RewritesReference(t *testing.T) {
	d, bus, _ := newTestDevice(t)
	if _, err := d.SetOutputVoltage(5.0); err != nil {
		t.Fatalf("SetOutputVoltage err=%v", err)
	}

	eff, err := d.SetStepSize(5.0)
	if err != nil {
		t.Fatalf("SetStepSize err=%v", err)
	}

	if bus.regs[RegVoutFS]&0x03 != 0x01 {
		t.Fatalf("INTFB got=0x%02x", bus.regs[RegVoutFS])
	}
	want := ReferenceCode(5.0, Step5mV.Ratio())
	if want != 921 || d.State().ReferenceCode != want {
		t.Fatalf("reference code got=%d want=%d", d.State().ReferenceCode, want)
	}
	ev := lastEvents(bus, 3)
	if ev[0] != "w4=01" || ev[1] != "w0=99" || ev[2] != "w1=03" {
		t.Fatalf("unexpected write order %v", ev)
	}
	if math.Abs(eff-5.0) > ReferenceStep(Step5mV.Ratio()) {
		t.Fatalf("effective %g", eff)
	}
}

func TestSetStepSize_Invalid(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	if _, err := d.SetStepSize(3.0); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
	if len(bus.events) != 0 {
		t.Fatalf("rejected step size wrote %v", bus.events)
	}
}

func TestSetFeedbackMechanism(t *testing.T) {
	d, _, _ := newTestDevice(t)
	if _, err := d.SetFeedbackMechanism(FeedbackExternal); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("external without divider ratio: got %v", err)
	}
	if _, err := d.SetFeedbackMechanism(Feedback(2)); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected invalid selector, got %v", err)
	}

	d, bus, _ := newTestDevice(t, func(o *Options) {
		o.ExternalDividerRatio = 0.1
		o.InitialVoltage = 5.0
	})
	eff, err := d.SetFeedbackMechanism(FeedbackExternal)
	if err != nil {
		t.Fatalf("SetFeedbackMechanism err=%v", err)
	}
	if bus.regs[RegVoutFS]&0x80 == 0 {
		t.Fatalf("FB bit not set: 0x%02x", bus.regs[RegVoutFS])
	}
	if d.State().ReferenceCode != ReferenceCode(5.0, 0.1) {
		t.Fatalf("reference not re-encoded for the external ratio")
	}
	if math.Abs(eff-5.0) > ReferenceStep(0.1) {
		t.Fatalf("effective %g", eff)
	}

	if _, err := d.SetFeedbackMechanism(FeedbackInternal); err != nil {
		t.Fatalf("back to internal err=%v", err)
	}
	if bus.regs[RegVoutFS]&0x80 != 0 || d.Feedback() != FeedbackInternal {
		t.Fatalf("FB bit not cleared")
	}
}

// ---- current limit ----

func TestCurrentLimit_EnableBitIsolation(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	eff, err := d.SetOutputCurrentLimit(0.35)
	if err != nil {
		t.Fatalf("SetOutputCurrentLimit err=%v", err)
	}
	if bus.regs[RegIoutLimit] != 0x87 {
		t.Fatalf("IOUT_LIMIT got=0x%02x want=0x87", bus.regs[RegIoutLimit])
	}
	if math.Abs(eff-0.35) > 1e-9 {
		t.Fatalf("effective got=%g", eff)
	}

	if err := d.DisableOutputCurrentLimit(); err != nil {
		t.Fatalf("DisableOutputCurrentLimit err=%v", err)
	}
	if bus.regs[RegIoutLimit] != 0x07 {
		t.Fatalf("IOUT_LIMIT got=0x%02x want=0x07", bus.regs[RegIoutLimit])
	}

	if _, err := d.SetOutputCurrentLimit(6.35); err != nil {
		t.Fatalf("SetOutputCurrentLimit err=%v", err)
	}
	if bus.regs[RegIoutLimit] != 0x7F || d.CurrentLimitEnabled() {
		t.Fatalf("IOUT_LIMIT got=0x%02x want=0x7f", bus.regs[RegIoutLimit])
	}

	if err := d.EnableOutputCurrentLimit(); err != nil {
		t.Fatalf("EnableOutputCurrentLimit err=%v", err)
	}
	if bus.regs[RegIoutLimit] != 0xFF {
		t.Fatalf("IOUT_LIMIT got=0x%02x want=0xff", bus.regs[RegIoutLimit])
	}
}

func TestCurrentLimit_OffGridRoundsAndRangeRejects(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	eff, err := d.SetOutputCurrentLimit(0.38)
	if err != nil {
		t.Fatalf("SetOutputCurrentLimit err=%v", err)
	}
	if math.Abs(eff-0.40) > 1e-9 {
		t.Fatalf("effective got=%g want=0.40", eff)
	}

	before := bus.regs
	for _, a := range []float64{-0.01, 6.4, math.Inf(1), math.NaN()} {
		if _, err := d.SetOutputCurrentLimit(a); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("a=%g: expected out of range, got %v", a, err)
		}
	}
	if bus.regs != before {
		t.Fatalf("rejected limits changed registers")
	}
}

// ---- VOUT_SR ----

func TestSlewRateAndOCPDelayAreDisjoint(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	if err := d.SetSlewRate(SlewRate10); err != nil {
		t.Fatalf("SetSlewRate err=%v", err)
	}
	if err := d.SetOCPResponseTime(OCPDelay6ms); err != nil {
		t.Fatalf("SetOCPResponseTime err=%v", err)
	}
	if bus.regs[RegVoutSR] != 0x23 {
		t.Fatalf("VOUT_SR got=0x%02x want=0x23", bus.regs[RegVoutSR])
	}
	if d.SlewRate() != SlewRate10 || d.OCPResponseTime() != OCPDelay6ms {
		t.Fatalf("fields read back wrong: %s %s", d.SlewRate(), d.OCPResponseTime())
	}

	writes := bus.writes
	if err := d.SetSlewRate(4); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
	if err := d.SetOCPResponseTime(9); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
	if bus.writes != writes || bus.regs[RegVoutSR] != 0x23 {
		t.Fatalf("invalid codes modified VOUT_SR")
	}
}

// ---- CDC ----

func TestCDC(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	eff, err := d.SetCableCompensation(0.3)
	if err != nil {
		t.Fatalf("SetCableCompensation err=%v", err)
	}
	if bus.regs[RegCDC] != 0xE3 || math.Abs(eff-0.3) > 1e-9 {
		t.Fatalf("CDC got=0x%02x eff=%g", bus.regs[RegCDC], eff)
	}

	if err := d.SetCompensationSource(CompensationExternal); err != nil {
		t.Fatalf("SetCompensationSource err=%v", err)
	}
	if err := d.SetOvercurrentIndication(false); err != nil {
		t.Fatalf("SetOvercurrentIndication err=%v", err)
	}
	if bus.regs[RegCDC] != 0xAB {
		t.Fatalf("CDC got=0x%02x want=0xab", bus.regs[RegCDC])
	}

	for _, v := range []float64{0.35, 0.8, -0.1} {
		if _, err := d.SetCableCompensation(v); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("v=%g: expected out of range, got %v", v, err)
		}
	}
	if bus.regs[RegCDC] != 0xAB {
		t.Fatalf("rejected compensation modified CDC")
	}
}

// ---- MODE ----

func TestEnable_PinThenRegister(t *testing.T) {
	d, bus, pin := newTestDevice(t)

	if err := d.Enable(); err != nil {
		t.Fatalf("Enable err=%v", err)
	}
	want := []string{"pin=true", "w6=a0"}
	if !reflect.DeepEqual(bus.events, want) {
		t.Fatalf("events got=%v want=%v", bus.events, want)
	}
	if !pin.on || !d.OutputEnabled() {
		t.Fatalf("pin and OE should both be on")
	}

	if err := d.Disable(); err != nil {
		t.Fatalf("Disable err=%v", err)
	}
	if got := lastEvents(bus, 2); !reflect.DeepEqual(got, []string{"pin=false", "w6=20"}) {
		t.Fatalf("disable events got=%v", got)
	}
	if pin.on || d.OutputEnabled() {
		t.Fatalf("pin and OE should both be off")
	}
}

func TestEnable_RegisterFailureDropsPin(t *testing.T) {
	d, bus, pin := newTestDevice(t)
	if err := d.SetOutputDischarge(true); err != nil {
		t.Fatalf("SetOutputDischarge err=%v", err)
	}
	bus.failWrite[RegMode] = true

	if err := d.Enable(); !errors.Is(err, ErrBus) {
		t.Fatalf("expected bus error, got %v", err)
	}
	if pin.on || d.OutputEnabled() {
		t.Fatalf("pin=%v OE=%v: must agree on off", pin.on, d.OutputEnabled())
	}
	// only OE reverts; the rest of MODE keeps its shadow value
	if got := d.Register(RegMode); got != 0x30 {
		t.Fatalf("MODE shadow got=0x%02x want=0x30", got)
	}
	if got := lastEvents(bus, 3); got[0] != "pin=true" || got[1] != "w6=b0" || got[2] != "pin=false" {
		t.Fatalf("events got=%v", got)
	}
}

func TestDisable_PinFailureStillClearsRegister(t *testing.T) {
	d, bus, pin := newTestDevice(t)
	if err := d.Enable(); err != nil {
		t.Fatalf("Enable err=%v", err)
	}
	pin.fail = true

	if err := d.Disable(); !errors.Is(err, ErrBus) {
		t.Fatalf("expected bus error from pin, got %v", err)
	}
	if bus.regs[RegMode]&0x80 != 0 {
		t.Fatalf("OE still set after Disable")
	}
}

func TestModeFlags(t *testing.T) {
	d, bus, _ := newTestDevice(t)

	steps := []func() error{
		func() error { return d.SetFrequencyDoubling(true) },
		func() error { return d.SetHiccupMode(false) },
		func() error { return d.SetOutputDischarge(true) },
		func() error { return d.SetLightLoadMode(LightLoadFPWM) },
	}
	for _, s := range steps {
		if err := s(); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	if bus.regs[RegMode] != 0x52 {
		t.Fatalf("MODE got=0x%02x want=0x52", bus.regs[RegMode])
	}
	if err := d.SetLightLoadMode(2); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
}

// ---- properties over every field mutator ----

type mutator struct {
	name  string
	reg   uint8
	mask  byte
	apply func(d *Device, arg uint8) error
}

func mutators() []mutator {
	ignore := func(_ float64, err error) error { return err }

	return []mutator{
		{"CurrentLimit", RegIoutLimit, 0x7F, func(d *Device, a uint8) error {
			return ignore(d.SetOutputCurrentLimit(float64(a%128) * 0.05))
		}},
		{"CurrentLimitEnable", RegIoutLimit, 0x80, func(d *Device, a uint8) error {
			if a%2 == 0 {
				return d.DisableOutputCurrentLimit()
			}
			return d.EnableOutputCurrentLimit()
		}},
		{"SlewRate", RegVoutSR, 0x03, func(d *Device, a uint8) error { return d.SetSlewRate(SlewRate(a % 4)) }},
		{"OCPDelay", RegVoutSR, 0x30, func(d *Device, a uint8) error { return d.SetOCPResponseTime(OCPDelay(a % 4)) }},
		{"Feedback", RegVoutFS, 0x80, func(d *Device, a uint8) error {
			return ignore(d.SetFeedbackMechanism(Feedback(a % 2)))
		}},
		{"StepSize", RegVoutFS, 0x03, func(d *Device, a uint8) error {
			return ignore(d.SetStepSize(StepSize(a % 4).Millivolts()))
		}},
		{"SCIndication", RegCDC, 0x80, func(d *Device, a uint8) error { return d.SetShortCircuitIndication(a%2 == 1) }},
		{"OCPIndication", RegCDC, 0x40, func(d *Device, a uint8) error { return d.SetOvercurrentIndication(a%2 == 1) }},
		{"OVPIndication", RegCDC, 0x20, func(d *Device, a uint8) error { return d.SetOvervoltageIndication(a%2 == 1) }},
		{"CompensationSource", RegCDC, 0x08, func(d *Device, a uint8) error {
			return d.SetCompensationSource(CompensationSource(a % 2))
		}},
		{"CableCompensation", RegCDC, 0x07, func(d *Device, a uint8) error {
			return ignore(d.SetCableCompensation(float64(a%8) / 10))
		}},
		{"OutputEnable", RegMode, 0x80, func(d *Device, a uint8) error {
			if a%2 == 0 {
				return d.Disable()
			}
			return d.Enable()
		}},
		{"FrequencyDoubling", RegMode, 0x40, func(d *Device, a uint8) error { return d.SetFrequencyDoubling(a%2 == 1) }},
		{"Hiccup", RegMode, 0x20, func(d *Device, a uint8) error { return d.SetHiccupMode(a%2 == 1) }},
		{"Discharge", RegMode, 0x10, func(d *Device, a uint8) error { return d.SetOutputDischarge(a%2 == 1) }},
		{"LightLoad", RegMode, 0x02, func(d *Device, a uint8) error { return d.SetLightLoadMode(LightLoad(a % 2)) }},
	}
}

func TestMutators_BitIsolation(t *testing.T) {
	for _, m := range mutators() {
		m := m
		f := func(seed [numRegisters]byte, arg uint8) bool {
			d, bus, _ := newTestDevice(t, func(o *Options) { o.ExternalDividerRatio = 0.5 })
			bus.regs = seed
			if err := d.Sync(); err != nil {
				return false
			}
			before := d.Register(m.reg)

			if err := m.apply(d, arg); err != nil {
				t.Logf("%s: %v", m.name, err)
				return false
			}
			after := bus.regs[m.reg]
			return (before^after)&^m.mask == 0 && after == d.Register(m.reg)
		}
		if err := quick.Check(f, nil); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
	}
}

func TestMutators_Idempotent(t *testing.T) {
	for _, m := range mutators() {
		m := m
		f := func(seed [numRegisters]byte, arg uint8) bool {
			d, bus, _ := newTestDevice(t, func(o *Options) { o.ExternalDividerRatio = 0.5 })
			bus.regs = seed
			if err := d.Sync(); err != nil {
				return false
			}

			if err := m.apply(d, arg); err != nil {
				return false
			}
			once := bus.regs
			if err := m.apply(d, arg); err != nil {
				return false
			}
			return bus.regs == once
		}
		if err := quick.Check(f, nil); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
	}
}
