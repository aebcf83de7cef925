// internal/tps55289/status.go
package tps55289

import (
	"errors"
	"fmt"
	"strings"
)

// StatusField is one decoded STATUS field, in register order.
type StatusField struct {
	Name  string
	Value string
}

// StatusReport is the decoded STATUS register.
type StatusReport struct {
	Raw byte

	ShortCircuit bool // bit 7
	Overcurrent  bool // bit 6
	Overvoltage  bool // bit 5

	Mode OperatingMode // bits 0-1

	// AutoDisabled is set when a fault made ReadStatus turn the output off.
	AutoDisabled bool

	// Fields is filled in verbose mode only.
	Fields []StatusField
}

// Faulted reports whether any protection fired.
func (r StatusReport) Faulted() bool {
	return r.ShortCircuit || r.Overcurrent || r.Overvoltage
}

// Faults names the fired protections, e.g. "short-circuit,overvoltage".
func (r StatusReport) Faults() string {
	var names []string
	if r.ShortCircuit {
		names = append(names, "short-circuit")
	}
	if r.Overcurrent {
		names = append(names, "overcurrent")
	}
	if r.Overvoltage {
		names = append(names, "overvoltage")
	}
	return strings.Join(names, ",")
}

// Err converts a faulted report into an ErrDeviceFault error. It returns nil
// when no protection fired.
func (r StatusReport) Err() error {
	if !r.Faulted() {
		return nil
	}
	return &Error{Op: "ReadStatus", Kind: ErrDeviceFault, Err: errors.New(r.Faults())}
}

// DecodeStatus interprets a STATUS byte. A reserved operating mode yields
// ErrInconsistentState together with the rest of the decoded report.
func DecodeStatus(b byte) (StatusReport, error) {
	r := StatusReport{
		Raw:          b,
		ShortCircuit: fieldStatusSCP.get(b) == 1,
		Overcurrent:  fieldStatusOCP.get(b) == 1,
		Overvoltage:  fieldStatusOVP.get(b) == 1,
		Mode:         OperatingMode(fieldStatusMode.get(b)),
	}
	if r.Mode == modeReserved {
		return r, &Error{
			Op:   "ReadStatus",
			Kind: ErrInconsistentState,
			Err:  fmt.Errorf("operating mode bits 0b11 (status=0x%02x)", b),
		}
	}
	return r, nil
}

// ReadStatus reads STATUS. When a fault bit is set the output is disabled
// before returning; the fault is reported in the result, not as an error.
// verbose adds a per-field breakdown for presentation.
func (d *Device) ReadStatus(verbose bool) (StatusReport, error) {
	const op = "ReadStatus"

	b, err := d.bus.ReadRegister(d.addr, RegStatus)
	if err != nil {
		return StatusReport{}, busError(op, RegStatus, err)
	}
	d.regs[RegStatus] = b

	r, decodeErr := DecodeStatus(b)
	if r.Faulted() {
		if err := d.Disable(); err != nil {
			return r, errors.Join(decodeErr, err)
		}
		r.AutoDisabled = true
	}
	if verbose {
		r.Fields = r.fields()
	}
	return r, decodeErr
}

func (r StatusReport) fields() []StatusField {
	return []StatusField{
		{Name: "short_circuit", Value: fmt.Sprint(r.ShortCircuit)},
		{Name: "overcurrent", Value: fmt.Sprint(r.Overcurrent)},
		{Name: "overvoltage", Value: fmt.Sprint(r.Overvoltage)},
		{Name: "operating_mode", Value: r.Mode.String()},
	}
}

func (r StatusReport) String() string {
	s := fmt.Sprintf("status=0x%02x mode=%s", r.Raw, r.Mode)
	if r.Faulted() {
		s += " faults=" + r.Faults()
	}
	if r.AutoDisabled {
		s += " output=disabled"
	}
	return s
}
