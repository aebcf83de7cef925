// internal/tps55289/errors.go
package tps55289

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrOutOfRange        = errors.New("tps55289: value out of range")
	ErrInvalidSelector   = errors.New("tps55289: invalid selector")
	ErrBus               = errors.New("tps55289: bus transaction failed")
	ErrDeviceFault       = errors.New("tps55289: device fault")
	ErrInconsistentState = errors.New("tps55289: inconsistent device state")
)

// Error codes exposed to status consumers. 0 is reserved for "no error".
const (
	CodeOutOfRange        uint16 = 0x10
	CodeInvalidSelector   uint16 = 0x11
	CodeBus               uint16 = 0x20
	CodeDeviceFault       uint16 = 0x30
	CodeInconsistentState uint16 = 0x31
)

// Error describes a failed driver operation.
type Error struct {
	Op   string // setter or step that failed, e.g. "SetOutputVoltage"
	Kind error  // one of the Err* kinds above
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code maps the error kind to a stable numeric code.
func (e *Error) Code() uint16 {
	switch e.Kind {
	case ErrOutOfRange:
		return CodeOutOfRange
	case ErrInvalidSelector:
		return CodeInvalidSelector
	case ErrBus:
		return CodeBus
	case ErrDeviceFault:
		return CodeDeviceFault
	case ErrInconsistentState:
		return CodeInconsistentState
	}
	return 1
}

func rangeError(op string, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrOutOfRange, Err: fmt.Errorf(format, args...)}
}

func selectorError(op string, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidSelector, Err: fmt.Errorf(format, args...)}
}

func busError(op string, reg uint8, err error) error {
	return &Error{Op: op, Kind: ErrBus, Err: fmt.Errorf("reg=0x%02x: %w", reg, err)}
}
