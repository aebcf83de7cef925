// internal/bus/periph/periph.go

// Package periph drives converters on a local I2C bus and GPIO line through
// periph.io.
package periph

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Init loads the host drivers. It is safe to call more than once.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph: host init: %w", err)
	}
	return nil
}

// Bus is a register transport over a periph I2C bus.
type Bus struct {
	bus i2c.Bus
}

// Open opens the named I2C bus ("" selects the first one available).
func Open(name string) (*Bus, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periph: open i2c bus %q: %w", name, err)
	}
	return New(b), nil
}

// New wraps an already opened bus.
func New(b i2c.Bus) *Bus {
	return &Bus{bus: b}
}

func (b *Bus) dev(addr uint16) *i2c.Dev {
	return &i2c.Dev{Bus: b.bus, Addr: addr}
}

func (b *Bus) WriteRegister(addr uint16, reg uint8, v byte) error {
	return b.dev(addr).Tx([]byte{reg, v}, nil)
}

func (b *Bus) ReadRegister(addr uint16, reg uint8) (byte, error) {
	var r [1]byte
	if err := b.dev(addr).Tx([]byte{reg}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// Probe reads register 0 of addr. A NACK is reported as absent. The address
// pointer is set explicitly so a bare read never lands on a clear-on-read
// register.
func (b *Bus) Probe(addr uint16) (bool, error) {
	var r [1]byte
	if err := b.dev(addr).Tx([]byte{0x00}, r[:]); err != nil {
		return false, nil
	}
	return true, nil
}

// Close closes the underlying bus when it owns one.
func (b *Bus) Close() error {
	if c, ok := b.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Pin drives the converter EN line.
type Pin struct {
	p gpio.PinOut
}

// OpenPin looks up a GPIO line by name, e.g. "GPIO17".
func OpenPin(name string) (*Pin, error) {
	if name == "" {
		return nil, errors.New("periph: pin name required")
	}
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: unknown gpio %q", name)
	}
	return NewPin(p), nil
}

// NewPin wraps an output pin.
func NewPin(p gpio.PinOut) *Pin {
	return &Pin{p: p}
}

func (p *Pin) Set(on bool) error {
	l := gpio.Low
	if on {
		l = gpio.High
	}
	return p.p.Out(l)
}
