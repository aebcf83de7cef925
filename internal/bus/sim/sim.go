// internal/bus/sim/sim.go

// Package sim is an in-memory register bus populated with simulated
// converters. It backs the "sim" bus kind and driver tests above the bus
// layer.
package sim

import (
	"errors"
	"fmt"
	"sync"
)

const (
	numRegisters = 8
	regStatus    = 0x07

	// fault bits latch until STATUS is read
	statusFaultMask = 0xE0
)

// power-on register contents
var resetValues = [numRegisters]byte{0x00, 0x00, 0xE4, 0x01, 0x03, 0xE0, 0x20, 0x00}

// ErrNoDevice is returned for transactions to an empty address.
var ErrNoDevice = errors.New("sim: no device at address")

// Device is one simulated converter.
type Device struct {
	mu   sync.Mutex
	regs [numRegisters]byte
	en   bool
}

// NewDevice returns a converter in its power-on state.
func NewDevice() *Device {
	return &Device{regs: resetValues}
}

// Registers returns a copy of the register file.
func (d *Device) Registers() [numRegisters]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs
}

// SetStatus latches a STATUS value, e.g. 0x20 for an overvoltage in boost
// mode.
func (d *Device) SetStatus(b byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[regStatus] = b
}

// Output reports whether the converter is switching: EN high and OE set.
func (d *Device) Output() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.en && d.regs[0x06]&0x80 != 0
}

// Set drives the EN line.
func (d *Device) Set(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.en = on
	return nil
}

func (d *Device) write(reg uint8, v byte) error {
	if reg >= numRegisters {
		return fmt.Errorf("sim: register 0x%02x out of range", reg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if reg == regStatus {
		return nil
	}
	d.regs[reg] = v
	return nil
}

func (d *Device) read(reg uint8) (byte, error) {
	if reg >= numRegisters {
		return 0, fmt.Errorf("sim: register 0x%02x out of range", reg)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.regs[reg]
	if reg == regStatus {
		d.regs[reg] &^= statusFaultMask
	}
	return v, nil
}

// Bus routes transactions to the attached devices.
type Bus struct {
	mu      sync.Mutex
	devices map[uint16]*Device
	closed  bool
}

func New() *Bus {
	return &Bus{devices: map[uint16]*Device{}}
}

// Attach places dev at addr, replacing any previous device.
func (b *Bus) Attach(addr uint16, dev *Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[addr] = dev
}

// Device returns the device at addr, attaching a new one if the address is
// empty.
func (b *Bus) Device(addr uint16) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[addr]
	if !ok {
		d = NewDevice()
		b.devices[addr] = d
	}
	return d
}

func (b *Bus) lookup(addr uint16) (*Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("sim: bus closed")
	}
	d, ok := b.devices[addr]
	if !ok {
		return nil, fmt.Errorf("%w 0x%02x", ErrNoDevice, addr)
	}
	return d, nil
}

func (b *Bus) WriteRegister(addr uint16, reg uint8, v byte) error {
	d, err := b.lookup(addr)
	if err != nil {
		return err
	}
	return d.write(reg, v)
}

func (b *Bus) ReadRegister(addr uint16, reg uint8) (byte, error) {
	d, err := b.lookup(addr)
	if err != nil {
		return 0, err
	}
	return d.read(reg)
}

func (b *Bus) Probe(addr uint16) (bool, error) {
	_, err := b.lookup(addr)
	if errors.Is(err, ErrNoDevice) {
		return false, nil
	}
	return err == nil, err
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
