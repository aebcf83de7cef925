// internal/bus/bus.go

// Package bus provides register transports for the converter driver.
//
// Each transport addresses 8-bit registers of 7-bit bus devices. Several
// converters may share one physical transport; wrap it in Locked so that
// register transactions from different converters do not interleave.
package bus

import (
	"sync"
)

// Transport is a register bus with a device probe.
type Transport interface {
	WriteRegister(addr uint16, reg uint8, v byte) error
	ReadRegister(addr uint16, reg uint8) (byte, error)
	Probe(addr uint16) (bool, error)
	Close() error
}

// Locked serializes access to a shared Transport.
type Locked struct {
	mu sync.Mutex
	t  Transport
}

// NewLocked wraps t.
func NewLocked(t Transport) *Locked {
	return &Locked{t: t}
}

func (l *Locked) WriteRegister(addr uint16, reg uint8, v byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.WriteRegister(addr, reg, v)
}

func (l *Locked) ReadRegister(addr uint16, reg uint8) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.ReadRegister(addr, reg)
}

func (l *Locked) Probe(addr uint16) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Probe(addr)
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Close()
}

// Unwrap returns the wrapped transport.
func (l *Locked) Unwrap() Transport { return l.t }
