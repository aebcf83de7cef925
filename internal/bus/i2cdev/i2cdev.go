// internal/bus/i2cdev/i2cdev.go

// Package i2cdev talks to converters through a Linux /dev/i2c-N character
// device.
package i2cdev

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request selecting the target address of subsequent reads and writes
const i2cSlave = 0x0703

// Bus is a register transport over one i2c-dev node. The selected target
// address is per file descriptor, so transactions are serialized.
type Bus struct {
	mu   sync.Mutex
	f    *os.File
	fd   int
	addr int // -1 until the first transaction
}

// Open opens path, e.g. "/dev/i2c-1".
func Open(path string) (*Bus, error) {
	if path == "" {
		return nil, errors.New("i2cdev: path required")
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: open %s: %w", path, err)
	}
	return &Bus{f: f, fd: int(f.Fd()), addr: -1}, nil
}

func (b *Bus) selectAddr(addr uint16) error {
	if int(addr) == b.addr {
		return nil
	}
	if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
		b.addr = -1
		return fmt.Errorf("i2cdev: select 0x%02x: %w", addr, err)
	}
	b.addr = int(addr)
	return nil
}

func (b *Bus) write(p []byte) error {
	n, err := unix.Write(b.fd, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("i2cdev: short write %d/%d", n, len(p))
	}
	return nil
}

func (b *Bus) read(p []byte) error {
	n, err := unix.Read(b.fd, p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("i2cdev: short read %d/%d", n, len(p))
	}
	return nil
}

func (b *Bus) WriteRegister(addr uint16, reg uint8, v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return err
	}
	return b.write([]byte{reg, v})
}

func (b *Bus) ReadRegister(addr uint16, reg uint8) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return 0, err
	}
	if err := b.write([]byte{reg}); err != nil {
		return 0, err
	}
	var r [1]byte
	if err := b.read(r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// Probe reads register 0 of addr. Only address selection errors are
// returned; a failed transfer means nothing answered. The address pointer is
// set explicitly so a bare read never lands on a clear-on-read register.
func (b *Bus) Probe(addr uint16) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectAddr(addr); err != nil {
		return false, err
	}
	if err := b.write([]byte{0x00}); err != nil {
		return false, nil
	}
	var r [1]byte
	if err := b.read(r[:]); err != nil {
		return false, nil
	}
	return true, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}
