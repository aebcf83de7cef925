// internal/tps55289/fake_test.go
package tps55289

import (
	"errors"
	"fmt"
	"testing"
)

// ---- fake bus + pin ----

type fakeBus struct {
	regs   [numRegisters]byte
	events []string

	failWrite   map[uint8]bool
	failRead    bool
	writes      int
	statusReads int
}

var errFakeBus = errors.New("fake bus: nack")

func newFakeBus() *fakeBus {
	return &fakeBus{regs: resetValues, failWrite: map[uint8]bool{}}
}

func (f *fakeBus) WriteRegister(addr uint16, reg uint8, v byte) error {
	f.events = append(f.events, fmt.Sprintf("w%d=%02x", reg, v))
	if f.failWrite[reg] {
		return errFakeBus
	}
	f.writes++
	f.regs[reg] = v
	return nil
}

func (f *fakeBus) ReadRegister(addr uint16, reg uint8) (byte, error) {
	if f.failRead {
		return 0, errFakeBus
	}
	v := f.regs[reg]
	if reg == RegStatus {
		// fault bits clear on read, as on the chip
		f.statusReads++
		f.regs[reg] &^= 0xE0
	}
	return v, nil
}

type fakePin struct {
	bus  *fakeBus
	on   bool
	fail bool
}

func (p *fakePin) Set(on bool) error {
	p.bus.events = append(p.bus.events, fmt.Sprintf("pin=%v", on))
	if p.fail {
		return errors.New("fake pin: stuck")
	}
	p.on = on
	return nil
}

func newTestDevice(t *testing.T, mutate ...func(*Options)) (*Device, *fakeBus, *fakePin) {
	t.Helper()

	bus := newFakeBus()
	pin := &fakePin{bus: bus}

	opts := DefaultOptions()
	for _, fn := range mutate {
		fn(&opts)
	}

	d, err := New(bus, pin, opts)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return d, bus, pin
}

func lastEvents(f *fakeBus, n int) []string {
	if len(f.events) < n {
		return f.events
	}
	return f.events[len(f.events)-n:]
}
