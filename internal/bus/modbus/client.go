// internal/bus/modbus/client.go

// Package modbus reaches converters behind a Modbus-to-I2C gateway.
//
// The gateway exposes the eight device registers of each converter as holding
// registers starting at RegisterBase (low byte significant) and the EN lines
// as coils. The Modbus unit id selects the converter: a Unit view or a
// configured UnitID fixes it, otherwise the I2C address doubles as the unit id.
package modbus

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Config is the gateway connection.
type Config struct {
	// Endpoint is "host:port" for Modbus TCP or a serial device path
	// ("/dev/ttyUSB0", optionally prefixed "rtu://") for Modbus RTU.
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration

	BaudRate int // RTU only, default 19200

	RegisterBase uint16
}

// registerClient is the part of modbus.Client the gateway needs.
type registerClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteSingleRegister(address, value uint16) ([]byte, error)
	WriteSingleCoil(address, value uint16) ([]byte, error)
}

// Client is one gateway connection. It serializes requests because it mutates
// the handler unit id per request, so converters behind different units of
// one gateway share its lock.
type Client struct {
	mu      sync.Mutex
	cfg     Config
	handler io.Closer
	setUnit func(id byte)
	client  registerClient
}

// Dial connects to the gateway.
func Dial(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("bus modbus: endpoint required")
	}

	if path, ok := serialPath(cfg.Endpoint); ok {
		h := modbus.NewRTUClientHandler(path)
		h.BaudRate = cfg.BaudRate
		if h.BaudRate == 0 {
			h.BaudRate = 19200
		}
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = cfg.Timeout

		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("bus modbus: connect %s: %w", path, err)
		}
		return newClient(cfg, h, func(id byte) { h.SlaveId = id }, modbus.NewClient(h)), nil
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("bus modbus: connect %s: %w", cfg.Endpoint, err)
	}
	return newClient(cfg, h, func(id byte) { h.SlaveId = id }, modbus.NewClient(h)), nil
}

func newClient(cfg Config, h io.Closer, setUnit func(byte), c registerClient) *Client {
	return &Client{cfg: cfg, handler: h, setUnit: setUnit, client: c}
}

func serialPath(endpoint string) (string, bool) {
	if p, ok := strings.CutPrefix(endpoint, "rtu://"); ok {
		return p, true
	}
	return endpoint, strings.HasPrefix(endpoint, "/dev/")
}

// Unit returns a view of the gateway that sends every request to unit id.
// Id 0 keeps the I2C address as the unit id. All views of one Client share
// its connection and its lock; closing a view is a no-op.
func (c *Client) Unit(id uint8) *Unit {
	return &Unit{c: c, id: id}
}

func (c *Client) unit(id uint8, addr uint16) byte {
	if id != 0 {
		return id
	}
	if c.cfg.UnitID != 0 {
		return c.cfg.UnitID
	}
	return byte(addr)
}

func (c *Client) writeRegister(unit byte, reg uint8, v byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setUnit(unit)
	_, err := c.client.WriteSingleRegister(c.cfg.RegisterBase+uint16(reg), uint16(v))
	return err
}

func (c *Client) readRegister(unit byte, reg uint8) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setUnit(unit)
	b, err := c.client.ReadHoldingRegisters(c.cfg.RegisterBase+uint16(reg), 1)
	if err != nil {
		return 0, err
	}
	if len(b) != 2 {
		return 0, fmt.Errorf("bus modbus: read register payload %d bytes, want 2", len(b))
	}
	return b[1], nil
}

// probe reads the first device register. Any Modbus error, including a
// gateway exception for an unreachable target, reads as absent.
func (c *Client) probe(unit byte) (bool, error) {
	if _, err := c.readRegister(unit, 0); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Client) WriteRegister(addr uint16, reg uint8, v byte) error {
	return c.writeRegister(c.unit(0, addr), reg, v)
}

func (c *Client) ReadRegister(addr uint16, reg uint8) (byte, error) {
	return c.readRegister(c.unit(0, addr), reg)
}

func (c *Client) Probe(addr uint16) (bool, error) {
	return c.probe(c.unit(0, addr))
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// Pin returns the EN line of the converter at addr, wired to coil.
func (c *Client) Pin(addr, coil uint16) *Pin {
	return &Pin{c: c, unit: c.unit(0, addr), coil: coil}
}

// Unit is one gateway unit on a shared Client.
type Unit struct {
	c  *Client
	id uint8
}

func (u *Unit) WriteRegister(addr uint16, reg uint8, v byte) error {
	return u.c.writeRegister(u.c.unit(u.id, addr), reg, v)
}

func (u *Unit) ReadRegister(addr uint16, reg uint8) (byte, error) {
	return u.c.readRegister(u.c.unit(u.id, addr), reg)
}

func (u *Unit) Probe(addr uint16) (bool, error) {
	return u.c.probe(u.c.unit(u.id, addr))
}

// Close leaves the shared connection open; the Client owns it.
func (u *Unit) Close() error { return nil }

// Pin returns the EN line of the converter at addr, wired to coil.
func (u *Unit) Pin(addr, coil uint16) *Pin {
	return &Pin{c: u.c, unit: u.c.unit(u.id, addr), coil: coil}
}

// Pin drives the gateway coil wired to a converter EN input.
type Pin struct {
	c    *Client
	unit byte
	coil uint16
}

func (p *Pin) Set(on bool) error {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()

	v := uint16(0x0000)
	if on {
		v = 0xFF00
	}
	p.c.setUnit(p.unit)
	_, err := p.c.client.WriteSingleCoil(p.coil, v)
	return err
}
