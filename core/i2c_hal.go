package core

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// I2CBusID identifies a specific software bus (e.g., bus 0 on GP4/GP5)
type I2CBusID uint8

// I2CDriver is the abstract I2C interface that board code uses.
type I2CDriver interface {
	// ConfigureBus initializes a specific bus with the given frequency.
	// Returns error if bus ID is invalid or configuration fails.
	ConfigureBus(bus I2CBusID, frequencyHz uint32) error

	// Write transmits data to a device at the given address on the specified bus.
	// The first byte is the register address.
	Write(bus I2CBusID, addr Address, data []byte) error

	// Read reads data from a device, optionally writing a register address first.
	// If regData is non-empty, it's transmitted before the read (restart in between).
	Read(bus I2CBusID, addr Address, regData []byte, readLen uint8) ([]byte, error)

	// DriverBus returns the bus in the shape TinyGo device drivers expect.
	DriverBus(bus I2CBusID) (drivers.I2C, error)
}

// Global singleton used by board code.
var i2cDriver I2CDriver

// SetI2CDriver is called by target-specific code to register its driver.
func SetI2CDriver(d I2CDriver) {
	i2cDriver = d
}

// MustI2C returns the configured driver or panics if missing.
func MustI2C() I2CDriver {
	if i2cDriver == nil {
		panic("I2C driver not configured")
	}
	return i2cDriver
}

var errUnknownBus = errors.New("I2C bus not registered")

// SoftI2CDriver implements I2CDriver on software buses
type SoftI2CDriver struct {
	mu    sync.Mutex
	buses map[I2CBusID]*Bus
}

// NewSoftI2CDriver constructs the driver
func NewSoftI2CDriver() *SoftI2CDriver {
	return &SoftI2CDriver{
		buses: make(map[I2CBusID]*Bus),
	}
}

// AddBus registers a bus under id
func (d *SoftI2CDriver) AddBus(id I2CBusID, bus *Bus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buses[id] = bus
}

func (d *SoftI2CDriver) bus(id I2CBusID) (*Bus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buses[id]
	if !ok {
		return nil, errUnknownBus
	}
	return b, nil
}

// ConfigureBus starts the clock interrupt of a bus at frequencyHz
func (d *SoftI2CDriver) ConfigureBus(id I2CBusID, frequencyHz uint32) error {
	b, err := d.bus(id)
	if err != nil {
		return err
	}
	return b.Init(frequencyHz)
}

// Write transmits data; data[0] is the register address
func (d *SoftI2CDriver) Write(id I2CBusID, addr Address, data []byte) error {
	b, err := d.bus(id)
	if err != nil {
		return err
	}
	return b.Tx(uint16(addr), data, nil)
}

// Read reads readLen bytes, writing regData first when present
func (d *SoftI2CDriver) Read(id I2CBusID, addr Address, regData []byte, readLen uint8) ([]byte, error) {
	b, err := d.bus(id)
	if err != nil {
		return nil, err
	}
	readBuf := make([]byte, readLen)
	if err := b.Tx(uint16(addr), regData, readBuf); err != nil {
		return nil, err
	}
	return readBuf, nil
}

// DriverBus returns the bus for use with tinygo.org/x/drivers packages
func (d *SoftI2CDriver) DriverBus(id I2CBusID) (drivers.I2C, error) {
	b, err := d.bus(id)
	if err != nil {
		return nil, err
	}
	return b, nil
}
