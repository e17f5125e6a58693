package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers/adxl345"

	"softi2c/core"
	"softi2c/sim"
	"softi2c/trace"
)

func TestTxWriteThenRead(t *testing.T) {
	dev := sim.NewRegister(0x50)
	copy(dev.Regs[0x20:], []byte{0xCA, 0xFE})
	rig := newRig(t, dev)

	require.NoError(t, rig.Master.Tx(0x50, []byte{0x10, 1, 2, 3}, nil))
	assert.Equal(t, []byte{1, 2, 3}, dev.Regs[0x10:0x13])

	r := make([]byte, 2)
	require.NoError(t, rig.Master.Tx(0x50, []byte{0x20}, r))
	assert.Equal(t, []byte{0xCA, 0xFE}, r)

	assert.ErrorIs(t, rig.Master.Tx(0x80, nil, nil), core.ErrInvalidAddress)
	assertClean(t, rig)
}

func TestTxAddressOnly(t *testing.T) {
	dev := sim.NewEcho(0x2A)
	rig := newRig(t, dev)

	require.NoError(t, rig.Master.Tx(0x2A, nil, nil))
	require.NoError(t, rig.Master.WriteRegister(0x2A, 0x61, []byte{0x62}))

	r := make([]byte, 2)
	require.NoError(t, rig.Master.Tx(0x2A, nil, r))
	assert.Equal(t, []byte{0x61, 0x62}, r)
	assertClean(t, rig)
}

func TestTxNackReleasesBus(t *testing.T) {
	rig := newRig(t)

	err := rig.Master.ReadRegister(0x44, 0x00, make([]byte, 4))
	require.ErrorIs(t, err, core.ErrNoAck)
	assert.Equal(t, 1, trace.Count(rig.Samples(), trace.KindStop))
	assertClean(t, rig)
}

func TestADXL345OverSoftBus(t *testing.T) {
	dev := sim.NewRegister(adxl345.AddressLow)
	dev.Regs[0x00] = 0xE5 // DEVID
	copy(dev.Regs[0x32:], []byte{0x10, 0x00, 0xF0, 0xFF, 0x00, 0x01})
	rig := newRig(t, dev)

	sensor := adxl345.New(rig.Master)
	sensor.Configure()
	assert.NotZero(t, dev.Regs[0x2D]&0x08, "measure bit not set in POWER_CTL")

	x, y, z := sensor.ReadRawAcceleration()
	assert.EqualValues(t, 16, x)
	assert.EqualValues(t, -16, y)
	assert.EqualValues(t, 256, z)
	assertClean(t, rig)
}

func TestSoftI2CDriver(t *testing.T) {
	dev := sim.NewRegister(0x3C)
	dev.Regs[0x07] = 0x5A
	rig := newRig(t, dev)

	d := core.NewSoftI2CDriver()
	d.AddBus(0, rig.Master)
	core.SetI2CDriver(d)
	defer core.SetI2CDriver(nil)

	drv := core.MustI2C()
	require.NoError(t, drv.ConfigureBus(0, core.FastMode))
	assert.Equal(t, uint32(2), rig.Timer.Period())

	require.NoError(t, drv.Write(0, 0x3C, []byte{0x01, 0xAB}))
	assert.Equal(t, byte(0xAB), dev.Regs[0x01])

	got, err := drv.Read(0, 0x3C, []byte{0x07}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5A}, got)

	bus, err := drv.DriverBus(0)
	require.NoError(t, err)
	buf := make([]byte, 1)
	require.NoError(t, bus.Tx(0x3C, []byte{0x01}, buf))
	assert.Equal(t, byte(0xAB), buf[0])

	_, err = drv.Read(1, 0x3C, nil, 1)
	assert.Error(t, err)
	assert.Error(t, drv.ConfigureBus(7, core.StandardMode))
}

func TestMustI2CPanicsWithoutDriver(t *testing.T) {
	core.SetI2CDriver(nil)
	assert.Panics(t, func() { core.MustI2C() })
}
