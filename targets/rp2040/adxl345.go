//go:build rp2040

package main

import (
	"tinygo.org/x/drivers/adxl345"

	"softi2c/core"
)

// accelerometer is an optional ADXL345 on the demo bus
var accelerometer *adxl345.Device

// initAccelerometer configures an ADXL345 if one answers at its default
// address
func initAccelerometer(bus *core.Bus, id core.I2CBusID) {
	found, err := bus.Probe(adxl345.AddressLow)
	exportEvents()
	if err != nil || !found {
		return
	}
	db, err := core.MustI2C().DriverBus(id)
	if err != nil {
		return
	}
	dev := adxl345.New(db)
	dev.Configure()
	exportEvents()
	accelerometer = &dev
	core.DebugPrintln("[I2C] adxl345 online")
}

func pollAccelerometer() {
	if accelerometer == nil {
		return
	}
	x, y, z := accelerometer.ReadRawAcceleration()
	exportEvents()
	core.DebugPrintln("[ADXL] " + core.Itoa(int(x)) + " " + core.Itoa(int(y)) + " " + core.Itoa(int(z)))
}
