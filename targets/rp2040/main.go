//go:build rp2040

package main

import (
	"machine"
	"time"

	"softi2c/config"
	"softi2c/core"
	"softi2c/protocol"
)

const (
	demoAddress  = 0x41
	demoRegister = 0x81
	demoPause    = 100 * time.Millisecond

	exportBatch = protocol.MessageMax / core.EventFrameMax
)

var (
	board     *config.BoardConfig
	demoBus   *core.Bus
	scratch   *protocol.ScratchOutput
	transport *protocol.Transport

	exportOverflows uint32
)

func main() {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	board = config.DefaultBoardConfig()
	InitDebugUART(board.Debug)
	initAlarm()

	core.SetOpenDrainDriver(&rpOpenDrainDriver{})
	drv := core.NewSoftI2CDriver()
	core.SetI2CDriver(drv)

	name := board.Names()[0]
	cfg, err := board.Bus(name)
	if err != nil {
		halt("[I2C] bad config: " + err.Error())
	}
	sda, scl, err := core.ClaimPins(core.MustOpenDrain(), cfg)
	if err != nil {
		halt("[I2C] pins: " + err.Error())
	}
	demoBus, err = core.NewBus(cfg, sda, scl, busTicks)
	if err != nil {
		halt("[I2C] bus: " + err.Error())
	}
	id := core.I2CBusID(board.Buses[name].ID)
	drv.AddBus(id, demoBus)
	if err := core.MustI2C().ConfigureBus(id, cfg.Frequency); err != nil {
		halt("[I2C] init: " + err.Error())
	}

	scratch = protocol.NewScratchOutput()
	transport = protocol.NewTransport(scratch, nil)

	initAccelerometer(demoBus, id)

	for {
		if err := demoBus.Begin(demoAddress, demoRegister, core.ModeWrite); err != nil {
			core.DebugPrintln("[I2C] demo: " + err.Error())
		}
		demoBus.End()
		exportEvents()

		pollAccelerometer()

		time.Sleep(demoPause)
	}
}

// exportEvents ships events recorded since the last call to the host, in
// batches that always fit the scratch buffer
func exportEvents() {
	if !board.ExportEvents {
		return
	}
	for demoBus.Events().Pending() > 0 {
		demoBus.Events().Export(transport, exportBatch)
		if scratch.Overflowed() {
			// Cannot happen while exportBatch frames fit the buffer
			exportOverflows++
			core.DebugPrintln("[I2C] export overflow " + core.Itoa(int(exportOverflows)))
		} else {
			USBWriteBytes(scratch.Result())
		}
		scratch.Reset()
	}
}

func halt(msg string) {
	core.SetDebugEnabled(true)
	core.DebugPrintln(msg)
	for {
		time.Sleep(time.Second)
	}
}
