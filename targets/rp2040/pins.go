//go:build rp2040

package main

import (
	"machine"

	"softi2c/core"
)

const numGPIO = 30

// odPin drives one GPIO with open-drain semantics. The output latch is
// cleared before the pin is switched to output so a release never glitches
// the line high.
type odPin struct {
	pin machine.Pin
}

func (p odPin) Low() {
	p.pin.Low()
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
}

func (p odPin) High() {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (p odPin) HiZ() {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (p odPin) Get() bool {
	return p.pin.Get()
}

// rpOpenDrainDriver hands out bank 0 GPIOs, each at most once
type rpOpenDrainDriver struct {
	claimed [numGPIO]bool
}

func (d *rpOpenDrainDriver) Claim(id core.PinID) (core.OpenDrainPin, error) {
	if id.Port != 0 || id.Pin >= numGPIO || d.claimed[id.Pin] {
		return nil, core.ErrInvalidPin
	}
	d.claimed[id.Pin] = true
	p := odPin{pin: machine.Pin(id.Pin)}
	p.HiZ()
	return p, nil
}
