package sim

import (
	"errors"

	"softi2c/core"
	"softi2c/trace"
)

var errNoSuchPin = errors.New("sim: pin not wired")

// Driver is a core.OpenDrainDriver that wires two pin descriptors to the
// simulated lines
type Driver struct {
	bus *Bus
	sda core.PinID
	scl core.PinID
}

var _ core.OpenDrainDriver = (*Driver)(nil)

// NewDriver wires sda and scl to bus
func NewDriver(bus *Bus, sda, scl core.PinID) *Driver {
	return &Driver{bus: bus, sda: sda, scl: scl}
}

func (d *Driver) Claim(id core.PinID) (core.OpenDrainPin, error) {
	switch id {
	case d.sda:
		return d.bus.Pin(core.SDA), nil
	case d.scl:
		return d.bus.Pin(core.SCL), nil
	}
	return nil, errNoSuchPin
}

// Rig is a master wired to a simulated bus
type Rig struct {
	Wires  *Bus
	Timer  *Timer
	Master *core.Bus
}

// NewRig builds a master from cfg, attaches devices and initialises the
// bus at cfg.Frequency
func NewRig(cfg core.Config, devices ...Device) (*Rig, error) {
	wires := NewBus()
	for _, d := range devices {
		wires.Attach(d)
	}
	sda, scl, err := core.ClaimPins(NewDriver(wires, cfg.SDA, cfg.SCL), cfg)
	if err != nil {
		return nil, err
	}
	timer := NewTimer(wires)
	master, err := core.NewBus(cfg, sda, scl, timer)
	if err != nil {
		return nil, err
	}
	if err := master.Init(cfg.Frequency); err != nil {
		return nil, err
	}
	return &Rig{Wires: wires, Timer: timer, Master: master}, nil
}

// Samples returns the recorded line trace
func (r *Rig) Samples() []trace.Sample {
	return r.Wires.Recorder().Samples()
}
