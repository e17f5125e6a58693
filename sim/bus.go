// Package sim is a host-side I2C bus: two open-drain lines with pull-ups, a
// timer that advances when the master busy-waits, and simulated secondaries.
// Everything runs on the caller's goroutine, so a test is deterministic.
package sim

import (
	"softi2c/core"
	"softi2c/trace"
)

// Device is a bus participant that reacts to line edges
type Device interface {
	// Attach hands the device its connection to the bus
	Attach(p *Port)

	// Edge is called after line changed to level
	Edge(line core.Line, level bool)

	// Step is called once per simulated time unit
	Step()
}

type edge struct {
	line  core.Line
	level bool
}

// Bus is a wired-AND pair of lines. A line is low while any participant
// pulls it low.
type Bus struct {
	now     uint32
	pulls   [][2]bool
	level   [2]bool
	devices []Device
	rec     *trace.Recorder

	pending     []edge
	dispatching bool
}

// NewBus creates an idle bus
func NewBus() *Bus {
	return &Bus{
		level: [2]bool{true, true},
		rec:   trace.NewRecorder(),
	}
}

// Recorder returns the line trace
func (b *Bus) Recorder() *trace.Recorder {
	return b.rec
}

// Now returns the simulated time
func (b *Bus) Now() uint32 {
	return b.now
}

// Level returns the current level of line
func (b *Bus) Level(line core.Line) bool {
	return b.level[line]
}

// Idle reports whether both lines are high
func (b *Bus) Idle() bool {
	return b.level[core.SDA] && b.level[core.SCL]
}

// Pin adds a master-side pin on line
func (b *Bus) Pin(line core.Line) *Pin {
	return &Pin{bus: b, id: b.newDriver(), line: line}
}

// Pins returns a fresh SDA and SCL pin pair
func (b *Bus) Pins() (sda, scl *Pin) {
	return b.Pin(core.SDA), b.Pin(core.SCL)
}

// Attach connects d to the bus
func (b *Bus) Attach(d Device) {
	b.devices = append(b.devices, d)
	d.Attach(&Port{bus: b, id: b.newDriver()})
}

// Advance moves simulated time forward by one unit
func (b *Bus) Advance() {
	b.now++
	for _, d := range b.devices {
		d.Step()
	}
}

func (b *Bus) newDriver() int {
	b.pulls = append(b.pulls, [2]bool{})
	return len(b.pulls) - 1
}

// pull sets whether driver id holds line low and propagates any edge
func (b *Bus) pull(id int, line core.Line, low bool) {
	b.pulls[id][line] = low
	level := true
	for _, p := range b.pulls {
		if p[line] {
			level = false
			break
		}
	}
	if level == b.level[line] {
		return
	}
	b.level[line] = level
	b.rec.Record(b.now, b.level[core.SDA], b.level[core.SCL])
	b.pending = append(b.pending, edge{line: line, level: level})

	// Edges raised by a device reaction are delivered after the current one
	if b.dispatching {
		return
	}
	b.dispatching = true
	for len(b.pending) > 0 {
		e := b.pending[0]
		b.pending = b.pending[1:]
		for _, d := range b.devices {
			d.Edge(e.line, e.level)
		}
	}
	b.dispatching = false
}

// Port is a device's connection to the bus
type Port struct {
	bus *Bus
	id  int
}

// Pull holds line low, or releases it
func (p *Port) Pull(line core.Line, low bool) {
	p.bus.pull(p.id, line, low)
}

// Level returns the current level of line
func (p *Port) Level(line core.Line) bool {
	return p.bus.level[line]
}

// Now returns the simulated time
func (p *Port) Now() uint32 {
	return p.bus.now
}

// Pin is a master-side open-drain pin
type Pin struct {
	bus  *Bus
	id   int
	line core.Line
	pull bool // internal pull-up requested
}

var _ core.OpenDrainPin = (*Pin)(nil)

func (p *Pin) Low() {
	p.bus.pull(p.id, p.line, true)
}

func (p *Pin) High() {
	p.pull = true
	p.bus.pull(p.id, p.line, false)
}

func (p *Pin) HiZ() {
	p.pull = false
	p.bus.pull(p.id, p.line, false)
}

func (p *Pin) Get() bool {
	return p.bus.level[p.line]
}

// PullUp reports whether the last release asked for the internal pull-up
func (p *Pin) PullUp() bool {
	return p.pull
}
