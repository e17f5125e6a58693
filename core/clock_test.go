package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePin records the last open-drain request
type fakePin struct {
	low   bool
	calls int
}

func (p *fakePin) Low() {
	p.low = true
	p.calls++
}

func (p *fakePin) High() {
	p.low = false
	p.calls++
}

func (p *fakePin) HiZ() {
	p.low = false
	p.calls++
}

func (p *fakePin) Get() bool {
	return !p.low
}

// manualTicks is a tick source fired by hand
type manualTicks struct {
	period  uint32
	handler func()
	starts  int
	stops   int
}

func (m *manualTicks) CounterHz() uint32       { return 1000000 }
func (m *manualTicks) MaxPeriod() uint32       { return 0xFFFF }
func (m *manualTicks) SetPeriod(counts uint32) { m.period = counts }
func (m *manualTicks) Stop()                   { m.stops++ }

func (m *manualTicks) Start(handler func()) {
	m.handler = handler
	m.starts++
}

func newTestGenerator() (*ClockGenerator, *ClockState, *fakePin, *manualTicks) {
	sda, scl := &fakePin{}, &fakePin{}
	l := &lines{pins: [2]OpenDrainPin{sda, scl}}
	state := &ClockState{phase: phaseHigh}
	ticks := &manualTicks{}
	return newClockGenerator(state, ticks, l), state, scl, ticks
}

func TestClockGeneratorToggles(t *testing.T) {
	gen, state, scl, ticks := newTestGenerator()
	require.NoError(t, gen.Configure(StandardMode))
	assert.True(t, gen.Configured())
	assert.Equal(t, uint32(5), ticks.period)

	// Disabled: SCL stays released and the phase does not move
	ticks.handler()
	assert.True(t, state.High())
	assert.False(t, scl.low)

	starts := ticks.starts
	gen.Enable()
	assert.True(t, state.Enabled())
	assert.Equal(t, starts+1, ticks.starts, "Enable restarts the period")
	assert.Equal(t, uint32(5), ticks.period)
	for i := 0; i < 6; i++ {
		ticks.handler()
		assert.Equal(t, state.High(), !scl.low, "phase and SCL disagree after tick %d", i)
	}
	assert.Equal(t, uint32(7), state.Ticks())

	ticks.handler() // low
	gen.Disable()
	assert.False(t, state.Enabled())
	assert.True(t, state.High())
	assert.False(t, scl.low)
}

func TestClockGeneratorHold(t *testing.T) {
	gen, state, scl, ticks := newTestGenerator()
	require.NoError(t, gen.Configure(StandardMode))
	gen.Enable()

	ticks.handler()
	ticks.handler()
	require.True(t, state.High())

	gen.hold()
	ticks.handler()
	assert.True(t, state.High(), "held clock must not fall")
	assert.False(t, scl.low)

	gen.resume()
	ticks.handler()
	assert.False(t, state.High())
	assert.True(t, scl.low)
}

func TestClockGeneratorPark(t *testing.T) {
	gen, state, scl, ticks := newTestGenerator()
	require.NoError(t, gen.Configure(StandardMode))
	gen.Enable()
	ticks.handler()
	require.True(t, scl.low)

	starts, stops := ticks.starts, ticks.stops
	gen.park()
	assert.False(t, state.Enabled())
	assert.True(t, state.High())
	assert.False(t, scl.low)
	assert.Equal(t, starts+1, ticks.starts)
	assert.Equal(t, stops+1, ticks.stops)
	assert.Equal(t, uint32(5), ticks.period)

	// Parked ticks still count, so a caller can time a half period
	before := state.Ticks()
	ticks.handler()
	assert.Equal(t, before+1, state.Ticks())
	assert.False(t, scl.low)
}

func TestClockGeneratorRejectsFrequency(t *testing.T) {
	gen, _, _, ticks := newTestGenerator()
	assert.ErrorIs(t, gen.Configure(0), ErrUnsupportedFrequency)
	assert.False(t, gen.Configured())
	assert.Zero(t, ticks.starts)
	assert.Zero(t, ticks.stops)
}

func TestLinesOpenDrain(t *testing.T) {
	sda, scl := &fakePin{}, &fakePin{}
	l := &lines{pins: [2]OpenDrainPin{sda, scl}}

	l.drive(SDA, false)
	assert.True(t, sda.low)
	l.drive(SDA, true)
	assert.False(t, sda.low)

	l.drive(SCL, false)
	calls := scl.calls
	assert.False(t, l.sample(SCL))
	assert.True(t, scl.low, "sample leaves the line as it is")
	assert.Equal(t, calls, scl.calls)
	assert.True(t, l.read(SCL), "read releases before sampling")
	assert.False(t, scl.low)
	assert.Equal(t, "SCL", SCL.String())
	assert.Equal(t, "SDA", SDA.String())
}
