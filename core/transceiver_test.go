package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stretchedPin is an SCL pin a secondary holds low for the next heldFor
// reads. Every read after the first lets a pending tick in first, the way
// the interrupt lands right after a critical section ends.
type stretchedPin struct {
	fakePin
	heldFor int
	reads   int
	tick    func()
}

func (p *stretchedPin) Get() bool {
	p.reads++
	if p.tick != nil && p.reads > 1 {
		p.tick()
	}
	if p.heldFor > 0 {
		p.heldFor--
		return false
	}
	return !p.low
}

func TestAwaitHighFreezesClockOnLowSCL(t *testing.T) {
	sda, scl := &fakePin{}, &stretchedPin{}
	ticks := &manualTicks{}
	b, err := NewBus(DefaultConfig(), sda, scl, ticks)
	require.NoError(t, err)
	require.NoError(t, b.Init(StandardMode))
	require.NoError(t, b.Start())

	ticks.handler() // SCL low
	ticks.handler() // SCL released, phase high
	require.True(t, b.clock.High())

	scl.heldFor = 3
	scl.reads = 0
	scl.tick = ticks.handler
	starts := ticks.starts

	var sampledHigh, sampledEnabled bool
	err = b.awaitHigh(func() {
		sampledHigh = b.clock.High()
		sampledEnabled = b.clock.Enabled()
	})
	require.NoError(t, err)

	// Ticks during the stretch must not have driven SCL or moved the phase
	assert.True(t, sampledHigh)
	assert.False(t, sampledEnabled, "sample must run before the clock may fall")
	assert.False(t, scl.low)
	assert.Equal(t, 4, scl.reads)

	// Resuming restarts the period with a full high phase ahead
	assert.True(t, b.clock.Enabled())
	assert.True(t, b.clock.High())
	assert.Equal(t, starts+1, ticks.starts)

	var stretched bool
	for _, evt := range b.Events().Snapshot() {
		if evt.Kind == EvtStretch {
			stretched = true
		}
	}
	assert.True(t, stretched)
}

func TestAwaitHighSamplesInPhase(t *testing.T) {
	sda, scl := &fakePin{}, &fakePin{}
	ticks := &manualTicks{}
	b, err := NewBus(DefaultConfig(), sda, scl, ticks)
	require.NoError(t, err)
	require.NoError(t, b.Init(StandardMode))
	require.NoError(t, b.Start())
	ticks.handler()
	ticks.handler()

	calls := scl.calls
	var sampled bool
	require.NoError(t, b.awaitHigh(func() { sampled = b.lines.sample(SDA) }))
	assert.False(t, sampled, "SDA is still driven low after START")
	assert.True(t, b.clock.Enabled())
	assert.Equal(t, calls, scl.calls, "read-back must not touch SCL")
}
