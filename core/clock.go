package core

import "sync/atomic"

// Clock phase values
const (
	phaseLow  = 0 // SCL driven low
	phaseHigh = 1 // SCL released
)

// ClockState is the flag pair shared between the tick interrupt and the
// transceiver. The interrupt is its only writer while enabled.
type ClockState struct {
	enabled uint32
	phase   uint32
	ticks   uint32
}

// Enabled reports whether the tick interrupt is toggling SCL
func (s *ClockState) Enabled() bool {
	return atomic.LoadUint32(&s.enabled) != 0
}

// High reports whether the clock phase is "SCL released"
func (s *ClockState) High() bool {
	return atomic.LoadUint32(&s.phase) == phaseHigh
}

// Ticks returns the number of interrupts seen since Init
func (s *ClockState) Ticks() uint32 {
	return atomic.LoadUint32(&s.ticks)
}

func (s *ClockState) load() uint32 {
	return atomic.LoadUint32(&s.phase)
}

// ClockGenerator drives SCL from a TickSource
type ClockGenerator struct {
	state  *ClockState
	source TickSource
	lines  *lines
	counts uint32
}

func newClockGenerator(state *ClockState, source TickSource, l *lines) *ClockGenerator {
	return &ClockGenerator{state: state, source: source, lines: l}
}

// Configure installs the timer period for busHz. On error the timer is left
// as it was.
func (c *ClockGenerator) Configure(busHz uint32) error {
	counts, err := HalfPeriodCounts(c.source.CounterHz(), c.source.MaxPeriod(), busHz)
	if err != nil {
		return err
	}
	c.source.Stop()
	c.counts = counts
	c.source.SetPeriod(counts)
	c.source.Start(c.tick)
	return nil
}

// Configured reports whether Configure has succeeded
func (c *ClockGenerator) Configured() bool {
	return c.counts != 0
}

// Enable starts toggling SCL. The tick source is restarted and the phase
// starts high, so the first edge is a falling one a full half period after
// the call.
func (c *ClockGenerator) Enable() {
	state := disableInterrupts()
	c.restart()
	atomic.StoreUint32(&c.state.phase, phaseHigh)
	atomic.StoreUint32(&c.state.enabled, 1)
	restoreInterrupts(state)
}

// Disable stops toggling and releases SCL
func (c *ClockGenerator) Disable() {
	state := disableInterrupts()
	atomic.StoreUint32(&c.state.enabled, 0)
	atomic.StoreUint32(&c.state.phase, phaseHigh)
	c.lines.release(SCL)
	restoreInterrupts(state)
}

// park stops toggling with SCL released and restarts the period, so the
// next tick comes a full half period later
func (c *ClockGenerator) park() {
	state := disableInterrupts()
	atomic.StoreUint32(&c.state.enabled, 0)
	atomic.StoreUint32(&c.state.phase, phaseHigh)
	c.lines.release(SCL)
	c.restart()
	restoreInterrupts(state)
}

// restart reloads the tick source; the caller masks interrupts
func (c *ClockGenerator) restart() {
	c.source.Stop()
	c.source.SetPeriod(c.counts)
	c.source.Start(c.tick)
}

// hold freezes the clock in its high phase while a secondary stretches SCL
func (c *ClockGenerator) hold() {
	state := disableInterrupts()
	atomic.StoreUint32(&c.state.enabled, 0)
	restoreInterrupts(state)
}

// resume restarts toggling after a stretch. The high phase gets a full half
// period from the moment the secondary let go.
func (c *ClockGenerator) resume() {
	c.Enable()
}

// tick runs in interrupt context
func (c *ClockGenerator) tick() {
	atomic.AddUint32(&c.state.ticks, 1)
	if atomic.LoadUint32(&c.state.enabled) == 0 {
		// Idle bus: SCL stays released
		c.lines.release(SCL)
		return
	}
	if atomic.LoadUint32(&c.state.phase) == phaseHigh {
		atomic.StoreUint32(&c.state.phase, phaseLow)
		c.lines.drive(SCL, false)
	} else {
		atomic.StoreUint32(&c.state.phase, phaseHigh)
		c.lines.release(SCL)
	}
}
