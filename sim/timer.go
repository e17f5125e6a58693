package sim

import "softi2c/core"

// Simulated timer defaults, matching a 1MHz microsecond counter
const (
	DefaultCounterHz = 1000000
	DefaultMaxPeriod = 0xFFFF
)

// Timer is a core.TickSource that counts one unit every time the master
// spins. Its handler runs inline, the way an interrupt preempts the
// busy-wait loop on hardware.
type Timer struct {
	bus       *Bus
	counterHz uint32
	maxPeriod uint32
	period    uint32
	count     uint32
	handler   func()
	running   bool
	halted    bool
	fired     uint32
}

var (
	_ core.TickSource = (*Timer)(nil)
	_ core.Spinner    = (*Timer)(nil)
)

// NewTimer creates a timer that advances bus time
func NewTimer(bus *Bus) *Timer {
	return &Timer{bus: bus, counterHz: DefaultCounterHz, maxPeriod: DefaultMaxPeriod}
}

// WithRange overrides the counter rate and the largest period
func (t *Timer) WithRange(counterHz, maxPeriod uint32) *Timer {
	t.counterHz, t.maxPeriod = counterHz, maxPeriod
	return t
}

func (t *Timer) CounterHz() uint32 { return t.counterHz }
func (t *Timer) MaxPeriod() uint32 { return t.maxPeriod }

func (t *Timer) SetPeriod(counts uint32) {
	t.period = counts
	t.count = 0
}

func (t *Timer) Start(handler func()) {
	t.handler = handler
	t.count = 0
	t.running = true
}

func (t *Timer) Stop() {
	t.running = false
}

// Halt stops interrupts for good, as if the timer hardware died
func (t *Timer) Halt() {
	t.halted = true
}

// Period returns the programmed period
func (t *Timer) Period() uint32 {
	return t.period
}

// Fired returns how many interrupts have run
func (t *Timer) Fired() uint32 {
	return t.fired
}

// Spin advances time by one count and fires the handler when due
func (t *Timer) Spin() {
	t.bus.Advance()
	if !t.running || t.halted || t.period == 0 || t.handler == nil {
		return
	}
	t.count++
	if t.count >= t.period {
		t.count = 0
		t.fired++
		t.handler()
	}
}
