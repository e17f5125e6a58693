package core

// TickSource is a periodic hardware timer interrupt. Boards implement it on
// top of a compare/alarm unit; the prescaler is chosen by the board.
type TickSource interface {
	// CounterHz is the rate the timer counts at after prescaling
	CounterHz() uint32

	// MaxPeriod is the largest compare value the timer can hold
	MaxPeriod() uint32

	// SetPeriod programs the number of counts between interrupts
	SetPeriod(counts uint32)

	// Start begins calling handler from interrupt context once per period
	Start(handler func())

	// Stop halts the interrupt
	Stop()
}

// Spinner is implemented by tick sources that need the waiting side to make
// progress (simulated timers). Spin is called once per busy-wait iteration.
type Spinner interface {
	Spin()
}

// HalfPeriodCounts converts a bus frequency into the timer period that
// produces one SCL edge per interrupt. The result is rounded up so the bus
// never runs faster than requested.
func HalfPeriodCounts(counterHz, maxPeriod, busHz uint32) (uint32, error) {
	if busHz == 0 || counterHz == 0 {
		return 0, ErrUnsupportedFrequency
	}
	edgeHz := uint64(busHz) * 2
	if edgeHz > uint64(counterHz) {
		// Faster than one edge per timer count
		return 0, ErrUnsupportedFrequency
	}
	counts := (uint64(counterHz) + edgeHz - 1) / edgeHz
	if counts == 0 || counts > uint64(maxPeriod) {
		return 0, ErrUnsupportedFrequency
	}
	return uint32(counts), nil
}

// ActualFrequency returns the bus speed a timer period really produces
func ActualFrequency(counterHz, counts uint32) uint32 {
	if counts == 0 {
		return 0
	}
	return counterHz / (2 * counts)
}
