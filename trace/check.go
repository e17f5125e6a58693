package trace

import "strconv"

// Rule identifies a broken line rule
type Rule uint8

const (
	// RuleMidByte is a START or STOP inside a byte frame
	RuleMidByte Rule = iota + 1
	// RuleGlitch is more than one SDA edge during one SCL high phase
	RuleGlitch
	// RuleIdleClock is SCL activity outside a transaction
	RuleIdleClock
	// RuleOpen is a trace that ends inside a transaction or with a line low
	RuleOpen

	// Timing rules, measured by Windows

	// RuleStartSetup is SCL high before a repeated START
	RuleStartSetup
	// RuleStartHold is a START to the first falling SCL edge
	RuleStartHold
	// RuleStopSetup is SCL high before a STOP
	RuleStopSetup
	// RuleBusFree is a STOP to the next START
	RuleBusFree
	// RuleShortHigh is one SCL high phase
	RuleShortHigh
)

func (r Rule) String() string {
	switch r {
	case RuleMidByte:
		return "start/stop inside a byte"
	case RuleGlitch:
		return "SDA changed twice while SCL high"
	case RuleIdleClock:
		return "clock toggled on an idle bus"
	case RuleOpen:
		return "bus not released"
	case RuleStartSetup:
		return "repeated START setup too short"
	case RuleStartHold:
		return "START hold too short"
	case RuleStopSetup:
		return "STOP setup too short"
	case RuleBusFree:
		return "bus free time too short"
	case RuleShortHigh:
		return "SCL high phase too short"
	}
	return "unknown"
}

// Violation is one broken rule at sample index Index
type Violation struct {
	Rule  Rule
	Index int
	T     uint32
}

func (v Violation) String() string {
	return v.Rule.String() + " at t=" + strconv.FormatUint(uint64(v.T), 10)
}

// Check verifies that SDA only changes while SCL is low, apart from START
// and STOP conditions on byte boundaries, and that the trace ends idle.
func Check(samples []Sample) []Violation {
	var (
		out      []Violation
		open     bool
		bits     int
		sdaEdges int
	)
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if prev.SCL != cur.SCL {
			if !open && !cur.SCL {
				out = append(out, Violation{Rule: RuleIdleClock, Index: i, T: cur.T})
			}
			if cur.SCL && open && !conditionAhead(samples, i) {
				bits++
			}
			sdaEdges = 0
			continue
		}
		if prev.SDA == cur.SDA || !cur.SCL {
			continue
		}
		// SDA edge while SCL is high
		sdaEdges++
		if sdaEdges > 1 {
			out = append(out, Violation{Rule: RuleGlitch, Index: i, T: cur.T})
		}
		if open && bits%9 != 0 {
			out = append(out, Violation{Rule: RuleMidByte, Index: i, T: cur.T})
		}
		open = !cur.SDA
		bits = 0
		if !open {
			// A START may follow in the same high phase
			sdaEdges = 0
		}
	}
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		if open || !last.Idle() {
			out = append(out, Violation{Rule: RuleOpen, Index: len(samples) - 1, T: last.T})
		}
	}
	return out
}

// Window is one measured interval ending at sample Index
type Window struct {
	Rule  Rule
	Index int
	T     uint32
	Span  uint32
}

// Windows measures the setup, hold and bus free intervals around every
// condition and the length of every SCL high phase. Intervals whose start
// lies before the trace are skipped.
func Windows(samples []Sample) []Window {
	var (
		out       []Window
		rise      uint32
		riseKnown bool
		startAt   uint32
		startOpen bool
		stopAt    uint32
		stopSeen  bool
	)
	emit := func(r Rule, i int, from uint32) {
		t := samples[i].T
		out = append(out, Window{Rule: r, Index: i, T: t, Span: t - from})
	}
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if prev.SCL != cur.SCL {
			if cur.SCL {
				rise, riseKnown = cur.T, true
				continue
			}
			if startOpen {
				emit(RuleStartHold, i, startAt)
				startOpen = false
			}
			if riseKnown {
				emit(RuleShortHigh, i, rise)
			}
			stopSeen = false
			continue
		}
		if prev.SDA == cur.SDA || !cur.SCL {
			continue
		}
		if !cur.SDA {
			switch {
			case stopSeen:
				emit(RuleBusFree, i, stopAt)
			case riseKnown:
				emit(RuleStartSetup, i, rise)
			}
			startAt, startOpen = cur.T, true
			stopSeen = false
			continue
		}
		if riseKnown {
			emit(RuleStopSetup, i, rise)
		}
		stopAt, stopSeen = cur.T, true
		startOpen = false
	}
	return out
}

// CheckTiming reports every window shorter than floor time units
func CheckTiming(samples []Sample, floor uint32) []Violation {
	var out []Violation
	for _, w := range Windows(samples) {
		if w.Span < floor {
			out = append(out, Violation{Rule: w.Rule, Index: w.Index, T: w.T})
		}
	}
	return out
}

// Shortest returns the smallest span measured for rule, and false if the
// rule never applied
func Shortest(ws []Window, rule Rule) (uint32, bool) {
	var (
		best  uint32
		found bool
	)
	for _, w := range ws {
		if w.Rule != rule {
			continue
		}
		if !found || w.Span < best {
			best, found = w.Span, true
		}
	}
	return best, found
}
