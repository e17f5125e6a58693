package core

// Line names one of the two bus wires
type Line uint8

const (
	SDA Line = iota
	SCL
)

func (l Line) String() string {
	if l == SCL {
		return "SCL"
	}
	return "SDA"
}

// lines drives SDA and SCL with open-drain semantics: a low level pulls the
// wire down, a high level releases it to the pull-up.
type lines struct {
	pins   [2]OpenDrainPin
	pullUp bool
}

// drive forces line to level
func (l *lines) drive(line Line, level bool) {
	if level {
		l.release(line)
		return
	}
	l.pins[line].Low()
}

// release lets the line float
func (l *lines) release(line Line) {
	if l.pullUp {
		l.pins[line].High()
	} else {
		l.pins[line].HiZ()
	}
}

// read releases the line and samples it
func (l *lines) read(line Line) bool {
	l.release(line)
	return l.pins[line].Get()
}

// sample returns the level of line without touching the pin mode. Callers
// hold the clock so the level belongs to the current phase.
func (l *lines) sample(line Line) bool {
	return l.pins[line].Get()
}

// idle releases both lines
func (l *lines) idle() {
	l.release(SDA)
	l.release(SCL)
}
