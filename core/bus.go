// Software I2C master
// Implements the I2C bus protocol on two open-drain GPIO lines clocked by a
// periodic timer interrupt
package core

import (
	"errors"
	"sync/atomic"
)

// Address is a 7-bit secondary address
type Address uint8

func (a Address) valid() bool {
	return a <= 0x7F
}

// Mode is the R/W bit sent after the address
type Mode uint8

const (
	ModeWrite Mode = 0
	ModeRead  Mode = 1
)

func (m Mode) String() string {
	if m == ModeRead {
		return "read"
	}
	return "write"
}

// Phase is the transaction state
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseStart
	PhaseAddress
	PhaseRegister
	PhasePayload
	PhaseStop
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStart:
		return "start"
	case PhaseAddress:
		return "address"
	case PhaseRegister:
		return "register"
	case PhasePayload:
		return "payload"
	case PhaseStop:
		return "stop"
	}
	return "unknown"
}

// Bus is a bit-banged I2C master. At most one transaction is in flight; a
// second Begin fails with ErrBusBusy without touching the lines.
type Bus struct {
	cfg     Config
	lines   lines
	clock   ClockState
	gen     *ClockGenerator
	spinner Spinner
	retry   retryPolicy
	events  EventRing

	active uint32
	phase  uint32
	addr   Address
	mode   Mode

	// The last read byte was NACKed; the secondary no longer drives SDA
	readDone bool
}

// NewBus builds a bus on already claimed pins. Init must be called before
// the first transaction.
func NewBus(cfg Config, sda, scl OpenDrainPin, ticks TickSource) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sda == nil || scl == nil {
		return nil, ErrInvalidPin
	}
	b := &Bus{cfg: cfg}
	b.lines = lines{pins: [2]OpenDrainPin{sda, scl}, pullUp: cfg.InternalPullUp}
	b.gen = newClockGenerator(&b.clock, ticks, &b.lines)
	b.retry = retryPolicy{attempts: cfg.MaxAttempts}
	if s, ok := ticks.(Spinner); ok {
		b.spinner = s
	}
	atomic.StoreUint32(&b.clock.phase, phaseHigh)
	return b, nil
}

// Init releases both lines and starts the clock interrupt at busHz. The
// clock line is not toggled until a transaction starts.
func (b *Bus) Init(busHz uint32) error {
	if atomic.LoadUint32(&b.active) != 0 {
		return ErrBusBusy
	}
	b.lines.idle()
	if err := b.gen.Configure(busHz); err != nil {
		DebugPrintln("[I2C] unsupported bus speed " + Itoa(int(busHz)))
		return err
	}
	b.cfg.Frequency = busHz
	return nil
}

// Clock exposes the shared clock flags
func (b *Bus) Clock() *ClockState {
	return &b.clock
}

// Events returns the bus event ring
func (b *Bus) Events() *EventRing {
	return &b.events
}

// Phase returns the current transaction state
func (b *Bus) Phase() Phase {
	return Phase(atomic.LoadUint32(&b.phase))
}

// Active reports whether a transaction is in flight
func (b *Bus) Active() bool {
	return atomic.LoadUint32(&b.active) != 0
}

func (b *Bus) setPhase(p Phase) {
	atomic.StoreUint32(&b.phase, uint32(p))
}

func (b *Bus) requireActive() error {
	if atomic.LoadUint32(&b.active) == 0 {
		return ErrNotStarted
	}
	return nil
}

// Start claims the bus and issues a START condition: SDA falls while SCL is
// high, and the first falling SCL edge follows one full half period later.
// The STOP that ended the previous transaction already waited out the bus
// free time.
func (b *Bus) Start() error {
	if !b.gen.Configured() {
		return ErrNotConfigured
	}
	if !atomic.CompareAndSwapUint32(&b.active, 0, 1) {
		return ErrBusBusy
	}
	if !b.lines.read(SCL) || !b.lines.read(SDA) {
		// Someone else is holding the bus
		atomic.StoreUint32(&b.active, 0)
		return ErrBusBusy
	}
	b.setPhase(PhaseStart)
	b.lines.drive(SDA, false)
	b.gen.Enable()
	b.events.record(EvtStart, 0, 0, 0, b.clock.Ticks())
	return nil
}

// Begin starts a transaction: START, address with the write bit, register
// address. With ModeRead a repeated START then turns the bus around so the
// payload is read from reg. A missing acknowledge ends the transaction with
// a STOP and returns a *PhaseError wrapping ErrNoAck.
func (b *Bus) Begin(addr Address, reg uint8, mode Mode) error {
	if err := b.BeginAddress(addr, ModeWrite); err != nil {
		return err
	}
	b.setPhase(PhaseRegister)
	b.events.record(EvtRegister, uint8(addr), reg, 0, b.clock.Ticks())
	if err := b.writeByte(reg); err != nil {
		return b.abort(PhaseRegister, -1, err)
	}
	if mode == ModeRead {
		return b.RepeatedStart(addr, ModeRead)
	}
	b.setPhase(PhasePayload)
	return nil
}

// BeginAddress starts a transaction without a register phase
func (b *Bus) BeginAddress(addr Address, mode Mode) error {
	if !addr.valid() {
		return ErrInvalidAddress
	}
	if err := b.Start(); err != nil {
		return err
	}
	b.addr, b.mode = addr, mode
	b.readDone = false
	b.setPhase(PhaseAddress)
	b.events.record(EvtAddress, uint8(addr), uint8(mode), 0, b.clock.Ticks())
	if err := b.sendAddress(addr, mode); err != nil {
		return b.abort(PhaseAddress, -1, err)
	}
	b.setPhase(PhasePayload)
	return nil
}

// RepeatedStart issues a START without a preceding STOP and addresses the
// secondary again, keeping the bus claimed.
func (b *Bus) RepeatedStart(addr Address, mode Mode) error {
	if !addr.valid() {
		return ErrInvalidAddress
	}
	if err := b.requireActive(); err != nil {
		return err
	}
	b.setPhase(PhaseStart)
	// SDA goes high during the low phase. The clock is then parked high for
	// a half period of setup before SDA falls, and restarted so the hold
	// time is a half period too.
	err := b.atLow(func() { b.lines.release(SDA) })
	if err == nil {
		err = b.awaitHigh(nil)
	}
	if err == nil {
		err = b.settle()
	}
	if err != nil {
		return b.abort(PhaseStart, -1, err)
	}
	b.lines.drive(SDA, false)
	b.gen.Enable()
	b.events.record(EvtRepeatedStart, uint8(addr), uint8(mode), 0, b.clock.Ticks())
	b.addr, b.mode = addr, mode
	b.readDone = false
	b.setPhase(PhaseAddress)
	if err := b.sendAddress(addr, mode); err != nil {
		return b.abort(PhaseAddress, -1, err)
	}
	b.setPhase(PhasePayload)
	return nil
}

// WritePayload transmits data. A NACKed byte is sent again, up to
// Config.MaxAttempts times in total, before the transaction is stopped with
// ErrMaxRetriesExceeded. A transaction in read direction refuses with
// ErrWrongDirection and the lines are left alone.
func (b *Bus) WritePayload(data []byte) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	if b.mode == ModeRead {
		return ErrWrongDirection
	}
	b.setPhase(PhasePayload)
	for i, c := range data {
		err := b.retry.do(func(attempt int) error {
			b.events.record(EvtPayload, uint8(b.addr), c, uint8(attempt), b.clock.Ticks())
			err := b.writeByte(c)
			if err == ErrNoAck {
				b.events.record(EvtNack, uint8(b.addr), c, uint8(attempt), b.clock.Ticks())
			}
			return err
		})
		if err != nil {
			if err == ErrNoAck {
				DebugPrintln("[I2C] addr=" + hex8(uint8(b.addr)) + " byte " + Itoa(i) + " NACKed " + Itoa(b.retry.attempts) + " times")
				err = ErrMaxRetriesExceeded
			}
			return b.abort(PhasePayload, i, err)
		}
	}
	return nil
}

// ReadPayload reads count bytes into dst. If the transaction is in write
// direction a repeated START switches it to read first. Every byte but the
// last is acknowledged; the last gets a NACK, after which further reads
// fail with ErrWrongDirection until RepeatedStart.
func (b *Bus) ReadPayload(count int, dst []byte) error {
	if count > len(dst) {
		return ErrBufferTooSmall
	}
	if err := b.requireActive(); err != nil {
		return err
	}
	if count <= 0 {
		return nil
	}
	if b.readDone {
		return ErrWrongDirection
	}
	if b.mode != ModeRead {
		if err := b.RepeatedStart(b.addr, ModeRead); err != nil {
			return err
		}
	}
	b.setPhase(PhasePayload)
	for i := 0; i < count; i++ {
		c, err := b.readByte(i < count-1)
		if err != nil {
			return b.abort(PhasePayload, i, err)
		}
		dst[i] = c
		b.events.record(EvtRead, uint8(b.addr), c, 0, b.clock.Ticks())
	}
	b.readDone = true
	return nil
}

// End issues the STOP condition and stops the clock. It does nothing on an
// idle bus, so calling it after a failed operation is safe.
func (b *Bus) End() error {
	if atomic.LoadUint32(&b.active) == 0 {
		return nil
	}
	return b.stop()
}

// stop pulls SDA low during the low phase and releases it after SCL has been
// high for a half period, then keeps the bus free for another half period.
// The lines are released even if the clock never comes back.
func (b *Bus) stop() error {
	b.setPhase(PhaseStop)
	err := b.atLow(func() { b.lines.drive(SDA, false) })
	if err == nil {
		err = b.awaitHigh(nil)
	}
	if err == nil {
		err = b.settle()
	}
	b.gen.Disable()
	b.lines.release(SDA)
	b.events.record(EvtStop, uint8(b.addr), 0, 0, b.clock.Ticks())
	if err == nil {
		err = b.settle()
	}
	b.setPhase(PhaseIdle)
	atomic.StoreUint32(&b.active, 0)
	return err
}

// abort ends the transaction after a failure in phase and returns the
// original error wrapped with its phase
func (b *Bus) abort(phase Phase, index int, err error) error {
	if errors.Is(err, ErrNoAck) {
		b.events.record(EvtNack, uint8(b.addr), uint8(phase), 0, b.clock.Ticks())
		DebugPrintln("[I2C] NACK addr=" + hex8(uint8(b.addr)) + " during " + phase.String())
	}
	b.stop()
	return &PhaseError{Phase: phase, Index: index, Err: err}
}

// Probe reports whether a secondary acknowledges addr
func (b *Bus) Probe(addr Address) (bool, error) {
	err := b.BeginAddress(addr, ModeWrite)
	if errors.Is(err, ErrNoAck) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, b.End()
}

// Scan probes every non-reserved address and returns the ones that answer
func (b *Bus) Scan() ([]Address, error) {
	var found []Address
	for a := Address(0x08); a < 0x78; a++ {
		ok, err := b.Probe(a)
		if err != nil {
			return found, err
		}
		if ok {
			found = append(found, a)
		}
	}
	return found, nil
}
