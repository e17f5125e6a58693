package core

// Bit-level transceiver.
//
// Every bit slot starts on a falling SCL edge and every primitive below
// returns while SCL is high. SDA is only touched inside a critical section
// that has just seen the low phase, so a tick cannot raise SCL between the
// check and the pin write.

// spin gives a simulated tick source the chance to fire
func (b *Bus) spin() {
	if b.spinner != nil {
		b.spinner.Spin()
	}
}

// atLow waits for the low clock phase and runs fn before the next tick
func (b *Bus) atLow(fn func()) error {
	return b.atPhase(phaseLow, fn)
}

// atHigh waits for the high clock phase and runs fn before the next tick
func (b *Bus) atHigh(fn func()) error {
	return b.atPhase(phaseHigh, fn)
}

func (b *Bus) atPhase(phase uint32, fn func()) error {
	for n := uint32(0); n < b.cfg.WaitSpins; n++ {
		state := disableInterrupts()
		if b.clock.load() == phase {
			if fn != nil {
				fn()
			}
			restoreInterrupts(state)
			return nil
		}
		restoreInterrupts(state)
		b.spin()
	}
	b.events.record(EvtTimeout, 0, uint8(phase), 0, b.clock.Ticks())
	return ErrClockStretchTimeout
}

// awaitHigh waits for the high phase and then for SCL to really be high.
// SCL is sampled in the same critical section that saw the phase, and a low
// level freezes the clock there, before a tick can drive the line. sample,
// if set, runs once SCL is confirmed high and before the clock may fall.
func (b *Bus) awaitHigh(sample func()) error {
	var high bool
	err := b.atHigh(func() {
		high = b.lines.sample(SCL)
		if !high {
			b.gen.hold()
			return
		}
		if sample != nil {
			sample()
		}
	})
	if err != nil {
		return err
	}
	if high {
		return nil
	}
	return b.stretch(sample)
}

// stretch waits on a held clock while the secondary keeps SCL low
func (b *Bus) stretch(sample func()) error {
	b.events.record(EvtStretch, 0, 0, 0, b.clock.Ticks())
	for n := uint32(0); n < b.cfg.StretchSpins; n++ {
		if b.lines.sample(SCL) {
			if sample != nil {
				sample()
			}
			b.gen.resume()
			return nil
		}
		b.spin()
	}
	b.events.record(EvtTimeout, 0, phaseHigh, 1, b.clock.Ticks())
	DebugPrintln("[I2C] clock stretch timeout")
	return ErrClockStretchTimeout
}

// settle parks the clock with SCL released and waits one full half period.
// STOP setup, bus free time and repeated START setup are built from it.
func (b *Bus) settle() error {
	b.gen.park()
	from := b.clock.Ticks()
	for n := uint32(0); n < b.cfg.WaitSpins; n++ {
		if b.clock.Ticks() != from {
			return nil
		}
		b.spin()
	}
	b.events.record(EvtTimeout, 0, phaseHigh, 2, b.clock.Ticks())
	return ErrClockStretchTimeout
}

// SetBit shifts one bit out on SDA
func (b *Bus) SetBit(bit bool) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	return b.setBit(bit)
}

func (b *Bus) setBit(bit bool) error {
	if err := b.atLow(func() { b.lines.drive(SDA, bit) }); err != nil {
		return err
	}
	return b.awaitHigh(nil)
}

// ReadBit releases SDA and samples it during the next high phase
func (b *Bus) ReadBit() (bool, error) {
	if err := b.requireActive(); err != nil {
		return false, err
	}
	return b.readBit()
}

func (b *Bus) readBit() (bool, error) {
	var bit bool
	if err := b.atLow(func() { b.lines.release(SDA) }); err != nil {
		return false, err
	}
	if err := b.awaitHigh(func() { bit = b.lines.sample(SDA) }); err != nil {
		return false, err
	}
	return bit, nil
}

// sendBits shifts out the low n bits of v, most significant first
func (b *Bus) sendBits(v uint8, n int) error {
	for i := n - 1; i >= 0; i-- {
		if err := b.setBit(v&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	return nil
}

// checkAck releases SDA for the acknowledge slot. A low level is ACK.
func (b *Bus) checkAck() (bool, error) {
	sda, err := b.readBit()
	if err != nil {
		return false, err
	}
	return !sda, nil
}

// sendAck drives the acknowledge slot after a received byte
func (b *Bus) sendAck(ack bool) error {
	return b.setBit(!ack)
}

// WriteByte transmits one byte and returns ErrNoAck if it was not
// acknowledged
func (b *Bus) WriteByte(c byte) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	if b.mode == ModeRead {
		return ErrWrongDirection
	}
	return b.writeByte(c)
}

func (b *Bus) writeByte(c byte) error {
	if err := b.sendBits(c, 8); err != nil {
		return err
	}
	ack, err := b.checkAck()
	if err != nil {
		return err
	}
	if !ack {
		return ErrNoAck
	}
	return nil
}

// ReadByte receives one byte and answers with ACK (more wanted) or NACK.
// After a NACK the secondary has let go of SDA; only a repeated START or
// End may follow. Outside read direction it fails with ErrWrongDirection.
func (b *Bus) ReadByte(ack bool) (byte, error) {
	if err := b.requireActive(); err != nil {
		return 0, err
	}
	if b.mode != ModeRead || b.readDone {
		return 0, ErrWrongDirection
	}
	c, err := b.readByte(ack)
	if err == nil && !ack {
		b.readDone = true
	}
	return c, err
}

func (b *Bus) readByte(ack bool) (byte, error) {
	var c byte
	for i := 0; i < 8; i++ {
		bit, err := b.readBit()
		if err != nil {
			return 0, err
		}
		c <<= 1
		if bit {
			c |= 1
		}
	}
	return c, b.sendAck(ack)
}

// sendAddress transmits the 7-bit address, the mode bit and checks the
// acknowledge
func (b *Bus) sendAddress(addr Address, mode Mode) error {
	if err := b.sendBits(uint8(addr), 7); err != nil {
		return err
	}
	if err := b.setBit(mode == ModeRead); err != nil {
		return err
	}
	ack, err := b.checkAck()
	if err != nil {
		return err
	}
	if !ack {
		return ErrNoAck
	}
	return nil
}
