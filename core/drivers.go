package core

import "tinygo.org/x/drivers"

// The software bus can be handed to any TinyGo device driver
var _ drivers.I2C = (*Bus)(nil)

// Tx performs a complete transaction the way machine.I2C does: the first
// byte of w is the register address, the rest is payload, and r is filled
// after a repeated START. With an empty w only the address frame is sent,
// in read direction when r is not empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrInvalidAddress
	}
	a := Address(addr)

	var err error
	if len(w) == 0 {
		mode := ModeWrite
		if len(r) > 0 {
			mode = ModeRead
		}
		err = b.BeginAddress(a, mode)
	} else {
		err = b.Begin(a, w[0], ModeWrite)
		if err == nil && len(w) > 1 {
			err = b.WritePayload(w[1:])
		}
	}
	if err == nil && len(r) > 0 {
		err = b.ReadPayload(len(r), r)
	}
	if err != nil {
		// Failed phases have already issued the STOP
		b.End()
		return err
	}
	return b.End()
}

// ReadRegister reads len(buf) bytes starting at register r
func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

// WriteRegister writes buf starting at register r
func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, len(buf)+1)
	w[0] = r
	copy(w[1:], buf)
	return b.Tx(uint16(addr), w, nil)
}
