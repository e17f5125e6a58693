package core

import "errors"

var (
	// ErrNoAck signals that the secondary left SDA high in an acknowledge slot.
	ErrNoAck = errors.New("i2c: no ack")

	// ErrMaxRetriesExceeded signals that a payload byte was NACKed on every attempt.
	ErrMaxRetriesExceeded = errors.New("i2c: max retries exceeded")

	// ErrBusBusy is returned when a transaction is already in flight or the
	// lines are held low by another party.
	ErrBusBusy = errors.New("i2c: bus busy")

	// ErrBufferTooSmall is returned when a read asks for more bytes than the
	// destination can hold.
	ErrBufferTooSmall = errors.New("i2c: buffer too small")

	// ErrClockStretchTimeout is returned when a bounded wait on the clock
	// phase or on a stretched SCL expires.
	ErrClockStretchTimeout = errors.New("i2c: clock stretch timeout")

	// ErrUnsupportedFrequency is returned when the tick source cannot
	// represent the requested bus speed.
	ErrUnsupportedFrequency = errors.New("i2c: unsupported frequency")

	ErrInvalidAddress = errors.New("i2c: address out of 7-bit range")
	ErrNotStarted     = errors.New("i2c: no transaction in progress")
	ErrNotConfigured  = errors.New("i2c: bus not initialized")
	ErrInvalidPin     = errors.New("i2c: invalid pin")

	// ErrWrongDirection is returned for a payload operation the current
	// transfer direction does not allow: writing in read direction, or
	// reading on after the final byte was NACKed.
	ErrWrongDirection = errors.New("i2c: wrong transfer direction")
)

// PhaseError reports which part of a transaction failed.
type PhaseError struct {
	Phase Phase
	Index int // payload byte index, -1 outside the payload phase
	Err   error
}

func (e *PhaseError) Error() string {
	msg := e.Err.Error() + " during " + e.Phase.String()
	if e.Index >= 0 {
		msg += " byte " + Itoa(e.Index)
	}
	return msg
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
