package core

// Bus speeds
const (
	StandardMode = 100000 // 100kHz
	FastMode     = 400000 // 400kHz
)

// Config holds the software bus configuration
type Config struct {
	// Data and clock line descriptors
	SDA PinID
	SCL PinID

	// Bus clock in Hz (one full high+low period)
	Frequency uint32

	// Transmissions per payload byte before giving up on NACKs
	MaxAttempts int

	// Upper bound on busy-wait iterations for one clock phase
	WaitSpins uint32

	// Upper bound on busy-wait iterations while a secondary stretches SCL
	StretchSpins uint32

	// Release lines with the internal pull-up enabled instead of floating
	InternalPullUp bool
}

// DefaultConfig returns the configuration used by the demo boards
func DefaultConfig() Config {
	return Config{
		SDA:          PinID{Port: 0, Pin: 4},
		SCL:          PinID{Port: 0, Pin: 5},
		Frequency:    StandardMode,
		MaxAttempts:  10,
		WaitSpins:    1 << 16,
		StretchSpins: 1 << 20,
	}
}

// Validate checks values the engine cannot work with
func (c *Config) Validate() error {
	if c.SDA == c.SCL {
		return ErrInvalidPin
	}
	if c.Frequency == 0 {
		return ErrUnsupportedFrequency
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.WaitSpins == 0 {
		c.WaitSpins = 1
	}
	return nil
}
