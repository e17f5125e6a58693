package core

// PinID identifies a hardware pin by port (bank) and bit number
type PinID struct {
	Port uint8
	Pin  uint8
}

// OpenDrainPin is one line configured for open-drain use.
// Platform-specific implementations handle actual hardware control.
type OpenDrainPin interface {
	// Low configures the pin as an output and pulls the line down
	Low()

	// High releases the line with the internal pull-up enabled
	High()

	// HiZ releases the line as a floating input
	HiZ()

	// Get samples the line level
	Get() bool
}

// OpenDrainDriver hands out open-drain pins. Claim rejects descriptors the
// board cannot provide, so a bad configuration fails before any bus traffic.
type OpenDrainDriver interface {
	Claim(id PinID) (OpenDrainPin, error)
}

// Global singleton used by core code.
var openDrainDriver OpenDrainDriver

// SetOpenDrainDriver is called by target-specific code to register its driver.
func SetOpenDrainDriver(d OpenDrainDriver) {
	openDrainDriver = d
}

// MustOpenDrain returns the configured driver or panics if missing.
func MustOpenDrain() OpenDrainDriver {
	if openDrainDriver == nil {
		panic("open-drain driver not configured")
	}
	return openDrainDriver
}

// ClaimPins claims the SDA and SCL pins named by cfg
func ClaimPins(d OpenDrainDriver, cfg Config) (sda, scl OpenDrainPin, err error) {
	if cfg.SDA == cfg.SCL {
		return nil, nil, ErrInvalidPin
	}
	if sda, err = d.Claim(cfg.SDA); err != nil {
		return nil, nil, err
	}
	if scl, err = d.Claim(cfg.SCL); err != nil {
		return nil, nil, err
	}
	return sda, scl, nil
}
