package config

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"softi2c/core"
)

// BoardConfig describes every software bus on a board
type BoardConfig struct {
	Buses map[string]BusConfig `json:"buses" yaml:"buses"`

	// Print engine debug output on the console
	Debug bool `json:"debug" yaml:"debug"`

	// Ship bus events to the host monitor after every transaction
	ExportEvents bool `json:"export_events" yaml:"export_events"`
}

// BusConfig is one software bus
type BusConfig struct {
	ID             uint8  `json:"id" yaml:"id"`
	SDAPin         string `json:"sda_pin" yaml:"sda_pin"`
	SCLPin         string `json:"scl_pin" yaml:"scl_pin"`
	Frequency      uint32 `json:"frequency" yaml:"frequency"`
	MaxAttempts    int    `json:"max_attempts" yaml:"max_attempts"`
	WaitSpins      uint32 `json:"wait_spins" yaml:"wait_spins"`
	StretchSpins   uint32 `json:"stretch_spins" yaml:"stretch_spins"`
	InternalPullUp bool   `json:"internal_pullup" yaml:"internal_pullup"`
}

var (
	errNoBuses    = errors.New("config: no buses defined")
	errPinName    = errors.New("config: bad pin name")
	errUnknownBus = errors.New("config: unknown bus")
)

// LoadConfig parses a JSON configuration string and returns a BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}
	return finish(&config)
}

func finish(config *BoardConfig) (*BoardConfig, error) {
	if len(config.Buses) == 0 {
		return nil, errNoBuses
	}

	// Apply defaults
	applyDefaults(config)

	return config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	def := core.DefaultConfig()
	for name, bus := range config.Buses {
		if bus.SDAPin == "" {
			bus.SDAPin = "gpio4"
		}
		if bus.SCLPin == "" {
			bus.SCLPin = "gpio5"
		}
		if bus.Frequency == 0 {
			bus.Frequency = core.StandardMode
		}
		if bus.MaxAttempts == 0 {
			bus.MaxAttempts = def.MaxAttempts
		}
		if bus.WaitSpins == 0 {
			bus.WaitSpins = def.WaitSpins
		}
		if bus.StretchSpins == 0 {
			bus.StretchSpins = def.StretchSpins
		}
		config.Buses[name] = bus
	}
}

// Names returns the bus names in ID order
func (c *BoardConfig) Names() []string {
	names := make([]string, 0, len(c.Buses))
	for name := range c.Buses {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.Buses[names[i]].ID < c.Buses[names[j]].ID
	})
	return names
}

// Bus returns the engine configuration for the named bus
func (c *BoardConfig) Bus(name string) (core.Config, error) {
	bus, ok := c.Buses[name]
	if !ok {
		return core.Config{}, errUnknownBus
	}
	return bus.Core()
}

// Core converts the bus entry into an engine configuration
func (b BusConfig) Core() (core.Config, error) {
	sda, err := ParsePin(b.SDAPin)
	if err != nil {
		return core.Config{}, err
	}
	scl, err := ParsePin(b.SCLPin)
	if err != nil {
		return core.Config{}, err
	}
	cfg := core.Config{
		SDA:            sda,
		SCL:            scl,
		Frequency:      b.Frequency,
		MaxAttempts:    b.MaxAttempts,
		WaitSpins:      b.WaitSpins,
		StretchSpins:   b.StretchSpins,
		InternalPullUp: b.InternalPullUp,
	}
	if err := cfg.Validate(); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}

// ParsePin accepts "gpioN" (port 0) or "pP.N" (port P, pin N)
func ParsePin(name string) (core.PinID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(name, "gpio"):
		pin, err := strconv.ParseUint(name[4:], 10, 8)
		if err != nil {
			return core.PinID{}, errPinName
		}
		return core.PinID{Port: 0, Pin: uint8(pin)}, nil
	case strings.HasPrefix(name, "p"):
		port, pin, ok := strings.Cut(name[1:], ".")
		if !ok {
			return core.PinID{}, errPinName
		}
		pt, err := strconv.ParseUint(port, 10, 8)
		if err != nil {
			return core.PinID{}, errPinName
		}
		pn, err := strconv.ParseUint(pin, 10, 8)
		if err != nil {
			return core.PinID{}, errPinName
		}
		return core.PinID{Port: uint8(pt), Pin: uint8(pn)}, nil
	}
	return core.PinID{}, errPinName
}

// DefaultBoardConfig returns the configuration of the demo board: one bus
// on GPIO4/GPIO5 at standard mode
func DefaultBoardConfig() *BoardConfig {
	def := core.DefaultConfig()
	return &BoardConfig{
		Buses: map[string]BusConfig{
			"i2c0": {
				ID:           0,
				SDAPin:       "gpio4",
				SCLPin:       "gpio5",
				Frequency:    core.StandardMode,
				MaxAttempts:  def.MaxAttempts,
				WaitSpins:    def.WaitSpins,
				StretchSpins: def.StretchSpins,
			},
		},
		ExportEvents: true,
	}
}
