package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"softi2c/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"buses": {"sensors": {"id": 1}}}`))
	require.NoError(t, err)

	bus := cfg.Buses["sensors"]
	assert.Equal(t, "gpio4", bus.SDAPin)
	assert.Equal(t, "gpio5", bus.SCLPin)
	assert.Equal(t, uint32(core.StandardMode), bus.Frequency)
	assert.Equal(t, 10, bus.MaxAttempts)

	c, err := cfg.Bus("sensors")
	require.NoError(t, err)
	assert.Equal(t, core.PinID{Port: 0, Pin: 4}, c.SDA)
	assert.Equal(t, core.PinID{Port: 0, Pin: 5}, c.SCL)
}

func TestLoadConfigFull(t *testing.T) {
	data := `{
		"debug": true,
		"buses": {
			"fast": {"id": 2, "sda_pin": "P1.6", "scl_pin": "p1.7", "frequency": 400000,
				"max_attempts": 3, "wait_spins": 100, "stretch_spins": 5000, "internal_pullup": true},
			"slow": {"id": 0, "sda_pin": "gpio10", "scl_pin": "gpio11"}
		}
	}`
	cfg, err := LoadConfig([]byte(data))
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"slow", "fast"}, cfg.Names())

	c, err := cfg.Bus("fast")
	require.NoError(t, err)
	assert.Equal(t, core.Config{
		SDA:            core.PinID{Port: 1, Pin: 6},
		SCL:            core.PinID{Port: 1, Pin: 7},
		Frequency:      core.FastMode,
		MaxAttempts:    3,
		WaitSpins:      100,
		StretchSpins:   5000,
		InternalPullUp: true,
	}, c)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig([]byte(`{`))
	assert.Error(t, err)

	_, err = LoadConfig([]byte(`{"buses": {}}`))
	assert.Error(t, err)

	cfg, err := LoadConfig([]byte(`{"buses": {"a": {"sda_pin": "gpio4", "scl_pin": "gpio4"}}}`))
	require.NoError(t, err)
	_, err = cfg.Bus("a")
	assert.ErrorIs(t, err, core.ErrInvalidPin)

	_, err = cfg.Bus("missing")
	assert.Error(t, err)
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		name    string
		want    core.PinID
		wantErr bool
	}{
		{"gpio0", core.PinID{}, false},
		{"GPIO25", core.PinID{Pin: 25}, false},
		{"p2.13", core.PinID{Port: 2, Pin: 13}, false},
		{"gpio", core.PinID{}, true},
		{"gpio300", core.PinID{}, true},
		{"p2", core.PinID{}, true},
		{"pa.1", core.PinID{}, true},
		{"sda", core.PinID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePin(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultBoardConfig(t *testing.T) {
	cfg := DefaultBoardConfig()
	c, err := cfg.Bus("i2c0")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfig(), c)
}

func TestLoadConfigYAML(t *testing.T) {
	data := `
export_events: true
buses:
  bench:
    id: 3
    sda_pin: gpio8
    scl_pin: gpio9
    frequency: 400000
    internal_pullup: true
`
	cfg, err := LoadConfigYAML([]byte(data))
	require.NoError(t, err)
	assert.True(t, cfg.ExportEvents)

	bus := cfg.Buses["bench"]
	assert.Equal(t, uint8(3), bus.ID)
	assert.Equal(t, uint32(core.FastMode), bus.Frequency)
	assert.Equal(t, 10, bus.MaxAttempts)

	c, err := cfg.Bus("bench")
	require.NoError(t, err)
	assert.Equal(t, core.PinID{Port: 0, Pin: 8}, c.SDA)
	assert.True(t, c.InternalPullUp)

	_, err = LoadConfigYAML([]byte("buses: {}\n"))
	assert.ErrorIs(t, err, errNoBuses)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "board.yml")
	require.NoError(t, os.WriteFile(yml, []byte("buses:\n  i2c0:\n    id: 0\n"), 0o644))
	cfg, err := LoadConfigFile(yml)
	require.NoError(t, err)
	assert.Equal(t, []string{"i2c0"}, cfg.Names())

	js := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"buses": {"i2c1": {"id": 1}}}`), 0o644))
	cfg, err = LoadConfigFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"i2c1"}, cfg.Names())

	_, err = LoadConfigFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
