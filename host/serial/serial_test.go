package serial

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.ReadTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{Baud: 9600}).Validate())
	assert.Error(t, (&Config{Device: "/dev/ttyUSB0"}).Validate())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open(&Config{})
	assert.Error(t, err)

	missing := filepath.Join(t.TempDir(), "no-such-tty")
	_, err = Open(DefaultConfig(missing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}
