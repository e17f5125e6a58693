package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfPeriodCounts(t *testing.T) {
	tests := []struct {
		name      string
		counterHz uint32
		maxPeriod uint32
		busHz     uint32
		want      uint32
		wantErr   bool
	}{
		{"standard mode at 1MHz", 1000000, 0xFFFF, StandardMode, 5, false},
		{"fast mode rounds up", 1000000, 0xFFFF, FastMode, 2, false},
		{"fast mode at 12MHz", 12000000, 0xFFFFFFFF, FastMode, 15, false},
		{"one edge per count", 1000000, 0xFFFF, 500000, 1, false},
		{"faster than the counter", 1000000, 0xFFFF, 500001, 0, true},
		{"period overflows", 1000000, 0xFFFF, 7, 0, true},
		{"zero bus speed", 1000000, 0xFFFF, 0, 0, true},
		{"stopped counter", 0, 0xFFFF, StandardMode, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HalfPeriodCounts(tt.counterHz, tt.maxPeriod, tt.busHz)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFrequency)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, ActualFrequency(tt.counterHz, got), tt.busHz)
		})
	}
}

func TestActualFrequency(t *testing.T) {
	assert.Equal(t, uint32(250000), ActualFrequency(1000000, 2))
	assert.Equal(t, uint32(0), ActualFrequency(1000000, 0))
}
