package twi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestComputeTiming(t *testing.T) {
	tests := []struct {
		name     string
		pclk     physic.Frequency
		scl      physic.Frequency
		expected Timing
	}{
		{"APB1 36MHz fast", 36 * physic.MegaHertz, FastSpeed, Timing{FreqMHz: 36, Fast: true, CCR: 0x1e, Trise: 11}},
		{"APB1 36MHz standard", 36 * physic.MegaHertz, StandardSpeed, Timing{FreqMHz: 36, CCR: 180, Trise: 37}},
		{"8MHz standard", 8 * physic.MegaHertz, StandardSpeed, Timing{FreqMHz: 8, CCR: 40, Trise: 9}},
		{"8MHz fast", 8 * physic.MegaHertz, FastSpeed, Timing{FreqMHz: 8, Fast: true, CCR: 6, Trise: 3}},
		{"2MHz standard clamps CCR", 2 * physic.MegaHertz, StandardSpeed, Timing{FreqMHz: 2, CCR: 10, Trise: 3}},
		{"2MHz fast clamps CCR", 2 * physic.MegaHertz, FastSpeed, Timing{FreqMHz: 2, Fast: true, CCR: 1, Trise: 1}},
		{"36MHz 10kHz", 36 * physic.MegaHertz, 10 * physic.KiloHertz, Timing{FreqMHz: 36, CCR: 1800, Trise: 37}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTiming(tt.pclk, tt.scl)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestComputeTiming_Errors(t *testing.T) {
	tests := []struct {
		name string
		pclk physic.Frequency
		scl  physic.Frequency
		err  error
	}{
		{"clock too low", physic.MegaHertz, FastSpeed, ErrClockRange},
		{"clock too high", 72 * physic.MegaHertz, FastSpeed, ErrClockRange},
		{"fractional MHz", 36*physic.MegaHertz + 500*physic.KiloHertz, FastSpeed, ErrClockRange},
		{"zero speed", 36 * physic.MegaHertz, 0, ErrSpeedRange},
		{"fast mode plus", 36 * physic.MegaHertz, physic.MegaHertz, ErrSpeedRange},
		{"CCR overflow", 36 * physic.MegaHertz, physic.KiloHertz, ErrSpeedRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTiming(tt.pclk, tt.scl)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestConfigure(t *testing.T) {
	sim := NewSim()
	timing, err := ComputeTiming(36*physic.MegaHertz, FastSpeed)
	require.NoError(t, err)
	Configure(sim, timing)
	assert.True(t, sim.Enabled())
	assert.Equal(t, timing, sim.Timing())

	Configure(sim, Timing{FreqMHz: 8, CCR: 40, Trise: 9})
	assert.False(t, sim.Timing().Fast)
}
