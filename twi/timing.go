package twi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

const (
	StandardSpeed = 100 * physic.KiloHertz
	FastSpeed     = 400 * physic.KiloHertz
)

const (
	minInputClock = 2 * physic.MegaHertz
	maxInputClock = 50 * physic.MegaHertz
	maxCCR        = 0xFFF
)

var ErrClockRange = errors.New("peripheral clock out of range")
var ErrSpeedRange = errors.New("bus speed out of range")

// Timing holds the clock control values of the peripheral.
type Timing struct {
	FreqMHz uint8
	Fast    bool
	CCR     uint16
	Trise   uint8
}

// ComputeTiming derives the clock control and rise time values for bus speed
// scl from the peripheral input clock pclk. Fast mode uses the 2:1 duty cycle
// (Tlow = 2 Thigh), rise time limits are 1000 ns standard and 300 ns fast.
func ComputeTiming(pclk, scl physic.Frequency) (Timing, error) {
	if pclk < minInputClock || pclk > maxInputClock || pclk%physic.MegaHertz != 0 {
		return Timing{}, fmt.Errorf("%w: %s", ErrClockRange, pclk)
	}
	if scl <= 0 || scl > FastSpeed {
		return Timing{}, fmt.Errorf("%w: %s", ErrSpeedRange, scl)
	}
	mhz := pclk / physic.MegaHertz
	t := Timing{FreqMHz: uint8(mhz)}
	if scl <= StandardSpeed {
		t.CCR = uint16(max(pclk/(2*scl), 4))
		t.Trise = uint8(mhz + 1)
	} else {
		t.Fast = true
		t.CCR = uint16(max(pclk/(3*scl), 1))
		t.Trise = uint8(mhz*300/1000 + 1)
	}
	if t.CCR > maxCCR {
		return Timing{}, fmt.Errorf("%w: %s too slow for %s", ErrSpeedRange, scl, pclk)
	}
	return t, nil
}

// Configure applies t with the peripheral disabled and enables it afterwards.
func Configure(c Configurer, t Timing) {
	c.Disable()
	c.SetClockFrequency(t.FreqMHz)
	if t.Fast {
		c.SetFastMode()
	} else {
		c.SetStandardMode()
	}
	c.SetCCR(t.CCR)
	c.SetTrise(t.Trise)
	c.Enable()
}
