// Package bringup puts the touch controller bus into a known state and
// pushes the configuration table to the controller. It runs once at system
// start, before any other register access.
package bringup

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/gt811/config"
	"github.com/mklimuk/gt811/twi"
)

// Clock is a peripheral clock domain.
type Clock int

const (
	ClockGPIOB Clock = iota
	ClockI2C2
	ClockAFIO
)

func (c Clock) String() string {
	switch c {
	case ClockGPIOB:
		return "GPIOB"
	case ClockI2C2:
		return "I2C2"
	case ClockAFIO:
		return "AFIO"
	default:
		return fmt.Sprintf("clock(%d)", int(c))
	}
}

// Pin is a GPIO port B line.
type Pin uint8

// I2C2 lines on port B.
const (
	PinSCL Pin = 10
	PinSDA Pin = 11
)

// ClockController enables clocks and muxes pins.
type ClockController interface {
	EnablePeripheralClock(c Clock)
	// SetOpenDrainAltFn puts pins into 50 MHz open-drain alternate function
	// output mode.
	SetOpenDrainAltFn(pins ...Pin)
}

// ConfigWriter writes a configuration table to the device.
type ConfigWriter interface {
	Configure(ctx context.Context, table config.Table) error
}

type Opts struct {
	HostClock physic.Frequency
	BusSpeed  physic.Frequency
	Table     config.Table
}

type Opt func(*Opts)

// WithHostClock sets the bus peripheral input clock (APB1).
func WithHostClock(f physic.Frequency) Opt {
	return func(o *Opts) {
		o.HostClock = f
	}
}

func WithBusSpeed(f physic.Frequency) Opt {
	return func(o *Opts) {
		o.BusSpeed = f
	}
}

func WithTable(t config.Table) Opt {
	return func(o *Opts) {
		o.Table = t
	}
}

type Sequencer struct {
	clocks ClockController
	periph twi.Configurer
	dev    ConfigWriter
	opts   Opts
}

// New returns a sequencer for a 36 MHz APB1, 400 kHz bus and the Waveshare
// 7" table unless overridden.
func New(clocks ClockController, periph twi.Configurer, dev ConfigWriter, opts ...Opt) *Sequencer {
	o := Opts{
		HostClock: 36 * physic.MegaHertz,
		BusSpeed:  twi.FastSpeed,
		Table:     config.Waveshare7,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sequencer{
		clocks: clocks,
		periph: periph,
		dev:    dev,
		opts:   o,
	}
}

// Run powers the bus, programs its timing and writes the table.
func (s *Sequencer) Run(ctx context.Context) error {
	timing, err := twi.ComputeTiming(s.opts.HostClock, s.opts.BusSpeed)
	if err != nil {
		return fmt.Errorf("could not compute bus timing: %w", err)
	}
	s.clocks.EnablePeripheralClock(ClockGPIOB)
	s.clocks.EnablePeripheralClock(ClockI2C2)
	s.clocks.EnablePeripheralClock(ClockAFIO)
	s.clocks.SetOpenDrainAltFn(PinSCL, PinSDA)

	twi.Configure(s.periph, timing)
	slog.Debug("bus configured", "freq_mhz", timing.FreqMHz, "fast", timing.Fast, "ccr", timing.CCR, "trise", timing.Trise)

	err = s.dev.Configure(ctx, s.opts.Table)
	if err != nil {
		return fmt.Errorf("bring-up failed: %w", err)
	}
	slog.Info("touch controller configured", "table", s.opts.Table.String())
	return nil
}
