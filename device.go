// Package gt811 drives the Goodix GT811 capacitive touch controller.
//
// The device is reached through a RegisterBus: the register-level engine in
// package twi on a microcontroller, or an AddressedBus over one of the host
// transports (periph.io, gobot, MCP2221 USB bridge).
//
//	dev := gt811.New(twi.NewEngine(twi.NewSTM32()))
//	err := dev.Configure(ctx, config.Waveshare7)
package gt811

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/gt811/config"
)

// DefaultAddress is the 7-bit bus address of the controller.
const DefaultAddress = 0x5D

var ErrConfigMismatch = errors.New("configuration mismatch")

// MismatchError reports the first register whose content differs from the
// table.
type MismatchError struct {
	Register uint16
	Offset   int
	Want     byte
	Got      byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("configuration mismatch at register %#04x (offset %d): want %#02x, got %#02x", e.Register, e.Offset, e.Want, e.Got)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrConfigMismatch
}

type Device struct {
	bus RegisterBus
}

func New(bus RegisterBus) *Device {
	return &Device{bus: bus}
}

// Configure writes the table to the configuration bank in one transaction.
func (d *Device) Configure(ctx context.Context, table config.Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("refusing to write configuration: %w", err)
	}
	slog.Debug("writing configuration", "table", table.String())
	err := d.bus.WriteRegister(ctx, table.Register, table.Bytes())
	if err != nil {
		return fmt.Errorf("could not write configuration: %w", err)
	}
	return nil
}

// ReadConfig reads back the configuration bank covered by table.
func (d *Device) ReadConfig(ctx context.Context, table config.Table) ([]byte, error) {
	buf := make([]byte, table.Len())
	err := d.bus.ReadRegister(ctx, table.Register, buf)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration: %w", err)
	}
	return buf, nil
}

// VerifyConfig compares the configuration bank with table.
func (d *Device) VerifyConfig(ctx context.Context, table config.Table) error {
	got, err := d.ReadConfig(ctx, table)
	if err != nil {
		return err
	}
	for i, want := range table.Bytes() {
		if got[i] != want {
			return &MismatchError{Register: table.Register + uint16(i), Offset: i, Want: want, Got: got[i]}
		}
	}
	return nil
}

func (d *Device) ReadRegister(ctx context.Context, reg uint16, buffer []byte) error {
	return d.bus.ReadRegister(ctx, reg, buffer)
}

func (d *Device) WriteRegister(ctx context.Context, reg uint16, buffer []byte) error {
	return d.bus.WriteRegister(ctx, reg, buffer)
}
