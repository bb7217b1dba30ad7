package gt811

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyTransfer = errors.New("empty register transfer")

// AddressedBus exposes the registers of the device at Address on an I2CBus.
// Register addresses go out big-endian ahead of the data.
type AddressedBus struct {
	bus     I2CBus
	address byte
}

func NewAddressedBus(bus I2CBus, address byte) *AddressedBus {
	return &AddressedBus{bus: bus, address: address}
}

func (b *AddressedBus) WriteRegister(ctx context.Context, reg uint16, buffer []byte) error {
	if len(buffer) == 0 {
		return ErrEmptyTransfer
	}
	msg := make([]byte, 2+len(buffer))
	msg[0], msg[1] = byte(reg>>8), byte(reg)
	copy(msg[2:], buffer)
	if err := b.bus.WriteToAddr(ctx, b.address, msg); err != nil {
		return fmt.Errorf("could not write register %#04x: %w", reg, err)
	}
	return nil
}

// ReadRegister selects reg and reads len(buffer) bytes. Without Transactor
// support the register pointer is set in its own write before the read.
func (b *AddressedBus) ReadRegister(ctx context.Context, reg uint16, buffer []byte) error {
	if len(buffer) == 0 {
		return ErrEmptyTransfer
	}
	ptr := []byte{byte(reg >> 8), byte(reg)}
	if tx, ok := b.bus.(Transactor); ok {
		if err := tx.Tx(ctx, b.address, ptr, buffer); err != nil {
			return fmt.Errorf("could not read register %#04x: %w", reg, err)
		}
		return nil
	}
	if err := b.bus.WriteToAddr(ctx, b.address, ptr); err != nil {
		return fmt.Errorf("could not set register pointer %#04x: %w", reg, err)
	}
	if err := b.bus.ReadFromAddr(ctx, b.address, buffer); err != nil {
		return fmt.Errorf("could not read register %#04x: %w", reg, err)
	}
	return nil
}

var _ RegisterBus = &AddressedBus{}
