package gt811

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a host-side bus that moves whole messages to an address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transactor is implemented by buses able to write then read in a single
// transaction joined by a repeated START.
type Transactor interface {
	Tx(ctx context.Context, address byte, w, r []byte) error
}

type RegisterReader interface {
	ReadRegister(ctx context.Context, reg uint16, buffer []byte) error
}

type RegisterWriter interface {
	WriteRegister(ctx context.Context, reg uint16, buffer []byte) error
}

// RegisterBus addresses 16-bit registers of one device.
type RegisterBus interface {
	RegisterReader
	RegisterWriter
}
