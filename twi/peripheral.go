// Package twi drives a register-level two-wire (I²C) master peripheral by
// polling its status flags, the way a bare-metal firmware does.
//
// The Engine performs addressed register reads and writes against one target
// device. It talks to the hardware only through the Peripheral interface so the
// same protocol code runs against the TinyGo STM32 backend or the Sim used in
// tests.
package twi

import "fmt"

// Direction is the R/W bit appended to the 7-bit device address.
type Direction byte

const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Condition is a status condition the engine polls for.
type Condition int

const (
	// CondStartSent is SB set while the peripheral is master (MSL or BUSY).
	CondStartSent Condition = iota
	// CondAddressAcked is ADDR set.
	CondAddressAcked
	// CondByteTransferred is BTF set.
	CondByteTransferred
	// CondTxReady is BTF or TxE set.
	CondTxReady
	// CondRxReady is RxNE set.
	CondRxReady
)

func (c Condition) String() string {
	switch c {
	case CondStartSent:
		return "start-sent"
	case CondAddressAcked:
		return "address-acked"
	case CondByteTransferred:
		return "byte-transferred"
	case CondTxReady:
		return "tx-ready"
	case CondRxReady:
		return "rx-ready"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Configurer sets the electrical parameters of the peripheral. The peripheral
// must be disabled while they change.
type Configurer interface {
	Enable()
	Disable()
	// SetClockFrequency programs the peripheral input clock in MHz.
	SetClockFrequency(mhz uint8)
	SetFastMode()
	SetStandardMode()
	SetCCR(ccr uint16)
	SetTrise(trise uint8)
}

// Peripheral is a two-wire master controller exposed at the register level.
type Peripheral interface {
	Configurer
	// Start generates a START, or a repeated START inside a transaction.
	Start()
	Stop()
	Send7BitAddress(addr byte, dir Direction)
	SendData(b byte)
	ReceiveData() byte
	EnableAck()
	DisableAck()
	// EnablePOS makes the ACK bit govern the byte after the one being
	// received. Required for two-byte reads.
	EnablePOS()
	DisablePOS()
	// ClearAddr completes the ADDR clearing sequence (SR1 then SR2 read).
	ClearAddr()
	Status(c Condition) bool
}
