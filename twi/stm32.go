//go:build stm32f103

package twi

import (
	"device/stm32"
)

// STM32 is the I²C master block of STM32F1 class MCUs (and the GD32F1 clones).
type STM32 struct {
	Bus *stm32.I2C_Type
}

// NewSTM32 returns the peripheral for I2C2, the bus the touch panel is wired to.
func NewSTM32() *STM32 {
	return &STM32{Bus: stm32.I2C2}
}

func (p *STM32) Enable() {
	p.Bus.CR1.SetBits(stm32.I2C_CR1_PE)
}

func (p *STM32) Disable() {
	p.Bus.CR1.ClearBits(stm32.I2C_CR1_PE)
}

func (p *STM32) SetClockFrequency(mhz uint8) {
	p.Bus.CR2.ReplaceBits(uint32(mhz), stm32.I2C_CR2_FREQ_Msk, 0)
}

func (p *STM32) SetFastMode() {
	p.Bus.CCR.SetBits(stm32.I2C_CCR_F_S)
}

func (p *STM32) SetStandardMode() {
	p.Bus.CCR.ClearBits(stm32.I2C_CCR_F_S)
}

func (p *STM32) SetCCR(ccr uint16) {
	p.Bus.CCR.ReplaceBits(uint32(ccr), stm32.I2C_CCR_CCR_Msk, 0)
}

func (p *STM32) SetTrise(trise uint8) {
	p.Bus.TRISE.Set(uint32(trise))
}

func (p *STM32) Start() {
	p.Bus.CR1.SetBits(stm32.I2C_CR1_START)
}

func (p *STM32) Stop() {
	p.Bus.CR1.SetBits(stm32.I2C_CR1_STOP)
}

func (p *STM32) Send7BitAddress(addr byte, dir Direction) {
	p.Bus.DR.Set(uint32(addr<<1 | byte(dir)))
}

func (p *STM32) SendData(b byte) {
	p.Bus.DR.Set(uint32(b))
}

func (p *STM32) ReceiveData() byte {
	return byte(p.Bus.DR.Get())
}

func (p *STM32) EnableAck() {
	p.Bus.CR1.SetBits(stm32.I2C_CR1_ACK)
}

func (p *STM32) DisableAck() {
	p.Bus.CR1.ClearBits(stm32.I2C_CR1_ACK)
}

func (p *STM32) EnablePOS() {
	p.Bus.CR1.SetBits(stm32.I2C_CR1_POS)
}

func (p *STM32) DisablePOS() {
	p.Bus.CR1.ClearBits(stm32.I2C_CR1_POS)
}

// ClearAddr reads SR2; SR1 was read by the preceding Status poll.
func (p *STM32) ClearAddr() {
	_ = p.Bus.SR2.Get()
}

func (p *STM32) Status(c Condition) bool {
	switch c {
	case CondStartSent:
		return p.Bus.SR1.HasBits(stm32.I2C_SR1_SB) &&
			p.Bus.SR2.HasBits(stm32.I2C_SR2_MSL|stm32.I2C_SR2_BUSY)
	case CondAddressAcked:
		return p.Bus.SR1.HasBits(stm32.I2C_SR1_ADDR)
	case CondByteTransferred:
		return p.Bus.SR1.HasBits(stm32.I2C_SR1_BTF)
	case CondTxReady:
		return p.Bus.SR1.HasBits(stm32.I2C_SR1_BTF | stm32.I2C_SR1_TxE)
	case CondRxReady:
		return p.Bus.SR1.HasBits(stm32.I2C_SR1_RxNE)
	}
	return false
}

var _ Peripheral = &STM32{}
