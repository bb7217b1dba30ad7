//go:build stm32f103

package bringup

import (
	"device/stm32"
	"machine"
)

// STM32Clocks drives the RCC and port B of STM32F1 class MCUs.
type STM32Clocks struct{}

func (STM32Clocks) EnablePeripheralClock(c Clock) {
	switch c {
	case ClockGPIOB:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_IOPBEN)
	case ClockI2C2:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_I2C2EN)
	case ClockAFIO:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_AFIOEN)
	}
}

func (STM32Clocks) SetOpenDrainAltFn(pins ...Pin) {
	for _, p := range pins {
		pin := machine.PB0 + machine.Pin(p)
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput50MHz + machine.PinOutputModeAltOpenDrain})
	}
}

var _ ClockController = STM32Clocks{}
