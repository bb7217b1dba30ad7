//go:build stm32f103

// Firmware brings up the GT811 on an STM32F103 (I2C2 on PB10/PB11) and
// reports the result on the serial console.
package main

import (
	"context"
	"time"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/bringup"
	"github.com/mklimuk/gt811/twi"
)

func main() {
	periph := twi.NewSTM32()
	engine := twi.NewEngine(periph, twi.WithTimeout(50*time.Millisecond))
	dev := gt811.New(engine)
	seq := bringup.New(bringup.STM32Clocks{}, periph, dev)
	for {
		err := seq.Run(context.Background())
		if err == nil {
			println("touch controller configured")
			break
		}
		println("bring-up failed:", err.Error())
		time.Sleep(time.Second)
	}
	for {
		time.Sleep(time.Hour)
	}
}
