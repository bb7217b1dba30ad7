package bringup

import "sync"

// SimClocks records clock and pin setup on hosts without the MCU.
type SimClocks struct {
	mx     sync.Mutex
	clocks []Clock
	pins   []Pin
}

func (s *SimClocks) EnablePeripheralClock(c Clock) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.clocks = append(s.clocks, c)
}

func (s *SimClocks) SetOpenDrainAltFn(pins ...Pin) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.pins = append(s.pins, pins...)
}

// Clocks returns the enabled clock domains in order.
func (s *SimClocks) Clocks() []Clock {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Clock(nil), s.clocks...)
}

func (s *SimClocks) Pins() []Pin {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Pin(nil), s.pins...)
}

var _ ClockController = &SimClocks{}
