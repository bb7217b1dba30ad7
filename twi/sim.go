package twi

import (
	"fmt"
	"sync"
)

// EventKind identifies a recorded peripheral operation.
type EventKind int

const (
	EventStart EventKind = iota
	EventStop
	EventAddress
	EventTx
	EventRx
	EventAckOn
	EventAckOff
	EventPOSOn
	EventPOSOff
	EventClearAddr
)

var eventNames = map[EventKind]string{
	EventStart:     "START",
	EventStop:      "STOP",
	EventAddress:   "ADDR",
	EventTx:        "TX",
	EventRx:        "RX",
	EventAckOn:     "ACK+",
	EventAckOff:    "ACK-",
	EventPOSOn:     "POS+",
	EventPOSOff:    "POS-",
	EventClearAddr: "CLR",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one operation issued to the simulated peripheral. Data holds the
// wire address byte for EventAddress and the data byte for EventTx/EventRx.
type Event struct {
	Kind EventKind
	Data byte
}

func (e Event) String() string {
	switch e.Kind {
	case EventAddress, EventTx, EventRx:
		return fmt.Sprintf("%s %#02x", e.Kind, e.Data)
	default:
		return e.Kind.String()
	}
}

// Boundary is the acknowledge logic state at the moment a received byte is
// taken out of the data register.
type Boundary struct {
	Index   int
	Ack     bool
	POS     bool
	Stopped bool
}

type simState int

const (
	simIdle simState = iota
	simStart
	simAddrMatched
	simAddrNacked
	simTx
	simRx
	simDrain
)

// Sim is a Peripheral with a device attached: a register file addressed by a
// 16-bit big-endian pointer that echoes back what was written. It records
// every operation for inspection.
//
//	sim := NewSim()
//	e := NewEngine(sim)
//	err := e.WriteRegister(ctx, 0x1234, []byte{1, 2})
//	fmt.Println(sim.Events())
type Sim struct {
	mx      sync.Mutex
	addr    byte
	absent  bool
	stalled map[Condition]bool
	mem     []byte

	enabled bool
	timing  Timing

	ack      bool
	pos      bool
	state    simState
	dir      Direction
	regBytes int
	ptr      uint16
	rxIndex  int

	events     []Event
	boundaries []Boundary
}

type SimOpt func(*Sim)

// WithSimAddress sets the 7-bit address the simulated device answers to.
func WithSimAddress(addr byte) SimOpt {
	return func(s *Sim) {
		s.addr = addr
	}
}

// WithAbsentDevice makes the device never acknowledge its address.
func WithAbsentDevice() SimOpt {
	return func(s *Sim) {
		s.absent = true
	}
}

// NewSim returns an enabled simulator answering at DefaultAddress.
func NewSim(opts ...SimOpt) *Sim {
	s := &Sim{
		addr:    DefaultAddress,
		stalled: make(map[Condition]bool),
		mem:     make([]byte, 1<<16),
		enabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stall makes c never become true, as on a wedged bus.
func (s *Sim) Stall(c Condition) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.stalled[c] = true
}

func (s *Sim) Unstall(c Condition) {
	s.mx.Lock()
	defer s.mx.Unlock()
	delete(s.stalled, c)
}

// Load stores data in the register file starting at reg.
func (s *Sim) Load(reg uint16, data []byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	for i, b := range data {
		s.mem[uint16(int(reg)+i)] = b
	}
}

// Registers returns n bytes of the register file starting at reg.
func (s *Sim) Registers(reg uint16, n int) []byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	res := make([]byte, n)
	for i := range res {
		res[i] = s.mem[uint16(int(reg)+i)]
	}
	return res
}

func (s *Sim) Events() []Event {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *Sim) Boundaries() []Boundary {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Boundary(nil), s.boundaries...)
}

// Transactions groups the recorded events by transaction. A group opens at
// a START issued while the bus is free; a repeated START and anything after
// the STOP up to the next transaction belong to the open group.
func (s *Sim) Transactions() [][]Event {
	s.mx.Lock()
	defer s.mx.Unlock()
	var res [][]Event
	var cur []Event
	open := false
	for _, e := range s.events {
		if e.Kind == EventStart && !open {
			if len(cur) > 0 {
				res = append(res, cur)
			}
			cur = nil
			open = true
		}
		if e.Kind == EventStop {
			open = false
		}
		cur = append(cur, e)
	}
	if len(cur) > 0 {
		res = append(res, cur)
	}
	return res
}

// Reset clears the recorded trace. Register contents and configuration stay.
func (s *Sim) Reset() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.events = nil
	s.boundaries = nil
}

// Timing returns the clock configuration last programmed.
func (s *Sim) Timing() Timing {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.timing
}

func (s *Sim) Enabled() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.enabled
}

func (s *Sim) Enable() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.enabled = true
}

func (s *Sim) Disable() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.enabled = false
	s.state = simIdle
	s.ack = false
	s.pos = false
}

func (s *Sim) SetClockFrequency(mhz uint8) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.timing.FreqMHz = mhz
}

func (s *Sim) SetFastMode() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.timing.Fast = true
}

func (s *Sim) SetStandardMode() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.timing.Fast = false
}

func (s *Sim) SetCCR(ccr uint16) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.timing.CCR = ccr
}

func (s *Sim) SetTrise(trise uint8) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.timing.Trise = trise
}

func (s *Sim) Start() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventStart, 0)
	if s.enabled {
		s.state = simStart
	}
}

func (s *Sim) Stop() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventStop, 0)
	if s.state == simRx {
		// the byte in flight is still delivered
		s.state = simDrain
		return
	}
	s.state = simIdle
}

func (s *Sim) Send7BitAddress(addr byte, dir Direction) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventAddress, addr<<1|byte(dir))
	if s.state != simStart {
		return
	}
	if s.absent || addr != s.addr {
		s.state = simAddrNacked
		return
	}
	s.state = simAddrMatched
	s.dir = dir
	if dir == Read {
		s.rxIndex = 0
	}
}

func (s *Sim) ClearAddr() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventClearAddr, 0)
	if s.state != simAddrMatched {
		return
	}
	if s.dir == Write {
		s.state = simTx
		s.regBytes = 0
		return
	}
	s.state = simRx
}

func (s *Sim) SendData(b byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventTx, b)
	if s.state != simTx {
		return
	}
	if s.regBytes < 2 {
		s.ptr = s.ptr<<8 | uint16(b)
		s.regBytes++
		return
	}
	s.mem[s.ptr] = b
	s.ptr++
}

func (s *Sim) ReceiveData() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != simRx && s.state != simDrain {
		s.record(EventRx, 0)
		return 0
	}
	b := s.mem[s.ptr]
	s.ptr++
	s.boundaries = append(s.boundaries, Boundary{
		Index:   s.rxIndex,
		Ack:     s.ack,
		POS:     s.pos,
		Stopped: s.state == simDrain,
	})
	s.rxIndex++
	s.record(EventRx, b)
	if s.state == simDrain {
		s.state = simIdle
	}
	return b
}

func (s *Sim) EnableAck() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventAckOn, 0)
	s.ack = true
}

func (s *Sim) DisableAck() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventAckOff, 0)
	s.ack = false
}

func (s *Sim) EnablePOS() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventPOSOn, 0)
	s.pos = true
}

func (s *Sim) DisablePOS() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.record(EventPOSOff, 0)
	s.pos = false
}

func (s *Sim) Status(c Condition) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.stalled[c] {
		return false
	}
	switch c {
	case CondStartSent:
		return s.state == simStart
	case CondAddressAcked:
		return s.state == simAddrMatched
	case CondTxReady:
		return s.state == simTx
	case CondByteTransferred:
		return s.state == simTx || s.state == simRx
	case CondRxReady:
		return s.state == simRx || s.state == simDrain
	}
	return false
}

func (s *Sim) record(kind EventKind, data byte) {
	s.events = append(s.events, Event{Kind: kind, Data: data})
}

var _ Peripheral = &Sim{}
