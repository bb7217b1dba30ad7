package twi

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/gt811/busctx"
)

// DefaultAddress is the 7-bit GT811 address (0xBA/0xBB on the wire).
const DefaultAddress = 0x5D

// Engine performs register transactions with one device. Calls are
// serialized; each one owns the bus from START to STOP.
type Engine struct {
	mx      sync.Mutex
	periph  Peripheral
	addr    byte
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Engine)

// WithAddress sets the 7-bit device address.
func WithAddress(addr byte) Option {
	return func(e *Engine) {
		e.addr = addr
	}
}

// WithTimeout bounds every status wait. Zero keeps the unbounded spin.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

func NewEngine(p Peripheral, opts ...Option) *Engine {
	e := &Engine{
		periph: p,
		addr:   DefaultAddress,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Address() byte {
	return e.addr
}

// WriteRegister writes payload to consecutive registers starting at reg.
func (e *Engine) WriteRegister(ctx context.Context, reg uint16, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	s := &session{reg: reg}
	err := e.write(ctx, s, payload)
	return e.finish(ctx, s, Write, payload, err)
}

// ReadRegister fills buffer from consecutive registers starting at reg.
func (e *Engine) ReadRegister(ctx context.Context, reg uint16, buffer []byte) error {
	if len(buffer) == 0 {
		return ErrEmptyBuffer
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	s := &session{reg: reg}
	err := e.read(ctx, s, buffer)
	return e.finish(ctx, s, Read, buffer, err)
}

func (e *Engine) write(ctx context.Context, s *session, payload []byte) error {
	if err := e.selectRegister(ctx, s); err != nil {
		return err
	}
	s.phase = PhaseData
	for _, b := range payload {
		e.periph.SendData(b)
		if err := e.await(ctx, s, CondTxReady); err != nil {
			return err
		}
	}
	e.stop(s)
	return nil
}

func (e *Engine) read(ctx context.Context, s *session, buffer []byte) error {
	if err := e.selectRegister(ctx, s); err != nil {
		return err
	}
	// repeated START, no STOP in between
	s.phase = PhaseAddressing
	e.periph.Start()
	if err := e.await(ctx, s, CondStartSent); err != nil {
		return err
	}
	e.periph.Send7BitAddress(e.addr, Read)
	// ACK for the first data byte is latched while ADDR is still set, so it
	// has to be configured before the address phase completes.
	switch n := len(buffer); {
	case n == 1:
		e.periph.DisableAck()
	case n == 2:
		e.periph.EnablePOS()
		e.periph.EnableAck()
	}
	if err := e.await(ctx, s, CondAddressAcked); err != nil {
		return err
	}
	e.periph.ClearAddr()
	s.phase = PhaseData
	switch n := len(buffer); {
	case n == 1:
		return e.receiveOne(ctx, s, buffer)
	case n == 2:
		return e.receiveTwo(ctx, s, buffer)
	default:
		return e.receiveMany(ctx, s, buffer)
	}
}

// selectRegister sends START, the device address for writing and the
// big-endian register address.
func (e *Engine) selectRegister(ctx context.Context, s *session) error {
	s.phase = PhaseAddressing
	e.periph.Start()
	e.periph.EnableAck()
	if err := e.await(ctx, s, CondStartSent); err != nil {
		return err
	}
	e.periph.Send7BitAddress(e.addr, Write)
	if err := e.await(ctx, s, CondAddressAcked); err != nil {
		return err
	}
	e.periph.ClearAddr()
	s.phase = PhaseRegisterSelect
	for _, b := range [2]byte{byte(s.reg >> 8), byte(s.reg)} {
		e.periph.SendData(b)
		if err := e.await(ctx, s, CondTxReady); err != nil {
			return err
		}
	}
	return nil
}

// receiveOne reads a single byte. ACK was already cleared before ADDR, so the
// only byte is NACKed and the device releases the bus after it.
func (e *Engine) receiveOne(ctx context.Context, s *session, buffer []byte) error {
	if err := e.await(ctx, s, CondRxReady); err != nil {
		return err
	}
	buffer[0] = e.periph.ReceiveData()
	e.stop(s)
	return nil
}

// receiveTwo reads two bytes with POS set. By the time the first byte lands
// in the data register the second is already being shifted in, so clearing
// ACK after the first byte would be too late. With POS the ACK bit applies to
// the next byte: clearing it now NACKs the second byte. BTF means both bytes
// are held (DR and shift register), STOP goes out before draining them.
func (e *Engine) receiveTwo(ctx context.Context, s *session, buffer []byte) error {
	e.periph.DisableAck()
	if err := e.await(ctx, s, CondByteTransferred); err != nil {
		return err
	}
	buffer[0] = e.periph.ReceiveData()
	e.stop(s)
	if err := e.await(ctx, s, CondRxReady); err != nil {
		return err
	}
	buffer[1] = e.periph.ReceiveData()
	e.periph.DisablePOS()
	return nil
}

// receiveMany reads three or more bytes. The NACK must land on the last byte,
// and the ACK decision for a byte is latched before the byte is complete, so
// ACK is cleared one byte early, at the second to last one. STOP is set
// before the last byte is drained.
func (e *Engine) receiveMany(ctx context.Context, s *session, buffer []byte) error {
	n := len(buffer)
	for i := range buffer {
		var err error
		switch i {
		case n - 2:
			e.periph.DisableAck()
			err = e.await(ctx, s, CondByteTransferred)
		case n - 1:
			e.stop(s)
			err = e.await(ctx, s, CondRxReady)
		default:
			err = e.await(ctx, s, CondByteTransferred)
		}
		if err != nil {
			return err
		}
		buffer[i] = e.periph.ReceiveData()
	}
	return nil
}

func (e *Engine) stop(s *session) {
	s.phase = PhaseStopPending
	e.periph.Stop()
	s.stopped = true
}

// finish closes the session. A failed session still ends with exactly one
// STOP and leaves the acknowledge logic in its reset state.
func (e *Engine) finish(ctx context.Context, s *session, dir Direction, data []byte, err error) error {
	if err == nil {
		s.phase = PhaseIdle
		if busctx.IsVerbose(ctx) {
			e.log.Debug("bus transaction", "dir", dir, "addr", fmt.Sprintf("%#02x", e.addr),
				"reg", fmt.Sprintf("%#04x", s.reg), "len", len(data), "data", hex.EncodeToString(data))
		}
		return nil
	}
	if !s.stopped {
		e.periph.Stop()
	}
	e.periph.DisablePOS()
	e.periph.EnableAck()
	e.log.Warn("bus transaction aborted", "dir", dir, "reg", fmt.Sprintf("%#04x", s.reg), "phase", s.phase, "error", err)
	return fmt.Errorf("could not %s register %#04x: %w", dir, s.reg, err)
}
