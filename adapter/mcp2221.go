// Package adapter drives the Microchip MCP2221 USB to I2C bridge over HID.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/busctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// MaxChunk is the number of data bytes carried by one HID report.
const MaxChunk = 60

const (
	cmdStatus        = 0x10
	cmdGetData       = 0x40
	cmdReadRepeated  = 0x93
	cmdWriteData     = 0x90
	cmdReadData      = 0x91
	cmdWriteNoStop   = 0x94
	statusCancel     = 0x10
	statusSetSpeed   = 0x20
	speedAccepted    = 0x20
	getDataError     = 0x41
	readLengthError  = 127
	bridgeClock      = 12 * physic.MegaHertz
	defaultRetries   = 20
	defaultRespWait  = 50 * time.Millisecond
	defaultBusSpeed  = 100 * physic.KiloHertz
	responseBusyFlag = 0x01
)

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

// HIDDevice is an open HID handle.
type HIDDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// Opener returns a fresh handle to the bridge for one request.
type Opener func() (HIDDevice, error)

type MCP2221 struct {
	mx           sync.Mutex
	open         Opener
	request      []byte
	response     []byte
	responseWait time.Duration
	retries      int
	speed        physic.Frequency
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"speed_divider"`
	I2CTimeout             int    `yaml:"timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent"`
	ReadPending            int    `yaml:"read_pending"`
}

type Opt func(*MCP2221)

// WithDeviceIndex picks one of several attached bridges.
func WithDeviceIndex(idx int) Opt {
	return func(d *MCP2221) {
		d.open = enumerated(idx)
	}
}

func WithOpener(o Opener) Opt {
	return func(d *MCP2221) {
		d.open = o
	}
}

// WithResponseWait sets the delay between a request and reading its response.
func WithResponseWait(wait time.Duration) Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func WithSpeed(f physic.Frequency) Opt {
	return func(d *MCP2221) {
		d.speed = f
	}
}

func NewMCP2221(opts ...Opt) *MCP2221 {
	d := &MCP2221{
		open:         enumerated(-1),
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: defaultRespWait,
		retries:      defaultRetries,
		speed:        defaultBusSpeed,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enumerate lists the attached bridges.
func Enumerate() []hid.DeviceInfo {
	return hid.Enumerate(VendorID, ProductID)
}

func enumerated(idx int) Opener {
	return func() (HIDDevice, error) {
		devs := Enumerate()
		if len(devs) == 0 {
			return nil, ErrDeviceNotFound
		}
		if idx < 0 {
			if len(devs) > 1 {
				return nil, fmt.Errorf("ambiguous device identification: %d bridges attached", len(devs))
			}
			idx = 0
		}
		if idx >= len(devs) {
			return nil, fmt.Errorf("no device with id %d", idx)
		}
		dev, err := devs[idx].Open()
		if err != nil {
			return nil, fmt.Errorf("error opening device: %w", err)
		}
		return dev, nil
	}
}

// Init cancels any transfer left over by a previous session and programs the
// bus speed.
func (d *MCP2221) Init(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if _, err := d.releaseBus(ctx); err != nil {
		return err
	}
	return d.setSpeed(ctx, d.speed)
}

var _ gt811.I2CBus = &MCP2221{}
var _ gt811.Transactor = &MCP2221{}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteData, address, buffer)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.read(ctx, cmdReadData, address, buffer)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// Tx writes w without a STOP and reads r after a repeated START.
func (d *MCP2221) Tx(ctx context.Context, address byte, w, r []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if len(w) > 0 {
		cmd := byte(cmdWriteData)
		if len(r) > 0 {
			cmd = cmdWriteNoStop
		}
		if err := d.write(ctx, cmd, address, w); err != nil {
			return fmt.Errorf("write to %x failed: %w", address, err)
		}
	}
	if len(r) == 0 {
		return nil
	}
	cmd := byte(cmdReadData)
	if len(w) > 0 {
		cmd = cmdReadRepeated
	}
	if err := d.read(ctx, cmd, address, r); err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// write sends buffer in reports of at most MaxChunk bytes. Every report
// repeats the total transfer length.
func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	for sent := 0; sent < len(buffer) || len(buffer) == 0; {
		chunk := min(len(buffer)-sent, MaxChunk)
		d.resetBuffers()
		encodeTransfer(d.request, cmd, address<<1, len(buffer))
		copy(d.request[4:], buffer[sent:sent+chunk])
		err := d.send(ctx, true)
		if err != nil {
			return err
		}
		if d.response[1] == responseBusyFlag {
			slog.Debug("adapter busy", "sent", sent, "total", len(buffer))
			return gt811.ErrBusBusy
		}
		sent += chunk
		if len(buffer) == 0 {
			break
		}
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	encodeTransfer(d.request, cmd, address<<1|1, len(buffer))
	err := d.send(ctx, true)
	if err != nil {
		return err
	}
	if d.response[1] == responseBusyFlag {
		return gt811.ErrBusBusy
	}
	received := 0
	for attempt := 0; received < len(buffer); attempt++ {
		if attempt >= d.retries {
			return fmt.Errorf("%w: %d of %d bytes received", ErrCommandFailed, received, len(buffer))
		}
		d.resetBuffers()
		d.request[0] = cmdGetData
		err = d.send(ctx, true)
		if err != nil {
			return fmt.Errorf("error getting read data from adapter: %w", err)
		}
		n, err := decodeData(d.response)
		if err != nil {
			return err
		}
		if received+n > len(buffer) {
			return fmt.Errorf("invalid data size byte; expected at most %d, got %d", len(buffer)-received, n)
		}
		copy(buffer[received:], d.response[4:4+n])
		received += n
	}
	return nil
}

func encodeTransfer(request []byte, cmd byte, addr byte, length int) {
	request[0] = cmd
	binary.LittleEndian.PutUint16(request[1:3], uint16(length))
	request[3] = addr
}

func decodeData(response []byte) (int, error) {
	if response[1] == getDataError {
		return 0, fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	n := int(response[3])
	if n == readLengthError || n > MaxChunk {
		return 0, fmt.Errorf("invalid data size byte %d", n)
	}
	return n, nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancel
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// SetSpeed programs the bus clock divider.
func (d *MCP2221) SetSpeed(ctx context.Context, f physic.Frequency) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.setSpeed(ctx, f)
}

func (d *MCP2221) setSpeed(ctx context.Context, f physic.Frequency) error {
	div, err := speedDivider(f)
	if err != nil {
		return err
	}
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = div
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("speed request failed: %w", err)
	}
	if d.response[3] != speedAccepted {
		return fmt.Errorf("%w: speed not accepted, transfer in progress", ErrCommandFailed)
	}
	d.speed = f
	return nil
}

func speedDivider(f physic.Frequency) (byte, error) {
	if f <= 0 {
		return 0, fmt.Errorf("invalid bus speed %s", f)
	}
	div := int64(bridgeClock/f) - 3
	if div < 1 || div > 0xFF {
		return 0, fmt.Errorf("bus speed %s out of range", f)
	}
	return byte(div), nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Warn("could not close adapter", "error", err)
		}
	}()
	verbose := busctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter:\n" + hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	if d.responseWait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.responseWait):
		}
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#02x echoes %#02x", ErrCommandUnsupported, d.request[0], d.response[0])
	}
	if verbose {
		slog.Debug("read message from adapter:\n" + hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
