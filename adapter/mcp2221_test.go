package adapter

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/config"
)

// bridge replays one canned response per request and records the requests.
type bridge struct {
	requests  [][]byte
	responses [][]byte
	opened    int
	closed    int
}

func (b *bridge) opener() (HIDDevice, error) {
	b.opened++
	return b, nil
}

func (b *bridge) Write(p []byte) (int, error) {
	b.requests = append(b.requests, append([]byte(nil), p...))
	return len(p), nil
}

func (b *bridge) Read(p []byte) (int, error) {
	resp := make([]byte, reportSize)
	if len(b.responses) > 0 {
		copy(resp, b.responses[0])
		b.responses = b.responses[1:]
	}
	resp[0] = b.requests[len(b.requests)-1][0]
	return copy(p, resp), nil
}

func (b *bridge) Close() error {
	b.closed++
	return nil
}

func dataReport(data []byte) []byte {
	resp := make([]byte, reportSize)
	resp[3] = byte(len(data))
	copy(resp[4:], data)
	return resp
}

func newTestAdapter(b *bridge) *MCP2221 {
	return NewMCP2221(WithOpener(b.opener), WithResponseWait(0))
}

func TestMCP2221_WriteIsChunked(t *testing.T) {
	b := &bridge{}
	d := newTestAdapter(b)
	msg := append([]byte{0x06, 0xa2}, config.Waveshare7.Bytes()...)
	require.NoError(t, d.WriteToAddr(context.Background(), 0x5d, msg))

	require.Len(t, b.requests, 2)
	var wire []byte
	for i, req := range b.requests {
		assert.Equal(t, byte(0x90), req[0])
		assert.Equal(t, uint16(len(msg)), binary.LittleEndian.Uint16(req[1:3]), "report %d carries the total length", i)
		assert.Equal(t, byte(0xba), req[3])
	}
	wire = append(wire, b.requests[0][4:4+MaxChunk]...)
	wire = append(wire, b.requests[1][4:4+len(msg)-MaxChunk]...)
	assert.Equal(t, msg, wire)
	assert.Equal(t, b.opened, b.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	b := &bridge{responses: [][]byte{{0x90, 0x01}}}
	d := newTestAdapter(b)
	err := d.WriteToAddr(context.Background(), 0x5d, []byte{0x00})
	assert.ErrorIs(t, err, gt811.ErrBusBusy)
}

func TestMCP2221_ReadCollectsChunks(t *testing.T) {
	want := config.Waveshare7.Bytes()
	b := &bridge{responses: [][]byte{
		{},
		dataReport(want[:MaxChunk]),
		dataReport(want[MaxChunk:]),
	}}
	d := newTestAdapter(b)
	got := make([]byte, len(want))
	require.NoError(t, d.ReadFromAddr(context.Background(), 0x5d, got))
	assert.Equal(t, want, got)

	require.Len(t, b.requests, 3)
	assert.Equal(t, []byte{0x91, byte(len(want)), 0x00, 0xbb}, b.requests[0][:4])
	assert.Equal(t, byte(0x40), b.requests[1][0])
	assert.Equal(t, byte(0x40), b.requests[2][0])
}

func TestMCP2221_Tx(t *testing.T) {
	b := &bridge{responses: [][]byte{{}, {}, dataReport([]byte{0x11, 0x22})}}
	d := newTestAdapter(b)
	reg := gt811.NewAddressedBus(d, 0x5d)
	buf := make([]byte, 2)
	require.NoError(t, reg.ReadRegister(context.Background(), 0x0721, buf))
	assert.Equal(t, []byte{0x11, 0x22}, buf)

	require.Len(t, b.requests, 3)
	assert.Equal(t, []byte{0x94, 0x02, 0x00, 0xba, 0x07, 0x21}, b.requests[0][:6])
	assert.Equal(t, []byte{0x93, 0x02, 0x00, 0xbb}, b.requests[1][:4])
}

func TestMCP2221_ReadErrors(t *testing.T) {
	tests := []struct {
		name string
		resp []byte
		msg  string
	}{
		{"engine error", []byte{0x40, 0x41}, "error reading the I2C slave data from the I2C engine"},
		{"size error", []byte{0x40, 0x00, 0x00, 127}, "invalid data size byte 127"},
		{"oversized", dataReport([]byte{1, 2, 3}), "invalid data size byte; expected at most 2, got 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &bridge{responses: [][]byte{{}, tt.resp}}
			d := newTestAdapter(b)
			err := d.ReadFromAddr(context.Background(), 0x5d, make([]byte, 2))
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestMCP2221_ReadGivesUp(t *testing.T) {
	b := &bridge{}
	d := newTestAdapter(b)
	d.retries = 3
	err := d.ReadFromAddr(context.Background(), 0x5d, make([]byte, 2))
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Len(t, b.requests, 4)
}

func TestMCP2221_Init(t *testing.T) {
	b := &bridge{responses: [][]byte{{}, {0x10, 0x00, 0x00, 0x20}}}
	d := NewMCP2221(WithOpener(b.opener), WithResponseWait(0), WithSpeed(400*physic.KiloHertz))
	require.NoError(t, d.Init(context.Background()))
	require.Len(t, b.requests, 2)
	assert.Equal(t, byte(0x10), b.requests[0][2], "pending transfer is cancelled")
	assert.Equal(t, byte(0x20), b.requests[1][3])
	assert.Equal(t, byte(27), b.requests[1][4])
}

func TestMCP2221_SetSpeedRejected(t *testing.T) {
	b := &bridge{responses: [][]byte{{0x10, 0x00, 0x00, 0x21}}}
	d := newTestAdapter(b)
	err := d.SetSpeed(context.Background(), 100*physic.KiloHertz)
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestSpeedDivider(t *testing.T) {
	div, err := speedDivider(100 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, byte(117), div)
	_, err = speedDivider(10 * physic.KiloHertz)
	assert.Error(t, err)
	_, err = speedDivider(0)
	assert.Error(t, err)
}

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, reportSize)
	binary.LittleEndian.PutUint16(buf[9:11], 108)
	binary.LittleEndian.PutUint16(buf[11:13], 60)
	buf[13] = 4
	buf[14] = 117
	buf[15] = 3
	buf[16] = 0xba
	buf[25] = 1
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        117,
		I2CTimeout:             3,
		CurrentAddress:         "ba00",
		LastWriteRequestedSize: 108,
		LastWriteSentSize:      60,
		ReadPending:            1,
	}, bufferToStatus(buf))
}
