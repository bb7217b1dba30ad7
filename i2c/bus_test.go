package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/config"
)

func TestGenericBus_RegisterAccess(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x5d, W: append([]byte{0x06, 0xa2}, config.Waveshare7.Bytes()...)},
			{Addr: 0x5d, W: []byte{0x06, 0xa2}, R: config.Waveshare7.Bytes()},
		},
		DontPanic: true,
	}
	bus := NewBus(pb)
	dev := gt811.New(gt811.NewAddressedBus(bus, gt811.DefaultAddress))
	ctx := context.Background()
	require.NoError(t, dev.Configure(ctx, config.Waveshare7))
	require.NoError(t, dev.VerifyConfig(ctx, config.Waveshare7))
	assert.NoError(t, bus.Close())
}

func TestGenericBus_Errors(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	bus := NewBus(pb)
	err := bus.WriteToAddr(context.Background(), 0x5d, []byte{0x01})
	assert.ErrorContains(t, err, "could not write to i2c bus 5d")
	err = bus.ReadFromAddr(context.Background(), 0x5d, make([]byte, 1))
	assert.ErrorContains(t, err, "could not read from i2c bus 5d")
}

type fakeConn struct {
	i2c.Connection
	addr    int
	written [][]byte
	reply   []byte
	closed  bool
	err     error
}

func (c *fakeConn) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Read(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return copy(b, c.reply), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	opened map[int]*fakeConn
	busNr  []int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	f.busNr = append(f.busNr, busNr)
	c := &fakeConn{addr: address, reply: []byte{0xaa, 0xbb}}
	f.opened[address] = c
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 0
}

func TestGobotBus(t *testing.T) {
	conn := &fakeConnector{opened: map[int]*fakeConn{}}
	bus := NewGobotBus(conn, WithBusNumber(2))
	reg := gt811.NewAddressedBus(bus, 0x5d)
	ctx := context.Background()

	require.NoError(t, reg.WriteRegister(ctx, 0x0721, []byte{0x01}))
	buf := make([]byte, 2)
	require.NoError(t, reg.ReadRegister(ctx, 0x0721, buf))
	assert.Equal(t, []byte{0xaa, 0xbb}, buf)

	require.Len(t, conn.opened, 1, "connection is reused")
	assert.Equal(t, []int{2}, conn.busNr)
	c := conn.opened[0x5d]
	assert.Equal(t, [][]byte{{0x07, 0x21, 0x01}, {0x07, 0x21}}, c.written)

	require.NoError(t, bus.Close())
	assert.True(t, c.closed)
}

func TestGobotBus_ShortRead(t *testing.T) {
	conn := &fakeConnector{opened: map[int]*fakeConn{}}
	bus := NewGobotBus(conn)
	err := bus.ReadFromAddr(context.Background(), 0x5d, make([]byte, 4))
	assert.EqualError(t, err, "short read from 5d: 2 of 4")
}

func TestGobotBus_WriteError(t *testing.T) {
	conn := &fakeConnector{opened: map[int]*fakeConn{}}
	bus := NewGobotBus(conn)
	require.NoError(t, bus.WriteToAddr(context.Background(), 0x5d, []byte{0x00}))
	conn.opened[0x5d].err = errors.New("remote I/O error")
	err := bus.WriteToAddr(context.Background(), 0x5d, []byte{0x00})
	assert.EqualError(t, err, "could not write to i2c bus 5d: remote I/O error")
}
