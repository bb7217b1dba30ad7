package bringup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/gt811"
	"github.com/mklimuk/gt811/config"
	"github.com/mklimuk/gt811/twi"
)

type MockClocks struct {
	mock.Mock
}

func (m *MockClocks) EnablePeripheralClock(c Clock) {
	m.Called(c)
}

func (m *MockClocks) SetOpenDrainAltFn(pins ...Pin) {
	m.Called(pins)
}

type MockConfigWriter struct {
	mock.Mock
}

func (m *MockConfigWriter) Configure(ctx context.Context, table config.Table) error {
	return m.Called(ctx, table).Error(0)
}

func TestSequencer_Run(t *testing.T) {
	clocks := &SimClocks{}
	sim := twi.NewSim()
	sim.Disable()
	dev := gt811.New(twi.NewEngine(sim))

	err := New(clocks, sim, dev).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Clock{ClockGPIOB, ClockI2C2, ClockAFIO}, clocks.Clocks())
	assert.Equal(t, []Pin{PinSCL, PinSDA}, clocks.Pins())
	assert.True(t, sim.Enabled())
	assert.Equal(t, twi.Timing{FreqMHz: 36, Fast: true, CCR: 0x1e, Trise: 11}, sim.Timing())

	txs := sim.Transactions()
	require.Len(t, txs, 1, "exactly one write transaction")
	assert.Equal(t, config.Waveshare7.Bytes(), sim.Registers(config.Register, config.Size))
}

func TestSequencer_Order(t *testing.T) {
	clocks := new(MockClocks)
	writer := new(MockConfigWriter)
	ctx := context.Background()
	mock.InOrder(
		clocks.On("EnablePeripheralClock", ClockGPIOB).Return().Once(),
		clocks.On("EnablePeripheralClock", ClockI2C2).Return().Once(),
		clocks.On("EnablePeripheralClock", ClockAFIO).Return().Once(),
		clocks.On("SetOpenDrainAltFn", []Pin{PinSCL, PinSDA}).Return().Once(),
		writer.On("Configure", ctx, config.Waveshare7).Return(nil).Once(),
	)
	sim := twi.NewSim()
	require.NoError(t, New(clocks, sim, writer).Run(ctx))
	clocks.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestSequencer_Options(t *testing.T) {
	sim := twi.NewSim()
	table := config.New("custom", 3, make([]byte, config.Size))
	writer := new(MockConfigWriter)
	writer.On("Configure", mock.Anything, table).Return(nil).Once()

	seq := New(&SimClocks{}, sim, writer,
		WithHostClock(8*physic.MegaHertz),
		WithBusSpeed(twi.StandardSpeed),
		WithTable(table),
	)
	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, twi.Timing{FreqMHz: 8, CCR: 40, Trise: 9}, sim.Timing())
	writer.AssertExpectations(t)
}

func TestSequencer_Errors(t *testing.T) {
	t.Run("invalid timing", func(t *testing.T) {
		clocks := &SimClocks{}
		writer := new(MockConfigWriter)
		err := New(clocks, twi.NewSim(), writer, WithHostClock(physic.MegaHertz)).Run(context.Background())
		assert.ErrorIs(t, err, twi.ErrClockRange)
		assert.Empty(t, clocks.Clocks(), "nothing is touched before timing is known")
		writer.AssertNotCalled(t, "Configure", mock.Anything, mock.Anything)
	})
	t.Run("write failure", func(t *testing.T) {
		writer := new(MockConfigWriter)
		writer.On("Configure", mock.Anything, mock.Anything).Return(errors.New("nack")).Once()
		err := New(&SimClocks{}, twi.NewSim(), writer).Run(context.Background())
		assert.EqualError(t, err, "bring-up failed: nack")
	})
}
