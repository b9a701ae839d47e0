package gpio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
)

// MockI2CBus is a mock implementation of proximity.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return m.Called(ctx, address, buffer).Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestMCP23017_InitOutputs(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(DefaultMCP23017Address), []byte{0x00, 0x00}).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(DefaultMCP23017Address), []byte{0x01, 0xFF}).Return(nil).Once()

	exp := NewMCP23017(bus, DefaultMCP23017Address)
	require.NoError(t, exp.Init(ctx, PortA, 0x00))
	require.NoError(t, exp.Init(ctx, PortB, 0xFF))
	bus.AssertExpectations(t)
}

func TestMCP23017_Write(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x14, 0x05}).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x15, 0x80}).Return(nil).Once()

	exp := NewMCP23017(bus, 0x20)
	require.NoError(t, exp.Write(ctx, PortA, 0x05))
	require.NoError(t, exp.Write(ctx, PortB, 0x80))
	bus.AssertExpectations(t)
}

func TestMCP23017_BusyReleasesBus(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x15, 0xFF}).Return(proximity.ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()

	err := NewMCP23017(bus, 0x20).Write(ctx, PortB, 0xFF)
	assert.ErrorIs(t, err, proximity.ErrBusBusy)
	assert.EqualError(t, err, "could not write gpio B latch: "+proximity.ErrBusBusy.Error())
	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
	bus.AssertExpectations(t)
}

func TestMCP23017_ReadSettings(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x0B}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x20), mock.Anything).Return([]byte{0x20}, nil).Once()

	v, err := NewMCP23017(bus, 0x20).ReadSettings(ctx, PortB)
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), v)
	assert.Zero(t, v&IOCONBank)
	bus.AssertExpectations(t)
}

func TestMCP23017_OtherErrorNotRetried(t *testing.T) {
	bus := new(MockI2CBus)
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x14, 0x01}).Return(errors.New("nack")).Once()

	err := NewMCP23017(bus, 0x20).Write(ctx, PortA, 0x01)
	assert.EqualError(t, err, "could not write gpio A latch: nack")
	bus.AssertNotCalled(t, "Release", mock.Anything)
}
