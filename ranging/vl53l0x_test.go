package ranging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/proximity"
	"github.com/mklimuk/proximity/i2c"
)

// MockTransactor is a mock implementation of proximity.Transactor using testify/mock
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) Write(ctx context.Context, address byte, data []byte) (int, error) {
	args := m.Called(ctx, address, data)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactor) WriteThenRead(ctx context.Context, address byte, w []byte, n int) ([]byte, error) {
	args := m.Called(ctx, address, w, n)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// countingEngine acknowledges a fixed number of bytes on every write.
type countingEngine struct {
	acked int
	reply []byte
	recvs int
}

func (e *countingEngine) Start(ctx context.Context) error { return nil }
func (e *countingEngine) Stop(ctx context.Context) error  { return nil }

func (e *countingEngine) Send(ctx context.Context, address byte, data []byte, mode i2c.Mode) (int, error) {
	return e.acked, nil
}

func (e *countingEngine) Recv(ctx context.Context, address byte, buffer []byte, mode i2c.Mode) (int, error) {
	e.recvs++
	return copy(buffer, e.reply), nil
}

func TestVL53L0X_StartRanging(t *testing.T) {
	bus := new(MockTransactor)
	ctx := context.Background()
	bus.On("Write", ctx, byte(DefaultAddress), []byte{0x00, 0x01}).Return(2, nil).Once()

	assert.NoError(t, NewVL53L0X(bus).StartRanging(ctx))
	bus.AssertExpectations(t)
}

func TestVL53L0X_StartRangingFailure(t *testing.T) {
	bus := new(MockTransactor)
	ctx := context.Background()
	bus.On("Write", ctx, byte(0x30), []byte{0x00, 0x01}).Return(1, proximity.ErrShortTransfer).Once()

	err := NewVL53L0X(bus, WithAddress(0x30)).StartRanging(ctx)
	assert.ErrorIs(t, err, proximity.ErrShortTransfer)
	bus.AssertExpectations(t)
}

func TestVL53L0X_ReadDistance(t *testing.T) {
	tests := []struct {
		given    []byte
		expected proximity.Distance
	}{
		{[]byte{0x00, 0x96}, 150},
		{[]byte{0x02, 0xBC}, 700},
		{[]byte{0x00, 0x00}, 0},
		{[]byte{0x1F, 0xFE}, 8190},
	}
	for _, test := range tests {
		t.Run(test.expected.String(), func(t *testing.T) {
			bus := new(MockTransactor)
			ctx := context.Background()
			bus.On("WriteThenRead", ctx, byte(DefaultAddress), []byte{0x1E}, 2).Return(test.given, nil).Once()

			d, err := NewVL53L0X(bus).ReadDistance(ctx)
			require.NoError(t, err)
			assert.Equal(t, test.expected, d)
			bus.AssertExpectations(t)
		})
	}
}

func TestVL53L0X_ReadDistanceFailureReturnsSentinel(t *testing.T) {
	bus := new(MockTransactor)
	ctx := context.Background()
	bus.On("WriteThenRead", ctx, byte(DefaultAddress), []byte{0x1E}, 2).Return(nil, errors.New("nack")).Once()

	d, err := NewVL53L0X(bus).ReadDistance(ctx)
	assert.Equal(t, proximity.Sentinel, d)
	assert.ErrorIs(t, err, proximity.ErrSensorUnavailable)
}

func TestVL53L0X_WritePhaseNackSkipsRead(t *testing.T) {
	engine := &countingEngine{acked: 0, reply: []byte{0x00, 0x96}}
	sensor := NewVL53L0X(i2c.NewBus(engine))

	d, err := sensor.ReadDistance(context.Background())
	assert.Equal(t, proximity.Sentinel, d)
	assert.ErrorIs(t, err, proximity.ErrSensorUnavailable)
	assert.ErrorIs(t, err, proximity.ErrShortTransfer)
	assert.Equal(t, 0, engine.recvs)
}

func TestVL53L0X_OverRealBus(t *testing.T) {
	engine := &countingEngine{acked: 1, reply: []byte{0x01, 0xF4}}
	d, err := NewVL53L0X(i2c.NewBus(engine)).ReadDistance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, proximity.Distance(500), d)
	assert.Equal(t, 1, engine.recvs)
}

func TestMockRangeSensor(t *testing.T) {
	d := proximity.Distance(800)
	sensor := NewMockRangeSensor(func(ctx context.Context) (proximity.Distance, error) {
		d -= 50
		return d, nil
	})
	ctx := context.Background()
	require.NoError(t, sensor.StartRanging(ctx))
	got, err := sensor.ReadDistance(ctx)
	require.NoError(t, err)
	assert.Equal(t, proximity.Distance(750), got)
	assert.Equal(t, 1, sensor.Triggers())
}
