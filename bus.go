package proximity

import (
	"context"
	"errors"
)

var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

// ErrShortTransfer is returned when the peripheral acknowledged fewer bytes than requested.
var ErrShortTransfer = errors.New("short transfer")

// ErrSensorUnavailable marks a reading that could not be taken from the sensor.
var ErrSensorUnavailable = errors.New("sensor unavailable")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter is implemented by bus masters that can get stuck mid-transfer;
// Release brings the engine back to idle.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a whole-buffer bus master such as a USB bridge.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transactor issues counted two-wire transactions. Write returns the number of
// acknowledged bytes; WriteThenRead keeps the bus between the two phases.
type Transactor interface {
	Write(ctx context.Context, address byte, data []byte) (int, error)
	WriteThenRead(ctx context.Context, address byte, w []byte, n int) ([]byte, error)
}
