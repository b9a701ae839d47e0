package ranging

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/proximity"
)

const DefaultAddress = 0x29

const (
	regSysRangeStart  byte = 0x00
	regResultRangeVal byte = 0x1E
)

const sysRangeStartSingleShot byte = 0x01

// VL53L0X represents an ST VL53L0X time-of-flight ranging sensor.
// Only the single-shot trigger and the range result register are used; the sensor
// runs with its power-on defaults.
//
// Usage:
//
//	s := NewVL53L0X(bus)
//	_ = s.StartRanging(ctx)
//	d, err := s.ReadDistance(ctx)
type VL53L0X struct {
	transport proximity.Transactor
	address   byte
}

type VL53L0XConfig struct {
	Address byte
}

type VL53L0XConfigOption func(*VL53L0XConfig)

func WithAddress(address byte) VL53L0XConfigOption {
	return func(c *VL53L0XConfig) {
		c.Address = address
	}
}

func NewVL53L0X(trans proximity.Transactor, opts ...VL53L0XConfigOption) *VL53L0X {
	config := &VL53L0XConfig{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &VL53L0X{transport: trans, address: config.Address}
}

func (s *VL53L0X) Address() byte {
	return s.address
}

// StartRanging triggers a single measurement.
func (s *VL53L0X) StartRanging(ctx context.Context) error {
	_, err := s.transport.Write(ctx, s.address, []byte{regSysRangeStart, sysRangeStartSingleShot})
	if err != nil {
		return fmt.Errorf("vl53l0x: could not start ranging: %w", err)
	}
	return nil
}

// ReadDistance reads the last range result. On any bus failure it returns
// proximity.Sentinel together with an error wrapping proximity.ErrSensorUnavailable.
func (s *VL53L0X) ReadDistance(ctx context.Context) (proximity.Distance, error) {
	resp, err := s.transport.WriteThenRead(ctx, s.address, []byte{regResultRangeVal}, 2)
	if err != nil {
		return proximity.Sentinel, fmt.Errorf("vl53l0x: %w: %w", proximity.ErrSensorUnavailable, err)
	}
	return proximity.Distance(binary.BigEndian.Uint16(resp)), nil
}
