package ranging

import (
	"context"

	"github.com/mklimuk/proximity"
)

// DistanceBehaviorFunc defines the function signature for ranging behavior.
// It returns the distance in millimeters or the sentinel with an error.
type DistanceBehaviorFunc func(ctx context.Context) (proximity.Distance, error)

// MockRangeSensor is a mock implementation of a ranging sensor that uses a behavior
// function to produce results without requiring any hardware.
type MockRangeSensor struct {
	behavior DistanceBehaviorFunc
	triggers int
}

// NewMockRangeSensor creates a new mock ranging sensor with the given behavior function.
// The behavior function is called whenever ReadDistance is invoked.
//
// Example usage:
//
//	// Object approaching at 50mm per read
//	d := proximity.Distance(800)
//	sensor := NewMockRangeSensor(func(ctx context.Context) (proximity.Distance, error) {
//		d -= 50
//		return d, nil
//	})
func NewMockRangeSensor(behavior DistanceBehaviorFunc) *MockRangeSensor {
	return &MockRangeSensor{behavior: behavior}
}

// StartRanging only counts triggers.
func (m *MockRangeSensor) StartRanging(ctx context.Context) error {
	m.triggers++
	return nil
}

// ReadDistance returns the distance by calling the behavior function.
func (m *MockRangeSensor) ReadDistance(ctx context.Context) (proximity.Distance, error) {
	return m.behavior(ctx)
}

// Triggers returns how many times StartRanging was called.
func (m *MockRangeSensor) Triggers() int {
	return m.triggers
}
