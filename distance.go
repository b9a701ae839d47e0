package proximity

import "strconv"

// Distance is a range reading in millimeters.
type Distance uint16

// Sentinel is the reserved reading (all bits set) meaning the sensor could not be read.
const Sentinel Distance = 0xFFFF

// Valid reports whether d is a physical measurement rather than the sentinel.
func (d Distance) Valid() bool {
	return d != Sentinel
}

// Millimeters returns the raw value. Check Valid first.
func (d Distance) Millimeters() uint16 {
	return uint16(d)
}

func (d Distance) String() string {
	if !d.Valid() {
		return "ERROR"
	}
	return strconv.FormatUint(uint64(d), 10) + "mm"
}
