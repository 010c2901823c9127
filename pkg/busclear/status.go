package busclear

import "errors"

// Status is the outcome of a bus clear run. The numeric values are stable.
type Status int

const (
	// StatusPinFault is returned together with an error when the GPIO
	// backend itself fails. No bus condition produces it.
	StatusPinFault Status = -1

	StatusCleared      Status = 0 // bus is free
	StatusClockLow     Status = 1 // SCL held low, the bus cannot be mastered
	StatusClockStretch Status = 2 // SCL held low by a slave stretching the clock past the timeout
	StatusDataLow      Status = 3 // SDA still held low after the maximum number of clock pulses
)

var (
	ErrClockLow     = errors.New("i2c bus error: SCL clock line held low")
	ErrClockStretch = errors.New("i2c bus error: SCL clock line held low by slave clock stretch")
	ErrDataLow      = errors.New("i2c bus error: SDA data line held low")
	ErrPinFault     = errors.New("i2c bus recovery: GPIO failure")
)

func (obj Status) String() string {
	switch obj {
	case StatusCleared:
		return "cleared"
	case StatusClockLow:
		return "scl stuck low"
	case StatusClockStretch:
		return "scl stretch timeout"
	case StatusDataLow:
		return "sda stuck low"
	case StatusPinFault:
		return "pin fault"
	}
	return "unknown"
}

// Err returns the sentinel error for a failure status and nil for
// StatusCleared.
func (obj Status) Err() error {
	switch obj {
	case StatusCleared:
		return nil
	case StatusClockLow:
		return ErrClockLow
	case StatusClockStretch:
		return ErrClockStretch
	case StatusDataLow:
		return ErrDataLow
	}
	return ErrPinFault
}
