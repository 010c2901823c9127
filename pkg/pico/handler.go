//go:build tinygo

// Package pico provides bus lines and the I2C transport for TinyGo targets
// such as the Raspberry Pi Pico.
package pico

import (
	"fmt"
	"machine"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/wire"
)

// Line drives a machine.Pin as an open collector bus line.
type Line struct {
	pin machine.Pin
}

var _ hal.Line = (*Line)(nil)

func NewLine(pin machine.Pin) *Line {
	return &Line{pin: pin}
}

func (obj *Line) Configure(mode hal.PinMode) error {
	switch mode {
	case hal.ModeInput:
		obj.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	case hal.ModeInputPullUp:
		obj.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	case hal.ModeOutputLow:
		// clear the output latch first so switching to output never glitches high
		obj.pin.Low()
		obj.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		obj.pin.Low()
	default:
		return fmt.Errorf("unsupported pin mode %d", mode)
	}
	return nil
}

func (obj *Line) Get() (hal.Level, error) {
	if obj.pin.Get() {
		return hal.High, nil
	}
	return hal.Low, nil
}

// Controller hands the bus pins back to the I2C peripheral by configuring it
// again. Configuring a Line already moves its pin to GPIO.
type Controller struct {
	Bus    *machine.I2C
	Config machine.I2CConfig
}

var _ hal.BusController = (*Controller)(nil)

func (obj *Controller) TakePins() error {
	return nil
}

func (obj *Controller) ReturnPins() error {
	if err := obj.Bus.Configure(obj.Config); err != nil {
		return fmt.Errorf("failed to configure i2c bus: %w", err)
	}
	return nil
}

// NewTransport configures bus and wraps it as a hal.Transport.
func NewTransport(bus *machine.I2C, cfg machine.I2CConfig) (*wire.Wire, error) {
	if err := bus.Configure(cfg); err != nil {
		return nil, fmt.Errorf("failed to configure i2c bus: %w", err)
	}
	return wire.NewFromTinyGo(bus), nil
}
