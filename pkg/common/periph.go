package common

import (
	"fmt"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/host/v3"
)

// InitPeriph loads the periph.io host drivers. It is safe to call more than
// once.
func InitPeriph() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to init periph host drivers: %w", err)
	}
	return nil
}

// OpenPeriphBus opens an I2C bus by name ("1", "/dev/i2c-1", "" for the
// first one).
func OpenPeriphBus(name string) (i2c.BusCloser, error) {
	if err := InitPeriph(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// PeriphLine drives a periph.io GPIO pin as an open collector bus line.
type PeriphLine struct {
	pin gpio.PinIO
}

var _ hal.Line = (*PeriphLine)(nil)

func NewPeriphLine(p gpio.PinIO) *PeriphLine {
	return &PeriphLine{pin: p}
}

// PeriphLineByName looks a pin up by name, e.g. "GPIO2".
func PeriphLineByName(name string) (*PeriphLine, error) {
	if err := InitPeriph(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find gpio pin %q", name)
	}
	return NewPeriphLine(p), nil
}

// PeriphBusLines returns the SDA and SCL pins of a bus when the host driver
// exposes them.
func PeriphBusLines(bus i2c.Bus) (sda *PeriphLine, scl *PeriphLine, err error) {
	pins, ok := bus.(i2c.Pins)
	if !ok {
		return nil, nil, fmt.Errorf("i2c bus %s does not expose its pins", bus)
	}
	sdaPin, sclPin := pins.SDA(), pins.SCL()
	if sdaPin == nil || sdaPin == gpio.INVALID || sclPin == nil || sclPin == gpio.INVALID {
		return nil, nil, fmt.Errorf("i2c bus %s has no gpio backed pins", bus)
	}
	return NewPeriphLine(sdaPin), NewPeriphLine(sclPin), nil
}

// Pin returns the underlying periph.io pin.
func (obj *PeriphLine) Pin() gpio.PinIO {
	return obj.pin
}

func (obj *PeriphLine) Configure(mode hal.PinMode) (err error) {
	switch mode {
	case hal.ModeInput:
		err = obj.pin.In(gpio.Float, gpio.NoEdge)
	case hal.ModeInputPullUp:
		err = obj.pin.In(gpio.PullUp, gpio.NoEdge)
	case hal.ModeOutputLow:
		err = obj.pin.Out(gpio.Low)
	default:
		return fmt.Errorf("unsupported pin mode %d on %s", mode, obj.pin)
	}
	if err != nil {
		return fmt.Errorf("failed to set %s as %s: %w", obj.pin, mode, err)
	}
	return nil
}

func (obj *PeriphLine) Get() (hal.Level, error) {
	if obj.pin.Read() == gpio.Low {
		return hal.Low, nil
	}
	return hal.High, nil
}

// PeriphController switches the bus pins between their I2C alternate
// function and plain GPIO on hosts that support pin muxing.
type PeriphController struct {
	SDA gpio.PinIO
	SCL gpio.PinIO
}

var _ hal.BusController = (*PeriphController)(nil)

func (obj *PeriphController) TakePins() error {
	if err := setFunc(obj.SDA, gpio.IN); err != nil {
		return err
	}
	return setFunc(obj.SCL, gpio.IN)
}

func (obj *PeriphController) ReturnPins() error {
	if err := setFunc(obj.SDA, i2c.SDA); err != nil {
		return err
	}
	return setFunc(obj.SCL, i2c.SCL)
}

// setFunc is a no-op for pins without muxing support.
func setFunc(p gpio.PinIO, f pin.Func) error {
	pf, ok := p.(pin.PinFunc)
	if !ok {
		return nil
	}
	if err := pf.SetFunc(f); err != nil {
		return fmt.Errorf("failed to set %s function to %s: %w", p, f, err)
	}
	return nil
}
