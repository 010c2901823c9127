package common

import (
	"fmt"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/warthog618/gpiod"
)

// GPIOLine drives one GPIO character device line as an open collector bus
// line.
type GPIOLine struct {
	line   *gpiod.Line
	offset int
}

var _ hal.Line = (*GPIOLine)(nil)

func (obj *GPIOLine) Configure(mode hal.PinMode) (err error) {
	switch mode {
	case hal.ModeInput:
		err = obj.line.Reconfigure(gpiod.AsInput, gpiod.WithBiasDisabled)
	case hal.ModeInputPullUp:
		err = obj.line.Reconfigure(gpiod.AsInput, gpiod.WithPullUp)
	case hal.ModeOutputLow:
		err = obj.line.Reconfigure(gpiod.AsOutput(0))
	default:
		return fmt.Errorf("unsupported pin mode %d on line %d", mode, obj.offset)
	}
	if err != nil {
		return fmt.Errorf("failed to reconfigure line %d as %s: %w", obj.offset, mode, err)
	}
	return nil
}

func (obj *GPIOLine) Get() (hal.Level, error) {
	val, err := obj.line.Value()
	if err != nil {
		return hal.Low, fmt.Errorf("failed to get line %d value: %w", obj.offset, err)
	}
	if val == 0 {
		return hal.Low, nil
	}
	return hal.High, nil
}

// BusLines holds the SDA and SCL lines of one I2C bus requested from a GPIO
// chip. The kernel I2C driver must not own the pins while they are held.
type BusLines struct {
	chip *gpiod.Chip
	SDA  *GPIOLine // data line
	SCL  *GPIOLine // clock line
}

// NewBusLines requests sdaPin and sclPin from gpioChip (e.g. "gpiochip0") as
// released inputs with pull-ups. Linux 5.5+ is needed for bias settings.
func NewBusLines(gpioChip string, sdaPin int, sclPin int) (*BusLines, error) {
	c, err := gpiod.NewChip(gpioChip, gpiod.WithConsumer("i2c-busclear"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	handler := &BusLines{chip: c}

	sda, err := c.RequestLine(sdaPin, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to request SDA GPIO line: %w", err)
	}
	handler.SDA = &GPIOLine{line: sda, offset: sdaPin}

	scl, err := c.RequestLine(sclPin, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		sda.Close()
		c.Close()
		return nil, fmt.Errorf("failed to request SCL GPIO line: %w", err)
	}
	handler.SCL = &GPIOLine{line: scl, offset: sclPin}
	return handler, nil
}

// Close releases both lines and the chip.
func (obj *BusLines) Close() (err error) {
	err = obj.SDA.line.Close()
	if err != nil {
		return fmt.Errorf("failed to close SDA line: %w", err)
	}
	err = obj.SCL.line.Close()
	if err != nil {
		return fmt.Errorf("failed to close SCL line: %w", err)
	}
	err = obj.chip.Close()
	if err != nil {
		return fmt.Errorf("failed to close GPIO chip: %w", err)
	}
	return nil
}
