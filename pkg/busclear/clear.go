// Package busclear frees an I2C bus that a slave is holding by driving SDA and
// SCL as plain GPIO, without the I2C controller.
//
// The sequence follows the I2C_ClearBus routine by Forward Computing and
// Control: release both lines, check SCL, clock SCL until the slave lets go
// of SDA (waiting out clock stretching), then issue a start/stop pair.
// Lines are only ever released or pulled low. On return both lines are
// tri-state inputs and the caller must re-initialize its I2C transport.
package busclear

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Recovery holds the timing parameters of a bus clear run. It keeps no state
// between runs.
type Recovery struct {
	log          logrus.FieldLogger
	sleeper      Sleeper
	controller   hal.BusController // optional
	settle       time.Duration
	clockPulses  int
	stretchPolls int
}

// New constructs a Recovery with the default timings.
func New(opts ...Option) *Recovery {
	obj := &Recovery{
		log:          logging.Discard(),
		sleeper:      clockwork.NewRealClock(),
		settle:       DefaultSettleDelay,
		clockPulses:  DefaultClockPulses,
		stretchPolls: DefaultStretchPolls,
	}
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// ClearBus runs a recovery with default settings.
func ClearBus(sda, scl hal.Line) (Status, error) {
	return New().Clear(sda, scl)
}

// Clear runs the recovery sequence once. The error is non-nil only with
// StatusPinFault, when the GPIO backend fails.
func (obj *Recovery) Clear(sda, scl hal.Line) (status Status, err error) {
	if obj.controller != nil {
		if err := obj.controller.TakePins(); err != nil {
			return StatusPinFault, fmt.Errorf("failed to take bus pins from the controller: %w", err)
		}
	}
	defer func() {
		if rerr := tristate(sda, scl); rerr != nil && err == nil {
			status, err = StatusPinFault, rerr
		}
		if obj.controller != nil {
			if rerr := obj.controller.ReturnPins(); rerr != nil && err == nil {
				status, err = StatusPinFault, fmt.Errorf("failed to return bus pins to the controller: %w", rerr)
			}
		}
		obj.report(status, err)
	}()
	return obj.run(sda, scl)
}

func (obj *Recovery) run(sda, scl hal.Line) (Status, error) {
	if err := configure(sda, "SDA", hal.ModeInputPullUp); err != nil {
		return StatusPinFault, err
	}
	if err := configure(scl, "SCL", hal.ModeInputPullUp); err != nil {
		return StatusPinFault, err
	}
	obj.sleeper.Sleep(obj.settle)

	sclLow, err := isLow(scl, "SCL")
	if err != nil {
		return StatusPinFault, err
	}
	if sclLow {
		return StatusClockLow, nil
	}

	sdaLow, err := isLow(sda, "SDA")
	if err != nil {
		return StatusPinFault, err
	}
	pulses := obj.clockPulses
	for sdaLow && pulses > 0 {
		pulses--
		obj.log.WithField("remaining", pulses).Debug("SDA held low, pulsing SCL")
		if err := obj.pulse(scl, "SCL"); err != nil {
			return StatusPinFault, err
		}
		// do not force SCL high, the slave may be stretching the clock
		sclLow, err = obj.waitHigh(scl)
		if err != nil {
			return StatusPinFault, err
		}
		if sclLow {
			return StatusClockStretch, nil
		}
		sdaLow, err = isLow(sda, "SDA")
		if err != nil {
			return StatusPinFault, err
		}
	}
	if sdaLow {
		return StatusDataLow, nil
	}

	// With a single master a start (or repeated start) followed by a stop
	// resets every slave state machine.
	if err := obj.pulse(sda, "SDA"); err != nil {
		return StatusPinFault, err
	}
	return StatusCleared, nil
}

// pulse pulls the line low for half a period and releases it for another.
func (obj *Recovery) pulse(line hal.Line, name string) error {
	if err := configure(line, name, hal.ModeOutputLow); err != nil {
		return err
	}
	obj.sleeper.Sleep(halfPeriod)
	if err := configure(line, name, hal.ModeInputPullUp); err != nil {
		return err
	}
	obj.sleeper.Sleep(halfPeriod)
	return nil
}

// waitHigh polls a released SCL until it goes high or the stretch budget is
// spent. It reports whether SCL is still low.
func (obj *Recovery) waitHigh(scl hal.Line) (bool, error) {
	low, err := isLow(scl, "SCL")
	if err != nil {
		return false, err
	}
	polls := obj.stretchPolls
	for low && polls > 0 {
		polls--
		obj.sleeper.Sleep(stretchPollInterval)
		low, err = isLow(scl, "SCL")
		if err != nil {
			return false, err
		}
	}
	return low, nil
}

func (obj *Recovery) report(status Status, err error) {
	if status == StatusCleared {
		obj.log.Debug("i2c bus cleared")
		return
	}
	entry := obj.log.WithField("status", int(status))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warnf("I2C bus error. Could not clear: %s", status)
}

func tristate(sda, scl hal.Line) error {
	sdaErr := configure(sda, "SDA", hal.ModeInput)
	sclErr := configure(scl, "SCL", hal.ModeInput)
	if sdaErr != nil {
		return sdaErr
	}
	return sclErr
}

func configure(line hal.Line, name string, mode hal.PinMode) error {
	if err := line.Configure(mode); err != nil {
		return fmt.Errorf("failed to set %s line to %s: %w", name, mode, err)
	}
	return nil
}

func isLow(line hal.Line, name string) (bool, error) {
	level, err := line.Get()
	if err != nil {
		return false, fmt.Errorf("failed to read %s line: %w", name, err)
	}
	return level == hal.Low, nil
}
