package busclear

import (
	"time"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSettleDelay  = 2500 * time.Millisecond
	DefaultClockPulses  = 20 // more than 2x9 clocks
	DefaultStretchPolls = 20

	stretchPollInterval = 100 * time.Millisecond
	halfPeriod          = 10 * time.Microsecond // >5us so the slowest devices follow
)

// Sleeper provides the real-time delays of the recovery sequence.
// clockwork.Clock satisfies it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Option customizes a Recovery.
type Option func(*Recovery)

// WithLogger sets the logger used for recovery diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(obj *Recovery) {
		obj.log = logger
	}
}

// WithSleeper replaces the real clock used for delays.
func WithSleeper(s Sleeper) Option {
	return func(obj *Recovery) {
		obj.sleeper = s
	}
}

// WithController makes Clear take the pins from the hardware I2C controller
// for the duration of the run.
func WithController(c hal.BusController) Option {
	return func(obj *Recovery) {
		obj.controller = c
	}
}

// WithSettleDelay sets the wait after releasing both lines. Some peripherals
// need it to finish their power-up initialization.
func WithSettleDelay(d time.Duration) Option {
	return func(obj *Recovery) {
		obj.settle = d
	}
}

// WithClockPulses sets how many SCL pulses are tried while SDA is held low.
func WithClockPulses(n int) Option {
	return func(obj *Recovery) {
		obj.clockPulses = n
	}
}

// WithStretchPolls sets how many 100ms polls wait for a stretched SCL.
func WithStretchPolls(n int) Option {
	return func(obj *Recovery) {
		obj.stretchPolls = n
	}
}
