package busclear

import (
	"errors"
	"time"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
)

// simBus models two open-collector lines with pull-ups and a slave that can
// hold either line low. Sleep advances a virtual clock.
type simBus struct {
	now       time.Duration
	sclPulses int
	sda       *simLine
	scl       *simLine
	events    []string
}

type simLine struct {
	bus     *simBus
	name    string
	mode    hal.PinMode
	history []hal.PinMode
	held    func() bool // slave pulls the line low
	readErr error
}

func newSimBus() *simBus {
	bus := &simBus{}
	never := func() bool { return false }
	bus.sda = &simLine{bus: bus, name: "SDA", mode: hal.ModeInput, held: never}
	bus.scl = &simLine{bus: bus, name: "SCL", mode: hal.ModeInput, held: never}
	return bus
}

func (obj *simBus) Sleep(d time.Duration) {
	obj.now += d
}

func (obj *simBus) TakePins() error {
	obj.events = append(obj.events, "take")
	return nil
}

func (obj *simBus) ReturnPins() error {
	obj.events = append(obj.events, "return")
	return nil
}

func (obj *simLine) Configure(mode hal.PinMode) error {
	if obj.name == "SCL" && mode == hal.ModeOutputLow && obj.mode != hal.ModeOutputLow {
		obj.bus.sclPulses++
	}
	obj.mode = mode
	obj.history = append(obj.history, mode)
	obj.bus.events = append(obj.bus.events, obj.name+":"+mode.String())
	return nil
}

func (obj *simLine) Get() (hal.Level, error) {
	if obj.readErr != nil {
		return hal.Low, obj.readErr
	}
	if obj.mode == hal.ModeOutputLow || obj.held() {
		return hal.Low, nil
	}
	return hal.High, nil
}

func (obj *simLine) drivenHighEver() bool {
	// there is no mode that drives high, so only check for unknown values
	for _, m := range obj.history {
		if m != hal.ModeInput && m != hal.ModeInputPullUp && m != hal.ModeOutputLow {
			return true
		}
	}
	return false
}

var errGPIO = errors.New("gpio backend gone")
