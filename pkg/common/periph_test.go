package common

import (
	"testing"

	"github.com/mbalug7/go-i2c-helper/pkg/busclear"
	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestPeriphLineModes(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO2", Num: 2}
	line := NewPeriphLine(p)

	if err := line.Configure(hal.ModeInputPullUp); err != nil {
		t.Fatal(err)
	}
	if p.P != gpio.PullUp {
		t.Errorf("got pull %s, want %s", p.P, gpio.PullUp)
	}
	if lvl, _ := line.Get(); lvl != hal.High {
		t.Errorf("released line reads %s", lvl)
	}

	if err := line.Configure(hal.ModeOutputLow); err != nil {
		t.Fatal(err)
	}
	if lvl, _ := line.Get(); lvl != hal.Low {
		t.Errorf("driven line reads %s", lvl)
	}

	if err := line.Configure(hal.ModeInput); err != nil {
		t.Fatal(err)
	}
	if p.P != gpio.Float {
		t.Errorf("got pull %s, want %s", p.P, gpio.Float)
	}

	if err := line.Configure(hal.PinMode(42)); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestPeriphLinesClearFreeBus(t *testing.T) {
	sda := &gpiotest.Pin{N: "SDA", Num: 2}
	scl := &gpiotest.Pin{N: "SCL", Num: 3}

	rec := busclear.New(busclear.WithSettleDelay(0))
	status, err := rec.Clear(NewPeriphLine(sda), NewPeriphLine(scl))
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if status != busclear.StatusCleared {
		t.Fatalf("got status %s, want %s", status, busclear.StatusCleared)
	}
	if sda.P != gpio.Float || scl.P != gpio.Float {
		t.Errorf("pins not left tri-state: SDA %s, SCL %s", sda.P, scl.P)
	}
}

func TestPeriphBusLines(t *testing.T) {
	sdaPin := &gpiotest.Pin{N: "SDA", Num: 2}
	sclPin := &gpiotest.Pin{N: "SCL", Num: 3}
	bus := &i2ctest.Playback{SDAPin: sdaPin, SCLPin: sclPin}

	sda, scl, err := PeriphBusLines(bus)
	if err != nil {
		t.Fatalf("PeriphBusLines failed: %v", err)
	}
	if sda.pin != sdaPin || scl.pin != sclPin {
		t.Error("lines not bound to the bus pins")
	}

	if _, _, err := PeriphBusLines(&i2ctest.Playback{}); err == nil {
		t.Error("expected error for a bus without pins")
	}
}

func TestPeriphControllerPropagatesMuxError(t *testing.T) {
	// gpiotest pins do not support SetFunc
	ctrl := &PeriphController{
		SDA: &gpiotest.Pin{N: "SDA"},
		SCL: &gpiotest.Pin{N: "SCL"},
	}
	if err := ctrl.TakePins(); err == nil {
		t.Error("expected mux error")
	}
	if err := ctrl.ReturnPins(); err == nil {
		t.Error("expected mux error")
	}
}
