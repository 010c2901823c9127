// Package exampledev drives a small register-addressed peripheral: a CONFIG
// register with two option fields, an unsigned 1 byte VALUE_X and a signed
// 3 byte VALUE_Y.
package exampledev

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/logging"
	"github.com/mbalug7/go-i2c-helper/pkg/regbus"
)

// DefaultAddress is the address the part answers on out of reset.
const DefaultAddress hal.DeviceAddress = 0x42

// ErrConfigUnchanged is returned when a staged config equals the one on the device.
var ErrConfigUnchanged = errors.New("new config is the same as the config on the device")

type Device struct {
	bus    hal.RegisterBus
	config Config
	log    logrus.FieldLogger
}

func NewDevice(bus hal.RegisterBus, logger logrus.FieldLogger) *Device {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Device{
		bus: bus,
		log: logger,
	}
}

// Begin binds the device to addr, then sets FOO to option A and BAR to option B
// with a read-modify-write of CONFIG.
func (obj *Device) Begin(addr hal.DeviceAddress) error {
	obj.bus.Configure(addr)

	value, err := obj.bus.ReadRegister(CONFIG, 1)
	if err != nil {
		return fmt.Errorf("failed to read config register: %w", err)
	}
	config := uint8(value)
	config = regbus.SetBits(config, FOO_MASK, uint8(FOO_OPTION_A))
	config = regbus.SetBits(config, BAR_MASK, uint8(BAR_OPTION_B))

	if err := obj.bus.WriteRegister(CONFIG, config); err != nil {
		return fmt.Errorf("failed to write config register: %w", err)
	}
	obj.config.SetValue(config)
	obj.log.WithField("config", fmt.Sprintf("%#02x", config)).Debug("example device configured")
	return nil
}

func (obj *Device) ReadValueX() (uint8, error) {
	v, err := obj.bus.ReadRegister(VALUE_X, valueXBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to read value x: %w", err)
	}
	return uint8(v), nil
}

func (obj *Device) ReadValueY() (int32, error) {
	v, err := obj.bus.ReadRegisterSigned(VALUE_Y, valueYBytes)
	if err != nil {
		return 0, fmt.Errorf("failed to read value y: %w", err)
	}
	return v, nil
}

// ReadConfig refreshes the local CONFIG model from the device.
func (obj *Device) ReadConfig() (Config, error) {
	v, err := obj.bus.ReadRegister(CONFIG, 1)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config register: %w", err)
	}
	obj.config.SetValue(uint8(v))
	return obj.config, nil
}

// WriteConfig writes staged to CONFIG and verifies it by reading it back.
func (obj *Device) WriteConfig(staged Config) error {
	if staged.GetValue() == obj.config.GetValue() {
		return ErrConfigUnchanged
	}
	if err := obj.bus.WriteRegister(CONFIG, staged.GetValue()); err != nil {
		return fmt.Errorf("failed to write config register: %w", err)
	}
	current, err := obj.ReadConfig()
	if err != nil {
		return err
	}
	if current.GetValue() != staged.GetValue() {
		return fmt.Errorf("device config %#02x does not match written %#02x", current.GetValue(), staged.GetValue())
	}
	return nil
}

func (obj *Device) GetConfiguration() string {
	return fmt.Sprintf("REG [%#02x]: %+v", obj.config.GetAddress().ToByte(), obj.config)
}
