package exampledev

import "github.com/mbalug7/go-i2c-helper/pkg/hal"

const (
	CONFIG  hal.RegAddress = 0x10
	VALUE_X hal.RegAddress = 0x11 // 1 byte unsigned
	VALUE_Y hal.RegAddress = 0x12 // 3 bytes signed
)

const (
	valueXBytes = 1
	valueYBytes = 3
)

// CONFIG register layout

const (
	FOO_MASK uint8 = 0x03
	BAR_MASK uint8 = 0x0C
)

type fooOption uint8

const (
	FOO_OPTION_A fooOption = 0x01
	FOO_OPTION_B fooOption = 0x02
)

type barOption uint8

const (
	BAR_OPTION_A barOption = 0x04
	BAR_OPTION_B barOption = 0x08
)

// Config is the local model of the CONFIG register. Bits outside FOO and BAR
// are kept as read so a write back never changes them.
type Config struct {
	foo   fooOption
	bar   barOption
	other uint8
}

var _ hal.Register = (*Config)(nil)

func (obj *Config) GetAddress() hal.RegAddress {
	return CONFIG
}

func (obj *Config) GetValue() uint8 {
	return uint8(obj.foo) | uint8(obj.bar) | obj.other
}

func (obj *Config) SetValue(value uint8) {
	obj.foo = fooOption(value & FOO_MASK)
	obj.bar = barOption(value & BAR_MASK)
	obj.other = value &^ (FOO_MASK | BAR_MASK)
}

func (obj *Config) Foo() fooOption {
	return obj.foo
}

func (obj *Config) Bar() barOption {
	return obj.bar
}
