package hal

// RegAddress is the 8-bit address of a register inside a peripheral.
type RegAddress uint8

// ToByte returns the address as it is sent on the wire.
func (obj RegAddress) ToByte() byte {
	return byte(obj)
}

// DeviceAddress is a 7-bit I2C slave address.
type DeviceAddress uint8

// MaxDeviceAddress is the highest valid 7-bit address.
const MaxDeviceAddress DeviceAddress = 0x7F

// Valid reports whether the address fits in 7 bits.
func (obj DeviceAddress) Valid() bool {
	return obj <= MaxDeviceAddress
}

// Register is a local model of a single 8-bit peripheral register.
type Register interface {
	GetAddress() RegAddress
	GetValue() uint8
	SetValue(value uint8)
}
