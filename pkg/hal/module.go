package hal

// RegisterBus defines set of methods a peripheral driver needs to talk to its
// registers. It is implemented by regbus.Device.
type RegisterBus interface {
	Configure(addr DeviceAddress)
	WriteRegister(reg RegAddress, value uint8) error
	ReadRegister(reg RegAddress, numBytes int) (uint32, error)
	ReadRegisterSigned(reg RegAddress, numBytes int) (int32, error)
	UpdateRegister(reg RegAddress, mask uint8, bits uint8) error
}
