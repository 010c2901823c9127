// Package regbus reads and writes the 8-bit registers of an addressed I2C
// peripheral over a hal.Transport.
//
// Register values are 1 to 4 bytes wide and always travel most significant
// byte first. Calls are synchronous: a read busy-polls the transport until the
// requested bytes are available and, unless WithReadTimeout is used, waits
// forever for a slave that never answers.
//
// Passing a byte count outside 1..4, an address wider than 7 bits, or using a
// Device before Configure are programming errors and panic.
package regbus

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/logging"
	"github.com/sirupsen/logrus"
)

// MaxValueBytes is the widest register value supported.
const MaxValueBytes = 4

// ErrReadTimeout is returned when a bounded read gives up waiting for bytes.
var ErrReadTimeout = errors.New("timed out waiting for register bytes")

// Device is a register helper bound to one slave address.
type Device struct {
	tr          hal.Transport
	addr        hal.DeviceAddress
	configured  bool
	readTimeout time.Duration // 0 blocks forever
	log         logrus.FieldLogger
}

var _ hal.RegisterBus = (*Device)(nil)

// Option customizes a Device.
type Option func(*Device)

// WithLogger sets the logger used for register traffic traces.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(obj *Device) {
		obj.log = logger
	}
}

// WithReadTimeout bounds how long a read waits for the transport to supply
// the requested bytes. Zero keeps the default blocking behaviour.
func WithReadTimeout(d time.Duration) Option {
	return func(obj *Device) {
		obj.readTimeout = d
	}
}

// NewDevice constructs a Device on top of tr. Configure must be called before
// any register operation.
func NewDevice(tr hal.Transport, opts ...Option) *Device {
	obj := &Device{
		tr:  tr,
		log: logging.Discard(),
	}
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// Configure binds the slave address. It performs no I/O.
func (obj *Device) Configure(addr hal.DeviceAddress) {
	if !addr.Valid() {
		panic(fmt.Sprintf("regbus: device address %#x is wider than 7 bits", uint8(addr)))
	}
	obj.addr = addr
	obj.configured = true
}

// Address returns the configured slave address.
func (obj *Device) Address() hal.DeviceAddress {
	return obj.addr
}

// WriteRegister writes one byte to reg: the register address then the value,
// in a single transaction.
func (obj *Device) WriteRegister(reg hal.RegAddress, value uint8) error {
	obj.mustBeConfigured()
	obj.log.WithFields(logrus.Fields{"addr": obj.addr, "reg": reg, "value": value}).Debug("writing register")

	obj.tr.BeginTransmission(obj.addr)
	if err := obj.tr.WriteByte(reg.ToByte()); err != nil {
		return fmt.Errorf("failed to write register address %#x: %w", uint8(reg), err)
	}
	if err := obj.tr.WriteByte(value); err != nil {
		return fmt.Errorf("failed to write register %#x value: %w", uint8(reg), err)
	}
	if err := obj.tr.EndTransmission(); err != nil {
		return fmt.Errorf("failed to end register %#x write: %w", uint8(reg), err)
	}
	return nil
}

// ReadRegister reads numBytes from reg and returns them as a big-endian
// unsigned value.
func (obj *Device) ReadRegister(reg hal.RegAddress, numBytes int) (uint32, error) {
	mustValueWidth(numBytes)
	var buf [MaxValueBytes]byte
	if err := obj.ReadRegisterBytes(reg, buf[:numBytes]); err != nil {
		return 0, err
	}
	value := decodeUnsigned(buf[:numBytes])
	obj.log.WithFields(logrus.Fields{"reg": reg, "value": value}).Debug("unsigned register value")
	return value, nil
}

// ReadRegisterSigned reads numBytes from reg and sign-extends the big-endian
// value from its transmitted width to 32 bits.
func (obj *Device) ReadRegisterSigned(reg hal.RegAddress, numBytes int) (int32, error) {
	mustValueWidth(numBytes)
	var buf [MaxValueBytes]byte
	if err := obj.ReadRegisterBytes(reg, buf[:numBytes]); err != nil {
		return 0, err
	}
	value := signExtend(decodeUnsigned(buf[:numBytes]), numBytes)
	obj.log.WithFields(logrus.Fields{"reg": reg, "value": value}).Debug("signed register value")
	return value, nil
}

// ReadRegisterBytes reads len(buf) raw bytes from reg, MSB first.
func (obj *Device) ReadRegisterBytes(reg hal.RegAddress, buf []byte) error {
	obj.mustBeConfigured()
	mustValueWidth(len(buf))
	obj.log.WithFields(logrus.Fields{"addr": obj.addr, "reg": reg, "bytes": len(buf)}).Debug("reading register")

	obj.tr.BeginTransmission(obj.addr)
	if err := obj.tr.WriteByte(reg.ToByte()); err != nil {
		return fmt.Errorf("failed to write register address %#x: %w", uint8(reg), err)
	}
	if err := obj.tr.EndTransmission(); err != nil {
		return fmt.Errorf("failed to end register %#x address write: %w", uint8(reg), err)
	}
	if err := obj.tr.RequestFrom(obj.addr, len(buf)); err != nil {
		return fmt.Errorf("failed to request %d bytes from register %#x: %w", len(buf), uint8(reg), err)
	}
	if err := obj.waitAvailable(len(buf)); err != nil {
		return fmt.Errorf("failed to read register %#x: %w", uint8(reg), err)
	}
	for i := range buf {
		b, err := obj.tr.ReadByte()
		if err != nil {
			return fmt.Errorf("failed to read byte %d of register %#x: %w", i, uint8(reg), err)
		}
		buf[i] = b
	}
	obj.log.WithField("data", fmt.Sprintf("% X", buf)).Debug("read bytes")
	return nil
}

// UpdateRegister reads the single byte register reg, replaces the bits under
// mask with bits and writes the result back.
func (obj *Device) UpdateRegister(reg hal.RegAddress, mask uint8, bits uint8) error {
	current, err := obj.ReadRegister(reg, 1)
	if err != nil {
		return err
	}
	return obj.WriteRegister(reg, SetBits(uint8(current), mask, bits))
}

func (obj *Device) waitAvailable(n int) error {
	if obj.readTimeout <= 0 {
		for obj.tr.Available() < n {
			runtime.Gosched()
		}
		return nil
	}
	deadline := time.Now().Add(obj.readTimeout)
	for obj.tr.Available() < n {
		if time.Now().After(deadline) {
			return ErrReadTimeout
		}
		runtime.Gosched()
	}
	return nil
}

func (obj *Device) mustBeConfigured() {
	if !obj.configured {
		panic("regbus: register access before Configure")
	}
}

func mustValueWidth(numBytes int) {
	if numBytes < 1 || numBytes > MaxValueBytes {
		panic(fmt.Sprintf("regbus: register width %d outside 1..%d bytes", numBytes, MaxValueBytes))
	}
}
