// Package wire adapts transaction based I2C buses (periph.io, TinyGo) to the
// byte oriented hal.Transport used by the register helper.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

// BufferSize is the size of the transmit and receive buffers.
const BufferSize = 32

var (
	ErrBufferFull     = errors.New("wire: transmit buffer full")
	ErrNoTransmission = errors.New("wire: no transmission in progress")
	ErrRequestSize    = errors.New("wire: request larger than receive buffer")
)

// TxBus performs one write-then-read transaction on the bus. Both
// periph.io i2c.Bus and TinyGo drivers.I2C (and so machine.I2C) have it.
type TxBus interface {
	Tx(addr uint16, w, r []byte) error
}

// Wire buffers writes between BeginTransmission and EndTransmission and
// serves RequestFrom reads from a receive buffer.
type Wire struct {
	bus    TxBus
	txAddr hal.DeviceAddress
	txBuf  []byte
	inTx   bool
	rxBuf  []byte
	rxPos  int
}

var _ hal.Transport = (*Wire)(nil)

// New wraps any TxBus.
func New(bus TxBus) *Wire {
	return &Wire{
		bus:   bus,
		txBuf: make([]byte, 0, BufferSize),
		rxBuf: make([]byte, 0, BufferSize),
	}
}

// NewFromPeriph wraps a periph.io bus, e.g. one opened with i2creg.Open.
func NewFromPeriph(bus i2c.Bus) *Wire {
	return New(bus)
}

// NewFromTinyGo wraps a TinyGo bus such as machine.I2C0.
func NewFromTinyGo(bus drivers.I2C) *Wire {
	return New(bus)
}

func (obj *Wire) BeginTransmission(addr hal.DeviceAddress) {
	obj.txAddr = addr
	obj.txBuf = obj.txBuf[:0]
	obj.inTx = true
}

func (obj *Wire) WriteByte(b byte) error {
	if !obj.inTx {
		return ErrNoTransmission
	}
	if len(obj.txBuf) >= BufferSize {
		return ErrBufferFull
	}
	obj.txBuf = append(obj.txBuf, b)
	return nil
}

// EndTransmission sends the buffered bytes with a stop condition.
func (obj *Wire) EndTransmission() error {
	if !obj.inTx {
		return ErrNoTransmission
	}
	obj.inTx = false
	if err := obj.bus.Tx(uint16(obj.txAddr), obj.txBuf, nil); err != nil {
		return fmt.Errorf("failed to write %d bytes to %#x: %w", len(obj.txBuf), uint8(obj.txAddr), err)
	}
	return nil
}

// RequestFrom reads n bytes from addr into the receive buffer, discarding
// anything left unread from an earlier request.
func (obj *Wire) RequestFrom(addr hal.DeviceAddress, n int) error {
	if n > BufferSize {
		return ErrRequestSize
	}
	obj.rxBuf = obj.rxBuf[:n]
	obj.rxPos = 0
	if err := obj.bus.Tx(uint16(addr), nil, obj.rxBuf); err != nil {
		obj.rxBuf = obj.rxBuf[:0]
		return fmt.Errorf("failed to read %d bytes from %#x: %w", n, uint8(addr), err)
	}
	return nil
}

func (obj *Wire) Available() int {
	return len(obj.rxBuf) - obj.rxPos
}

func (obj *Wire) ReadByte() (byte, error) {
	if obj.rxPos >= len(obj.rxBuf) {
		return 0, io.EOF
	}
	b := obj.rxBuf[obj.rxPos]
	obj.rxPos++
	return b, nil
}
