// Package bridge drives an I2C bus through an NXP SC18IM700 UART-to-I2C
// bridge attached to a serial port.
//
// Frames are ASCII commands: 'S' starts a transfer (slave address with R/W
// bit, byte count, data), 'P' stops, 'R' reads internal bridge registers.
// After every transfer the bridge I2CStat register is read back so NACKs and
// bus timeouts surface as errors.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

const (
	cmdStart        byte = 'S'
	cmdStop         byte = 'P'
	cmdReadRegister byte = 'R'

	regI2CStat byte = 0x0A

	statOK         byte = 0xF0
	statNackAddr   byte = 0xF1
	statNackData   byte = 0xF2
	statBusTimeout byte = 0xF8

	// MaxTransfer is the largest byte count a single bridge frame carries.
	MaxTransfer = 255

	DefaultBaud = 9600
)

var (
	ErrAddressNack    = errors.New("bridge: slave did not acknowledge its address")
	ErrDataNack       = errors.New("bridge: slave did not acknowledge data")
	ErrBusTimeout     = errors.New("bridge: i2c bus timeout")
	ErrNoTransmission = errors.New("bridge: no transmission in progress")
)

// Config describes the serial port the bridge is attached to.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Bridge implements hal.Transport on top of an SC18IM700.
type Bridge struct {
	port   io.ReadWriter
	closer io.Closer
	txAddr hal.DeviceAddress
	txBuf  []byte
	inTx   bool
	rxBuf  []byte
	rxPos  int
	log    logrus.FieldLogger
}

var _ hal.Transport = (*Bridge)(nil)

// Open opens the serial port described by cfg and wraps it.
func Open(cfg Config, logger logrus.FieldLogger) (*Bridge, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 2 * time.Second
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		Size:        8,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	obj := New(port, logger)
	obj.closer = port
	return obj, nil
}

// New wraps an already open stream to the bridge.
func New(port io.ReadWriter, logger logrus.FieldLogger) *Bridge {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bridge{
		port: port,
		log:  logger,
	}
}

// Close closes the serial port if the bridge opened it.
func (obj *Bridge) Close() error {
	if obj.closer == nil {
		return nil
	}
	if err := obj.closer.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (obj *Bridge) BeginTransmission(addr hal.DeviceAddress) {
	obj.txAddr = addr
	obj.txBuf = obj.txBuf[:0]
	obj.inTx = true
}

func (obj *Bridge) WriteByte(b byte) error {
	if !obj.inTx {
		return ErrNoTransmission
	}
	if len(obj.txBuf) >= MaxTransfer {
		return fmt.Errorf("bridge: transfer longer than %d bytes", MaxTransfer)
	}
	obj.txBuf = append(obj.txBuf, b)
	return nil
}

// EndTransmission sends the buffered write as one S..P frame and checks the
// bridge status.
func (obj *Bridge) EndTransmission() error {
	if !obj.inTx {
		return ErrNoTransmission
	}
	obj.inTx = false
	frame := make([]byte, 0, len(obj.txBuf)+4)
	frame = append(frame, cmdStart, byte(obj.txAddr)<<1, byte(len(obj.txBuf)))
	frame = append(frame, obj.txBuf...)
	frame = append(frame, cmdStop)
	obj.log.WithField("frame", fmt.Sprintf("% X", frame)).Debug("bridge write")
	if _, err := obj.port.Write(frame); err != nil {
		return fmt.Errorf("failed to send write frame: %w", err)
	}
	return obj.checkStatus()
}

// RequestFrom sends a read frame and collects n bytes from the bridge.
func (obj *Bridge) RequestFrom(addr hal.DeviceAddress, n int) error {
	if n > MaxTransfer {
		return fmt.Errorf("bridge: transfer longer than %d bytes", MaxTransfer)
	}
	obj.rxBuf = obj.rxBuf[:0]
	obj.rxPos = 0
	frame := []byte{cmdStart, byte(addr)<<1 | 1, byte(n), cmdStop}
	obj.log.WithField("frame", fmt.Sprintf("% X", frame)).Debug("bridge read")
	if _, err := obj.port.Write(frame); err != nil {
		return fmt.Errorf("failed to send read frame: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(obj.port, buf); err != nil {
		return fmt.Errorf("failed to receive %d bytes: %w", n, err)
	}
	if err := obj.checkStatus(); err != nil {
		return err
	}
	obj.rxBuf = buf
	return nil
}

func (obj *Bridge) Available() int {
	return len(obj.rxBuf) - obj.rxPos
}

func (obj *Bridge) ReadByte() (byte, error) {
	if obj.rxPos >= len(obj.rxBuf) {
		return 0, io.EOF
	}
	b := obj.rxBuf[obj.rxPos]
	obj.rxPos++
	return b, nil
}

// Status reads the bridge I2CStat register.
func (obj *Bridge) Status() (byte, error) {
	if _, err := obj.port.Write([]byte{cmdReadRegister, regI2CStat, cmdStop}); err != nil {
		return 0, fmt.Errorf("failed to request bridge status: %w", err)
	}
	var stat [1]byte
	if _, err := io.ReadFull(obj.port, stat[:]); err != nil {
		return 0, fmt.Errorf("failed to read bridge status: %w", err)
	}
	return stat[0], nil
}

func (obj *Bridge) checkStatus() error {
	stat, err := obj.Status()
	if err != nil {
		return err
	}
	switch stat {
	case statOK:
		return nil
	case statNackAddr:
		return ErrAddressNack
	case statNackData:
		return ErrDataNack
	case statBusTimeout:
		return ErrBusTimeout
	}
	return fmt.Errorf("bridge: unexpected i2c status %#x", stat)
}
