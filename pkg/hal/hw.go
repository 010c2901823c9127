package hal

// Transport is a byte oriented master-mode I2C transport. Writes are buffered between BeginTransmission and
// EndTransmission. RequestFrom fills a receive buffer that is drained with
// Available and ReadByte.
type Transport interface {
	BeginTransmission(addr DeviceAddress)
	WriteByte(b byte) error
	EndTransmission() error
	RequestFrom(addr DeviceAddress, n int) error
	Available() int
	ReadByte() (byte, error)
}

// Level is the instantaneous level of a bus line.
type Level int

const (
	Low Level = iota
	High
)

func (obj Level) String() string {
	if obj == Low {
		return "LOW"
	}
	return "HIGH"
}

// PinMode is the drive mode of a bus line. I2C is open collector so there is
// no mode that drives a line high: a line is either released or pulled low.
type PinMode int

const (
	ModeInput       PinMode = iota // tri-state, no internal pull
	ModeInputPullUp                // released, internal pull-up enabled
	ModeOutputLow                  // actively driven low
)

func (obj PinMode) String() string {
	switch obj {
	case ModeInput:
		return "input"
	case ModeInputPullUp:
		return "input-pullup"
	case ModeOutputLow:
		return "output-low"
	}
	return "unknown"
}

// Line is a single GPIO line driven as raw digital I/O.
type Line interface {
	Configure(mode PinMode) error
	Get() (Level, error)
}

// BusController hands the SDA/SCL pins from the hardware I2C block to plain
// GPIO and back.
type BusController interface {
	TakePins() error
	ReturnPins() error
}
