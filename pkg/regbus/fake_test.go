package regbus

import (
	"errors"
	"io"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
)

type txOp struct {
	Addr hal.DeviceAddress
	W    []byte
}

// fakeTransport records finished write transactions and answers reads from a
// queue of responses. lag makes Available report fewer bytes for the first
// polls after a request.
type fakeTransport struct {
	ops       []txOp
	requests  []hal.DeviceAddress
	responses [][]byte
	lag       int
	endErr    error

	cur   *txOp
	rx    []byte
	polls int
}

func (obj *fakeTransport) BeginTransmission(addr hal.DeviceAddress) {
	obj.cur = &txOp{Addr: addr}
}

func (obj *fakeTransport) WriteByte(b byte) error {
	if obj.cur == nil {
		return errors.New("write outside transmission")
	}
	obj.cur.W = append(obj.cur.W, b)
	return nil
}

func (obj *fakeTransport) EndTransmission() error {
	if obj.cur == nil {
		return errors.New("end outside transmission")
	}
	obj.ops = append(obj.ops, *obj.cur)
	obj.cur = nil
	return obj.endErr
}

func (obj *fakeTransport) RequestFrom(addr hal.DeviceAddress, n int) error {
	obj.requests = append(obj.requests, addr)
	if len(obj.responses) == 0 {
		return errors.New("no response queued")
	}
	obj.rx = obj.responses[0][:n]
	obj.responses = obj.responses[1:]
	obj.polls = 0
	return nil
}

func (obj *fakeTransport) Available() int {
	obj.polls++
	if obj.polls <= obj.lag {
		return 0
	}
	return len(obj.rx)
}

func (obj *fakeTransport) ReadByte() (byte, error) {
	if len(obj.rx) == 0 {
		return 0, io.EOF
	}
	b := obj.rx[0]
	obj.rx = obj.rx[1:]
	return b, nil
}

// silentTransport accepts requests but never delivers any bytes.
type silentTransport struct {
	fakeTransport
}

func (obj *silentTransport) RequestFrom(addr hal.DeviceAddress, n int) error {
	obj.requests = append(obj.requests, addr)
	return nil
}

func (obj *silentTransport) Available() int {
	return 0
}
