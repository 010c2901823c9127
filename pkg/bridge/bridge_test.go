package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mbalug7/go-i2c-helper/pkg/regbus"
)

// fakePort captures everything written to the bridge and plays back the
// bytes the bridge would answer with.
type fakePort struct {
	written bytes.Buffer
	answer  bytes.Buffer
}

func (obj *fakePort) Write(p []byte) (int, error) {
	return obj.written.Write(p)
}

func (obj *fakePort) Read(p []byte) (int, error) {
	return obj.answer.Read(p)
}

func newFakePort(answer ...byte) *fakePort {
	port := &fakePort{}
	port.answer.Write(answer)
	return port
}

func TestWriteRegisterFrames(t *testing.T) {
	port := newFakePort(statOK)
	dev := regbus.NewDevice(New(port, nil))
	dev.Configure(0x48)

	if err := dev.WriteRegister(0x10, 0xA5); err != nil {
		t.Fatalf("WriteRegister failed: %v", err)
	}
	want := []byte{
		'S', 0x90, 0x02, 0x10, 0xA5, 'P',
		'R', 0x0A, 'P',
	}
	if diff := cmp.Diff(want, port.written.Bytes()); diff != "" {
		t.Errorf("unexpected frames (-want +got):\n%s", diff)
	}
}

func TestReadRegisterFrames(t *testing.T) {
	port := newFakePort(statOK, 0xFF, 0xFF, 0xFE, statOK)
	dev := regbus.NewDevice(New(port, nil))
	dev.Configure(0x48)

	got, err := dev.ReadRegisterSigned(0x12, 3)
	if err != nil {
		t.Fatalf("ReadRegisterSigned failed: %v", err)
	}
	if got != -2 {
		t.Errorf("got %d, want -2", got)
	}
	want := []byte{
		'S', 0x90, 0x01, 0x12, 'P',
		'R', 0x0A, 'P',
		'S', 0x91, 0x03, 'P',
		'R', 0x0A, 'P',
	}
	if diff := cmp.Diff(want, port.written.Bytes()); diff != "" {
		t.Errorf("unexpected frames (-want +got):\n%s", diff)
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		stat byte
		want error
	}{
		{statNackAddr, ErrAddressNack},
		{statNackData, ErrDataNack},
		{statBusTimeout, ErrBusTimeout},
	}
	for _, tt := range tests {
		dev := regbus.NewDevice(New(newFakePort(tt.stat), nil))
		dev.Configure(0x20)
		if err := dev.WriteRegister(0x00, 0x00); !errors.Is(err, tt.want) {
			t.Errorf("status %#x: got %v, want %v", tt.stat, err, tt.want)
		}
	}
}

func TestUnknownStatus(t *testing.T) {
	b := New(newFakePort(0x42), nil)
	b.BeginTransmission(0x20)
	if err := b.EndTransmission(); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestShortAnswer(t *testing.T) {
	b := New(newFakePort(0x01), nil)
	if err := b.RequestFrom(0x20, 2); err == nil {
		t.Error("expected error when the bridge sends too few bytes")
	}
	if b.Available() != 0 {
		t.Errorf("got %d available after failed read", b.Available())
	}
}

func TestWriteOutsideTransmission(t *testing.T) {
	b := New(newFakePort(), nil)
	if err := b.WriteByte(0x01); !errors.Is(err, ErrNoTransmission) {
		t.Errorf("expected ErrNoTransmission, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close on wrapped stream failed: %v", err)
	}
}
