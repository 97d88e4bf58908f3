package bus_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mbalug7/go-semtech-lora/pkg/bus"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

type fakeSPI struct {
	writes [][]byte
	reply  func(w []byte) []byte
	err    error
}

func (obj *fakeSPI) Tx(w, r []byte) error {
	obj.writes = append(obj.writes, append([]byte(nil), w...))
	if obj.err != nil {
		return obj.err
	}
	if r != nil && obj.reply != nil {
		copy(r, obj.reply(w))
	}
	return nil
}

type fakeAsyncSPI struct {
	fakeSPI
	pending  func()
	startErr error
}

func (obj *fakeAsyncSPI) TxAsync(w, r []byte, done func(error)) error {
	if obj.startErr != nil {
		return obj.startErr
	}
	obj.pending = func() { done(obj.Tx(w, r)) }
	return nil
}

type fakeLine struct {
	values  []int
	busyFor int
	reads   int
}

func (obj *fakeLine) SetValue(value int) error {
	obj.values = append(obj.values, value)
	return nil
}

func (obj *fakeLine) Value() (int, error) {
	obj.reads++
	if obj.reads <= obj.busyFor {
		return 1, nil
	}
	return 0, nil
}

func newInterface(t *testing.T, family params.Family, spi *fakeSPI) (*bus.Interface, *fakeLine) {
	t.Helper()
	cs := &fakeLine{}
	iface, err := bus.New(family, spi, bus.Lines{Busy: &fakeLine{}, ChipSelect: cs})
	if err != nil {
		t.Fatal(err)
	}
	return iface, cs
}

func TestRegisterLayout(t *testing.T) {
	testCases := []struct {
		family    params.Family
		wantWrite []byte
		wantRead  []byte
	}{
		{family: params.SX126x, wantWrite: []byte{0x0D, 0x08, 0x89, 0x55}, wantRead: []byte{0x1D, 0x08, 0x89, 0x00, 0x00}},
		{family: params.SX128x, wantWrite: []byte{0x18, 0x08, 0x89, 0x55}, wantRead: []byte{0x19, 0x08, 0x89, 0x00, 0x00}},
	}
	for _, tC := range testCases {
		t.Run(tC.family.String(), func(t *testing.T) {
			spi := &fakeSPI{reply: func(w []byte) []byte { return []byte{0xA2, 0xA2, 0xA2, 0xA2, 0x42} }}
			iface, cs := newInterface(t, tC.family, spi)
			if err := iface.WriteRegister(0x0889, 0x55); err != nil {
				t.Fatal(err)
			}
			got, err := iface.ReadRegister(0x0889)
			if err != nil {
				t.Fatal(err)
			}
			if got != 0x42 {
				t.Errorf("read value: got 0x%02x", got)
			}
			if !bytes.Equal(spi.writes[0], tC.wantWrite) || !bytes.Equal(spi.writes[1], tC.wantRead) {
				t.Errorf("got % x / % x", spi.writes[0], spi.writes[1])
			}
			if want := []int{0, 1, 0, 1}; !equalInts(cs.values, want) {
				t.Errorf("chip select: got %v, expected %v", cs.values, want)
			}
		})
	}
}

func TestReadRegister16(t *testing.T) {
	spi := &fakeSPI{reply: func(w []byte) []byte { return []byte{0, 0, 0, 0, 0xA9, 0xB5} }}
	iface, _ := newInterface(t, params.SX128x, spi)
	got, err := iface.ReadRegister16(0x0153)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xA9B5 {
		t.Errorf("got 0x%04x", got)
	}
	if want := []byte{0x19, 0x01, 0x53, 0, 0, 0}; !bytes.Equal(spi.writes[0], want) {
		t.Errorf("frame: got % x", spi.writes[0])
	}
}

func TestOpWords(t *testing.T) {
	spi := &fakeSPI{reply: func(w []byte) []byte { return []byte{0, 0, 0x7E, 0, 0} }}
	iface, _ := newInterface(t, params.SX126x, spi)
	if err := iface.WriteOpWord(params.SetStandby, 0x01); err != nil {
		t.Fatal(err)
	}
	got, err := iface.ReadOpWord(params.GetIrqStatus)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x7E {
		t.Errorf("got 0x%02x", got)
	}
	if !bytes.Equal(spi.writes[0], []byte{0x80, 0x01}) || !bytes.Equal(spi.writes[1], []byte{0x12, 0, 0, 0, 0}) {
		t.Errorf("got % x / % x", spi.writes[0], spi.writes[1])
	}
}

func TestUnsupportedOpcode(t *testing.T) {
	spi := &fakeSPI{}
	iface, _ := newInterface(t, params.SX128x, spi)
	if err := iface.Command(params.SetPaConfig, 1, 2, 3, 4); !errors.Is(err, params.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if len(spi.writes) != 0 {
		t.Errorf("unexpected bus traffic: %v", spi.writes)
	}
}

func TestBuffer(t *testing.T) {
	spi := &fakeSPI{reply: func(w []byte) []byte {
		return append([]byte{0xA2, 0xA2, 0xA2}, 1, 2, 3, 4, 5)
	}}
	iface, _ := newInterface(t, params.SX126x, spi)
	if err := iface.WriteBuffer(0, []byte{0xAA, 0xBB}); err != nil {
		t.Fatal(err)
	}
	payload, err := iface.ReadBuffer(0x10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(spi.writes[0], []byte{0x0E, 0x00, 0xAA, 0xBB}) {
		t.Errorf("write frame: got % x", spi.writes[0])
	}
	if !bytes.Equal(spi.writes[1], []byte{0x1E, 0x10, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("read frame: got % x", spi.writes[1])
	}
	if !bytes.Equal(payload, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("payload: got % x", payload)
	}

	// later queries reuse the read buffer, the payload must survive them
	if _, err := iface.Query(params.GetPacketStatus, 5); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(iface.Payload(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("payload after query: got % x", iface.Payload())
	}
	if length, start := iface.RxPayload(); length != 5 || start != 0x10 {
		t.Errorf("rx payload: got %d at %d", length, start)
	}

	if err := iface.WriteBuffer(0, make([]byte, 256)); !errors.Is(err, params.ErrConfig) {
		t.Errorf("oversized payload: expected ErrConfig, got %v", err)
	}
	if len(spi.writes) != 3 {
		t.Errorf("oversized payload reached the bus")
	}
}

func TestBusyTimeout(t *testing.T) {
	busy := &fakeLine{busyFor: 1 << 30}
	spi := &fakeSPI{}
	iface, err := bus.New(params.SX126x, spi, bus.Lines{Busy: busy})
	if err != nil {
		t.Fatal(err)
	}
	iface.MaxIters = 50
	if err := iface.Command(params.SetFs); !errors.Is(err, bus.ErrBusyTimeout) {
		t.Errorf("expected ErrBusyTimeout, got %v", err)
	}
	if busy.reads != 50 {
		t.Errorf("busy line polled %d times", busy.reads)
	}
	if len(spi.writes) != 0 {
		t.Error("command sent while busy")
	}
}

func TestBusyReleases(t *testing.T) {
	busy := &fakeLine{busyFor: 10}
	spi := &fakeSPI{}
	iface, err := bus.New(params.SX126x, spi, bus.Lines{Busy: busy})
	if err != nil {
		t.Fatal(err)
	}
	if err := iface.Command(params.SetFs); err != nil {
		t.Fatal(err)
	}
	if busy.reads != 11 || len(spi.writes) != 1 {
		t.Errorf("got %d polls, %d writes", busy.reads, len(spi.writes))
	}
}

func TestTransportError(t *testing.T) {
	busErr := errors.New("spi gone")
	spi := &fakeSPI{err: busErr}
	iface, cs := newInterface(t, params.SX126x, spi)
	err := iface.Command(params.SetFs)
	if !errors.Is(err, bus.ErrTransport) || !errors.Is(err, busErr) {
		t.Errorf("expected transport error wrapping the bus error, got %v", err)
	}
	if want := []int{0, 1}; !equalInts(cs.values, want) {
		t.Errorf("chip select not released: %v", cs.values)
	}
}

func TestReset(t *testing.T) {
	reset := &fakeLine{}
	iface, err := bus.New(params.SX126x, &fakeSPI{}, bus.Lines{Busy: &fakeLine{}, Reset: reset})
	if err != nil {
		t.Fatal(err)
	}
	if err := iface.Reset(); err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 1}; !equalInts(reset.values, want) {
		t.Errorf("got %v", reset.values)
	}

	noReset, _ := newInterface(t, params.SX126x, &fakeSPI{})
	if err := noReset.Reset(); err != nil {
		t.Errorf("reset without line: %s", err)
	}
}

func TestNewRequiresBusAndBusy(t *testing.T) {
	if _, err := bus.New(params.SX126x, nil, bus.Lines{Busy: &fakeLine{}}); err == nil {
		t.Error("expected error without bus")
	}
	if _, err := bus.New(params.SX126x, &fakeSPI{}, bus.Lines{}); err == nil {
		t.Error("expected error without busy line")
	}
}

func TestAsyncBuffer(t *testing.T) {
	spi := &fakeAsyncSPI{fakeSPI: fakeSPI{reply: func(w []byte) []byte {
		return []byte{0, 0, 0, 9, 8, 7}
	}}}
	cs := &fakeLine{}
	iface, err := bus.New(params.SX128x, spi, bus.Lines{Busy: &fakeLine{}, ChipSelect: cs})
	if err != nil {
		t.Fatal(err)
	}

	var got []byte
	var doneErr error
	called := false
	err = iface.ReadBufferAsync(0, 3, func(payload []byte, err error) {
		called = true
		got = append([]byte(nil), payload...)
		doneErr = err
	})
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("completion ran before the transfer finished")
	}
	if want := []int{0}; !equalInts(cs.values, want) {
		t.Errorf("chip select must stay asserted during the transfer: %v", cs.values)
	}
	spi.pending()
	if !called || doneErr != nil {
		t.Fatalf("completion: called %t, err %v", called, doneErr)
	}
	if !bytes.Equal(got, []byte{9, 8, 7}) {
		t.Errorf("payload: got % x", got)
	}
	if want := []byte{0x1B, 0, 0, 0, 0, 0}; !bytes.Equal(spi.writes[0], want) {
		t.Errorf("frame: got % x", spi.writes[0])
	}
	if want := []int{0, 1}; !equalInts(cs.values, want) {
		t.Errorf("chip select: got %v", cs.values)
	}

	blocking, _ := newInterface(t, params.SX126x, &fakeSPI{})
	if err := blocking.WriteBufferAsync(0, []byte{1}, func(error) {}); !errors.Is(err, params.ErrUnsupported) {
		t.Errorf("async on blocking bus: expected ErrUnsupported, got %v", err)
	}
}

func TestAsyncReadStartFailureDropsPayload(t *testing.T) {
	spi := &fakeAsyncSPI{fakeSPI: fakeSPI{reply: func(w []byte) []byte {
		return []byte{0, 0, 0, 0xAA, 0xBB}
	}}}
	cs := &fakeLine{}
	iface, err := bus.New(params.SX126x, spi, bus.Lines{Busy: &fakeLine{}, ChipSelect: cs})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iface.ReadBuffer(0, 2); err != nil {
		t.Fatal(err)
	}

	spi.startErr = errors.New("dma busy")
	called := false
	err = iface.ReadBufferAsync(0, 200, func([]byte, error) { called = true })
	if !errors.Is(err, bus.ErrTransport) {
		t.Errorf("got %v", err)
	}
	if called {
		t.Error("completion ran for a transfer that never started")
	}
	if n := len(iface.Payload()); n != 0 {
		t.Errorf("payload after failed read: got %d bytes", n)
	}
	if length, start := iface.RxPayload(); length != 0 || start != 0 {
		t.Errorf("rx payload: got %d at %d", length, start)
	}
	if want := []int{0, 1, 0, 1}; !equalInts(cs.values, want) {
		t.Errorf("chip select: got %v", cs.values)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
