package bus

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/hal"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

const (
	// HeaderSize is the largest command header in front of buffer data, [ReadBuffer, offset, NOP]
	HeaderSize = 3
	// BufferSize fits a full 256 byte chip buffer plus the command header
	BufferSize = 256 + HeaderSize
	// DefaultMaxIters bounds the busy line polling
	DefaultMaxIters = 100000

	resetPulse = 700 * time.Microsecond
)

var (
	// ErrTransport wraps failures of the SPI bus or the GPIO lines
	ErrTransport = errors.New("radio transport failed")
	// ErrBusyTimeout is returned when the busy line stays high for MaxIters polls
	ErrBusyTimeout = errors.New("radio busy line timeout")
)

type transportError struct {
	action string
	err    error
}

func (obj *transportError) Error() string {
	return fmt.Sprintf("%s: failed to %s: %s", ErrTransport, obj.action, obj.err)
}

func (obj *transportError) Unwrap() error {
	return obj.err
}

func (obj *transportError) Is(target error) bool {
	return target == ErrTransport
}

var _ hal.Register = (*Interface)(nil)

// Lines are the GPIO lines of one radio. Reset and ChipSelect are optional: Reset is
// left nil when several radios share one reset line, ChipSelect when the SPI
// controller drives chip-select itself.
type Lines struct {
	Busy       hal.InputLine
	Reset      hal.OutputLine
	ChipSelect hal.OutputLine
}

// Interface issues opcode, register and buffer transactions to one radio. It owns the
// bus, the lines and fixed write/read buffers, and is not safe for concurrent use.
type Interface struct {
	bus    hal.Bus
	lines  Lines
	family params.Family

	// MaxIters is the number of busy line polls before ErrBusyTimeout
	MaxIters int

	writeBuf [BufferSize]byte
	readBuf  [BufferSize]byte
	payload  [BufferSize - HeaderSize]byte

	rxPayloadLen   uint8
	rxPayloadStart uint8
}

// New creates transaction interface for a radio of the given family
func New(family params.Family, b hal.Bus, lines Lines) (*Interface, error) {
	if b == nil {
		return nil, fmt.Errorf("failed to create radio interface: no bus")
	}
	if lines.Busy == nil {
		return nil, fmt.Errorf("failed to create radio interface: no busy line")
	}
	return &Interface{
		bus:      b,
		lines:    lines,
		family:   family,
		MaxIters: DefaultMaxIters,
	}, nil
}

// Family returns the chip family opcodes and registers are resolved for
func (obj *Interface) Family() params.Family {
	return obj.family
}

// Async returns the bulk transfer capability of the bus, if it has one
func (obj *Interface) Async() (hal.AsyncBus, bool) {
	async, ok := obj.bus.(hal.AsyncBus)
	return async, ok
}

// RxPayload returns length and buffer offset of the last payload read with ReadBuffer
func (obj *Interface) RxPayload() (length uint8, start uint8) {
	return obj.rxPayloadLen, obj.rxPayloadStart
}

// Payload returns the bytes of the last ReadBuffer. It stays valid until the next buffer read.
func (obj *Interface) Payload() []byte {
	return obj.payload[:obj.rxPayloadLen]
}

func (obj *Interface) keepPayload(offset uint8, length uint8) []byte {
	obj.rxPayloadLen = length
	obj.rxPayloadStart = offset
	copy(obj.payload[:], obj.readBuf[HeaderSize:HeaderSize+int(length)])
	return obj.Payload()
}

// Reset pulses the reset line low. Without a reset line it does nothing.
func (obj *Interface) Reset() error {
	if obj.lines.Reset == nil {
		return nil
	}
	if err := obj.lines.Reset.SetValue(0); err != nil {
		return &transportError{action: "assert reset", err: err}
	}
	time.Sleep(resetPulse)
	if err := obj.lines.Reset.SetValue(1); err != nil {
		return &transportError{action: "release reset", err: err}
	}
	return nil
}

// WaitUntilReady polls the busy line until it goes low, at most MaxIters times
func (obj *Interface) WaitUntilReady() error {
	for i := 0; i < obj.MaxIters; i++ {
		val, err := obj.lines.Busy.Value()
		if err != nil {
			return &transportError{action: "read busy line", err: err}
		}
		if val == 0 {
			return nil
		}
	}
	log.Printf("radio busy line still high after %d polls", obj.MaxIters)
	return ErrBusyTimeout
}

func (obj *Interface) selectChip() error {
	if obj.lines.ChipSelect == nil {
		return nil
	}
	if err := obj.lines.ChipSelect.SetValue(0); err != nil {
		return &transportError{action: "assert chip select", err: err}
	}
	return nil
}

func (obj *Interface) releaseChip() error {
	if obj.lines.ChipSelect == nil {
		return nil
	}
	if err := obj.lines.ChipSelect.SetValue(1); err != nil {
		return &transportError{action: "release chip select", err: err}
	}
	return nil
}

// transfer waits for the chip, then runs one chip-select framed transfer
func (obj *Interface) transfer(w, r []byte) error {
	if err := obj.WaitUntilReady(); err != nil {
		return err
	}
	if err := obj.selectChip(); err != nil {
		return err
	}
	err := obj.bus.Tx(w, r)
	if relErr := obj.releaseChip(); err == nil && relErr != nil {
		return relErr
	}
	if err != nil {
		return &transportError{action: fmt.Sprintf("transfer 0x%02x", w[0]), err: err}
	}
	return nil
}

func (obj *Interface) opcode(op params.Opcode) (byte, error) {
	code, ok := params.Op(obj.family, op)
	if !ok {
		return 0, fmt.Errorf("%w: %s on %s", params.ErrUnsupported, op, obj.family)
	}
	return code, nil
}

// frame builds [opcode, args...] in the write buffer
func (obj *Interface) frame(op params.Opcode, args []byte, n int) ([]byte, error) {
	code, err := obj.opcode(op)
	if err != nil {
		return nil, err
	}
	if n > BufferSize {
		return nil, fmt.Errorf("%w: transaction of %d bytes exceeds buffer", params.ErrConfig, n)
	}
	w := obj.writeBuf[:n]
	w[0] = code
	copied := copy(w[1:], args)
	for i := 1 + copied; i < n; i++ {
		w[i] = 0
	}
	return w, nil
}

// Write sends a raw frame, the first byte being the opcode
func (obj *Interface) Write(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	return obj.transfer(frame, nil)
}

// Read runs a full-duplex transfer of frame and returns what the chip clocked out.
// The result is backed by the read buffer and valid until the next transaction.
func (obj *Interface) Read(frame []byte) ([]byte, error) {
	if len(frame) > BufferSize {
		return nil, fmt.Errorf("%w: transaction of %d bytes exceeds buffer", params.ErrConfig, len(frame))
	}
	r := obj.readBuf[:len(frame)]
	if err := obj.transfer(frame, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Command sends [opcode, args...]
func (obj *Interface) Command(op params.Opcode, args ...byte) error {
	w, err := obj.frame(op, args, 1+len(args))
	if err != nil {
		return err
	}
	return obj.transfer(w, nil)
}

// Query sends the opcode followed by NOPs, n bytes in total, and returns the response
func (obj *Interface) Query(op params.Opcode, n int) ([]byte, error) {
	w, err := obj.frame(op, nil, n)
	if err != nil {
		return nil, err
	}
	r := obj.readBuf[:n]
	if err := obj.transfer(w, r); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteOpWord sends an opcode with one argument byte
func (obj *Interface) WriteOpWord(op params.Opcode, word byte) error {
	return obj.Command(op, word)
}

// ReadOpWord reads one byte answer of an opcode, byte 2 of [opcode, NOP, NOP, NOP, NOP]
func (obj *Interface) ReadOpWord(op params.Opcode) (byte, error) {
	r, err := obj.Query(op, 5)
	if err != nil {
		return 0, err
	}
	return r[2], nil
}

// WriteRegister writes one register, [WriteRegister, addrH, addrL, value]
func (obj *Interface) WriteRegister(addr hal.RegAddress, value uint8) error {
	h, l := addr.Bytes()
	return obj.Command(params.WriteRegister, h, l, value)
}

// ReadRegister reads one register, the value follows address and one NOP
func (obj *Interface) ReadRegister(addr hal.RegAddress) (uint8, error) {
	h, l := addr.Bytes()
	w, err := obj.frame(params.ReadRegister, []byte{h, l}, 5)
	if err != nil {
		return 0, err
	}
	r := obj.readBuf[:5]
	if err := obj.transfer(w, r); err != nil {
		return 0, err
	}
	return r[4], nil
}

// ReadRegister16 reads two consecutive registers as a big-endian word
func (obj *Interface) ReadRegister16(addr hal.RegAddress) (uint16, error) {
	h, l := addr.Bytes()
	w, err := obj.frame(params.ReadRegister, []byte{h, l}, 6)
	if err != nil {
		return 0, err
	}
	r := obj.readBuf[:6]
	if err := obj.transfer(w, r); err != nil {
		return 0, err
	}
	return uint16(r[4])<<8 | uint16(r[5]), nil
}

func (obj *Interface) bufferWriteFrame(offset uint8, payload []byte) ([]byte, error) {
	if len(payload) > params.MaxPayload(obj.family) {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds chip buffer", params.ErrConfig, len(payload))
	}
	return obj.frame(params.WriteBuffer, append([]byte{offset}, payload...), 2+len(payload))
}

// WriteBuffer copies payload into the chip buffer at offset, [WriteBuffer, offset, payload...]
func (obj *Interface) WriteBuffer(offset uint8, payload []byte) error {
	w, err := obj.bufferWriteFrame(offset, payload)
	if err != nil {
		return err
	}
	return obj.transfer(w, nil)
}

func (obj *Interface) bufferReadFrame(offset uint8, length uint8) ([]byte, error) {
	// the previous payload is gone once a new read was attempted
	obj.rxPayloadLen = 0
	obj.rxPayloadStart = 0
	return obj.frame(params.ReadBuffer, []byte{offset}, HeaderSize+int(length))
}

// ReadBuffer reads length bytes of the chip buffer starting at offset. The payload
// follows [ReadBuffer, offset, NOP] and is kept until the next buffer read, see Payload.
func (obj *Interface) ReadBuffer(offset uint8, length uint8) ([]byte, error) {
	w, err := obj.bufferReadFrame(offset, length)
	if err != nil {
		return nil, err
	}
	if err := obj.transfer(w, obj.readBuf[:len(w)]); err != nil {
		return nil, err
	}
	return obj.keepPayload(offset, length), nil
}

// transferAsync starts a bulk transfer, done runs once chip-select was released
func (obj *Interface) transferAsync(w, r []byte, done func(error)) error {
	async, ok := obj.Async()
	if !ok {
		return fmt.Errorf("%w: bus has no bulk transfer", params.ErrUnsupported)
	}
	if err := obj.WaitUntilReady(); err != nil {
		return err
	}
	if err := obj.selectChip(); err != nil {
		return err
	}
	err := async.TxAsync(w, r, func(txErr error) {
		relErr := obj.releaseChip()
		if txErr != nil {
			done(&transportError{action: fmt.Sprintf("bulk transfer 0x%02x", w[0]), err: txErr})
			return
		}
		done(relErr)
	})
	if err != nil {
		_ = obj.releaseChip()
		return &transportError{action: fmt.Sprintf("start bulk transfer 0x%02x", w[0]), err: err}
	}
	return nil
}

// WriteBufferAsync is WriteBuffer as a bulk transfer, done reports its completion
func (obj *Interface) WriteBufferAsync(offset uint8, payload []byte, done func(error)) error {
	w, err := obj.bufferWriteFrame(offset, payload)
	if err != nil {
		return err
	}
	return obj.transferAsync(w, nil, done)
}

// ReadBufferAsync is ReadBuffer as a bulk transfer. done receives the payload slice.
func (obj *Interface) ReadBufferAsync(offset uint8, length uint8, done func([]byte, error)) error {
	w, err := obj.bufferReadFrame(offset, length)
	if err != nil {
		return err
	}
	return obj.transferAsync(w, obj.readBuf[:len(w)], func(err error) {
		if err != nil {
			done(nil, err)
			return
		}
		done(obj.keepPayload(offset, length), nil)
	})
}
