// Package buspirate drives a radio from a desktop through a Bus Pirate in binary
// raw-SPI mode. The Bus Pirate clocks SPI, drives chip-select and uses its AUX pin as
// the radio reset line.
package buspirate

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/bus"
	"github.com/mbalug7/go-semtech-lora/pkg/hal"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/tarm/serial"
)

const (
	cmdBitbangReset byte = 0x00
	cmdEnterSPI     byte = 0x01
	cmdCSLow        byte = 0x02
	cmdCSHigh       byte = 0x03
	cmdResetTerm    byte = 0x0F
	cmdBulk         byte = 0x10 // low nibble is count-1
	cmdPeripherals  byte = 0x40 // power, pull-ups, AUX, CS
	cmdSpeed        byte = 0x60
	cmdSPIConfig    byte = 0x80

	periphPower byte = 0x08
	periphAUX   byte = 0x02

	// 3.3V push-pull, idle low, sample on active edge: SPI mode 0
	spiMode0 byte = 0x0A

	ack byte = 0x01

	maxBulk     = 16
	enterTries  = 20
	defaultBaud = 115200
)

// Speed is the Bus Pirate SPI clock selection
type Speed byte

const (
	Speed30kHz Speed = iota
	Speed125kHz
	Speed250kHz
	Speed1MHz
	Speed2MHz
	Speed2_6MHz
	Speed4MHz
	Speed8MHz
)

// Config of the serial port and SPI clock
type Config struct {
	Port   string        // e.g. /dev/ttyUSB0
	Baud   int           // default 115200
	Speed  Speed         // zero value is 30 kHz
	Settle time.Duration // busy line substitute, see SettleBusy
}

// Bridge implements hal.Bus over the Bus Pirate. Chip-select is part of every Tx, so
// bus.Lines gets no ChipSelect line.
type Bridge struct {
	port        io.ReadWriter
	closer      io.Closer
	peripherals byte
	settle      time.Duration
	resp        [maxBulk + 1]byte
}

// Open opens the serial port and switches the Bus Pirate to raw-SPI mode
func Open(cfg Config) (*Bridge, error) {
	if cfg.Baud == 0 {
		cfg.Baud = defaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		Size:        8,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port, err: %w", err)
	}
	bridge, err := newBridge(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	bridge.closer = port
	return bridge, nil
}

func newBridge(port io.ReadWriter, cfg Config) (*Bridge, error) {
	obj := &Bridge{port: port, settle: cfg.Settle}
	if err := obj.enterSPI(); err != nil {
		return nil, err
	}
	if err := obj.command(cmdSPIConfig | spiMode0); err != nil {
		return nil, fmt.Errorf("failed to configure SPI: %w", err)
	}
	if err := obj.command(cmdSpeed | byte(cfg.Speed&0x07)); err != nil {
		return nil, fmt.Errorf("failed to set SPI speed: %w", err)
	}
	// power on, reset released
	if err := obj.setPeripherals(periphPower | periphAUX); err != nil {
		return nil, err
	}
	return obj, nil
}

func (obj *Bridge) enterSPI() error {
	reply := obj.resp[:5]
	entered := false
	for i := 0; i < enterTries && !entered; i++ {
		if _, err := obj.port.Write([]byte{cmdBitbangReset}); err != nil {
			return fmt.Errorf("failed to enter binary mode: %w", err)
		}
		// the terminal stays silent until it has seen enough zeros
		if _, err := io.ReadFull(obj.port, reply); err != nil {
			continue
		}
		entered = bytes.Equal(reply, []byte("BBIO1"))
	}
	if !entered {
		return fmt.Errorf("failed to enter binary mode after %d tries", enterTries)
	}

	if _, err := obj.port.Write([]byte{cmdEnterSPI}); err != nil {
		return fmt.Errorf("failed to enter SPI mode: %w", err)
	}
	reply = obj.resp[:4]
	if _, err := io.ReadFull(obj.port, reply); err != nil {
		return fmt.Errorf("failed to enter SPI mode: %w", err)
	}
	if !bytes.Equal(reply, []byte("SPI1")) {
		return fmt.Errorf("failed to enter SPI mode, got %q", reply)
	}
	return nil
}

// command sends a one byte command and expects the 0x01 acknowledge
func (obj *Bridge) command(cmd byte) error {
	if _, err := obj.port.Write([]byte{cmd}); err != nil {
		return err
	}
	return obj.expectAck(cmd)
}

func (obj *Bridge) expectAck(cmd byte) error {
	if _, err := io.ReadFull(obj.port, obj.resp[:1]); err != nil {
		return err
	}
	if obj.resp[0] != ack {
		return fmt.Errorf("command 0x%02x not acknowledged, got 0x%02x", cmd, obj.resp[0])
	}
	return nil
}

func (obj *Bridge) setPeripherals(bits byte) error {
	if err := obj.command(cmdPeripherals | bits); err != nil {
		return fmt.Errorf("failed to set peripherals: %w", err)
	}
	obj.peripherals = bits
	return nil
}

// Tx runs one chip-select framed transfer in bulk chunks of up to 16 bytes. Chip-select
// is released even when the transfer fails.
func (obj *Bridge) Tx(w, r []byte) error {
	if r != nil && len(r) < len(w) {
		return fmt.Errorf("read buffer of %d bytes for a %d byte transfer", len(r), len(w))
	}
	if err := obj.command(cmdCSLow); err != nil {
		return fmt.Errorf("failed to assert chip select: %w", err)
	}
	err := obj.bulk(w, r)
	if csErr := obj.command(cmdCSHigh); csErr != nil && err == nil {
		err = fmt.Errorf("failed to release chip select: %w", csErr)
	}
	return err
}

func (obj *Bridge) bulk(w, r []byte) error {
	for off := 0; off < len(w); off += maxBulk {
		end := off + maxBulk
		if end > len(w) {
			end = len(w)
		}
		chunk := w[off:end]
		frame := append([]byte{cmdBulk | byte(len(chunk)-1)}, chunk...)
		if _, err := obj.port.Write(frame); err != nil {
			return fmt.Errorf("failed to write bulk transfer: %w", err)
		}
		if err := obj.expectAck(frame[0]); err != nil {
			return err
		}
		in := obj.resp[:len(chunk)]
		if _, err := io.ReadFull(obj.port, in); err != nil {
			return fmt.Errorf("failed to read bulk transfer: %w", err)
		}
		if r != nil {
			copy(r[off:end], in)
		}
	}
	return nil
}

type auxLine struct {
	bridge *Bridge
}

func (obj auxLine) SetValue(value int) error {
	bits := obj.bridge.peripherals &^ periphAUX
	if value != 0 {
		bits |= periphAUX
	}
	return obj.bridge.setPeripherals(bits)
}

// ResetLine is the AUX pin as a hal.OutputLine
func (obj *Bridge) ResetLine() hal.OutputLine {
	return auxLine{bridge: obj}
}

// SettleBusy stands in for the busy line, which the Bus Pirate cannot sample in SPI
// mode. Every poll waits the settle time and reports ready. The serial round trip
// alone is longer than most busy periods.
type SettleBusy time.Duration

func (obj SettleBusy) Value() (int, error) {
	if obj > 0 {
		time.Sleep(time.Duration(obj))
	}
	return 0, nil
}

// Lines returns reset and busy substitute for bus.New
func (obj *Bridge) Lines() bus.Lines {
	return bus.Lines{
		Busy:  SettleBusy(obj.settle),
		Reset: obj.ResetLine(),
	}
}

// Interface creates the transaction interface for a radio of family behind the bridge
func (obj *Bridge) Interface(family params.Family) (*bus.Interface, error) {
	return bus.New(family, obj, obj.Lines())
}

// Close powers the radio down, returns the Bus Pirate to its terminal and closes the port
func (obj *Bridge) Close() error {
	if err := obj.setPeripherals(0); err != nil {
		return err
	}
	if _, err := obj.port.Write([]byte{cmdBitbangReset, cmdResetTerm}); err != nil {
		return fmt.Errorf("failed to reset bus pirate: %w", err)
	}
	if obj.closer != nil {
		if err := obj.closer.Close(); err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}
