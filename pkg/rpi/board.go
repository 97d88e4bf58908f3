// Package rpi wires a radio to a Linux host: SPI through periph.io, busy, reset,
// chip-select and DIO lines through the GPIO character device.
package rpi

import (
	"fmt"
	"sync"
	"time"

	"github.com/mazen160/go-random"
	"github.com/mbalug7/go-semtech-lora/pkg/bus"
	"github.com/mbalug7/go-semtech-lora/pkg/hal"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/warthog618/gpiod"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// NoPin marks an optional line that is not wired
const NoPin = -1

// Config describes how the radio is connected. Pins are line offsets on GPIOChip.
type Config struct {
	SPIDevice  string // default /dev/spidev0.0
	SPIClockHz int64  // default 2 MHz
	GPIOChip   string // default gpiochip0

	BusyPin       int
	ResetPin      int // NoPin when the reset line is shared or hardwired
	ChipSelectPin int // NoPin when the SPI controller drives chip-select
	DIO1Pin       int // tx done
	DIO3Pin       int // rx done, NoPin when unused
}

// Board owns the SPI port and the GPIO lines of one radio
type Board struct {
	port spi.PortCloser
	conn spi.Conn
	chip *gpiod.Chip

	BusyLine       *gpiod.Line
	ResetLine      *gpiod.Line
	ChipSelectLine *gpiod.Line
	DIO1Line       *gpiod.Line
	DIO3Line       *gpiod.Line

	dioByOffset map[int]int
	irqWaiters  map[string]chan int // DIO number sent on the next rising edge
	muIRQ       sync.Mutex
	onIRQ       hal.OnIRQCb
}

// Open initializes the periph host drivers, opens the SPI port and requests the lines
func Open(cfg Config) (*Board, error) {
	if cfg.SPIDevice == "" {
		cfg.SPIDevice = "/dev/spidev0.0"
	}
	if cfg.SPIClockHz == 0 {
		cfg.SPIClockHz = 2_000_000
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	board := &Board{
		dioByOffset: make(map[int]int),
		irqWaiters:  make(map[string]chan int),
	}
	var err error
	board.port, err = spireg.Open(cfg.SPIDevice)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", cfg.SPIDevice, err)
	}
	board.conn, err = board.port.Connect(physic.Frequency(cfg.SPIClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		board.Close()
		return nil, fmt.Errorf("failed to connect to SPI port: %w", err)
	}
	if err := board.requestLines(cfg); err != nil {
		board.Close()
		return nil, err
	}
	return board, nil
}

func (obj *Board) requestLines(cfg Config) error {
	var err error
	obj.chip, err = gpiod.NewChip(cfg.GPIOChip, gpiod.WithConsumer("semtech-lora"))
	if err != nil {
		return fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	obj.BusyLine, err = obj.chip.RequestLine(cfg.BusyPin, gpiod.AsInput)
	if err != nil {
		return fmt.Errorf("failed to request busy GPIO line: %w", err)
	}
	if cfg.ResetPin != NoPin {
		obj.ResetLine, err = obj.chip.RequestLine(cfg.ResetPin, gpiod.AsOutput(1))
		if err != nil {
			return fmt.Errorf("failed to request reset GPIO line: %w", err)
		}
	}
	if cfg.ChipSelectPin != NoPin {
		obj.ChipSelectLine, err = obj.chip.RequestLine(cfg.ChipSelectPin, gpiod.AsOutput(1))
		if err != nil {
			return fmt.Errorf("failed to request chip select GPIO line: %w", err)
		}
	}
	obj.dioByOffset[cfg.DIO1Pin] = 1
	obj.DIO1Line, err = obj.chip.RequestLine(cfg.DIO1Pin, gpiod.WithEventHandler(obj.onDIORiseEvent), gpiod.WithRisingEdge)
	if err != nil {
		return fmt.Errorf("failed to request DIO1 GPIO line: %w", err)
	}
	if cfg.DIO3Pin != NoPin {
		obj.dioByOffset[cfg.DIO3Pin] = 3
		obj.DIO3Line, err = obj.chip.RequestLine(cfg.DIO3Pin, gpiod.WithEventHandler(obj.onDIORiseEvent), gpiod.WithRisingEdge)
		if err != nil {
			return fmt.Errorf("failed to request DIO3 GPIO line: %w", err)
		}
	}
	return nil
}

// Tx runs one full-duplex SPI transfer
func (obj *Board) Tx(w, r []byte) error {
	return obj.conn.Tx(w, r)
}

// Lines returns the lines for bus.New, unwired optional lines stay nil
func (obj *Board) Lines() bus.Lines {
	lines := bus.Lines{Busy: obj.BusyLine}
	if obj.ResetLine != nil {
		lines.Reset = obj.ResetLine
	}
	if obj.ChipSelectLine != nil {
		lines.ChipSelect = obj.ChipSelectLine
	}
	return lines
}

// Interface creates the transaction interface for a radio of family on this board
func (obj *Board) Interface(family params.Family) (*bus.Interface, error) {
	return bus.New(family, obj, obj.Lines())
}

// RegisterIRQCb sets the function called with the DIO number on every rising edge.
// It runs on the gpiod event goroutine.
func (obj *Board) RegisterIRQCb(cb hal.OnIRQCb) error {
	obj.muIRQ.Lock()
	defer obj.muIRQ.Unlock()
	if obj.onIRQ != nil {
		return fmt.Errorf("irq callback already registered")
	}
	obj.onIRQ = cb
	return nil
}

func (obj *Board) onDIORiseEvent(evt gpiod.LineEvent) {
	dio, ok := obj.dioByOffset[evt.Offset]
	if !ok {
		return
	}
	obj.muIRQ.Lock()
	cb := obj.onIRQ
	for id, ch := range obj.irqWaiters {
		ch <- dio
		close(ch)
		delete(obj.irqWaiters, id)
	}
	obj.muIRQ.Unlock()
	if cb != nil {
		cb(dio)
	}
}

// WaitIRQ blocks until the next DIO rising edge and returns its DIO number
func (obj *Board) WaitIRQ(timeout time.Duration) (int, error) {
	id, err := random.String(16)
	if err != nil {
		return 0, fmt.Errorf("failed to generate random id: %w", err)
	}
	ch := make(chan int, 1)
	obj.muIRQ.Lock()
	obj.irqWaiters[id] = ch
	obj.muIRQ.Unlock()

	select {
	case dio := <-ch:
		return dio, nil
	case <-time.After(timeout):
		obj.muIRQ.Lock()
		delete(obj.irqWaiters, id)
		obj.muIRQ.Unlock()
		return 0, fmt.Errorf("no DIO interrupt within %s", timeout)
	}
}

// Close releases lines, GPIO chip and SPI port
func (obj *Board) Close() error {
	lines := []struct {
		name string
		line *gpiod.Line
	}{
		{"busy", obj.BusyLine},
		{"reset", obj.ResetLine},
		{"chip select", obj.ChipSelectLine},
		{"DIO1", obj.DIO1Line},
		{"DIO3", obj.DIO3Line},
	}
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Close(); err != nil {
			return fmt.Errorf("failed to close %s line: %w", l.name, err)
		}
	}
	if obj.chip != nil {
		if err := obj.chip.Close(); err != nil {
			return fmt.Errorf("failed to close GPIO chip: %w", err)
		}
	}
	if obj.port != nil {
		if err := obj.port.Close(); err != nil {
			return fmt.Errorf("failed to close SPI port: %w", err)
		}
	}
	return nil
}
