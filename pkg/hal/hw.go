package hal

// Bus is a full-duplex SPI transfer. Implementations assert and release chip-select
// around the transfer unless the radio interface was given a dedicated chip-select line.
// r may be nil when the read side is not needed; otherwise len(r) == len(w).
type Bus interface {
	Tx(w, r []byte) error
}

// AsyncBus is implemented by buses that can run a bulk (DMA) transfer in the background.
// done is called exactly once when the transfer finished, possibly from another goroutine
// or an interrupt handler. Buffers must not be touched until done was called.
type AsyncBus interface {
	Bus
	TxAsync(w, r []byte, done func(error)) error
}

// OutputLine drives a GPIO line, chip-select and reset in this driver. Value 1 is high.
// *gpiod.Line satisfies it.
type OutputLine interface {
	SetValue(value int) error
}

// InputLine reads a GPIO line, the busy line in this driver. Value 1 is high.
// *gpiod.Line satisfies it.
type InputLine interface {
	Value() (int, error)
}

// OnIRQCb is called on a rising edge of one of the radio DIO lines
type OnIRQCb func(line int)
