package status

import (
	"encoding/binary"
	"strings"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// IRQ is a family independent set of interrupt sources. Use Word to get the bit mask a
// given chip expects.
type IRQ uint32

const (
	IRQTxDone IRQ = 1 << iota
	IRQRxDone
	IRQPreambleDetected
	IRQSyncWordValid
	IRQSyncWordError
	IRQHeaderValid
	IRQHeaderErr
	IRQCrcErr
	IRQCadDone
	IRQCadDetected
	IRQTimeout
	IRQLrFhssHop
)

type irqBit struct {
	irq  IRQ
	name string
	bit6 int8 // -1 when the family lacks the source
	bit8 int8
}

var irqBits = []irqBit{
	{irq: IRQTxDone, name: "TxDone", bit6: 0, bit8: 0},
	{irq: IRQRxDone, name: "RxDone", bit6: 1, bit8: 1},
	{irq: IRQPreambleDetected, name: "PreambleDetected", bit6: 2, bit8: 15},
	{irq: IRQSyncWordValid, name: "SyncWordValid", bit6: 3, bit8: 2},
	{irq: IRQSyncWordError, name: "SyncWordError", bit6: -1, bit8: 3},
	{irq: IRQHeaderValid, name: "HeaderValid", bit6: 4, bit8: 4},
	{irq: IRQHeaderErr, name: "HeaderErr", bit6: 5, bit8: 5},
	{irq: IRQCrcErr, name: "CrcErr", bit6: 6, bit8: 6},
	{irq: IRQCadDone, name: "CadDone", bit6: 7, bit8: 12},
	{irq: IRQCadDetected, name: "CadDetected", bit6: 8, bit8: 13},
	{irq: IRQTimeout, name: "Timeout", bit6: 9, bit8: 14},
	{irq: IRQLrFhssHop, name: "LrFhssHop", bit6: 14, bit8: -1},
}

// CRCMask covers HeaderErr and CrcErr, identical on both families
const CRCMask uint16 = 0b11 << 5

func (b irqBit) position(f params.Family) int8 {
	if f == params.SX128x {
		return b.bit8
	}
	return b.bit6
}

// Word returns the chip specific 16-bit mask. Sources the family lacks are dropped.
func (obj IRQ) Word(f params.Family) uint16 {
	var word uint16
	for _, b := range irqBits {
		if obj&b.irq == 0 {
			continue
		}
		if pos := b.position(f); pos >= 0 {
			word |= 1 << uint(pos)
		}
	}
	return word
}

// Bytes returns Word big-endian, as SetDioIrqParams and ClearIrqStatus take it
func (obj IRQ) Bytes(f params.Family) [2]byte {
	var out [2]byte
	binary.BigEndian.PutUint16(out[:], obj.Word(f))
	return out
}

// Has reports whether all sources in irq are set
func (obj IRQ) Has(irq IRQ) bool {
	return obj&irq == irq
}

func (obj IRQ) String() string {
	var names []string
	for _, b := range irqBits {
		if obj&b.irq != 0 {
			names = append(names, b.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// DecodeIRQ maps a chip IRQ status word back onto the family independent set
func DecodeIRQ(f params.Family, word uint16) IRQ {
	var irq IRQ
	for _, b := range irqBits {
		if pos := b.position(f); pos >= 0 && word&(1<<uint(pos)) != 0 {
			irq |= b.irq
		}
	}
	return irq
}

// DecodeIRQWord reads the IRQ status word from bytes 2..3 of [GetIrqStatus, NOP, NOP, NOP]
func DecodeIRQWord(resp []byte) uint16 {
	if len(resp) < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(resp[2:4])
}
