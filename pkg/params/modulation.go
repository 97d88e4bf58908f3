package params

import "fmt"

// PacketType selects the modem. Only LoRa is driven by this package.
type PacketType uint8

const (
	PacketTypeGFSK PacketType = iota
	PacketTypeLoRa
	PacketTypeRanging
	PacketTypeFLRC
	PacketTypeBLE
)

// Encode returns the SetPacketType argument
func (obj PacketType) Encode() (byte, error) {
	if obj != PacketTypeLoRa {
		return 0, fmt.Errorf("%w: packet type %d is not supported, only LoRa", ErrConfig, obj)
	}
	return byte(obj), nil
}

// SpreadingFactor, a higher factor trades time on air for sensitivity
type SpreadingFactor uint8

const (
	SF5 SpreadingFactor = iota + 5
	SF6
	SF7
	SF8
	SF9
	SF10
	SF11
	SF12
)

// Encode returns modulation parameter 1. SX126x takes the ordinal, SX128x the ordinal
// shifted into the high nibble.
func (obj SpreadingFactor) Encode(f Family) (byte, error) {
	if obj < SF5 || obj > SF12 {
		return 0, fmt.Errorf("%w: spreading factor %d out of range", ErrConfig, obj)
	}
	if f == SX128x {
		return byte(obj) << 4, nil
	}
	return byte(obj), nil
}

// ChipsPerSymbol is 2^SF
func (obj SpreadingFactor) ChipsPerSymbol() int64 {
	return 1 << obj
}

// AdditionalConfig8x is the value SX128x needs in register 0x925 after SetModulationParams
func (obj SpreadingFactor) AdditionalConfig8x() uint8 {
	switch obj {
	case SF5, SF6:
		return 0x1E
	case SF7, SF8:
		return 0x37
	}
	return 0x32
}

// Bandwidth6x values are the SX126x register encodings
type Bandwidth6x uint8

const (
	BW7   Bandwidth6x = 0x00
	BW10  Bandwidth6x = 0x08
	BW15  Bandwidth6x = 0x01
	BW20  Bandwidth6x = 0x09
	BW31  Bandwidth6x = 0x02
	BW41  Bandwidth6x = 0x0A
	BW62  Bandwidth6x = 0x03
	BW125 Bandwidth6x = 0x04
	BW250 Bandwidth6x = 0x05 // may not be available below 400 MHz
	BW500 Bandwidth6x = 0x06 // may not be available below 400 MHz
)

var bandwidth6xHertz = map[Bandwidth6x]int64{
	BW7:   7810,
	BW10:  10420,
	BW15:  15630,
	BW20:  20830,
	BW31:  31250,
	BW41:  41670,
	BW62:  62500,
	BW125: 125000,
	BW250: 250000,
	BW500: 500000,
}

func (obj Bandwidth6x) Encode() (byte, error) {
	if _, ok := bandwidth6xHertz[obj]; !ok {
		return 0, fmt.Errorf("%w: sx126x bandwidth 0x%02x", ErrConfig, uint8(obj))
	}
	return byte(obj), nil
}

func (obj Bandwidth6x) Hertz() int64 {
	return bandwidth6xHertz[obj]
}

// Bandwidth8x values are the SX128x register encodings
type Bandwidth8x uint8

const (
	BW1600 Bandwidth8x = 0x0A
	BW800  Bandwidth8x = 0x18
	BW400  Bandwidth8x = 0x26
	BW200  Bandwidth8x = 0x34
)

var bandwidth8xHertz = map[Bandwidth8x]int64{
	BW1600: 1625000,
	BW800:  812500,
	BW400:  406250,
	BW200:  203125,
}

func (obj Bandwidth8x) Encode() (byte, error) {
	if _, ok := bandwidth8xHertz[obj]; !ok {
		return 0, fmt.Errorf("%w: sx128x bandwidth 0x%02x", ErrConfig, uint8(obj))
	}
	return byte(obj), nil
}

func (obj Bandwidth8x) Hertz() int64 {
	return bandwidth8xHertz[obj]
}

// CodingRate is the forward error correction rate. The long interleaving variants exist on SX128x only.
type CodingRate uint8

const (
	CR4_5   CodingRate = 1
	CR4_6   CodingRate = 2
	CR4_7   CodingRate = 3
	CR4_8   CodingRate = 4
	CRLI4_5 CodingRate = 5
	CRLI4_6 CodingRate = 6
	CRLI4_8 CodingRate = 7
)

func (obj CodingRate) Encode(f Family) (byte, error) {
	switch obj {
	case CR4_5, CR4_6, CR4_7, CR4_8:
		return byte(obj), nil
	case CRLI4_5, CRLI4_6, CRLI4_8:
		if f == SX128x {
			return byte(obj), nil
		}
	}
	return 0, fmt.Errorf("%w: coding rate %d on %s", ErrConfig, obj, f)
}

// denominator returns the n of 4/n
func (obj CodingRate) denominator() int64 {
	switch obj {
	case CRLI4_5:
		return 5
	case CRLI4_6:
		return 6
	case CRLI4_8:
		return 8
	}
	return int64(obj) + 4
}

// HeaderType, explicit headers carry length, coding rate and CRC presence
type HeaderType uint8

const (
	HeaderExplicit HeaderType = iota
	HeaderImplicit
)

func (obj HeaderType) Encode(f Family) byte {
	if obj == HeaderExplicit {
		return 0x00
	}
	if f == SX128x {
		return 0x80
	}
	return 0x01
}

// IQMode selects standard or inverted IQ
type IQMode uint8

const (
	IQStandard IQMode = iota
	IQInverted
)

func (obj IQMode) Encode(f Family) byte {
	if f == SX128x {
		if obj == IQStandard {
			return 0x40
		}
		return 0x00
	}
	if obj == IQStandard {
		return 0x00
	}
	return 0x01
}

// EncodeCRC returns the packet parameter enabling the payload CRC
func EncodeCRC(f Family, enabled bool) byte {
	if !enabled {
		return 0x00
	}
	if f == SX128x {
		return 0x20
	}
	return 0x01
}

// EncodePreamble6x returns the two big-endian preamble length bytes. SX126x rejects
// preambles shorter than 10 symbols.
func EncodePreamble6x(length uint16) ([2]byte, error) {
	if length < 10 {
		return [2]byte{}, fmt.Errorf("%w: preamble length %d, must be at least 10", ErrConfig, length)
	}
	return [2]byte{byte(length >> 8), byte(length)}, nil
}

// EncodePreamble8x packs the preamble length as mantissa * 2^exponent. The exponent is
// fixed to 0, so lengths above 15 are capped at 15.
func EncodePreamble8x(length uint16) byte {
	mant := length
	if mant > 0x0F {
		mant = 0x0F
	}
	var exp uint8
	return (exp&0x0F)<<4 | uint8(mant)&0x0F
}

// EncodeLDRO returns the SX126x low data rate optimization flag
func EncodeLDRO(enabled bool) byte {
	if enabled {
		return 0x01
	}
	return 0x00
}
