package params

import "github.com/mbalug7/go-semtech-lora/pkg/hal"

// Register is a family independent register name, resolved to an address with Reg
type Register int

const (
	RegRxGainRetention0 Register = iota
	RegRxGainRetention1
	RegRxGainRetention2
	RegTxClampConfig
	RegTxModulation
	RegRtcControl
	RegEventMask
	RegLoRaSyncWordMSB
	RegLoRaSyncWordLSB
	RegFirmwareVersions
	RegRxGain
	RegSfAdditionalConfiguration
	RegFrequencyErrorCorrection
)

var registers6x = map[Register]hal.RegAddress{
	RegRxGainRetention0: 0x029F,
	RegRxGainRetention1: 0x02A0,
	RegRxGainRetention2: 0x02A1,
	RegTxClampConfig:    0x08D8,
	RegTxModulation:     0x0889,
	RegRtcControl:       0x0902,
	RegEventMask:        0x0944,
	RegLoRaSyncWordMSB:  0x0740,
	RegLoRaSyncWordLSB:  0x0741,
}

var registers8x = map[Register]hal.RegAddress{
	RegFirmwareVersions:          0x0153,
	RegRxGain:                    0x0891,
	RegSfAdditionalConfiguration: 0x0925,
	RegFrequencyErrorCorrection:  0x093C,
}

// Reg resolves a register to its address on the given family. ok is false when the
// family has no such register.
func Reg(f Family, r Register) (addr hal.RegAddress, ok bool) {
	switch f {
	case SX126x:
		addr, ok = registers6x[r]
	case SX128x:
		addr, ok = registers8x[r]
	}
	return addr, ok
}

// MustReg is Reg for addresses known to exist, it panics otherwise
func MustReg(f Family, r Register) hal.RegAddress {
	addr, ok := Reg(f, r)
	if !ok {
		panic("register not defined for " + f.String())
	}
	return addr
}

// Firmware versions reported by register 0x153 of a healthy SX128x
const (
	FirmwareVersion8xA uint16 = 0xA9B5
	FirmwareVersion8xB uint16 = 0xA9B7
)
