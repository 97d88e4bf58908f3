package params

import "fmt"

// OutputPower6x values are the SX126x SetTxParams power bytes (dBm)
type OutputPower6x uint8

const (
	Db14 OutputPower6x = 0x0E
	Db17 OutputPower6x = 0x11
	Db20 OutputPower6x = 0x14
	Db22 OutputPower6x = 0x16
)

type paConfig struct {
	dutyCycle uint8
	hpMax     uint8
}

// SX1262 datasheet, table 13-21
var paConfigs = map[OutputPower6x]paConfig{
	Db14: {dutyCycle: 0x02, hpMax: 0x02},
	Db17: {dutyCycle: 0x02, hpMax: 0x03},
	Db20: {dutyCycle: 0x03, hpMax: 0x05},
	Db22: {dutyCycle: 0x04, hpMax: 0x07},
}

// PaConfig returns the paDutyCycle and hpMax pair for the power level
func (obj OutputPower6x) PaConfig() (dutyCycle uint8, hpMax uint8, err error) {
	pa, ok := paConfigs[obj]
	if !ok {
		return 0, 0, fmt.Errorf("%w: sx126x output power 0x%02x", ErrConfig, uint8(obj))
	}
	return pa.dutyCycle, pa.hpMax, nil
}

// EncodePower8x maps dBm in [-18, 13] onto the SX128x power byte
func EncodePower8x(dbm int8) (byte, error) {
	if dbm < -18 || dbm > 13 {
		return 0, fmt.Errorf("%w: sx128x output power %d dBm, must be in [-18, 13]", ErrConfig, dbm)
	}
	return byte(dbm + 18), nil
}

// RampTime6x is the SX126x PA ramp time in microseconds
type RampTime6x uint8

const (
	Ramp6x10 RampTime6x = iota
	Ramp6x20
	Ramp6x40
	Ramp6x80
	Ramp6x200
	Ramp6x800
	Ramp6x1700
	Ramp6x3400
)

func (obj RampTime6x) Encode() (byte, error) {
	if obj > Ramp6x3400 {
		return 0, fmt.Errorf("%w: sx126x ramp time %d", ErrConfig, obj)
	}
	return byte(obj), nil
}

// RampTime8x is the SX128x PA ramp time in microseconds
type RampTime8x uint8

const (
	Ramp8x02 RampTime8x = 0x00
	Ramp8x04 RampTime8x = 0x20
	Ramp8x06 RampTime8x = 0x40
	Ramp8x08 RampTime8x = 0x60
	Ramp8x10 RampTime8x = 0x80
	Ramp8x12 RampTime8x = 0xA0
	Ramp8x16 RampTime8x = 0xC0
	Ramp8x20 RampTime8x = 0xE0
)

func (obj RampTime8x) Encode() (byte, error) {
	if obj&0x1F != 0 {
		return 0, fmt.Errorf("%w: sx128x ramp time 0x%02x", ErrConfig, uint8(obj))
	}
	return byte(obj), nil
}

// FallbackMode is the mode SX126x enters after Tx or Rx
type FallbackMode uint8

const (
	FallbackFs        FallbackMode = 0x40
	FallbackStdbyXosc FallbackMode = 0x30
	FallbackStdbyRc   FallbackMode = 0x20
)

// Network selects the LoRa sync word
type Network uint16

const (
	NetworkPublic  Network = 0x3444
	NetworkPrivate Network = 0x1424
)

// SyncWord returns the MSB and LSB register values
func (obj Network) SyncWord() (byte, byte) {
	return byte(obj >> 8), byte(obj)
}

// RegulatorMode returns the SetRegulatorMode argument, LDO or DC-DC
func RegulatorMode(dcdc bool) byte {
	if dcdc {
		return 0x01
	}
	return 0x00
}
