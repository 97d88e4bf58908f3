package params

import "fmt"

// Opcode is a family independent command name, resolved to a wire byte with Op
type Opcode int

const (
	GetStatus Opcode = iota
	WriteRegister
	ReadRegister
	WriteBuffer
	ReadBuffer
	SetSleep
	SetStandby
	SetFs
	SetTx
	SetRx
	SetRegulatorMode
	SetPaConfig
	SetRxTxFallbackMode
	SetDioIrqParams
	GetIrqStatus
	ClearIrqStatus
	SetDIO2AsRfSwitchCtrl
	SetRfFrequency
	SetPacketType
	SetTxParams
	SetModulationParams
	SetPacketParams
	SetBufferBaseAddress
	GetRxBufferStatus
	GetPacketStatus
	GetRssiInst
	GetStats
	ResetStats
	GetDeviceErrors
	ClearDeviceErrors
)

var opcodeNames = map[Opcode]string{
	GetStatus:             "GetStatus",
	WriteRegister:         "WriteRegister",
	ReadRegister:          "ReadRegister",
	WriteBuffer:           "WriteBuffer",
	ReadBuffer:            "ReadBuffer",
	SetSleep:              "SetSleep",
	SetStandby:            "SetStandby",
	SetFs:                 "SetFs",
	SetTx:                 "SetTx",
	SetRx:                 "SetRx",
	SetRegulatorMode:      "SetRegulatorMode",
	SetPaConfig:           "SetPaConfig",
	SetRxTxFallbackMode:   "SetRxTxFallbackMode",
	SetDioIrqParams:       "SetDioIrqParams",
	GetIrqStatus:          "GetIrqStatus",
	ClearIrqStatus:        "ClearIrqStatus",
	SetDIO2AsRfSwitchCtrl: "SetDIO2AsRfSwitchCtrl",
	SetRfFrequency:        "SetRfFrequency",
	SetPacketType:         "SetPacketType",
	SetTxParams:           "SetTxParams",
	SetModulationParams:   "SetModulationParams",
	SetPacketParams:       "SetPacketParams",
	SetBufferBaseAddress:  "SetBufferBaseAddress",
	GetRxBufferStatus:     "GetRxBufferStatus",
	GetPacketStatus:       "GetPacketStatus",
	GetRssiInst:           "GetRssiInst",
	GetStats:              "GetStats",
	ResetStats:            "ResetStats",
	GetDeviceErrors:       "GetDeviceErrors",
	ClearDeviceErrors:     "ClearDeviceErrors",
}

func (obj Opcode) String() string {
	if name, ok := opcodeNames[obj]; ok {
		return name
	}
	return fmt.Sprintf("opcode(%d)", int(obj))
}

// SX126x datasheet, section 13
var opcodes6x = map[Opcode]byte{
	GetStatus:             0xC0,
	WriteRegister:         0x0D,
	ReadRegister:          0x1D,
	WriteBuffer:           0x0E,
	ReadBuffer:            0x1E,
	SetSleep:              0x84,
	SetStandby:            0x80,
	SetFs:                 0xC1,
	SetTx:                 0x83,
	SetRx:                 0x82,
	SetRegulatorMode:      0x96,
	SetPaConfig:           0x95,
	SetRxTxFallbackMode:   0x93,
	SetDioIrqParams:       0x08,
	GetIrqStatus:          0x12,
	ClearIrqStatus:        0x02,
	SetDIO2AsRfSwitchCtrl: 0x9D,
	SetRfFrequency:        0x86,
	SetPacketType:         0x8A,
	SetTxParams:           0x8E,
	SetModulationParams:   0x8B,
	SetPacketParams:       0x8C,
	SetBufferBaseAddress:  0x8F,
	GetRxBufferStatus:     0x13,
	GetPacketStatus:       0x14,
	GetRssiInst:           0x15,
	GetStats:              0x10,
	ResetStats:            0x00,
	GetDeviceErrors:       0x17,
	ClearDeviceErrors:     0x07,
}

// SX128x datasheet, section 11. No PA config, fallback mode, DIO2 switch or statistics commands.
var opcodes8x = map[Opcode]byte{
	GetStatus:            0xC0,
	WriteRegister:        0x18,
	ReadRegister:         0x19,
	WriteBuffer:          0x1A,
	ReadBuffer:           0x1B,
	SetSleep:             0x84,
	SetStandby:           0x80,
	SetFs:                0xC1,
	SetTx:                0x83,
	SetRx:                0x82,
	SetRegulatorMode:     0x96,
	SetDioIrqParams:      0x8D,
	GetIrqStatus:         0x15,
	ClearIrqStatus:       0x97,
	SetRfFrequency:       0x86,
	SetPacketType:        0x8A,
	SetTxParams:          0x8E,
	SetModulationParams:  0x8B,
	SetPacketParams:      0x8C,
	SetBufferBaseAddress: 0x8F,
	GetRxBufferStatus:    0x17,
	GetPacketStatus:      0x1D,
	GetRssiInst:          0x1F,
}

// Op resolves a command to the opcode byte of the given family. ok is false when the
// family has no such command.
func Op(f Family, op Opcode) (code byte, ok bool) {
	switch f {
	case SX126x:
		code, ok = opcodes6x[op]
	case SX128x:
		code, ok = opcodes8x[op]
	}
	return code, ok
}
