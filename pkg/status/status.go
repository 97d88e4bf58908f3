package status

import (
	"fmt"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// Mode is the chip mode reported by GetStatus. Sleep is never observable.
type Mode uint8

const (
	ModeStbyRC   Mode = 2
	ModeStbyXOSC Mode = 3
	ModeFS       Mode = 4
	ModeRx       Mode = 5
	ModeTx       Mode = 6
)

var modeNames = map[Mode]string{
	ModeStbyRC:   "STDBY_RC",
	ModeStbyXOSC: "STDBY_XOSC",
	ModeFS:       "FS",
	ModeRx:       "RX",
	ModeTx:       "TX",
}

func (obj Mode) String() string {
	if name, ok := modeNames[obj]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", uint8(obj))
}

// CommandStatus is the outcome of the last command reported by GetStatus
type CommandStatus uint8

const (
	ProcessSuccess   CommandStatus = 1 // SX128x only
	DataAvailable    CommandStatus = 2
	Timeout          CommandStatus = 3
	ProcessingError  CommandStatus = 4
	ExecutionFailure CommandStatus = 5
	TxDone           CommandStatus = 6
)

var commandStatusNames = map[CommandStatus]string{
	ProcessSuccess:   "process success",
	DataAvailable:    "data available",
	Timeout:          "timeout",
	ProcessingError:  "processing error",
	ExecutionFailure: "execution failure",
	TxDone:           "tx done",
}

func (obj CommandStatus) String() string {
	if name, ok := commandStatusNames[obj]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(obj))
}

// UnexpectedStatusError carries a mode or command status field with no defined meaning.
// It points at a transaction or timing fault, the value is never mapped to a default.
type UnexpectedStatusError struct {
	Raw uint8
}

func (obj *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status field value %d", obj.Raw)
}

// Decode parses the response of [GetStatus, NOP]. SX126x reports in byte 1, mode in
// bits 6:4 and status in bits 3:1. SX128x reports in byte 0, mode in bits 7:5 and
// status in bits 4:2.
func Decode(f params.Family, resp []byte) (Mode, CommandStatus, error) {
	var m, s uint8
	if f == params.SX128x {
		if len(resp) < 1 {
			return 0, 0, fmt.Errorf("status response too short: %d bytes", len(resp))
		}
		m, s = (resp[0]>>5)&0x07, (resp[0]>>2)&0x07
	} else {
		if len(resp) < 2 {
			return 0, 0, fmt.Errorf("status response too short: %d bytes", len(resp))
		}
		m, s = (resp[1]>>4)&0x07, (resp[1]>>1)&0x07
	}

	mode := Mode(m)
	if _, ok := modeNames[mode]; !ok {
		return 0, 0, &UnexpectedStatusError{Raw: m}
	}

	cs := CommandStatus(s)
	if _, ok := commandStatusNames[cs]; !ok || (cs == ProcessSuccess && f != params.SX128x) {
		return 0, 0, &UnexpectedStatusError{Raw: s}
	}
	return mode, cs, nil
}
