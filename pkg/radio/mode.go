package radio

import (
	"fmt"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// ModeKind is the command side operating mode
type ModeKind uint8

const (
	ModeSleep ModeKind = iota
	ModeStbyRC
	ModeStbyXOSC
	ModeFS
	ModeTx
	ModeRx
)

// OperatingMode is a mode to switch the chip to. Timeout applies to Tx and Rx,
// WarmStart to Sleep.
type OperatingMode struct {
	Kind      ModeKind
	Timeout   time.Duration
	WarmStart bool
}

var (
	StbyRC   = OperatingMode{Kind: ModeStbyRC}
	StbyXOSC = OperatingMode{Kind: ModeStbyXOSC}
	FS       = OperatingMode{Kind: ModeFS}
)

// Sleep keeps the configuration with a warm start, a cold start reinitializes the chip
func Sleep(warmStart bool) OperatingMode {
	return OperatingMode{Kind: ModeSleep, WarmStart: warmStart}
}

// Tx starts a transmission, a zero timeout disables it
func Tx(timeout time.Duration) OperatingMode {
	return OperatingMode{Kind: ModeTx, Timeout: timeout}
}

// Rx starts reception. Zero is single mode without timeout, params.ContinuousRx
// keeps receiving.
func Rx(timeout time.Duration) OperatingMode {
	return OperatingMode{Kind: ModeRx, Timeout: timeout}
}

// sleepConfig is the SetSleep argument. SX126x warm starts with bit 2, SX128x keeps
// its configuration in data RAM with bit 0.
func sleepConfig(family params.Family, warmStart bool) byte {
	switch {
	case !warmStart:
		return 0x00
	case family == params.SX128x:
		return 0x01
	default:
		return 0x04
	}
}

// SetOperatingMode issues the command switching the chip to mode
func (obj *Radio) SetOperatingMode(mode OperatingMode) error {
	var err error
	switch mode.Kind {
	case ModeSleep:
		err = obj.iface.WriteOpWord(params.SetSleep, sleepConfig(obj.family, mode.WarmStart))
	case ModeStbyRC:
		err = obj.iface.WriteOpWord(params.SetStandby, 0)
	case ModeStbyXOSC:
		err = obj.iface.WriteOpWord(params.SetStandby, 1)
	case ModeFS:
		err = obj.iface.Command(params.SetFs)
	case ModeTx:
		t := params.EncodeTimeout(obj.family, mode.Timeout)
		err = obj.iface.Command(params.SetTx, t[0], t[1], t[2])
	case ModeRx:
		t := params.EncodeTimeout(obj.family, mode.Timeout)
		err = obj.iface.Command(params.SetRx, t[0], t[1], t[2])
	default:
		return fmt.Errorf("%w: unknown operating mode %d", params.ErrConfig, mode.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to set operating mode %d: %w", mode.Kind, err)
	}
	return nil
}
