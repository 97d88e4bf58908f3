package radio

import (
	"fmt"

	"github.com/mbalug7/go-semtech-lora/pkg/hal"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// Erratum is one register fix from a chip errata sheet. With ReadFirst the transform
// gets the current register value, otherwise it gets 0 and writes a constant.
type Erratum struct {
	Name      string
	Register  hal.RegAddress
	ReadFirst bool
	Transform func(cfg Config, current uint8) uint8
}

func set(value uint8) func(Config, uint8) uint8 {
	return func(Config, uint8) uint8 { return value }
}

func or(mask uint8) func(Config, uint8) uint8 {
	return func(_ Config, current uint8) uint8 { return current | mask }
}

type errataSet struct {
	init []Erratum // once, after packet params
	tx   []Erratum // before every transmission
	rx   []Erratum // after every reception
}

var errata = map[params.Family]errataSet{
	params.SX126x: {
		// SX126x datasheet, 9.6: keep rx gain across receive cycles
		init: []Erratum{
			{Name: "rx gain retention 0", Register: params.MustReg(params.SX126x, params.RegRxGainRetention0), Transform: set(0x01)},
			{Name: "rx gain retention 1", Register: params.MustReg(params.SX126x, params.RegRxGainRetention1), Transform: set(0x08)},
			{Name: "rx gain retention 2", Register: params.MustReg(params.SX126x, params.RegRxGainRetention2), Transform: set(0xAC)},
			// 15.2.2: PA clamping on antenna mismatch
			{Name: "tx clamp", Register: params.MustReg(params.SX126x, params.RegTxClampConfig), ReadFirst: true, Transform: or(0x1E)},
		},
		// 15.1.2: modulation quality with 500 kHz bandwidth
		tx: []Erratum{
			{Name: "modulation quality", Register: params.MustReg(params.SX126x, params.RegTxModulation), ReadFirst: true, Transform: func(cfg Config, current uint8) uint8 {
				if c := cfg.Config6x; c != nil && c.PacketType == params.PacketTypeLoRa && c.Bandwidth == params.BW500 {
					return current &^ 0x04
				}
				return current | 0x04
			}},
		},
		// 15.3.2: implicit header timeout, stop the RTC and clear the timeout event
		rx: []Erratum{
			{Name: "stop rtc", Register: params.MustReg(params.SX126x, params.RegRtcControl), Transform: set(0x00)},
			{Name: "clear timeout event", Register: params.MustReg(params.SX126x, params.RegEventMask), ReadFirst: true, Transform: or(0x02)},
		},
	},
	params.SX128x: {},
}

// applyErrata runs the workarounds of list in order and stops at the first failure
func applyErrata(reg hal.Register, cfg Config, list []Erratum) error {
	for _, e := range list {
		var current uint8
		if e.ReadFirst {
			var err error
			current, err = reg.ReadRegister(e.Register)
			if err != nil {
				return fmt.Errorf("failed to read register for %s workaround: %w", e.Name, err)
			}
		}
		err := reg.WriteRegister(e.Register, e.Transform(cfg, current))
		if err != nil {
			return fmt.Errorf("failed to apply %s workaround: %w", e.Name, err)
		}
	}
	return nil
}
