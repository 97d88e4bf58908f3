package radio

import (
	"fmt"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// PacketParams is the LoRa packet framing. PayloadLength is overwritten by every Send
// and Receive.
type PacketParams struct {
	PreambleLength uint16
	Header         params.HeaderType
	PayloadLength  uint8
	CRC            bool
	IQ             params.IQMode
}

// Config6x is the SX126x configuration
type Config6x struct {
	PacketType              params.PacketType
	Frequency               uint32 // Hz
	SpreadingFactor         params.SpreadingFactor
	Bandwidth               params.Bandwidth6x
	CodingRate              params.CodingRate
	LowDataRateOptimization bool
	Packet                  PacketParams
	TxTimeout               time.Duration
	RxTimeout               time.Duration
	RampTime                params.RampTime6x
	OutputPower             params.OutputPower6x
	DCDCEnabled             bool
	FallbackMode            params.FallbackMode
	UseDIO2AsRfSwitch       bool
	Network                 params.Network
}

// Config8x is the SX128x configuration. Regulator, PA, fallback, RF switch and sync
// word are left at their reset values on this family.
type Config8x struct {
	PacketType      params.PacketType
	Frequency       uint32 // Hz
	SpreadingFactor params.SpreadingFactor
	Bandwidth       params.Bandwidth8x
	CodingRate      params.CodingRate
	Packet          PacketParams
	TxTimeout       time.Duration
	RxTimeout       time.Duration
	RampTime        params.RampTime8x
	OutputPowerDbm  int8 // -18..13
}

// Config holds exactly one of Config6x or Config8x, the set one selects the chip family
type Config struct {
	Config6x *Config6x
	Config8x *Config8x
}

// DefaultConfig6x is a short airtime setup, 915 MHz, SF5, BW500, CR4/5 at full power
func DefaultConfig6x() Config {
	return Config{Config6x: &Config6x{
		PacketType:      params.PacketTypeLoRa,
		Frequency:       915_000_000,
		SpreadingFactor: params.SF5,
		Bandwidth:       params.BW500,
		CodingRate:      params.CR4_5,
		Packet: PacketParams{
			PreambleLength: 12,
			Header:         params.HeaderExplicit,
			CRC:            true,
			IQ:             params.IQStandard,
		},
		RampTime:          params.Ramp6x200,
		OutputPower:       params.Db22,
		DCDCEnabled:       true,
		FallbackMode:      params.FallbackStdbyRc,
		UseDIO2AsRfSwitch: true,
		Network:           params.NetworkPrivate,
	}}
}

// DefaultConfig8x is 2.4 GHz, SF5, BW200, CR4/5 at 13 dBm
func DefaultConfig8x() Config {
	return Config{Config8x: &Config8x{
		PacketType:      params.PacketTypeLoRa,
		Frequency:       2_400_000_000,
		SpreadingFactor: params.SF5,
		Bandwidth:       params.BW200,
		CodingRate:      params.CR4_5,
		Packet: PacketParams{
			PreambleLength: 12,
			Header:         params.HeaderExplicit,
			CRC:            true,
			IQ:             params.IQStandard,
		},
		RampTime:       params.Ramp8x10,
		OutputPowerDbm: 13,
	}}
}

// DefaultConfig returns the default configuration of a family
func DefaultConfig(family params.Family) Config {
	if family == params.SX128x {
		return DefaultConfig8x()
	}
	return DefaultConfig6x()
}

// Family reports which chip the configuration is for
func (obj Config) Family() params.Family {
	if obj.Config8x != nil {
		return params.SX128x
	}
	return params.SX126x
}

// Validate checks that exactly one variant is set and every field encodes for its family
func (obj Config) Validate() error {
	if (obj.Config6x == nil) == (obj.Config8x == nil) {
		return fmt.Errorf("%w: exactly one of Config6x and Config8x must be set", params.ErrConfig)
	}
	f := obj.Family()
	if _, err := obj.packetType().Encode(); err != nil {
		return err
	}
	if _, err := obj.spreadingFactor().Encode(f); err != nil {
		return err
	}
	if _, err := obj.codingRate().Encode(f); err != nil {
		return err
	}
	if c := obj.Config6x; c != nil {
		if _, err := c.Bandwidth.Encode(); err != nil {
			return err
		}
		if _, err := params.EncodePreamble6x(c.Packet.PreambleLength); err != nil {
			return err
		}
		if _, _, err := c.OutputPower.PaConfig(); err != nil {
			return err
		}
		if _, err := c.RampTime.Encode(); err != nil {
			return err
		}
		return nil
	}
	c := obj.Config8x
	if _, err := c.Bandwidth.Encode(); err != nil {
		return err
	}
	if _, err := params.EncodePower8x(c.OutputPowerDbm); err != nil {
		return err
	}
	if _, err := c.RampTime.Encode(); err != nil {
		return err
	}
	return nil
}

// LoRa returns the modem settings TimeOnAir needs
func (obj Config) LoRa() params.LoRa {
	p := obj.packet()
	l := params.LoRa{
		SpreadingFactor: obj.spreadingFactor(),
		CodingRate:      obj.codingRate(),
		Header:          p.Header,
		CRC:             p.CRC,
		PreambleLength:  p.PreambleLength,
	}
	if c := obj.Config6x; c != nil {
		l.BandwidthHz = c.Bandwidth.Hertz()
		l.LDRO = c.LowDataRateOptimization
	} else {
		l.BandwidthHz = obj.Config8x.Bandwidth.Hertz()
	}
	return l
}

func (obj Config) clone() Config {
	if obj.Config6x != nil {
		c := *obj.Config6x
		return Config{Config6x: &c}
	}
	if obj.Config8x != nil {
		c := *obj.Config8x
		return Config{Config8x: &c}
	}
	return Config{}
}

func (obj Config) packetType() params.PacketType {
	if obj.Config8x != nil {
		return obj.Config8x.PacketType
	}
	return obj.Config6x.PacketType
}

func (obj Config) spreadingFactor() params.SpreadingFactor {
	if obj.Config8x != nil {
		return obj.Config8x.SpreadingFactor
	}
	return obj.Config6x.SpreadingFactor
}

func (obj Config) codingRate() params.CodingRate {
	if obj.Config8x != nil {
		return obj.Config8x.CodingRate
	}
	return obj.Config6x.CodingRate
}

func (obj Config) packet() *PacketParams {
	if obj.Config8x != nil {
		return &obj.Config8x.Packet
	}
	return &obj.Config6x.Packet
}

// Frequency returns the carrier frequency in Hz
func (obj Config) Frequency() uint32 {
	if obj.Config8x != nil {
		return obj.Config8x.Frequency
	}
	return obj.Config6x.Frequency
}

func (obj Config) setFrequency(hz uint32) {
	if obj.Config8x != nil {
		obj.Config8x.Frequency = hz
		return
	}
	obj.Config6x.Frequency = hz
}

func (obj Config) timeouts() (tx time.Duration, rx time.Duration) {
	if obj.Config8x != nil {
		return obj.Config8x.TxTimeout, obj.Config8x.RxTimeout
	}
	return obj.Config6x.TxTimeout, obj.Config6x.RxTimeout
}
