package radio

import (
	"fmt"
	"time"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
)

// ConfigBuilder stages configuration changes on a copy, nothing reaches the chip
// before Apply. Setters that only exist on the other family record an error returned
// by Build.
type ConfigBuilder struct {
	radio  *Radio
	staged Config
	errs   []error
}

// NewConfigBuilder starts from the default configuration of family
func NewConfigBuilder(family params.Family) *ConfigBuilder {
	return &ConfigBuilder{staged: DefaultConfig(family)}
}

// ConfigBuilder starts from the active configuration of the radio
func (obj *Radio) ConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		radio:  obj,
		staged: obj.cfg.clone(), // copy current values
	}
}

func (obj *ConfigBuilder) only(family params.Family, setting string) bool {
	if obj.staged.Family() != family {
		obj.errs = append(obj.errs, fmt.Errorf("%w: %s on %s", ErrUnsupported, setting, obj.staged.Family()))
		return false
	}
	return true
}

// Frequency sets the carrier frequency in Hz
func (obj *ConfigBuilder) Frequency(hz uint32) *ConfigBuilder {
	obj.staged.setFrequency(hz)
	return obj
}

// SpreadingFactor set LoRa spreading factor
func (obj *ConfigBuilder) SpreadingFactor(sf params.SpreadingFactor) *ConfigBuilder {
	if c := obj.staged.Config6x; c != nil {
		c.SpreadingFactor = sf
	} else {
		obj.staged.Config8x.SpreadingFactor = sf
	}
	return obj
}

// CodingRate set forward error correction rate, long interleaved rates are SX128x only
func (obj *ConfigBuilder) CodingRate(cr params.CodingRate) *ConfigBuilder {
	if c := obj.staged.Config6x; c != nil {
		c.CodingRate = cr
	} else {
		obj.staged.Config8x.CodingRate = cr
	}
	return obj
}

// Bandwidth6x set SX126x bandwidth
func (obj *ConfigBuilder) Bandwidth6x(bw params.Bandwidth6x) *ConfigBuilder {
	if obj.only(params.SX126x, "bandwidth") {
		obj.staged.Config6x.Bandwidth = bw
	}
	return obj
}

// Bandwidth8x set SX128x bandwidth
func (obj *ConfigBuilder) Bandwidth8x(bw params.Bandwidth8x) *ConfigBuilder {
	if obj.only(params.SX128x, "bandwidth") {
		obj.staged.Config8x.Bandwidth = bw
	}
	return obj
}

// LowDataRateOptimization is required on SX126x for symbols longer than 16 ms
func (obj *ConfigBuilder) LowDataRateOptimization(enabled bool) *ConfigBuilder {
	if obj.only(params.SX126x, "low data rate optimization") {
		obj.staged.Config6x.LowDataRateOptimization = enabled
	}
	return obj
}

// PreambleLength in symbols
func (obj *ConfigBuilder) PreambleLength(symbols uint16) *ConfigBuilder {
	obj.staged.packet().PreambleLength = symbols
	return obj
}

// Header selects explicit or implicit header
func (obj *ConfigBuilder) Header(header params.HeaderType) *ConfigBuilder {
	obj.staged.packet().Header = header
	return obj
}

// CRC enables the payload CRC
func (obj *ConfigBuilder) CRC(enabled bool) *ConfigBuilder {
	obj.staged.packet().CRC = enabled
	return obj
}

// IQ selects standard or inverted IQ
func (obj *ConfigBuilder) IQ(iq params.IQMode) *ConfigBuilder {
	obj.staged.packet().IQ = iq
	return obj
}

// Timeouts set tx and rx timeouts, zero disables them
func (obj *ConfigBuilder) Timeouts(tx time.Duration, rx time.Duration) *ConfigBuilder {
	if c := obj.staged.Config6x; c != nil {
		c.TxTimeout, c.RxTimeout = tx, rx
	} else {
		obj.staged.Config8x.TxTimeout, obj.staged.Config8x.RxTimeout = tx, rx
	}
	return obj
}

// OutputPower6x set SX126x output power and PA
func (obj *ConfigBuilder) OutputPower6x(power params.OutputPower6x) *ConfigBuilder {
	if obj.only(params.SX126x, "output power table") {
		obj.staged.Config6x.OutputPower = power
	}
	return obj
}

// OutputPower8x set SX128x output power in dBm, -18..13
func (obj *ConfigBuilder) OutputPower8x(dbm int8) *ConfigBuilder {
	if obj.only(params.SX128x, "output power in dBm") {
		obj.staged.Config8x.OutputPowerDbm = dbm
	}
	return obj
}

// RampTime6x set SX126x PA ramp time
func (obj *ConfigBuilder) RampTime6x(ramp params.RampTime6x) *ConfigBuilder {
	if obj.only(params.SX126x, "ramp time") {
		obj.staged.Config6x.RampTime = ramp
	}
	return obj
}

// RampTime8x set SX128x PA ramp time
func (obj *ConfigBuilder) RampTime8x(ramp params.RampTime8x) *ConfigBuilder {
	if obj.only(params.SX128x, "ramp time") {
		obj.staged.Config8x.RampTime = ramp
	}
	return obj
}

// DCDC selects the DC-DC regulator over LDO, SX126x
func (obj *ConfigBuilder) DCDC(enabled bool) *ConfigBuilder {
	if obj.only(params.SX126x, "regulator mode") {
		obj.staged.Config6x.DCDCEnabled = enabled
	}
	return obj
}

// FallbackMode set the mode the SX126x enters after tx or rx
func (obj *ConfigBuilder) FallbackMode(mode params.FallbackMode) *ConfigBuilder {
	if obj.only(params.SX126x, "fallback mode") {
		obj.staged.Config6x.FallbackMode = mode
	}
	return obj
}

// DIO2AsRfSwitch lets the SX126x drive the antenna switch from DIO2
func (obj *ConfigBuilder) DIO2AsRfSwitch(enabled bool) *ConfigBuilder {
	if obj.only(params.SX126x, "DIO2 RF switch") {
		obj.staged.Config6x.UseDIO2AsRfSwitch = enabled
	}
	return obj
}

// Network selects the public or private sync word, SX126x
func (obj *ConfigBuilder) Network(network params.Network) *ConfigBuilder {
	if obj.only(params.SX126x, "sync word") {
		obj.staged.Config6x.Network = network
	}
	return obj
}

// Build validates the staged configuration and returns it
func (obj *ConfigBuilder) Build() (Config, error) {
	if len(obj.errs) > 0 {
		return Config{}, obj.errs[0]
	}
	if err := obj.staged.Validate(); err != nil {
		return Config{}, err
	}
	return obj.staged.clone(), nil
}

// Apply builds the configuration and writes it to the radio the builder came from
func (obj *ConfigBuilder) Apply() error {
	if obj.radio == nil {
		return fmt.Errorf("failed to apply config: builder not bound to a radio")
	}
	cfg, err := obj.Build()
	if err != nil {
		return err
	}
	return obj.radio.Reconfigure(cfg)
}
