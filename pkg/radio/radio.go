package radio

import (
	"fmt"
	"log"

	"github.com/mbalug7/go-semtech-lora/pkg/bus"
	"github.com/mbalug7/go-semtech-lora/pkg/hal"
	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/mbalug7/go-semtech-lora/pkg/status"
)

var _ hal.Transceiver = (*Radio)(nil)

// AsyncHandler receives the result of the part of Send or CleanupRx that runs after a
// bulk transfer completed
type AsyncHandler func(err error)

// Option customizes a Radio
type Option func(*Radio)

// WithAsyncTransfer moves payload writes in Send and payload reads in CleanupRx to bulk
// transfers. The bus must implement hal.AsyncBus. handler gets the outcome of the rest
// of the operation.
func WithAsyncTransfer(handler AsyncHandler) Option {
	return func(r *Radio) {
		r.asyncHandler = handler
	}
}

// Radio drives one SX126x or SX128x. It is single owner: calls must not overlap,
// CleanupTx and CleanupRx are meant to be called from the DIO interrupt handler.
type Radio struct {
	cfg          Config
	family       params.Family
	iface        *bus.Interface
	errata       errataSet
	asyncHandler AsyncHandler
}

// New resets and initializes the radio. Any failing step aborts initialization.
func New(cfg Config, iface *bus.Interface, opts ...Option) (*Radio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Family() != iface.Family() {
		return nil, fmt.Errorf("%w: %s config for a %s interface", params.ErrConfig, cfg.Family(), iface.Family())
	}
	r := &Radio{
		cfg:    cfg.clone(),
		family: cfg.Family(),
		iface:  iface,
		errata: errata[cfg.Family()],
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.asyncHandler != nil {
		if _, ok := iface.Async(); !ok {
			return nil, fmt.Errorf("%w: async transfer requested on a blocking bus", ErrUnsupported)
		}
	}

	if err := iface.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset radio: %w", err)
	}
	// the chip holds busy high until it has booted
	if err := iface.WaitUntilReady(); err != nil {
		return nil, fmt.Errorf("failed to wait for radio boot: %w", err)
	}
	if r.family == params.SX128x {
		if err := r.checkFirmware(); err != nil {
			return nil, err
		}
	}
	if err := r.configure(); err != nil {
		return nil, err
	}
	return r, nil
}

func (obj *Radio) checkFirmware() error {
	version, err := obj.iface.ReadRegister16(params.MustReg(obj.family, params.RegFirmwareVersions))
	if err != nil {
		return fmt.Errorf("failed to read firmware version: %w", err)
	}
	if version != params.FirmwareVersion8xA && version != params.FirmwareVersion8xB {
		log.Printf("radio reports firmware version 0x%04x", version)
		return fmt.Errorf("%w: 0x%04x", ErrFirmwareVersion, version)
	}
	return nil
}

// configure writes the whole configuration. Packet type must be the first command after
// standby, modulation params precede packet params.
func (obj *Radio) configure() error {
	if err := obj.SetOperatingMode(StbyRC); err != nil {
		return err
	}
	pt, err := obj.cfg.packetType().Encode()
	if err != nil {
		return err
	}
	if err := obj.iface.WriteOpWord(params.SetPacketType, pt); err != nil {
		return fmt.Errorf("failed to set packet type: %w", err)
	}
	if err := obj.setFrequency(); err != nil {
		return err
	}
	if err := obj.setModulationParams(); err != nil {
		return err
	}
	if err := obj.setPacketParams(); err != nil {
		return err
	}
	if err := applyErrata(obj.iface, obj.cfg, obj.errata.init); err != nil {
		return err
	}
	if c := obj.cfg.Config6x; c != nil {
		if err := obj.configure6x(c); err != nil {
			return err
		}
	}
	if err := obj.setTxParams(); err != nil {
		return err
	}
	return obj.setBufferBaseAddress()
}

func (obj *Radio) configure6x(c *Config6x) error {
	err := obj.iface.WriteOpWord(params.SetRegulatorMode, params.RegulatorMode(c.DCDCEnabled))
	if err != nil {
		return fmt.Errorf("failed to set regulator mode: %w", err)
	}
	duty, hpMax, err := c.OutputPower.PaConfig()
	if err != nil {
		return err
	}
	err = obj.iface.Command(params.SetPaConfig, duty, hpMax, 0x00, 0x01)
	if err != nil {
		return fmt.Errorf("failed to set PA config: %w", err)
	}
	err = obj.iface.WriteOpWord(params.SetRxTxFallbackMode, byte(c.FallbackMode))
	if err != nil {
		return fmt.Errorf("failed to set fallback mode: %w", err)
	}
	var dio2 byte
	if c.UseDIO2AsRfSwitch {
		dio2 = 1
	}
	err = obj.iface.WriteOpWord(params.SetDIO2AsRfSwitchCtrl, dio2)
	if err != nil {
		return fmt.Errorf("failed to set DIO2 as RF switch: %w", err)
	}
	msb, lsb := c.Network.SyncWord()
	err = obj.iface.WriteRegister(params.MustReg(obj.family, params.RegLoRaSyncWordMSB), msb)
	if err != nil {
		return fmt.Errorf("failed to write sync word: %w", err)
	}
	err = obj.iface.WriteRegister(params.MustReg(obj.family, params.RegLoRaSyncWordLSB), lsb)
	if err != nil {
		return fmt.Errorf("failed to write sync word: %w", err)
	}
	return nil
}

// Reconfigure writes cfg to the chip. The active configuration only changes when every
// command succeeded.
func (obj *Radio) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Family() != obj.family {
		return fmt.Errorf("%w: %s config for a %s radio", params.ErrConfig, cfg.Family(), obj.family)
	}
	prev := obj.cfg
	obj.cfg = cfg.clone()
	if err := obj.configure(); err != nil {
		obj.cfg = prev
		return fmt.Errorf("failed to write config to the radio: %w", err)
	}
	return nil
}

// Config returns a copy of the active configuration
func (obj *Radio) Config() Config {
	return obj.cfg.clone()
}

// Family returns the chip family the radio was created for
func (obj *Radio) Family() params.Family {
	return obj.family
}

func (obj *Radio) setFrequency() error {
	raw := params.EncodeFrequency(obj.family, obj.cfg.Frequency())
	if err := obj.iface.Command(params.SetRfFrequency, raw...); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	return nil
}

func (obj *Radio) setModulationParams() error {
	sf, err := obj.cfg.spreadingFactor().Encode(obj.family)
	if err != nil {
		return err
	}
	cr, err := obj.cfg.codingRate().Encode(obj.family)
	if err != nil {
		return err
	}
	if c := obj.cfg.Config6x; c != nil {
		bw, err := c.Bandwidth.Encode()
		if err != nil {
			return err
		}
		ldro := params.EncodeLDRO(c.LowDataRateOptimization)
		if err := obj.iface.Command(params.SetModulationParams, sf, bw, cr, ldro, 0, 0, 0, 0); err != nil {
			return fmt.Errorf("failed to set modulation params: %w", err)
		}
		return nil
	}

	bw, err := obj.cfg.Config8x.Bandwidth.Encode()
	if err != nil {
		return err
	}
	if err := obj.iface.Command(params.SetModulationParams, sf, bw, cr); err != nil {
		return fmt.Errorf("failed to set modulation params: %w", err)
	}
	err = obj.iface.WriteRegister(params.MustReg(obj.family, params.RegSfAdditionalConfiguration),
		obj.cfg.spreadingFactor().AdditionalConfig8x())
	if err != nil {
		return fmt.Errorf("failed to write spreading factor config: %w", err)
	}
	err = obj.iface.WriteRegister(params.MustReg(obj.family, params.RegFrequencyErrorCorrection), 0x01)
	if err != nil {
		return fmt.Errorf("failed to enable frequency error compensation: %w", err)
	}
	return nil
}

func (obj *Radio) setPacketParams() error {
	p := obj.cfg.packet()
	header := p.Header.Encode(obj.family)
	crc := params.EncodeCRC(obj.family, p.CRC)
	iq := p.IQ.Encode(obj.family)

	var err error
	if obj.family == params.SX128x {
		pre := params.EncodePreamble8x(p.PreambleLength)
		err = obj.iface.Command(params.SetPacketParams, pre, header, p.PayloadLength, crc, iq, 0, 0)
	} else {
		pre, encErr := params.EncodePreamble6x(p.PreambleLength)
		if encErr != nil {
			return encErr
		}
		err = obj.iface.Command(params.SetPacketParams, pre[0], pre[1], header, p.PayloadLength, crc, iq, 0, 0, 0)
	}
	if err != nil {
		return fmt.Errorf("failed to set packet params: %w", err)
	}
	return nil
}

func (obj *Radio) setTxParams() error {
	var power, ramp byte
	var err error
	if c := obj.cfg.Config6x; c != nil {
		power = byte(c.OutputPower)
		ramp, err = c.RampTime.Encode()
	} else {
		c := obj.cfg.Config8x
		power, err = params.EncodePower8x(c.OutputPowerDbm)
		if err == nil {
			ramp, err = c.RampTime.Encode()
		}
	}
	if err != nil {
		return err
	}
	if err := obj.iface.Command(params.SetTxParams, power, ramp); err != nil {
		return fmt.Errorf("failed to set tx params: %w", err)
	}
	return nil
}

// tx and rx base addresses are both 0, Send and Receive reset them since the chip
// advances the pointers
func (obj *Radio) setBufferBaseAddress() error {
	if err := obj.iface.Command(params.SetBufferBaseAddress, 0x00, 0x00); err != nil {
		return fmt.Errorf("failed to set buffer base address: %w", err)
	}
	return nil
}

// setIRQ enables the sources of dio1 and dio3 and routes them to those lines. DIO2 is
// left to the RF switch.
func (obj *Radio) setIRQ(dio1, dio3 status.IRQ) error {
	mask := (dio1 | dio3).Bytes(obj.family)
	d1 := dio1.Bytes(obj.family)
	d3 := dio3.Bytes(obj.family)
	err := obj.iface.Command(params.SetDioIrqParams, mask[0], mask[1], d1[0], d1[1], 0, 0, d3[0], d3[1])
	if err != nil {
		return fmt.Errorf("failed to set irq params: %w", err)
	}
	return nil
}
