package radio

import (
	"fmt"
	"log"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/mbalug7/go-semtech-lora/pkg/status"
)

// highRxGain is the SX128x boosted LNA setting, gain 0x25 with LNA mode bits 7:6 set
const highRxGain = 0x25 | 3<<6

// PacketStatus reads the raw link quality of the last received packet
func (obj *Radio) PacketStatus() (status.PacketStatus, error) {
	r, err := obj.iface.Query(params.GetPacketStatus, 5)
	if err != nil {
		return status.PacketStatus{}, fmt.Errorf("failed to read packet status: %w", err)
	}
	return status.DecodePacketStatus(r)
}

// RSSI reads the instantaneous signal power in dBm, valid while receiving
func (obj *Radio) RSSI() (float32, error) {
	r, err := obj.iface.Query(params.GetRssiInst, 3)
	if err != nil {
		return 0, fmt.Errorf("failed to read rssi: %w", err)
	}
	return status.DecodeRSSIInst(r)
}

// Statistics reads the receive counters. SX126x only.
func (obj *Radio) Statistics() (status.Statistics, error) {
	r, err := obj.iface.Query(params.GetStats, 8)
	if err != nil {
		return status.Statistics{}, fmt.Errorf("failed to read statistics: %w", err)
	}
	return status.DecodeStatistics(r)
}

// ResetStatistics zeroes the receive counters. SX126x only.
func (obj *Radio) ResetStatistics() error {
	if err := obj.iface.Command(params.ResetStats, 0, 0, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("failed to reset statistics: %w", err)
	}
	return nil
}

// DeviceErrors reads the error word, SX126x only
func (obj *Radio) DeviceErrors() (uint16, error) {
	r, err := obj.iface.Query(params.GetDeviceErrors, 4)
	if err != nil {
		return 0, fmt.Errorf("failed to read device errors: %w", err)
	}
	return status.DecodeDeviceErrors(r)
}

// ClearDeviceErrors clears the error word, SX126x only
func (obj *Radio) ClearDeviceErrors() error {
	if err := obj.iface.Command(params.ClearDeviceErrors, 0, 0); err != nil {
		return fmt.Errorf("failed to clear device errors: %w", err)
	}
	return nil
}

func (obj *Radio) checkDeviceErrors() error {
	errs, err := obj.DeviceErrors()
	if err != nil {
		return err
	}
	if errs != 0 {
		log.Printf("radio device errors 0x%04x", errs)
		return fmt.Errorf("%w: 0x%04x", ErrDevice, errs)
	}
	return nil
}

// SetHighRxGain switches the SX128x LNA to high sensitivity mode
func (obj *Radio) SetHighRxGain() error {
	addr, ok := params.Reg(obj.family, params.RegRxGain)
	if !ok {
		return fmt.Errorf("%w: high rx gain on %s", ErrUnsupported, obj.family)
	}
	if err := obj.iface.WriteRegister(addr, highRxGain); err != nil {
		return fmt.Errorf("failed to set high rx gain: %w", err)
	}
	return nil
}
