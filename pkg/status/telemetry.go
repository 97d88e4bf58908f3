package status

import (
	"encoding/binary"
	"fmt"
)

// RxBufferStatus describes where the last received payload landed in the chip buffer
type RxBufferStatus struct {
	Status        uint8
	PayloadLength uint8
	StartPointer  uint8
}

// DecodeRxBufferStatus parses [GetRxBufferStatus, NOP, NOP, NOP]
func DecodeRxBufferStatus(resp []byte) (RxBufferStatus, error) {
	if len(resp) < 4 {
		return RxBufferStatus{}, fmt.Errorf("rx buffer status response too short: %d bytes", len(resp))
	}
	return RxBufferStatus{
		Status:        resp[1],
		PayloadLength: resp[2],
		StartPointer:  resp[3],
	}, nil
}

// PacketStatus is raw link quality of the last LoRa packet. Values are left in chip
// units, so they stay compact when forwarded.
type PacketStatus struct {
	Status     uint8
	RSSI       uint8
	SNR        uint8
	SignalRSSI uint8
}

// DecodePacketStatus parses [GetPacketStatus, NOP, NOP, NOP, NOP]
func DecodePacketStatus(resp []byte) (PacketStatus, error) {
	if len(resp) < 5 {
		return PacketStatus{}, fmt.Errorf("packet status response too short: %d bytes", len(resp))
	}
	return PacketStatus{
		Status:     resp[1],
		RSSI:       resp[2],
		SNR:        resp[3],
		SignalRSSI: resp[4],
	}, nil
}

// RSSIdBm is the average packet RSSI, -RSSI/2
func (obj PacketStatus) RSSIdBm() float32 {
	return -float32(obj.RSSI) / 2
}

// SNRdB is the packet SNR, a two's complement value in quarter dB
func (obj PacketStatus) SNRdB() float32 {
	return float32(int8(obj.SNR)) / 4
}

// SignalRSSIdBm is the despread signal RSSI, -SignalRSSI/2
func (obj PacketStatus) SignalRSSIdBm() float32 {
	return -float32(obj.SignalRSSI) / 2
}

// Statistics are the SX126x receive counters since the last ResetStats
type Statistics struct {
	Status       uint8
	Received     uint16
	CRCErrors    uint16
	LengthErrors uint16
}

// DecodeStatistics parses the eight byte GetStats response
func DecodeStatistics(resp []byte) (Statistics, error) {
	if len(resp) < 8 {
		return Statistics{}, fmt.Errorf("statistics response too short: %d bytes", len(resp))
	}
	return Statistics{
		Status:       resp[1],
		Received:     binary.BigEndian.Uint16(resp[2:4]),
		CRCErrors:    binary.BigEndian.Uint16(resp[4:6]),
		LengthErrors: binary.BigEndian.Uint16(resp[6:8]),
	}, nil
}

// DecodeDeviceErrors reads the error word from bytes 2..3 of [GetDeviceErrors, NOP, NOP, NOP]
func DecodeDeviceErrors(resp []byte) (uint16, error) {
	if len(resp) < 4 {
		return 0, fmt.Errorf("device errors response too short: %d bytes", len(resp))
	}
	return binary.BigEndian.Uint16(resp[2:4]), nil
}

// DecodeRSSIInst parses [GetRssiInst, NOP, NOP], the signal power is -raw/2 dBm
func DecodeRSSIInst(resp []byte) (float32, error) {
	if len(resp) < 3 {
		return 0, fmt.Errorf("rssi response too short: %d bytes", len(resp))
	}
	return -float32(resp[2]) / 2, nil
}
