package params

import (
	"encoding/binary"
	"time"
)

const (
	xtal6x = 32_000_000
	xtal8x = 52_000_000

	// frequency step is xtal / 2^N
	freqShift6x = 25
	freqShift8x = 18

	// TimingStep is the period base of SetTx, SetRx and SetSleep durations
	TimingStep = 15625 * time.Nanosecond
)

// EncodeFrequency returns the SetRfFrequency argument, round(hz * 2^N / xtal), big-endian.
// SX126x uses four bytes, SX128x three. The division is done on uint64, 2.5 GHz << 25
// still fits.
func EncodeFrequency(f Family, hz uint32) []byte {
	if f == SX128x {
		raw := divRound(uint64(hz)<<freqShift8x, xtal8x)
		return []byte{byte(raw >> 16), byte(raw >> 8), byte(raw)}
	}
	raw := divRound(uint64(hz)<<freqShift6x, xtal6x)
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(raw))
	return out
}

// DecodeFrequency is the inverse of EncodeFrequency, rounded to the nearest hertz
func DecodeFrequency(f Family, raw []byte) uint32 {
	var value uint64
	for _, b := range raw {
		value = value<<8 | uint64(b)
	}
	if f == SX128x {
		return uint32(divRound(value*xtal8x, 1<<freqShift8x))
	}
	return uint32(divRound(value*xtal6x, 1<<freqShift6x))
}

// FrequencyStep returns the frequency resolution in hertz
func FrequencyStep(f Family) float64 {
	if f == SX128x {
		return float64(xtal8x) / float64(1<<freqShift8x)
	}
	return float64(xtal6x) / float64(1<<freqShift6x)
}

// EncodeTimeout converts a duration into the three byte argument of SetTx / SetRx.
// The count is round(d / 15.625us), saturating at the field width: 24 bits on SX126x,
// 16 bits after a zero period base byte on SX128x. Zero selects single mode without
// timeout, all ones continuous mode.
func EncodeTimeout(f Family, d time.Duration) [3]byte {
	var count uint64
	if d > 0 {
		count = divRound(uint64(d), uint64(TimingStep))
	}
	if f == SX128x {
		if count > 0xFFFF {
			count = 0xFFFF
		}
		return [3]byte{0x00, byte(count >> 8), byte(count)}
	}
	if count > 0xFFFFFF {
		count = 0xFFFFFF
	}
	return [3]byte{byte(count >> 16), byte(count >> 8), byte(count)}
}

// ContinuousRx is the timeout selecting continuous receive on the given family
func ContinuousRx(f Family) time.Duration {
	if f == SX128x {
		return 0xFFFF * TimingStep
	}
	return 0xFFFFFF * TimingStep
}

func divRound(n, d uint64) uint64 {
	return (n + d/2) / d
}
