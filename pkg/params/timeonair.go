package params

import "time"

// LoRa holds the modem settings time on air depends on
type LoRa struct {
	SpreadingFactor SpreadingFactor
	BandwidthHz     int64
	CodingRate      CodingRate
	Header          HeaderType
	CRC             bool
	LDRO            bool
	PreambleLength  uint16
}

// TimeOnAir returns the time it takes to transmit a packet of the given payload length.
// It overestimates slightly, 4.25 preamble sync symbols are rounded up to 5.
// Useful for picking Tx timeouts.
func TimeOnAir(cfg LoRa, payloadLength int) time.Duration {
	if cfg.BandwidthHz == 0 {
		return 0
	}
	crc := int64(0)
	if cfg.CRC {
		crc = 1
	}
	ih := int64(cfg.Header)
	ldr := int64(0)
	if cfg.LDRO {
		ldr = 1
	}
	sf := int64(cfg.SpreadingFactor)

	n := 8*int64(payloadLength) - 4*sf + 28 + 16*crc - 20*ih
	div := 4 * (sf - 2*ldr)
	if n < 0 || div <= 0 {
		n = 0
	} else {
		n = (n + div - 1) / div
		n *= cfg.CodingRate.denominator()
	}
	n += 8 + int64(cfg.PreambleLength) + 5

	return time.Second * time.Duration(n*cfg.SpreadingFactor.ChipsPerSymbol()) /
		time.Duration(cfg.BandwidthHz)
}
