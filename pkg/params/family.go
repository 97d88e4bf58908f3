package params

import (
	"errors"
	"fmt"
)

// ErrConfig is returned when a configuration value violates a documented chip constraint
var ErrConfig = errors.New("invalid radio configuration")

// ErrUnsupported is returned for commands or registers the active chip family does not have
var ErrUnsupported = errors.New("not supported by chip family")

// Family selects the chip family, opcodes, register addresses and field encodings depend on it
type Family uint8

const (
	SX126x Family = iota
	SX128x
)

func (obj Family) String() string {
	switch obj {
	case SX126x:
		return "sx126x"
	case SX128x:
		return "sx128x"
	}
	return fmt.Sprintf("family(%d)", uint8(obj))
}

// MaxPayload is the largest payload a single packet can carry. The payload length packet
// parameter is one byte wide on both families.
func MaxPayload(f Family) int {
	return 255
}
