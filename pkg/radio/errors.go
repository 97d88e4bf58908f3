package radio

import (
	"errors"
	"fmt"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/mbalug7/go-semtech-lora/pkg/status"
)

var (
	ErrCRC             = errors.New("received packet failed CRC check")
	ErrDevice          = errors.New("radio reported device errors")
	ErrFirmwareVersion = errors.New("unexpected radio firmware version")
	ErrUnsupported     = params.ErrUnsupported
)

// PayloadSizeError is returned by Send before any bus traffic when the payload does not fit
type PayloadSizeError struct {
	Len int
}

func (obj *PayloadSizeError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds maximum of 255", obj.Len)
}

// StatusError is returned when the chip is not in the expected state after Tx or Rx
type StatusError struct {
	Mode   status.Mode
	Status status.CommandStatus
}

func (obj *StatusError) Error() string {
	return fmt.Sprintf("unexpected radio state, mode %s, command status %s", obj.Mode, obj.Status)
}
