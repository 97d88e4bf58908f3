package radio

import (
	"fmt"
	"log"

	"github.com/mbalug7/go-semtech-lora/pkg/params"
	"github.com/mbalug7/go-semtech-lora/pkg/status"
)

const (
	txIRQ = status.IRQTxDone | status.IRQTimeout
	rxIRQ = status.IRQRxDone | status.IRQTimeout
)

// Send writes payload to the chip buffer and starts the transmission on frequency (Hz).
// Completion is signalled on DIO1, after which CleanupTx must be called. With async
// transfer enabled Send returns once the bulk write started and the remaining steps
// report to the async handler.
func (obj *Radio) Send(payload []byte, frequency uint32) error {
	if len(payload) > params.MaxPayload(obj.family) {
		return &PayloadSizeError{Len: len(payload)}
	}
	if err := obj.SetOperatingMode(StbyRC); err != nil {
		return err
	}
	if err := applyErrata(obj.iface, obj.cfg, obj.errata.tx); err != nil {
		return err
	}
	obj.cfg.setFrequency(frequency)
	if err := obj.setFrequency(); err != nil {
		return err
	}
	if err := obj.setBufferBaseAddress(); err != nil {
		return err
	}

	length := uint8(len(payload))
	if obj.asyncHandler != nil {
		err := obj.iface.WriteBufferAsync(0, payload, func(err error) {
			if err != nil {
				obj.asyncHandler(fmt.Errorf("failed to write payload: %w", err))
				return
			}
			obj.asyncHandler(obj.startTx(length))
		})
		if err != nil {
			return fmt.Errorf("failed to start payload write: %w", err)
		}
		return nil
	}

	if err := obj.iface.WriteBuffer(0, payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return obj.startTx(length)
}

func (obj *Radio) startTx(length uint8) error {
	obj.cfg.packet().PayloadLength = length
	if err := obj.setPacketParams(); err != nil {
		return err
	}
	if err := obj.setIRQ(txIRQ, 0); err != nil {
		return err
	}
	timeout, _ := obj.cfg.timeouts()
	return obj.SetOperatingMode(Tx(timeout))
}

// CleanupTx finishes a transmission. The chip must be back in StbyRC reporting TxDone.
func (obj *Radio) CleanupTx() error {
	if err := obj.ClearIRQ(txIRQ); err != nil {
		return err
	}
	mode, cs, err := obj.Status()
	if err != nil {
		return err
	}
	if mode != status.ModeStbyRC || cs != status.TxDone {
		log.Printf("tx cleanup: radio in mode %s with command status %s", mode, cs)
		return &StatusError{Mode: mode, Status: cs}
	}
	if obj.family == params.SX126x {
		return obj.checkDeviceErrors()
	}
	return nil
}

// Receive arms the receiver on frequency (Hz) for packets up to maxPayloadLength bytes.
// RxDone or Timeout is signalled on DIO3, after which CleanupRx must be called.
func (obj *Radio) Receive(maxPayloadLength uint8, frequency uint32) error {
	if err := obj.SetOperatingMode(StbyRC); err != nil {
		return err
	}
	obj.cfg.setFrequency(frequency)
	if err := obj.setFrequency(); err != nil {
		return err
	}
	if err := obj.setBufferBaseAddress(); err != nil {
		return err
	}
	obj.cfg.packet().PayloadLength = maxPayloadLength
	if err := obj.setPacketParams(); err != nil {
		return err
	}
	if err := obj.setIRQ(0, rxIRQ); err != nil {
		return err
	}
	_, timeout := obj.cfg.timeouts()
	return obj.SetOperatingMode(Rx(timeout))
}

// CleanupRx finishes a reception. On DataAvailable the payload is read into the
// interface buffer, see Payload. On Timeout the returned status is Timeout and nothing
// is read. With async transfer enabled the payload read completes later and reports to
// the async handler.
func (obj *Radio) CleanupRx() (status.RxBufferStatus, status.CommandStatus, error) {
	mode, cs, err := obj.Status()
	if err != nil {
		return obj.abortRx(0, err)
	}
	if mode != status.ModeStbyRC || (cs != status.DataAvailable && cs != status.Timeout) {
		log.Printf("rx cleanup: radio in mode %s with command status %s", mode, cs)
		return obj.abortRx(cs, &StatusError{Mode: mode, Status: cs})
	}

	if cs == status.DataAvailable {
		r, err := obj.iface.Query(params.GetIrqStatus, 4)
		if err != nil {
			return obj.abortRx(cs, fmt.Errorf("failed to read irq status: %w", err))
		}
		if word := status.DecodeIRQWord(r); word&status.CRCMask != 0 {
			log.Printf("rx cleanup: dropping packet, irq %s", status.DecodeIRQ(obj.family, word))
			return obj.abortRx(cs, ErrCRC)
		}
	}

	if err := obj.ClearIRQ(rxIRQ); err != nil {
		return status.RxBufferStatus{}, cs, err
	}
	r, err := obj.iface.Query(params.GetRxBufferStatus, 4)
	if err != nil {
		return status.RxBufferStatus{}, cs, fmt.Errorf("failed to read rx buffer status: %w", err)
	}
	bs, err := status.DecodeRxBufferStatus(r)
	if err != nil {
		return status.RxBufferStatus{}, cs, err
	}
	if err := applyErrata(obj.iface, obj.cfg, obj.errata.rx); err != nil {
		return bs, cs, err
	}
	if obj.family == params.SX126x {
		if err := obj.checkDeviceErrors(); err != nil {
			return bs, cs, err
		}
	}
	if cs != status.DataAvailable {
		return bs, cs, nil
	}

	if obj.asyncHandler != nil {
		err := obj.iface.ReadBufferAsync(bs.StartPointer, bs.PayloadLength, func(_ []byte, err error) {
			if err != nil {
				err = fmt.Errorf("failed to read payload: %w", err)
			}
			obj.asyncHandler(err)
		})
		if err != nil {
			return bs, cs, fmt.Errorf("failed to start payload read: %w", err)
		}
		return bs, cs, nil
	}
	if _, err := obj.iface.ReadBuffer(bs.StartPointer, bs.PayloadLength); err != nil {
		return bs, cs, fmt.Errorf("failed to read payload: %w", err)
	}
	return bs, cs, nil
}

// abortRx clears the rx interrupts before returning err, a failed clear is only logged
func (obj *Radio) abortRx(cs status.CommandStatus, err error) (status.RxBufferStatus, status.CommandStatus, error) {
	if clearErr := obj.ClearIRQ(rxIRQ); clearErr != nil {
		log.Printf("rx cleanup: %v", clearErr)
	}
	return status.RxBufferStatus{}, cs, err
}

// Payload returns the bytes read by the last successful CleanupRx. The slice is reused
// by the next reception.
func (obj *Radio) Payload() []byte {
	return obj.iface.Payload()
}

// Status reads the chip mode and the status of the last command
func (obj *Radio) Status() (status.Mode, status.CommandStatus, error) {
	n := 2
	if obj.family == params.SX128x {
		n = 1
	}
	r, err := obj.iface.Query(params.GetStatus, n)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read status: %w", err)
	}
	return status.Decode(obj.family, r)
}

// IRQStatus reads the pending interrupt sources
func (obj *Radio) IRQStatus() (status.IRQ, error) {
	r, err := obj.iface.Query(params.GetIrqStatus, 4)
	if err != nil {
		return 0, fmt.Errorf("failed to read irq status: %w", err)
	}
	return status.DecodeIRQ(obj.family, status.DecodeIRQWord(r)), nil
}

// ClearIRQ clears the given interrupt sources, all of them when none are given
func (obj *Radio) ClearIRQ(irqs ...status.IRQ) error {
	word := [2]byte{0xFF, 0xFF}
	if len(irqs) > 0 {
		var set status.IRQ
		for _, irq := range irqs {
			set |= irq
		}
		word = set.Bytes(obj.family)
	}
	if err := obj.iface.Command(params.ClearIrqStatus, word[0], word[1]); err != nil {
		return fmt.Errorf("failed to clear irq: %w", err)
	}
	return nil
}
