package hal

// Transceiver defines set of methods that firmware needs to move packets through a radio.
// Send and Receive only start an operation; completion is reported through a DIO line and
// must be finished with CleanupTx or CleanupRx.
type Transceiver interface {
	Send(payload []byte, frequency uint32) error
	Receive(maxPayloadLength uint8, frequency uint32) error
	CleanupTx() error
	Payload() []byte
}
