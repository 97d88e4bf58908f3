package hal

// RegAddress is a 16-bit radio register address, sent MSB first
type RegAddress uint16

// Bytes splits the address into its big-endian bytes
func (a RegAddress) Bytes() (byte, byte) {
	return byte(a >> 8), byte(a)
}

// Register reads and writes single radio registers
type Register interface {
	ReadRegister(addr RegAddress) (uint8, error)
	WriteRegister(addr RegAddress, value uint8) error
}
