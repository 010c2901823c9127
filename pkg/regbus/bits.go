package regbus

// SetBits returns n with the bits under mask replaced by v. Bits of v outside
// mask are ignored.
func SetBits(n, mask, v uint8) uint8 {
	return (n &^ mask) | (v & mask)
}

// decodeUnsigned assembles big-endian bytes into an unsigned value.
func decodeUnsigned(buf []byte) uint32 {
	var value uint32
	for _, b := range buf {
		value = value<<8 | uint32(b)
	}
	return value
}

// signExtend moves the top transmitted bit into bit 31 and shifts it back
// arithmetically so the sign propagates.
func signExtend(value uint32, numBytes int) int32 {
	shift := uint(MaxValueBytes-numBytes) * 8
	return int32(value<<shift) >> shift
}
