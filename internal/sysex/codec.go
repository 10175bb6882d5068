// Package sysex converts between the 8-bit data held by Korg devices and the
// 7-bit clean form carried inside MIDI System Exclusive messages.
//
// Native data is split into blocks of up to 7 bytes. Each block is sent as a
// header byte holding bit 7 of every block byte (bit i for byte i) followed by
// the block bytes with bit 7 cleared.
package sysex

const (
	// Start and End frame every System Exclusive message.
	Start = 0xF0
	End   = 0xF7

	nativeBlock = 7
	wireBlock   = nativeBlock + 1
)

// EncodedLen returns the wire length of n native bytes.
func EncodedLen(n int) int {
	if n <= 0 {
		return 0
	}
	l := n / nativeBlock * wireBlock
	if r := n % nativeBlock; r > 0 {
		l += r + 1
	}
	return l
}

// DecodedLen returns the native length of n wire bytes.
func DecodedLen(n int) int {
	if n <= 0 {
		return 0
	}
	l := n / wireBlock * nativeBlock
	if r := n % wireBlock; r > 1 {
		l += r - 1
	}
	return l
}

// Encode packs native bytes into the 7-bit wire form.
func Encode(native []byte) []byte {
	out := make([]byte, 0, EncodedLen(len(native)))
	for off := 0; off < len(native); off += nativeBlock {
		block := native[off:min(off+nativeBlock, len(native))]

		var header byte
		for i, b := range block {
			header |= (b >> 7) << i
		}
		out = append(out, header)
		for _, b := range block {
			out = append(out, b&0x7F)
		}
	}
	return out
}

// Decode unpacks 7-bit wire data into native bytes. A trailing block holding
// only a header byte contributes nothing.
func Decode(wire []byte) []byte {
	out := make([]byte, 0, DecodedLen(len(wire)))
	for off := 0; off < len(wire); off += wireBlock {
		header := wire[off]
		data := wire[off+1 : min(off+wireBlock, len(wire))]
		for i, b := range data {
			out = append(out, b&0x7F|((header>>i)&1)<<7)
		}
	}
	return out
}

// Valid reports whether every byte of data is a MIDI data byte.
func Valid(data []byte) bool {
	for _, b := range data {
		if b > 0x7F {
			return false
		}
	}
	return true
}

// Word14 reads a 14-bit value sent low byte first, 7 bits per byte.
func Word14(lo, hi byte) uint16 {
	return uint16(lo&0x7F) | uint16(hi&0x7F)<<7
}

// PutWord14 splits v into its low and high 7-bit bytes.
func PutWord14(v uint16) (lo, hi byte) {
	return byte(v & 0x7F), byte(v>>7) & 0x7F
}
