package profile

import (
	"encoding/binary"
	"fmt"
)

// alphabet is the consumer-defined 85-character table. It is not the
// standard Ascii85 alphabet and the grouping below is not the standard
// Ascii85 big-endian rule; both are a hard external contract.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?`'|()[]{}@%$#"

var alphabetInv = func() [256]int16 {
	var inv [256]int16
	for i := range inv {
		inv[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		inv[alphabet[i]] = int16(i)
	}
	return inv
}()

// EncodeBase85 encodes data with the custom alphabet. Each 4-byte group is
// read as a little-endian uint32 and emitted least significant digit first,
// five characters per full group. A final partial group of 1, 2 or 3 bytes
// is zero-padded for the arithmetic and yields one character more than its
// byte count.
func EncodeBase85(data []byte) string {
	out := make([]byte, 0, (len(data)+3)/4*5)
	for i := 0; i < len(data); i += 4 {
		var group [4]byte
		n := copy(group[:], data[i:])
		val := binary.LittleEndian.Uint32(group[:])

		chars := 5
		if n < 4 {
			chars = n + 1
		}
		for j := 0; j < chars; j++ {
			out = append(out, alphabet[val%85])
			val /= 85
		}
	}
	return string(out)
}

// DecodeBase85 reverses EncodeBase85. Group lengths of 1 character (or any
// character outside the alphabet) are invalid.
func DecodeBase85(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/5*4)
	for i := 0; i < len(s); i += 5 {
		chars := len(s) - i
		if chars > 5 {
			chars = 5
		}
		if chars == 1 {
			return nil, fmt.Errorf("base85: trailing group of 1 character")
		}

		var val, pow uint64
		pow = 1
		for j := 0; j < chars; j++ {
			d := alphabetInv[s[i+j]]
			if d < 0 {
				return nil, fmt.Errorf("base85: invalid character %q at %d", s[i+j], i+j)
			}
			val += uint64(d) * pow
			pow *= 85
		}
		if val > 0xFFFFFFFF {
			return nil, fmt.Errorf("base85: group at %d overflows 32 bits", i)
		}

		var group [4]byte
		binary.LittleEndian.PutUint32(group[:], uint32(val))
		out = append(out, group[:chars-1]...)
	}
	return out, nil
}
