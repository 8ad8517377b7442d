package replay

import "strings"

// ConvertStrValue renders a binary value string as hex, nibble by
// nibble, matching spec.md §4.3/§8's round-trip table. Within one
// nibble: if every bit is 'z', the nibble renders as lowercase "z";
// else if any bit is 'x', it renders as uppercase "X"; else if any
// bit is 'z' (mixed with defined bits), it renders as uppercase "Z";
// otherwise it renders as its hex digit. The bit string is left-padded
// to a multiple of 4 bits using '0' when the leading bit is defined,
// or the leading bit's own symbol when it is not (so that an
// all-unknown value pads to an all-unknown nibble instead of
// corrupting an otherwise-uniform symbol run).
func ConvertStrValue(bits string) string {
	if bits == "" {
		return ""
	}

	pad := (4 - len(bits)%4) % 4
	if pad > 0 {
		padChar := byte('0')
		switch bits[0] {
		case 'x', 'X', 'z', 'Z':
			padChar = bits[0]
		}
		bits = strings.Repeat(string(padChar), pad) + bits
	}

	var out strings.Builder
	for i := 0; i < len(bits); i += 4 {
		out.WriteByte(encodeNibble(bits[i : i+4]))
	}
	return out.String()
}

func encodeNibble(nibble string) byte {
	allZ, hasX, hasZ := true, false, false
	for i := 0; i < len(nibble); i++ {
		switch nibble[i] {
		case 'x', 'X':
			hasX = true
			allZ = false
		case 'z', 'Z':
			hasZ = true
		default:
			allZ = false
		}
	}
	switch {
	case allZ && hasZ:
		return 'z'
	case hasX:
		return 'X'
	case hasZ:
		return 'Z'
	default:
		var v int
		for i := 0; i < len(nibble); i++ {
			v <<= 1
			if nibble[i] == '1' {
				v |= 1
			}
		}
		return "0123456789ABCDEF"[v]
	}
}
