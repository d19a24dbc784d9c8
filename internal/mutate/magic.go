package mutate

import "github.com/cairofuzz/cairofuzz/internal/felt"

// magicValues is the fixed dictionary magic_overwrite draws from: boundary
// integers and signed extremes at the 1-, 2-, 4- and 8-byte widths (there
// are no 16-byte u128 entries), plus the field prime's top element so
// field-boundary bugs get direct
// coverage. Widths are stored big-endian, matching the scratch buffer's own
// byte order; magic_overwrite truncates to however much room is left at the
// chosen offset.
var magicValues = buildMagicValues()

func buildMagicValues() [][]byte {
	vals := [][]byte{
		{0x00},
		{0x01},
		{0xff},
		{0x7f},
		{0x80},
		{0x00, 0x00},
		{0xff, 0xff},
		{0x80, 0x00},
		{0x7f, 0xff},
		{0x00, 0x00, 0x00, 0x00},
		{0xff, 0xff, 0xff, 0xff},
		{0x80, 0x00, 0x00, 0x00},
		{0x7f, 0xff, 0xff, 0xff},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		{0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	}
	maxFelt := felt.MaxValue()
	vals = append(vals, append([]byte(nil), maxFelt[:]...))
	return vals
}
