// Package felt implements the Cairo prime field used to interpret and
// reduce 32-byte big-endian argument slots. The mutation engine never
// emits an out-of-field value; Reduce is the single choke point that
// guarantees it.
package felt

import "math/big"

// Prime is the StarkNet/Cairo field prime: 2^251 + 17*2^192 + 1.
var Prime *big.Int

func init() {
	Prime = new(big.Int)
	Prime.SetString("3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
}

// Reduce interprets raw as a big-endian unsigned integer and reduces it
// modulo Prime, returning the canonical 32-byte big-endian encoding.
func Reduce(raw [32]byte) [32]byte {
	n := new(big.Int).SetBytes(raw[:])
	n.Mod(n, Prime)
	var out [32]byte
	n.FillBytes(out[:])
	return out
}

// FromUint64 encodes a small non-negative integer as a reduced felt.
func FromUint64(v uint64) [32]byte {
	n := new(big.Int).SetUint64(v)
	var out [32]byte
	n.FillBytes(out[:])
	return out
}

// Add returns a reduced over b, as 32-byte big-endian encodings.
func Add(a, b [32]byte) [32]byte {
	x := new(big.Int).SetBytes(a[:])
	y := new(big.Int).SetBytes(b[:])
	x.Add(x, y)
	x.Mod(x, Prime)
	var out [32]byte
	x.FillBytes(out[:])
	return out
}

// Equal reports whether a and b encode the same field element.
func Equal(a, b [32]byte) bool {
	return a == b
}

// Cmp compares a and b as unsigned big-endian integers: -1, 0, or 1.
func Cmp(a, b [32]byte) int {
	x := new(big.Int).SetBytes(a[:])
	y := new(big.Int).SetBytes(b[:])
	return x.Cmp(y)
}

// MaxValue returns Prime - 1, the field's largest element, used by the
// mutation engine's magic-value dictionary to tickle field-boundary bugs.
func MaxValue() [32]byte {
	n := new(big.Int).Sub(Prime, big.NewInt(1))
	var out [32]byte
	n.FillBytes(out[:])
	return out
}
