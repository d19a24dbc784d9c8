// Package mutate implements the typed mutation engine: it serializes an
// argument vector into a fixed-size scratch buffer, applies byte-level
// corruption strategies, and deserializes the buffer back into a vector of
// the original per-slot types. The buffer never grows past the sum of the
// per-slot serialized widths; strategies that would "insert" bytes in an
// untyped setting instead overwrite in place.
package mutate

import (
	"math/rand"

	"github.com/cairofuzz/cairofuzz/internal/felt"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// CorpusView is the narrow read-only view the engine needs of the shared
// corpus to support splice_overwrite. It is satisfied by a worker's local
// corpus snapshot (see internal/session), not the corpus store directly.
type CorpusView interface {
	Size() int
	Pick(rng *rand.Rand) slotval.Vector
}

// Engine applies mutate() against a fixed per-slot type signature. Each
// worker builds its own Engine for the entrypoint's signature and supplies
// its own *rand.Rand; the Engine holds no mutable state.
type Engine struct {
	types []slotval.SlotType
}

// New builds a mutation engine for the given fixed per-slot type signature.
func New(types []slotval.SlotType) *Engine {
	return &Engine{types: append([]slotval.SlotType(nil), types...)}
}

// strategyFn mutates buf in place; it never changes len(buf). donor, when
// non-nil, is a serialized snapshot of another corpus input for
// splice_overwrite to draw from.
type strategyFn func(rng *rand.Rand, buf []byte, donor []byte)

var strategies = []struct {
	name string
	fn   strategyFn
}{
	{"inc_byte", incByte},
	{"dec_byte", decByte},
	{"neg_byte", negByte},
	{"add_sub", addSub},
	{"swap_ranges", swapRanges},
	{"copy_range", copyRange},
	{"inter_splice", interSplice},
	{"magic_overwrite", magicOverwrite},
	{"random_overwrite", randomOverwrite},
	{"byte_repeat", byteRepeat},
	{"splice_overwrite", spliceOverwrite},
}

const spliceOverwriteIndex = 10

// Mutate transforms input into a new vector of the same length and
// per-slot type, applying `passes` mutation strategies (spec default 4)
// drawn uniformly at random over a serialized scratch buffer. An empty
// input vector is returned unchanged; this is the only no-op case.
func (e *Engine) Mutate(rng *rand.Rand, input slotval.Vector, passes int, corpus CorpusView) slotval.Vector {
	if len(input) == 0 {
		return input
	}

	buf := serialize(input)

	for i := 0; i < passes; i++ {
		idx := rng.Intn(len(strategies))
		var donor []byte
		if idx == spliceOverwriteIndex {
			if corpus == nil || corpus.Size() == 0 {
				// Skip; draw a replacement strategy excluding splice_overwrite.
				idx = rng.Intn(len(strategies) - 1)
			} else {
				donorVec := corpus.Pick(rng)
				donor = serialize(donorVec)
			}
		}
		strategies[idx].fn(rng, buf, donor)
	}

	return deserialize(buf, e.types)
}

// serialize lays out v's slots contiguously, big-endian, at their declared
// widths.
func serialize(v slotval.Vector) []byte {
	total := 0
	for _, slot := range v {
		total += slot.Type.Width()
	}
	buf := make([]byte, total)
	off := 0
	for _, slot := range v {
		w := slot.Type.Width()
		putSlot(buf[off:off+w], slot)
		off += w
	}
	return buf
}

func putSlot(dst []byte, v slotval.Value) {
	switch v.Type {
	case slotval.Bool:
		if v.B {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case slotval.Felt:
		copy(dst, v.F[:])
	case slotval.U128:
		putUint128BE(dst, v.Hi, v.U)
	default:
		putUintBE(dst, v.U)
	}
}

func putUintBE(dst []byte, x uint64) {
	n := len(dst)
	for i := 0; i < n; i++ {
		shift := uint(n-1-i) * 8
		dst[i] = byte(x >> shift)
	}
}

func putUint128BE(dst []byte, hi, lo uint64) {
	putUintBE(dst[:8], hi)
	putUintBE(dst[8:], lo)
}

func getUintBE(src []byte) uint64 {
	var x uint64
	for _, b := range src {
		x = x<<8 | uint64(b)
	}
	return x
}

// deserialize re-interprets buf's per-slot regions (N = slot width bytes
// each, in declared order) back into a typed vector. Felt regions are
// reduced modulo the field prime so the engine never emits an
// out-of-field value; boolean slots take their value from the low bit.
func deserialize(buf []byte, types []slotval.SlotType) slotval.Vector {
	out := make(slotval.Vector, len(types))
	off := 0
	for i, t := range types {
		w := t.Width()
		region := buf[off : off+w]
		switch t {
		case slotval.Bool:
			out[i] = slotval.BoolVal(region[0]&1 == 1)
		case slotval.Felt:
			var raw [32]byte
			copy(raw[:], region)
			out[i] = slotval.FeltVal(felt.Reduce(raw))
		case slotval.U128:
			hi := getUintBE(region[:8])
			lo := getUintBE(region[8:])
			out[i] = slotval.U128Val(lo, hi)
		case slotval.U8:
			out[i] = slotval.U8Val(uint8(getUintBE(region)))
		case slotval.U16:
			out[i] = slotval.U16Val(uint16(getUintBE(region)))
		case slotval.U32:
			out[i] = slotval.U32Val(uint32(getUintBE(region)))
		case slotval.U64:
			out[i] = slotval.U64Val(getUintBE(region))
		}
		off += w
	}
	return out
}

// biasedOffset draws an offset in [0, n) using the bimodal policy shared
// by every strategy: half the time, exponential preference for low
// indices (stressing the low bytes of numeric slots); half the time,
// uniform.
func biasedOffset(rng *rand.Rand, n int) int {
	if n <= 1 {
		return 0
	}
	if rng.Float64() < 0.5 {
		f := rng.ExpFloat64() // mean 1, heavily weighted near 0
		idx := int(f * float64(n) / 6)
		if idx >= n {
			idx = n - 1
		}
		return idx
	}
	return rng.Intn(n)
}

// biasedLength draws a length in [1, max] using the same bimodal policy.
func biasedLength(rng *rand.Rand, max int) int {
	if max <= 1 {
		return 1
	}
	if rng.Float64() < 0.5 {
		f := rng.ExpFloat64()
		idx := int(f * float64(max) / 6)
		if idx < 1 {
			idx = 1
		}
		if idx > max {
			idx = max
		}
		return idx
	}
	return 1 + rng.Intn(max)
}
