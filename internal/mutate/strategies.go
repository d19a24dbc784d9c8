package mutate

import "math/rand"

func incByte(rng *rand.Rand, buf []byte, _ []byte) {
	o := biasedOffset(rng, len(buf))
	buf[o]++
}

func decByte(rng *rand.Rand, buf []byte, _ []byte) {
	o := biasedOffset(rng, len(buf))
	buf[o]--
}

func negByte(rng *rand.Rand, buf []byte, _ []byte) {
	o := biasedOffset(rng, len(buf))
	buf[o] = -buf[o]
}

// addSub adds a signed delta drawn from a width-scaled range to the
// big-endian integer at a chosen offset and width.
func addSub(rng *rand.Rand, buf []byte, _ []byte) {
	widths := []int{1, 2, 4, 8}
	w := widths[rng.Intn(len(widths))]
	if w > len(buf) {
		w = len(buf)
	}
	o := biasedOffset(rng, len(buf)-w+1)

	var bound int64 = 16
	for i := 1; i < w; i++ {
		bound *= 16
		if bound > 1<<40 {
			break
		}
	}
	delta := rng.Int63n(2*bound+1) - bound

	x := getUintBE(buf[o : o+w])
	x = uint64(int64(x) + delta)
	putUintBE(buf[o:o+w], x)
}

func swapRanges(rng *rand.Rand, buf []byte, _ []byte) {
	n := len(buf)
	if n < 2 {
		return
	}
	a := rng.Intn(n)
	b := rng.Intn(n)
	maxLen := n - max(a, b)
	l := biasedLength(rng, maxLen)
	tmp := make([]byte, l)
	copy(tmp, buf[a:a+l])
	copy(buf[a:a+l], buf[b:b+l])
	copy(buf[b:b+l], tmp)
}

func copyRange(rng *rand.Rand, buf []byte, _ []byte) {
	n := len(buf)
	if n < 2 {
		return
	}
	src := rng.Intn(n)
	dst := rng.Intn(n)
	maxLen := n - max(src, dst)
	l := biasedLength(rng, maxLen)
	copy(buf[dst:dst+l], buf[src:src+l])
}

// interSplice inserts a copy of a source range at a destination offset.
// Since the buffer is fixed-size, "insert" is realized as an overwrite
// sourced from a pre-mutation snapshot, so the spliced bytes are the
// original source content rather than bytes already touched by this pass.
func interSplice(rng *rand.Rand, buf []byte, _ []byte) {
	n := len(buf)
	if n < 2 {
		return
	}
	snapshot := append([]byte(nil), buf...)
	src := rng.Intn(n)
	dst := rng.Intn(n)
	maxLen := n - max(src, dst)
	l := biasedLength(rng, maxLen)
	copy(buf[dst:dst+l], snapshot[src:src+l])
}

func magicOverwrite(rng *rand.Rand, buf []byte, _ []byte) {
	mv := magicValues[rng.Intn(len(magicValues))]
	n := len(buf)
	o := biasedOffset(rng, n)
	l := len(mv)
	if o+l > n {
		l = n - o
	}
	copy(buf[o:o+l], mv[:l])
}

func randomOverwrite(rng *rand.Rand, buf []byte, _ []byte) {
	n := len(buf)
	o := biasedOffset(rng, n)
	l := biasedLength(rng, n-o)
	for i := o; i < o+l; i++ {
		buf[i] = byte(rng.Intn(256))
	}
}

func byteRepeat(rng *rand.Rand, buf []byte, _ []byte) {
	n := len(buf)
	o := biasedOffset(rng, n)
	val := buf[o]
	l := biasedLength(rng, n-o)
	for i := o; i < o+l; i++ {
		buf[i] = val
	}
}

// spliceOverwrite overwrites a range with bytes drawn from a donor input.
// mutate() guarantees donor is non-nil here (the empty-corpus case is
// handled by the caller, which redraws a different strategy instead).
func spliceOverwrite(rng *rand.Rand, buf []byte, donor []byte) {
	n := len(buf)
	if len(donor) == 0 {
		return
	}
	maxLen := n
	if len(donor) < maxLen {
		maxLen = len(donor)
	}
	l := biasedLength(rng, maxLen)
	o := biasedOffset(rng, n-l+1)
	copy(buf[o:o+l], donor[:l])
}
