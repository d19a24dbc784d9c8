// Package trace defines the coverage and crash keying types shared by the
// execution adapter, the coverage map, and the crash store.
package trace

import (
	"crypto/sha256"
	"encoding/binary"
)

// PCFP is one (program-counter, frame-pointer) pair observed during a
// single execution step.
type PCFP struct {
	PC uint64
	FP uint64
}

// Fingerprint is the ordered sequence of (pc, fp) pairs produced by one
// execution; it identifies "same coverage" under full-sequence equality.
type Fingerprint []PCFP

// Key returns a comparable, hashable digest of the fingerprint suitable for
// use as a Go map key. Two fingerprints with the same sequence of pairs
// always produce the same key; this is a content hash, not the sequence
// itself, so very long traces don't bloat map key storage.
func (f Fingerprint) Key() [32]byte {
	h := sha256.New()
	var buf [16]byte
	for _, step := range f {
		binary.BigEndian.PutUint64(buf[0:8], step.PC)
		binary.BigEndian.PutUint64(buf[8:16], step.FP)
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ErrorKind is the taxonomy of failed-execution classifications observable
// at the core boundary.
type ErrorKind int

const (
	Abort ErrorKind = iota
	OutOfBound
	OutOfGas
	Arithmetic
	MemoryLimit
	Unknown
)

// String returns the error kind's tag name, used in crash-bucket keys and
// diagnostics.
func (k ErrorKind) String() string {
	switch k {
	case Abort:
		return "Abort"
	case OutOfBound:
		return "OutOfBound"
	case OutOfGas:
		return "OutOfGas"
	case Arithmetic:
		return "Arithmetic"
	case MemoryLimit:
		return "MemoryLimit"
	default:
		return "Unknown"
	}
}

// ErrorFingerprint is the (tag, message) pair used as a crash-bucket key.
// Two crashes with the same tag on the same entrypoint but distinct
// messages are distinct entries.
type ErrorFingerprint struct {
	Kind    ErrorKind
	Message string
}

// Key returns a comparable Go map key for the error fingerprint.
func (e ErrorFingerprint) Key() string {
	return e.Kind.String() + "\x00" + e.Message
}
