package session

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// ContentHash returns a stable hex digest of v's slot values, used to
// deduplicate the Corpus Store by structural equality.
func ContentHash(v slotval.Vector) string {
	h := sha256.New()
	var u [8]byte
	for _, slot := range v {
		h.Write([]byte{byte(slot.Type)})
		binary.BigEndian.PutUint64(u[:], slot.U)
		h.Write(u[:])
		binary.BigEndian.PutUint64(u[:], slot.Hi)
		h.Write(u[:])
		if slot.B {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		h.Write(slot.F[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
