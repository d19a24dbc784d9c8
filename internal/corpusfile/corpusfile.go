// Package corpusfile loads the corpus seed file and crash seed file
// formats of spec §6 and appends newly-promoted entries back to disk as a
// session runs. The exact byte encoding is this package's concern, not the
// core's; internal/session and internal/worker only ever see typed
// argument vectors.
package corpusfile

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cairofuzz/cairofuzz/internal/felt"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// LoadCorpus parses a corpus seed file: a JSON document shaped
//
//	{"inputs": [[{"type":"u8","value":5}, {"type":"felt","value":"0x539"}], ...]}
//
// Records whose arity or per-slot types don't match types are rejected
// before reaching the core, per spec §6's loader contract.
func LoadCorpus(path string, types []slotval.SlotType) ([]slotval.Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("corpusfile: read %s: %w", path, err)
	}

	var out []slotval.Vector
	var loadErr error
	gjson.GetBytes(data, "inputs").ForEach(func(_, entry gjson.Result) bool {
		v, err := parseVector(entry, types)
		if err != nil {
			loadErr = fmt.Errorf("corpusfile: %s: %w", path, err)
			return false
		}
		out = append(out, v)
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return out, nil
}

// LoadCrashes parses a crash seed file, as LoadCorpus plus the recorded
// ErrorKind and message per entry, reloaded at session start to suppress
// duplicate alerts across sessions.
func LoadCrashes(path string, types []slotval.SlotType) ([]session.SeedCrash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("corpusfile: read %s: %w", path, err)
	}

	var out []session.SeedCrash
	var loadErr error
	gjson.GetBytes(data, "crashes").ForEach(func(_, entry gjson.Result) bool {
		v, err := parseVector(entry.Get("input"), types)
		if err != nil {
			loadErr = fmt.Errorf("corpusfile: %s: %w", path, err)
			return false
		}
		kind, err := parseErrorKind(entry.Get("kind").String())
		if err != nil {
			loadErr = fmt.Errorf("corpusfile: %s: %w", path, err)
			return false
		}
		out = append(out, session.SeedCrash{
			Vector: v,
			Kind:   kind,
			Msg:    entry.Get("message").String(),
		})
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return out, nil
}

func parseVector(arr gjson.Result, types []slotval.SlotType) (slotval.Vector, error) {
	slots := arr.Array()
	if len(slots) != len(types) {
		return nil, fmt.Errorf("arity %d, want %d", len(slots), len(types))
	}
	v := make(slotval.Vector, len(types))
	for i, t := range types {
		wantType := t.String()
		gotType := slots[i].Get("type").String()
		if gotType != wantType {
			return nil, fmt.Errorf("slot %d type %q, want %q", i, gotType, wantType)
		}
		val := slots[i].Get("value")
		switch t {
		case slotval.Bool:
			v[i] = slotval.BoolVal(val.Bool())
		case slotval.Felt:
			raw, err := parseFeltLiteral(val.String())
			if err != nil {
				return nil, fmt.Errorf("slot %d: %w", i, err)
			}
			v[i] = slotval.FeltVal(felt.Reduce(raw))
		case slotval.U128:
			v[i] = slotval.U128Val(val.Uint(), 0)
		default:
			v[i] = slotval.Value{Type: t, U: val.Uint()}
		}
	}
	return v, nil
}

// parseFeltLiteral accepts decimal or 0x-prefixed hex big-endian literals,
// matching the corpus seed file's human-editable convention.
func parseFeltLiteral(s string) ([32]byte, error) {
	var raw [32]byte
	n := new(big.Int)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	if _, ok := n.SetString(s, base); !ok {
		return raw, fmt.Errorf("invalid felt literal %q", s)
	}
	n.FillBytes(raw[:])
	return raw, nil
}

func parseErrorKind(s string) (trace.ErrorKind, error) {
	switch s {
	case "Abort":
		return trace.Abort, nil
	case "OutOfBound":
		return trace.OutOfBound, nil
	case "OutOfGas":
		return trace.OutOfGas, nil
	case "Arithmetic":
		return trace.Arithmetic, nil
	case "MemoryLimit":
		return trace.MemoryLimit, nil
	case "Unknown":
		return trace.Unknown, nil
	default:
		return trace.Unknown, fmt.Errorf("unrecognized error kind %q", s)
	}
}
