package corpusfile

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// Writer appends newly-promoted corpus and crash entries to disk as a
// session runs, mirroring the Rust original's record_json_input /
// record_json_crash behavior even though on-disk persistence format
// remains an external-collaborator concern per spec §6.
type Writer struct {
	mu         sync.Mutex
	corpusPath string
	crashPath  string
	inputs     []jsonVector
	crashes    []jsonCrash
}

type jsonSlot struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type jsonVector []jsonSlot

type jsonCrash struct {
	Input   jsonVector `json:"input"`
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
}

// NewWriter builds a writer that appends to the given paths. Either path
// may be empty to disable that half of persistence.
func NewWriter(corpusPath, crashPath string) *Writer {
	return &Writer{corpusPath: corpusPath, crashPath: crashPath}
}

// RecordInput appends a newly-promoted input to the in-memory buffer and
// flushes the corpus file.
func (w *Writer) RecordInput(v slotval.Vector) error {
	if w.corpusPath == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inputs = append(w.inputs, toJSONVector(v))
	return w.flushCorpus()
}

// RecordCrash appends a newly-observed crash to the in-memory buffer and
// flushes the crash file.
func (w *Writer) RecordCrash(v slotval.Vector, kind trace.ErrorKind, msg string) error {
	if w.crashPath == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.crashes = append(w.crashes, jsonCrash{Input: toJSONVector(v), Kind: kind.String(), Message: msg})
	return w.flushCrashes()
}

func (w *Writer) flushCorpus() error {
	doc := struct {
		Inputs []jsonVector `json:"inputs"`
	}{Inputs: w.inputs}
	return writeJSON(w.corpusPath, doc)
}

func (w *Writer) flushCrashes() error {
	doc := struct {
		Crashes []jsonCrash `json:"crashes"`
	}{Crashes: w.crashes}
	return writeJSON(w.crashPath, doc)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("corpusfile: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("corpusfile: write %s: %w", path, err)
	}
	return nil
}

func toJSONVector(v slotval.Vector) jsonVector {
	out := make(jsonVector, len(v))
	for i, slot := range v {
		out[i] = jsonSlot{Type: slot.Type.String(), Value: slot.String()}
	}
	return out
}
