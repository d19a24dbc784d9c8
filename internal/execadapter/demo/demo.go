// Package demo provides a deterministic, bounded, in-process reference
// implementation of execadapter.Adapter. It stands in for the real Cairo VM,
// which is explicitly out of scope for the core — the adapter boundary is
// all the core depends on, and this package exercises that boundary the way
// crytic/medusa's fuzzerTracer exercises the go-ethereum EVM logger
// boundary: a small, self-contained interpreter whose every observable step
// is recorded as a (pc, fp) pair.
package demo

import (
	"fmt"

	"github.com/cairofuzz/cairofuzz/internal/execadapter"
	"github.com/cairofuzz/cairofuzz/internal/felt"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// Op is one instruction in a demo program. Programs are tiny and
// hand-built by tests or the cmd/cairofuzz demo subcommand; there is no
// bytecode deserializer here, matching spec.md's stance that artifact
// parsing is an external collaborator's job.
type Op int

const (
	// OpNop advances the pc and does nothing else.
	OpNop Op = iota
	// OpAbortIfEq aborts when slot A's integer value equals Imm (bools read
	// as 0/1; a felt slot's value is not read and counts as 0, so felt
	// tripwires use OpAbortIfFeltEq).
	OpAbortIfEq
	// OpAbortIfFeltEq aborts when the felt slot A equals the given hex
	// big-endian constant.
	OpAbortIfFeltEq
	// OpBranchEq records a distinct fingerprint branch depending on whether
	// slot A equals slot B, without aborting.
	OpBranchEq
	// OpOutOfBound fails with ErrorKind OutOfBound when slot A (as a small
	// index) exceeds Imm.
	OpOutOfBound
	// OpDivByZero fails with ErrorKind Arithmetic when slot A is zero.
	OpDivByZero
	// OpMemoryHog fails with ErrorKind MemoryLimit when slot A exceeds Imm.
	OpMemoryHog
	// OpLoop executes Imm no-op steps, consuming the step budget; used to
	// exercise the OutOfGas path when Imm exceeds the configured cap.
	OpLoop
)

// Instr is one demo-program instruction.
type Instr struct {
	Op   Op
	A, B int // slot indices, when the op reads slots
	Imm  uint64
	Hex  [32]byte // used by OpAbortIfFeltEq
}

// Program is an ordered instruction list plus its declared parameter types.
// It is the demo stand-in for resolved bytecode + entrypoint.
type Program struct {
	Name    string
	Params  []slotval.SlotType
	Instrs  []Instr
	StepCap int // 0 means use Adapter's default
}

const defaultStepCap = 100000

type handle struct {
	prog  *Program
	state map[int]uint64 // persisted "memory" in Stateful mode, keyed by instruction index
}

// Adapter is a registry of named demo programs together with the stateful
// mode's carried-forward memory per handle.
type Adapter struct {
	programs map[string]*Program
}

// New constructs an adapter with no registered programs; call Register
// before Init.
func New() *Adapter {
	return &Adapter{programs: make(map[string]*Program)}
}

// Register adds a demo program under its own Name so later Init calls can
// resolve it by entrypoint name.
func (a *Adapter) Register(p *Program) {
	a.programs[p.Name] = p
}

// Init resolves entrypoint against the registered programs.
func (a *Adapter) Init(bytecode []byte, entrypoint string, mode execadapter.Mode) (execadapter.EntrypointHandle, error) {
	p, ok := a.programs[entrypoint]
	if !ok {
		return nil, fmt.Errorf("demo: unknown entrypoint %q", entrypoint)
	}
	h := &handle{prog: p}
	if mode == execadapter.Stateful {
		h.state = make(map[int]uint64)
	}
	return h, nil
}

// Arity reports the handle's declared parameter count.
func (a *Adapter) Arity(h execadapter.EntrypointHandle) int {
	return len(h.(*handle).prog.Params)
}

// ParameterTypes reports the handle's declared per-slot type signature.
func (a *Adapter) ParameterTypes(h execadapter.EntrypointHandle) []slotval.SlotType {
	return h.(*handle).prog.Params
}

// Execute interprets the handle's program against args, producing a trace
// fingerprint of (pc, fp) steps or a classified *execadapter.ExecError.
func (a *Adapter) Execute(eh execadapter.EntrypointHandle, args slotval.Vector) (trace.Fingerprint, *execadapter.ExecError) {
	h := eh.(*handle)
	p := h.prog
	cap := p.StepCap
	if cap == 0 {
		cap = defaultStepCap
	}

	fp := make(trace.Fingerprint, 0, len(p.Instrs))
	var frame uint64 = 1
	steps := 0

	slotUint := func(i int) uint64 {
		v := args[i]
		if v.Type == slotval.Bool {
			if v.B {
				return 1
			}
			return 0
		}
		return v.U
	}

	for pc, in := range p.Instrs {
		steps++
		if steps > cap {
			return nil, &execadapter.ExecError{Kind: trace.OutOfGas, Message: "step cap exceeded"}
		}
		switch in.Op {
		case OpNop:
			// no-op
		case OpAbortIfEq:
			if slotUint(in.A) == in.Imm {
				return nil, &execadapter.ExecError{Kind: trace.Abort, Message: fmt.Sprintf("slot %d == %d", in.A, in.Imm)}
			}
		case OpAbortIfFeltEq:
			if felt.Equal(args[in.A].F, in.Hex) {
				return nil, &execadapter.ExecError{Kind: trace.Abort, Message: fmt.Sprintf("felt slot %d matched tripwire", in.A)}
			}
		case OpBranchEq:
			if slotUint(in.A) == slotUint(in.B) {
				frame = frame*31 + 1
			} else {
				frame = frame*31 + 2
			}
		case OpOutOfBound:
			if slotUint(in.A) > in.Imm {
				return nil, &execadapter.ExecError{Kind: trace.OutOfBound, Message: fmt.Sprintf("index %d exceeds bound %d", slotUint(in.A), in.Imm)}
			}
		case OpDivByZero:
			if slotUint(in.A) == 0 {
				return nil, &execadapter.ExecError{Kind: trace.Arithmetic, Message: "division by zero"}
			}
		case OpMemoryHog:
			if slotUint(in.A) > in.Imm {
				return nil, &execadapter.ExecError{Kind: trace.MemoryLimit, Message: fmt.Sprintf("requested %d exceeds memory cap %d", slotUint(in.A), in.Imm)}
			}
		case OpLoop:
			steps += int(in.Imm)
			if steps > cap {
				return nil, &execadapter.ExecError{Kind: trace.OutOfGas, Message: "step cap exceeded"}
			}
		default:
			return nil, &execadapter.ExecError{Kind: trace.Unknown, Message: fmt.Sprintf("unrecognized opcode %d", in.Op)}
		}
		fp = append(fp, trace.PCFP{PC: uint64(pc), FP: frame})

		if h.state != nil && len(in.Hex) > 0 {
			h.state[pc] = slotUint(in.A)
		}
	}

	if len(fp) == 0 {
		fp = append(fp, trace.PCFP{PC: 0, FP: frame})
	}
	return fp, nil
}

var _ execadapter.Adapter = (*Adapter)(nil)
