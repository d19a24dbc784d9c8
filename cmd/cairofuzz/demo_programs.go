package main

import (
	"sort"

	"github.com/cairofuzz/cairofuzz/internal/execadapter/demo"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// registerBuiltinPrograms registers the small set of demo programs used by
// the `demo` subcommand and as the default fuzz targets when no real
// bytecode artifact is wired up. Each one exercises a distinct corner of
// the error taxonomy or coverage shape from the end-to-end scenarios this
// engine is meant to find.
func registerBuiltinPrograms(a *demo.Adapter) []string {
	programs := []*demo.Program{
		{
			Name:   "abort_on_const",
			Params: []slotval.SlotType{slotval.Felt},
			Instrs: []demo.Instr{
				{Op: demo.OpAbortIfFeltEq, A: 0, Hex: feltLiteral(0x539)},
			},
		},
		{
			Name:   "branch_eq",
			Params: []slotval.SlotType{slotval.U8, slotval.U8},
			Instrs: []demo.Instr{
				{Op: demo.OpBranchEq, A: 0, B: 1},
			},
		},
		{
			Name:   "always_succeed",
			Params: []slotval.SlotType{slotval.Felt},
			Instrs: []demo.Instr{
				{Op: demo.OpNop},
			},
		},
		{
			Name:   "out_of_bound",
			Params: []slotval.SlotType{slotval.U32},
			Instrs: []demo.Instr{
				{Op: demo.OpOutOfBound, A: 0, Imm: 16},
			},
		},
		{
			Name:   "div_by_zero",
			Params: []slotval.SlotType{slotval.U64},
			Instrs: []demo.Instr{
				{Op: demo.OpDivByZero, A: 0},
			},
		},
		{
			Name:   "memory_hog",
			Params: []slotval.SlotType{slotval.U64},
			Instrs: []demo.Instr{
				{Op: demo.OpMemoryHog, A: 0, Imm: 1 << 20},
			},
		},
		{
			Name:    "gas_capped",
			Params:  []slotval.SlotType{slotval.U32},
			StepCap: 64,
			Instrs: []demo.Instr{
				{Op: demo.OpLoop, Imm: 128},
			},
		},
		{
			Name:   "three_branches",
			Params: []slotval.SlotType{slotval.U8, slotval.U8, slotval.U8},
			Instrs: []demo.Instr{
				{Op: demo.OpBranchEq, A: 0, B: 1},
				{Op: demo.OpBranchEq, A: 1, B: 2},
				{Op: demo.OpBranchEq, A: 0, B: 2},
			},
		},
	}

	names := make([]string, 0, len(programs))
	for _, p := range programs {
		a.Register(p)
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

func feltLiteral(v uint64) [32]byte {
	var out [32]byte
	for i := 0; i < 8; i++ {
		out[31-i] = byte(v >> (8 * i))
	}
	return out
}

// resolveTypes inits a throwaway handle purely to read back the entrypoint's
// parameter signature, used before the real session-owning Init call in
// coordinator.New.
func resolveTypes(a *demo.Adapter, entrypoint string) []slotval.SlotType {
	h, err := a.Init(nil, entrypoint, 0)
	if err != nil {
		return nil
	}
	return a.ParameterTypes(h)
}
