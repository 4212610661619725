package aot

import (
	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

// trapBlocks lazily allocates one terminal BasicBlock per distinct
// aotapi.TrapCode a function's body can reach (spec.md §4.2.6, "Trap
// blocks"): a lowering that traps branches into the shared block for its
// TrapCode instead of emitting its own ExitWithCode instruction, so a
// function with many trapping sites does not pay for many copies of the
// same trap sequence.
//
// This mirrors how the interpreter itself centralizes trapping: Executable.step
// returns a TrapCode directly for the opcodes backend/interp.go evaluates
// (divide-by-zero, out-of-bounds memory) without any SSA-level
// representation at all. The Function Compiler uses trapBlocks only for an
// explicit `unreachable` (through emitTrapNow); emitTrapIf is called only by
// trapUnless, which has no caller.
type trapBlocks struct {
	b      ssa.Builder
	blocks map[aotapi.TrapCode]ssa.BasicBlock
}

func newTrapBlocks(b ssa.Builder) *trapBlocks {
	return &trapBlocks{b: b, blocks: make(map[aotapi.TrapCode]ssa.BasicBlock)}
}

// blockFor returns the shared trap block for code, allocating and sealing it
// on first use. The block is reached via Jump (emitTrapNow) or Brnz
// (emitTrapIf), is never itself given parameters, and terminates with
// ExitWithCode; it has no successors.
func (t *trapBlocks) blockFor(code aotapi.TrapCode) ssa.BasicBlock {
	if blk, ok := t.blocks[code]; ok {
		return blk
	}
	blk := t.b.AllocateBasicBlock()
	cur := t.b.CurrentBlock()
	t.b.SetCurrentBlock(blk)
	instr := t.b.AllocateInstruction()
	instr.AsExitWithCode(ssa.ValueInvalid, aotapi.ExitCodeTrapWithCode(code))
	t.b.InsertInstruction(instr)
	t.b.Seal(blk)
	t.b.SetCurrentBlock(cur)
	t.blocks[code] = blk
	return blk
}

// emitTrapNow unconditionally jumps the current block into the shared trap
// block for code. Callers must not emit anything else into the current
// block afterward: Jump is a terminator.
func (t *trapBlocks) emitTrapNow(code aotapi.TrapCode) {
	blk := t.blockFor(code)
	instr := t.b.AllocateInstruction()
	instr.AsJump(nil, blk)
	t.b.InsertInstruction(instr)
}

// emitTrapIf branches to the shared trap block for code when cond is
// non-zero, falling through to a fresh continuation block (returned, already
// the current block) otherwise.
func (t *trapBlocks) emitTrapIf(cond ssa.Value, code aotapi.TrapCode) ssa.BasicBlock {
	trapBlk := t.blockFor(code)
	cont := t.b.AllocateBasicBlock()

	brnz := t.b.AllocateInstruction()
	brnz.AsBrnz(cond, nil, trapBlk)
	t.b.InsertInstruction(brnz)

	jmp := t.b.AllocateInstruction()
	jmp.AsJump(nil, cont)
	t.b.InsertInstruction(jmp)

	t.b.Seal(cont)
	t.b.SetCurrentBlock(cont)
	return cont
}
