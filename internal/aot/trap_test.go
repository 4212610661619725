package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

func newSealedBuilder() (ssa.Builder, ssa.BasicBlock) {
	b := ssa.NewBuilder()
	b.Init(&ssa.Signature{})
	entry := b.AllocateBasicBlock()
	b.SetCurrentBlock(entry)
	b.Seal(entry)
	return b, entry
}

func TestTrapBlocks_BlockForIsMemoizedPerCode(t *testing.T) {
	b, _ := newSealedBuilder()
	traps := newTrapBlocks(b)

	blk1 := traps.blockFor(aotapi.TrapCodeIntegerOverflow)
	blk2 := traps.blockFor(aotapi.TrapCodeIntegerOverflow)
	require.Equal(t, blk1, blk2)

	blk3 := traps.blockFor(aotapi.TrapCodeDivideByZero)
	require.NotEqual(t, blk1, blk3)
}

func TestTrapBlocks_EmitTrapNow_RestoresCurrentBlock(t *testing.T) {
	b, entry := newSealedBuilder()
	traps := newTrapBlocks(b)

	traps.emitTrapNow(aotapi.TrapCodeUnreachable)
	require.Equal(t, entry, b.CurrentBlock())
}

func TestTrapBlocks_EmitTrapIf_ReturnsSealedContinuation(t *testing.T) {
	b, _ := newSealedBuilder()
	traps := newTrapBlocks(b)

	instr := b.AllocateInstruction()
	instr.AsIconst32(1)
	b.InsertInstruction(instr)
	cond := instr.Return()

	cont := traps.emitTrapIf(cond, aotapi.TrapCodeIntegerOverflow)

	require.Equal(t, cont, b.CurrentBlock())
}
