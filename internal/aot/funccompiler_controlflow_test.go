package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func oneParamI32Module(body []byte) *wasm.Module {
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{{
			Params:  []wasm.ValueType{wasm.ValueTypeI32},
			Results: []wasm.ValueType{wasm.ValueTypeI32},
		}},
		FunctionSection: []wasm.Index{0},
		CodeSection:     []wasm.Code{{Body: body}},
	}
}

// local.get 0; if (result i32) { i32.const 1 } else { i32.const 2 }; end
func TestCompile_IfElse(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeIf), 0x7f,
		byte(wasm.OpcodeI32Const), 0x01,
		byte(wasm.OpcodeElse),
		byte(wasm.OpcodeI32Const), 0x02,
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{1}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{1}, res.Values)

	res = ex.Invoke([]uint64{0}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{2}, res.Values)
}

// block (result i32) { i32.const 55; br 0; i32.const 99 } ; end
// the br unconditionally exits the block carrying 55, the trailing
// i32.const 99 is dead code reached only if the br were skipped.
func TestCompile_BlockWithUnconditionalBr(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeBlock), 0x7f,
		byte(wasm.OpcodeI32Const), 0x37,
		byte(wasm.OpcodeBr), 0x00,
		byte(wasm.OpcodeI32Const), 0x63,
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{0}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{55}, res.Values)
}

// block (result i32) { i32.const 7; local.get 0; br_if 0; drop; i32.const 3 } ; end
// br_if carries the already-pushed 7 out of the block when x != 0; otherwise
// execution falls through, drops the 7, and pushes 3 instead.
func TestCompile_BlockWithBrIf(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeBlock), 0x7f,
		byte(wasm.OpcodeI32Const), 0x07,
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeBrIf), 0x00,
		byte(wasm.OpcodeDrop),
		byte(wasm.OpcodeI32Const), 0x03,
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{1}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{7}, res.Values)

	res = ex.Invoke([]uint64{0}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{3}, res.Values)
}

// loop (result i32) { i32.const 0; br_if 0; i32.const 11 } ; end
// the br_if's condition is always false, so the loop never re-enters its
// header; execution falls through to the loop's natural end, producing 11.
func TestCompile_LoopFallsThroughWithoutBranchingBack(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeLoop), 0x7f,
		byte(wasm.OpcodeI32Const), 0x00,
		byte(wasm.OpcodeBrIf), 0x00,
		byte(wasm.OpcodeI32Const), 0x0b,
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{0}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{11}, res.Values)
}

// block (no result) { local.get 0; br_table 0 0 } ; i32.const 7; end
// br_table's lowering only supports value-less labels (DESIGN.md), so the
// targeted block carries no result; control falls out of it into the
// trailing i32.const 7 regardless of which table entry fires.
func TestCompile_BrTable(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeBlock), 0x40,
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeBrTable), 0x01, 0x00, 0x00,
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeI32Const), 0x07,
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{3}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{7}, res.Values)
}

// local.get 0; if { unreachable } ; end ; i32.const 5
func TestCompile_UnreachableTraps(t *testing.T) {
	body := []byte{
		byte(wasm.OpcodeLocalGet), 0x00,
		byte(wasm.OpcodeIf), 0x40,
		byte(wasm.OpcodeUnreachable),
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeI32Const), 0x05,
		byte(wasm.OpcodeEnd),
	}
	cm, ec := compileAndInstantiate(t, oneParamI32Module(body))
	ex := cm.Target.ResolveDirect(0)

	res := ex.Invoke([]uint64{1}, ec)
	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeUnreachable, res.Trap)
}
