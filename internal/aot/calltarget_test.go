package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/backend"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func oneGlobalModule() *wasm.Module {
	return &wasm.Module{
		GlobalSection: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32, Mutable: true}},
		},
	}
}

func TestCallTarget_GlobalGetSetRoundTrip(t *testing.T) {
	m := oneGlobalModule()
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	target := NewCallTarget(ctx, ctx.intrinsics, 0)

	ec := NewExecCtx(0, 1, 0, nil)
	ec.Globals[0] = &[2]uint64{}

	setRef := ctx.GlobalSetFuncRef(0)
	getRef := ctx.GlobalGetFuncRef(0)

	setRes := target.ResolveDirect(setRef).Invoke([]uint64{99}, ec)
	require.False(t, setRes.Trapped)

	getRes := target.ResolveDirect(getRef).Invoke(nil, ec)
	require.False(t, getRes.Trapped)
	require.Equal(t, []uint64{99}, getRes.Values)
}

func TestCallTarget_ResolveIndirect_OutOfBoundsTableIndex(t *testing.T) {
	m := &wasm.Module{}
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	target := NewCallTarget(ctx, ctx.intrinsics, 1)
	target.SetTable([]ssa.FuncRef{0})

	_, trap := target.ResolveIndirect(5, 0)
	require.Equal(t, aotapi.TrapCodeMemoryOutOfBounds, trap)
}

func TestCallTarget_ResolveIndirect_NullSlotTraps(t *testing.T) {
	m := &wasm.Module{}
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	target := NewCallTarget(ctx, ctx.intrinsics, 1)
	target.SetTable([]ssa.FuncRef{NullFuncRef})

	_, trap := target.ResolveIndirect(0, 0)
	require.Equal(t, aotapi.TrapCodeIndirectCallTypeMismatch, trap)
}

func TestCallTarget_ResolveIndirect_SignatureMismatchTraps(t *testing.T) {
	m := &wasm.Module{
		TypeSection: []wasm.FunctionType{
			{Results: []wasm.ValueType{wasm.ValueTypeI32}},
			{Results: []wasm.ValueType{wasm.ValueTypeI64}},
		},
		FunctionSection: []wasm.Index{0},
	}
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	target := NewCallTarget(ctx, ctx.intrinsics, 1)
	sig := ctx.SignatureOf(0)
	target.SetFunction(0, backend.NewNative(sig, func(_ backend.ExecContext, _ []uint64) backend.Result {
		return backend.Result{Values: []uint64{7}}
	}))
	target.SetTable([]ssa.FuncRef{0})

	wrongSig := ctx.SignatureOf(1).ID
	_, trap := target.ResolveIndirect(0, wrongSig)
	require.Equal(t, aotapi.TrapCodeIndirectCallTypeMismatch, trap)

	rightSig := ctx.SignatureOf(0).ID
	ex, trap := target.ResolveIndirect(0, rightSig)
	require.Equal(t, aotapi.TrapCode(0), trap)
	require.NotNil(t, ex)
}
