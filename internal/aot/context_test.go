package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func twoTypeModule() *wasm.Module {
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeF64}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
			{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeF64}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
			{Params: []wasm.ValueType{wasm.ValueTypeI64}},
		},
		FunctionSection: []wasm.Index{0, 2},
		GlobalSection: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValueTypeI32}},
		},
	}
}

func TestContext_LowerValType(t *testing.T) {
	c := NewContext(twoTypeModule(), newInstalledIntrinsicTable(), DefaultCompilerConfig())
	require.Equal(t, ssa.TypeI32, c.lowerValType(wasm.ValueTypeI32))
	require.Equal(t, ssa.TypeI64, c.lowerValType(wasm.ValueTypeI64))
	require.Equal(t, ssa.TypeF32, c.lowerValType(wasm.ValueTypeF32))
	require.Equal(t, ssa.TypeF64, c.lowerValType(wasm.ValueTypeF64))
	require.Equal(t, ssa.TypeV128, c.lowerValType(wasm.ValueTypeV128))
	require.Equal(t, ssa.TypeI64, c.lowerValType(wasm.ValueTypeFuncref))
	require.Equal(t, ssa.TypeI64, c.lowerValType(wasm.ValueTypeExternref))
}

func TestContext_LowerValType_UnknownPanics(t *testing.T) {
	c := NewContext(twoTypeModule(), newInstalledIntrinsicTable(), DefaultCompilerConfig())
	require.Panics(t, func() { c.lowerValType(0xff) })
}

func TestContext_SignatureOf_StructurallyEqualTypesDedup(t *testing.T) {
	c := NewContext(twoTypeModule(), newInstalledIntrinsicTable(), DefaultCompilerConfig())
	sig0 := c.SignatureOf(0)
	sig1 := c.SignatureOf(1)
	sig2 := c.SignatureOf(2)

	require.Same(t, sig0, sig1) // type 0 and type 1 are structurally identical
	require.NotSame(t, sig0, sig2)
	require.Equal(t, []ssa.Type{ssa.TypeI32, ssa.TypeF64}, sig0.Params)
	require.Equal(t, []ssa.Type{ssa.TypeI32}, sig0.Results)
}

func TestContext_FunctionSignature_MatchesDeclaredType(t *testing.T) {
	c := NewContext(twoTypeModule(), newInstalledIntrinsicTable(), DefaultCompilerConfig())
	sig := c.FunctionSignature(1) // FunctionSection[1] == type index 2
	require.Equal(t, []ssa.Type{ssa.TypeI64}, sig.Params)
	require.Nil(t, sig.Results)
}

func TestContext_BlockType_EmptyAndValueAndIndexed(t *testing.T) {
	m := twoTypeModule()
	c := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())

	params, results, n := c.blockType([]byte{0x40}, 0)
	require.Nil(t, params)
	require.Nil(t, results)
	require.Equal(t, 1, n)

	params, results, n = c.blockType([]byte{byte(wasm.ValueTypeI32)}, 0)
	require.Nil(t, params)
	require.Equal(t, []ssa.Type{ssa.TypeI32}, results)
	require.Equal(t, 1, n)

	params, results, n = c.blockType([]byte{0x00}, 0) // index 0 into TypeSection
	require.Equal(t, []ssa.Type{ssa.TypeI32, ssa.TypeF64}, params)
	require.Equal(t, []ssa.Type{ssa.TypeI32}, results)
	require.Equal(t, 1, n)
}

func TestContext_FuncRefSpacesArePartitionedAndDisjoint(t *testing.T) {
	m := twoTypeModule()
	c := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())

	numFuncs := ssa.FuncRef(m.NumFunctions())
	require.Equal(t, numFuncs, c.intrinsicBase)
	require.Equal(t, c.intrinsicBase+ssa.FuncRef(IntrinsicMax), c.globalGetBase)
	require.Equal(t, c.globalGetBase+ssa.FuncRef(m.NumGlobals()), c.globalSetBase)

	require.Equal(t, c.intrinsicBase+ssa.FuncRef(IntrinsicMemCopy), c.IntrinsicFuncRef(IntrinsicMemCopy))
	require.Equal(t, c.globalGetBase, c.GlobalGetFuncRef(0))
	require.Equal(t, c.globalSetBase, c.GlobalSetFuncRef(0))

	// No overlap between any of the three ranges for a valid global index.
	require.NotEqual(t, c.GlobalGetFuncRef(0), c.GlobalSetFuncRef(0))
	require.Less(t, c.IntrinsicFuncRef(IntrinsicMax-1), c.globalGetBase)
}

func TestIntrinsicSignature_AllUint64(t *testing.T) {
	sig := intrinsicSignature(3, 1)
	require.Equal(t, []ssa.Type{ssa.TypeI64, ssa.TypeI64, ssa.TypeI64}, sig.Params)
	require.Equal(t, []ssa.Type{ssa.TypeI64}, sig.Results)
}
