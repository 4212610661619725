package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func TestHostImports_Lookup(t *testing.T) {
	called := HostFunc(func(args []uint64) ([]uint64, aotapi.TrapCode) { return args, 0 })
	imports := HostImports{"env": {"f": called}}

	fn, ok := imports.Lookup("env", "f")
	require.True(t, ok)
	require.NotNil(t, fn)

	_, ok = imports.Lookup("env", "missing")
	require.False(t, ok)

	_, ok = imports.Lookup("other", "f")
	require.False(t, ok)
}

func oneParamOneResultModule() *wasm.Module {
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		ImportSection: []wasm.Import{
			{Module: "env", Name: "double", Type: wasm.ExternTypeFunc, DescFunc: 0},
		},
		NumImportedFunctions: 1,
	}
}

func TestWrapHostImport_InvokesRegisteredHostFunc(t *testing.T) {
	m := oneParamOneResultModule()
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	imports := HostImports{"env": {"double": func(args []uint64) ([]uint64, aotapi.TrapCode) {
		return []uint64{args[0] * 2}, 0
	}}}

	ex := wrapHostImport(ctx, 0, m.ImportSection[0], imports)
	res := ex.Invoke([]uint64{21}, nil)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{42}, res.Values)
}

func TestWrapHostImport_MissingRegistrationTrapsHostFuncError(t *testing.T) {
	m := oneParamOneResultModule()
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())

	ex := wrapHostImport(ctx, 0, m.ImportSection[0], nil)
	res := ex.Invoke([]uint64{21}, nil)
	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeHostFuncError, res.Trap)
}

func TestWrapHostImport_HostTrapPropagates(t *testing.T) {
	m := oneParamOneResultModule()
	ctx := NewContext(m, newInstalledIntrinsicTable(), DefaultCompilerConfig())
	imports := HostImports{"env": {"double": func(args []uint64) ([]uint64, aotapi.TrapCode) {
		return nil, aotapi.TrapCodeIntegerOverflow
	}}}

	ex := wrapHostImport(ctx, 0, m.ImportSection[0], imports)
	res := ex.Invoke([]uint64{1}, nil)
	require.True(t, res.Trapped)
	require.Equal(t, aotapi.TrapCodeIntegerOverflow, res.Trap)
}
