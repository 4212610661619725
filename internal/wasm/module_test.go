package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testModule() *Module {
	return &Module{
		TypeSection: []FunctionType{
			{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}},
			{Results: []ValueType{ValueTypeI64}},
		},
		ImportSection: []Import{
			{Module: "env", Name: "f0", Type: ExternTypeFunc, DescFunc: 0},
			{Module: "env", Name: "g0", Type: ExternTypeGlobal, DescGlobal: GlobalType{ValType: ValueTypeI32}},
		},
		NumImportedFunctions: 1,
		NumImportedGlobals:   1,
		FunctionSection:      []Index{1},
		GlobalSection: []Global{
			{Type: GlobalType{ValType: ValueTypeI64, Mutable: true}},
		},
	}
}

func TestModule_NumFunctions(t *testing.T) {
	m := testModule()
	require.Equal(t, 2, m.NumFunctions())
}

func TestModule_NumGlobals(t *testing.T) {
	m := testModule()
	require.Equal(t, 2, m.NumGlobals())
}

func TestModule_TypeOfFunction_Imported(t *testing.T) {
	m := testModule()
	ft := m.TypeOfFunction(0)
	require.Equal(t, []ValueType{ValueTypeI32}, ft.Params)
}

func TestModule_TypeOfFunction_Local(t *testing.T) {
	m := testModule()
	ft := m.TypeOfFunction(1)
	require.Equal(t, []ValueType{ValueTypeI64}, ft.Results)
}

func TestModule_GlobalTypeOf_ImportedAndLocal(t *testing.T) {
	m := testModule()
	require.Equal(t, GlobalType{ValType: ValueTypeI32}, m.GlobalTypeOf(0))
	require.Equal(t, GlobalType{ValType: ValueTypeI64, Mutable: true}, m.GlobalTypeOf(1))
}

func TestFunctionType_ID_StructurallyEqualTypesShareAnID(t *testing.T) {
	a := FunctionType{Params: []ValueType{ValueTypeI32, ValueTypeF64}, Results: []ValueType{ValueTypeI32}}
	b := FunctionType{Params: []ValueType{ValueTypeI32, ValueTypeF64}, Results: []ValueType{ValueTypeI32}}
	c := FunctionType{Params: []ValueType{ValueTypeI64}, Results: []ValueType{ValueTypeI32}}

	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a.ID(), c.ID())
}

func TestExternType_String(t *testing.T) {
	require.Equal(t, "func", ExternTypeFunc.String())
	require.Equal(t, "table", ExternTypeTable.String())
	require.Equal(t, "memory", ExternTypeMemory.String())
	require.Equal(t, "global", ExternTypeGlobal.String())
}
