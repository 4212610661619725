package aotapi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func TestNewModuleContextOffsetData(t *testing.T) {
	for _, tc := range []struct {
		name string
		m    *wasm.Module
		exp  ModuleContextOffsetData
	}{
		{
			name: "empty",
			m:    &wasm.Module{},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              0,
			},
		},
		{
			name: "local mem",
			m:    &wasm.Module{MemorySection: []wasm.Memory{{}}},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       0,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              16,
			},
		},
		{
			name: "imported mem",
			m:    &wasm.Module{NumImportedMemories: 1},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    0,
				ImportedFunctionsBegin: -1,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              16,
			},
		},
		{
			name: "imported func",
			m:    &wasm.Module{NumImportedFunctions: 10},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       -1,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: 0,
				GlobalsBegin:           -1,
				TypeIDs1stElement:      -1,
				TablesBegin:            -1,
				TotalSize:              10 * FunctionInstanceSize,
			},
		},
		{
			name: "local mem / imported func / globals / tables",
			m: &wasm.Module{
				NumImportedGlobals:   10,
				NumImportedFunctions: 10,
				NumImportedTables:    5,
				TableSection:         make([]wasm.Table, 10),
				MemorySection:        []wasm.Memory{{}},
				GlobalSection:        make([]wasm.Global, 20),
			},
			exp: ModuleContextOffsetData{
				LocalMemoryBegin:       0,
				ImportedMemoryBegin:    -1,
				ImportedFunctionsBegin: 16,
				GlobalsBegin:           16 + 10*FunctionInstanceSize,
				TypeIDs1stElement:      16 + 10*FunctionInstanceSize + 8*30,
				TablesBegin:            16 + 10*FunctionInstanceSize + 8*30 + 8,
				TotalSize:              16 + 10*FunctionInstanceSize + 8*30 + 8 + 8*15,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := NewModuleContextOffsetData(tc.m)
			require.Equal(t, tc.exp, got)
		})
	}
}

func TestImportedFunctionOffset(t *testing.T) {
	m := ModuleContextOffsetData{ImportedFunctionsBegin: 100}
	exe, modCtx, typeID := m.ImportedFunctionOffset(2)
	require.Equal(t, Offset(100+2*FunctionInstanceSize), exe)
	require.Equal(t, exe+8, modCtx)
	require.Equal(t, exe+16, typeID)
}

func TestGlobalInstanceOffset(t *testing.T) {
	m := ModuleContextOffsetData{GlobalsBegin: 40}
	require.Equal(t, Offset(40+3*8), m.GlobalInstanceOffset(3))
}
