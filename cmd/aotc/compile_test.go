package main

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/wasm"
)

func writeGobModule(t *testing.T, path string, m *wasm.Module) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gob.NewEncoder(f).Encode(m))
}

func addOneModule() *wasm.Module {
	return &wasm.Module{
		TypeSection: []wasm.FunctionType{
			{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionSection: []wasm.Index{0},
		CodeSection: []wasm.Code{{Body: []byte{
			byte(wasm.OpcodeLocalGet), 0x00,
			byte(wasm.OpcodeI32Const), 0x01,
			byte(wasm.OpcodeI32Add),
			byte(wasm.OpcodeEnd),
		}}},
	}
}

func TestReadModule_DecodesGobEncodedModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.gob")
	writeGobModule(t, path, addOneModule())

	fs := afero.NewOsFs()
	m, err := readModule(fs, path)
	require.NoError(t, err)
	require.Len(t, m.TypeSection, 1)
}

func TestCompileOptionsFromFlags_RejectsUnknownOptLevel(t *testing.T) {
	_, err := compileOptionsFromFlags(compileFlags{optLevel: "bogus", output: "universal"})
	require.Error(t, err)
}

func TestCompileOptionsFromFlags_RejectsUnknownOutputFormat(t *testing.T) {
	_, err := compileOptionsFromFlags(compileFlags{optLevel: "default", output: "bogus"})
	require.Error(t, err)
}

func TestCompileOptionsFromFlags_ValidFlagsProduceOptions(t *testing.T) {
	opts, err := compileOptionsFromFlags(compileFlags{optLevel: "aggressive", output: "shared-object", forceGeneric: true, gasMetering: false})
	require.NoError(t, err)
	require.Len(t, opts, 4)
}

func TestRunCompile_WritesPackagedArtifact(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "module.gob")
	outPath := filepath.Join(dir, "out.aotwasm")
	writeGobModule(t, inPath, addOneModule())

	err := runCompile(inPath, outPath, compileFlags{optLevel: "default", output: "universal", gasMetering: true})
	require.NoError(t, err)

	_, err = os.Stat(outPath)
	require.NoError(t, err)
}
