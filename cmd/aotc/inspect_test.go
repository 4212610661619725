package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInspect_RoundTripsThroughPackagedArtifact(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "module.gob")
	outPath := filepath.Join(dir, "out.aotwasm")
	writeGobModule(t, inPath, addOneModule())

	require.NoError(t, runCompile(inPath, outPath, compileFlags{optLevel: "default", output: "universal", gasMetering: true}))
	require.NoError(t, runInspect(outPath))
}

func TestRunInspect_MissingArtifactErrors(t *testing.T) {
	require.Error(t, runInspect(filepath.Join(t.TempDir(), "does-not-exist.aotwasm")))
}
