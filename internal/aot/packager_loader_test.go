package aot

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/wasm"
)

func TestPackageThenLoadArtifact_RoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := i32BinOpModule(wasm.OpcodeI32Add)

	c := NewCompiler()
	cm, err := c.Compile(m, nil)
	require.NoError(t, err)

	path := "/out/module.aotwasm"
	require.NoError(t, Package(fs, path, cm, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}))

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.True(t, exists)

	loaded, err := LoadArtifact(fs, path, NewCompiler(), nil)
	require.NoError(t, err)
	require.Equal(t, len(m.TypeSection), len(loaded.Module.TypeSection))
	require.Equal(t, len(m.CodeSection), len(loaded.Module.CodeSection))

	ec, err := loaded.Instantiate(0, nil)
	require.NoError(t, err)
	ex := loaded.Target.ResolveDirect(0)
	res := ex.Invoke([]uint64{3, 4}, ec)
	require.False(t, res.Trapped)
	require.Equal(t, []uint64{7}, res.Values)
}

func TestPackage_SharedObjectRoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := i32BinOpModule(wasm.OpcodeI32Add)

	c := NewCompiler(WithOutputFormat(OutputSharedObject))
	cm, err := c.Compile(m, nil)
	require.NoError(t, err)

	path := "/out/module.so.aot"
	require.NoError(t, Package(fs, path, cm, nil))

	loaded, err := LoadArtifact(fs, path, NewCompiler(), nil)
	require.NoError(t, err)
	require.Equal(t, len(m.TypeSection), len(loaded.Module.TypeSection))
}

func TestLoadJIT_SkipsPackagerEntirely(t *testing.T) {
	m := i32BinOpModule(wasm.OpcodeI32Add)
	c := NewCompiler()

	cm, err := LoadJIT(c, m, nil)
	require.NoError(t, err)
	require.Same(t, m, cm.Module)
}

func TestLoadArtifact_RejectsUnknownVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	// A payload whose first 4 bytes don't match binaryVersion, wrapped as a
	// bare shared-object artifact so no Wasm section framing is involved.
	require.NoError(t, afero.WriteFile(fs, "/bad.aot", []byte{0xff, 0xff, 0xff, 0xff, 0, 0}, 0o644))

	_, err := LoadArtifact(fs, "/bad.aot", NewCompiler(), nil)
	require.Error(t, err)
}

func TestCache_GetOrCompile_MemoryHitThenDiskHit(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := NewCache(fs, "/cache")
	c := NewCompiler()
	m := i32BinOpModule(wasm.OpcodeI32Add)

	key, err := ModuleCacheKey(m)
	require.NoError(t, err)

	cm1, hit, err := cache.GetOrCompile(c, key, m, nil)
	require.NoError(t, err)
	require.False(t, hit)
	require.NotNil(t, cm1)

	cm2, hit, err := cache.GetOrCompile(c, key, m, nil)
	require.NoError(t, err)
	require.True(t, hit)
	require.Same(t, cm1, cm2) // served from the in-memory tier

	require.NoError(t, cache.Delete(key))
	cm3, hit, err := cache.GetOrCompile(c, key, m, nil)
	require.NoError(t, err)
	require.False(t, hit) // evicted from disk too, recompiles
	require.NotNil(t, cm3)
}
