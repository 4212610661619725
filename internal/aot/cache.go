package aot

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/wazedge/aotwasm/internal/wasm"
)

// Cache is a two-tier compiled-module cache: an in-memory map keyed by
// content hash, backed by an afero.Fs directory holding one packaged
// artifact per key, mirroring wazevo's own addCompiledModule/
// getCompiledModule split between e.compiledModules (memory) and
// e.fileCache (disk) — see engine_cache.go's in-memory-then-file lookup
// order, which GetOrCompile reproduces exactly.
type Cache struct {
	fs  afero.Fs
	dir string

	mu  sync.RWMutex
	mem map[string]*CompiledModule
}

// NewCache builds a Cache rooted at dir on fs. dir is created lazily on the
// first Put; a Cache with a nil fs or empty dir only ever serves the
// in-memory tier (the on-disk tier becomes a silent no-op), matching
// wazevo's own "fileCache may be nil" convention (engine_cache.go's
// `e.fileCache != nil` guards).
func NewCache(fs afero.Fs, dir string) *Cache {
	return &Cache{fs: fs, dir: dir, mem: make(map[string]*CompiledModule)}
}

// ModuleCacheKey derives a stable cache key from module's gob encoding. Two
// wasm.Module values with identical contents hash to the same key
// regardless of pointer identity, the property wazero's own module.ID
// (populated by its decoder, out of scope here) exists to provide.
func ModuleCacheKey(module *wasm.Module) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(module); err != nil {
		return "", fmt.Errorf("aot: hashing module for cache key: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// GetOrCompile returns key's cached CompiledModule if present (memory tier
// first, then the on-disk tier via LoadArtifact), else compiles module
// through c and stores the result in both tiers before returning it.
func (cache *Cache) GetOrCompile(c *Compiler, key string, module *wasm.Module, imports HostImports) (cm *CompiledModule, hit bool, err error) {
	if cm, ok := cache.getFromMemory(key); ok {
		return cm, true, nil
	}

	if cache.fs != nil && cache.dir != "" {
		path := cache.path(key)
		if ok, _ := afero.Exists(cache.fs, path); ok {
			cm, err := LoadArtifact(cache.fs, path, c, imports)
			if err == nil {
				cache.putMemory(key, cm)
				return cm, true, nil
			}
			// A corrupt or stale entry falls through to recompiling rather
			// than failing the caller's request outright.
			log.WithError(err).Warn("discarding unreadable cache entry")
		}
	}

	cm, err = c.Compile(module, imports)
	if err != nil {
		return nil, false, err
	}
	cache.putMemory(key, cm)
	if cache.fs != nil && cache.dir != "" {
		if err := cache.put(key, cm, module); err != nil {
			// Failing to persist the cache entry never fails the caller:
			// the module compiled successfully and can still be run.
			log.WithError(err).Warn("failed to persist compiled module to file cache")
		}
	}
	return cm, false, nil
}

func (cache *Cache) getFromMemory(key string) (*CompiledModule, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	cm, ok := cache.mem[key]
	return cm, ok
}

func (cache *Cache) putMemory(key string, cm *CompiledModule) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.mem[key] = cm
}

func (cache *Cache) put(key string, cm *CompiledModule, module *wasm.Module) error {
	if err := cache.fs.MkdirAll(cache.dir, 0o755); err != nil {
		return fmt.Errorf("aot: creating cache directory %s: %w", cache.dir, err)
	}
	return Package(cache.fs, cache.path(key), cm, wasmHeaderBytes())
}

func (cache *Cache) path(key string) string {
	return cache.dir + "/" + key + ".aot"
}

// wasmHeaderBytes returns the minimal 8-byte Wasm module header (magic +
// version) Package prefixes a universal-wasm artifact with. The cache never
// has the caller's original .wasm bytes on hand (only the decoded Module),
// so it packages against this bare header rather than reconstructing a full
// module body LoadArtifact has no use for anyway (it reads the module back
// out of the embedded gob payload, not by re-parsing these bytes).
func wasmHeaderBytes() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// Delete evicts key from both tiers.
func (cache *Cache) Delete(key string) error {
	cache.mu.Lock()
	delete(cache.mem, key)
	cache.mu.Unlock()
	if cache.fs == nil || cache.dir == "" {
		return nil
	}
	if err := cache.fs.Remove(cache.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("aot: evicting cache entry %s: %w", key, err)
	}
	return nil
}
