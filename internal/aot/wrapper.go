package aot

import (
	"fmt"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/backend"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// HostFunc is the shape a host embedder registers for one imported function:
// the same untyped array-of-values convention every intrinsic and compiled
// function shares (spec.md §4.3, "Wrapper & ABI Layer"). A HostFunc never
// sees an ExecCtx directly; CallHost's wrapper is the one place that
// boundary is crossed.
type HostFunc func(args []uint64) ([]uint64, aotapi.TrapCode)

// HostImports is a two-level registry of HostFunc, keyed by a Wasm import's
// (module, name) pair, mirroring the shape wasm.Import carries.
type HostImports map[string]map[string]HostFunc

// Lookup resolves module/name, reporting ok=false for an unregistered
// import (a bring-up configuration error the caller should treat as fatal
// before Compile, not something compiled code should ever observe at run
// time).
func (h HostImports) Lookup(module, name string) (HostFunc, bool) {
	fns, ok := h[module]
	if !ok {
		return nil, false
	}
	fn, ok := fns[name]
	return fn, ok
}

// wrapHostImport builds the Executable a call/call_indirect site targeting
// imported function funcIdx resolves to (spec.md §4.3's "tN"/"fN" marshalling
// trampolines: this is wasmedge-core's fN, the native-to-host direction — a
// compiled caller's array-of-uint64 arguments pass straight through to the
// registered HostFunc, since both sides already agree on the untyped
// calling convention; there is no separate typed-to-untyped repacking step
// to perform). A missing registration becomes a TrapCodeHostFuncError at
// call time rather than a Compile-time failure, so host wiring mistakes
// surface exactly where spec.md §7 says host errors belong.
func wrapHostImport(ctx *Context, funcIdx wasm.Index, imp wasm.Import, imports HostImports) *backend.Executable {
	sig := ctx.FunctionSignature(funcIdx)
	fn, ok := imports.Lookup(imp.Module, imp.Name)
	if !ok {
		msg := fmt.Sprintf("aot: no host function registered for import %s.%s", imp.Module, imp.Name)
		return backend.NewNative(sig, func(_ backend.ExecContext, _ []uint64) backend.Result {
			log.Warn(msg)
			return backend.Result{Trapped: true, Trap: aotapi.TrapCodeHostFuncError}
		})
	}
	return backend.NewNative(sig, func(_ backend.ExecContext, args []uint64) backend.Result {
		out, trap := fn(args)
		if trap != 0 {
			return backend.Result{Trapped: true, Trap: trap}
		}
		return backend.Result{Values: out}
	})
}

// tN/fN naming note: wasmedge-core's AOT compiler generates one LLVM
// trampoline per distinct function *type* (tN marshals native args into the
// host's raw_args array calling into a host import; fN marshals a host
// call back into a compiled function's native args). Both directions
// collapse to the identity transform here, since the interpreter backend
// already represents every argument list as []uint64 end to end — the
// trampolines spec.md describes exist only to cross a native/untyped ABI
// boundary LLVM code generation would otherwise require, which this
// interpreter-based backend never introduces. Declared here, not omitted,
// so the design tradeoff is visible at the same call site a native backend
// would need it (see DESIGN.md).
