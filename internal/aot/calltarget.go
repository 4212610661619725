package aot

import (
	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/backend"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// NullFuncRef marks an indirect-call table slot with no function installed
// (an uninitialized or dropped element), distinct from any real FuncRef
// Context assigns.
const NullFuncRef = ssa.FuncRef(^uint32(0))

// CallTarget implements backend.CallTarget: it is the single place that
// knows how Context's FuncRef numbering scheme (real functions, then
// intrinsics, then global-get accessors, then global-set accessors) resolves
// to something backend.Executable.Invoke can run (spec.md §4.1, "FuncRef
// numbering space"; §4.6, "Intrinsics Table"). Built once per module
// compilation and shared by every Executable the CodeEmitter produces.
type CallTarget struct {
	ctx        *Context
	intrinsics *IntrinsicTable

	funcs     []*backend.Executable // indexed by real wasm function index
	funcSigID []ssa.SignatureID      // funcs[i]'s signature ID, for indirect-call type checks

	table []ssa.FuncRef // indirect-call table 0's contents; NullFuncRef for empty slots

	intrinsicExecs []*backend.Executable // built by NewCallTarget, one per Intrinsic id
	globalGetExecs []*backend.Executable
	globalSetExecs []*backend.Executable
}

// NewCallTarget builds a CallTarget for a module with numFuncs functions,
// pre-building the native Executables for every intrinsic and global
// accessor FuncRef (spec.md §4.6: "installed once, process-wide, ahead of
// any compiled function running"). Real function slots start nil and are
// filled in by SetFunction as the Function Compiler finishes each one.
func NewCallTarget(ctx *Context, intrinsics *IntrinsicTable, numFuncs int) *CallTarget {
	t := &CallTarget{
		ctx:            ctx,
		intrinsics:     intrinsics,
		funcs:          make([]*backend.Executable, numFuncs),
		funcSigID:      make([]ssa.SignatureID, numFuncs),
		table:          nil,
		intrinsicExecs: make([]*backend.Executable, IntrinsicMax),
		globalGetExecs: make([]*backend.Executable, ctx.module.NumGlobals()),
		globalSetExecs: make([]*backend.Executable, ctx.module.NumGlobals()),
	}
	for id := 0; id < IntrinsicMax; id++ {
		t.intrinsicExecs[id] = t.buildIntrinsic(Intrinsic(id))
	}
	for idx := 0; idx < ctx.module.NumGlobals(); idx++ {
		gt := ctx.module.GlobalTypeOf(wasm.Index(idx))
		typ := ctx.lowerValType(gt.ValType)
		t.globalGetExecs[idx] = t.buildGlobalGet(wasm.Index(idx), typ)
		t.globalSetExecs[idx] = t.buildGlobalSet(wasm.Index(idx), typ)
	}
	return t
}

// SetFunction installs funcIdx's compiled (or native-trampoline) Executable,
// recording its Signature's ID for later call_indirect type checks.
func (t *CallTarget) SetFunction(funcIdx wasm.Index, ex *backend.Executable) {
	t.funcs[funcIdx] = ex
	t.funcSigID[funcIdx] = t.ctx.FunctionSignature(funcIdx).ID
}

// SetTable installs table 0's element contents, resolved from the module's
// active/declarative element segments by the caller (spec.md §4.2.5,
// "call_indirect"). elems[i] == NullFuncRef marks an empty slot.
func (t *CallTarget) SetTable(elems []ssa.FuncRef) {
	t.table = elems
}

// ResolveDirect implements backend.CallTarget.
func (t *CallTarget) ResolveDirect(ref ssa.FuncRef) *backend.Executable {
	n := ssa.FuncRef(len(t.funcs))
	if ref < n {
		return t.funcs[ref]
	}
	if ref < n+ssa.FuncRef(IntrinsicMax) {
		return t.intrinsicExecs[ref-n]
	}
	numGlobals := ssa.FuncRef(len(t.globalGetExecs))
	getBase := n + ssa.FuncRef(IntrinsicMax)
	if ref < getBase+numGlobals {
		return t.globalGetExecs[ref-getBase]
	}
	setBase := getBase + numGlobals
	return t.globalSetExecs[ref-setBase]
}

// ResolveIndirect implements backend.CallTarget: it bounds-checks
// tableIndex, then checks the resolved function's Signature ID against the
// call site's declared sig, matching the structural-equality rule
// Context.lowerFuncTypeDedup already established (equal ID implies equal
// shape, since signatures are deduplicated per Context).
func (t *CallTarget) ResolveIndirect(tableIndex uint32, sig ssa.SignatureID) (*backend.Executable, aotapi.TrapCode) {
	if tableIndex >= uint32(len(t.table)) {
		return nil, aotapi.TrapCodeMemoryOutOfBounds
	}
	ref := t.table[tableIndex]
	if ref == NullFuncRef || ref >= ssa.FuncRef(len(t.funcs)) {
		return nil, aotapi.TrapCodeIndirectCallTypeMismatch
	}
	if t.funcSigID[ref] != sig {
		return nil, aotapi.TrapCodeIndirectCallTypeMismatch
	}
	return t.funcs[ref], 0
}

// buildIntrinsic wraps the id-th intrinsic table entry as a NativeFunc,
// bridging backend.ExecContext (the interface the interpreter holds) back to
// the concrete *ExecCtx the process-wide IntrinsicTable was built against
// (see IntrinsicFunc's doc comment on the duplicated-type-to-avoid-import-
// cycle design).
func (t *CallTarget) buildIntrinsic(id Intrinsic) *backend.Executable {
	return backend.NewNative(nil, func(execCtx backend.ExecContext, args []uint64) (result backend.Result) {
		ec, ok := execCtx.(*ExecCtx)
		if !ok {
			panic("aot: intrinsic invoked with a non-*ExecCtx execution context")
		}
		defer func() {
			// intrinsics_install.go's bounds-check helpers signal an
			// out-of-bounds memory/table access by panicking with
			// trapPanic rather than threading a TrapCode return through
			// every IntrinsicFunc signature — the same shortcut
			// backend/interp.go's own Load/Store opcodes avoid needing by
			// returning a TrapCode directly, which IntrinsicFunc's
			// signature does not have room for.
			if r := recover(); r != nil {
				if _, ok := r.(trapPanic); ok {
					result = backend.Result{Trapped: true, Trap: aotapi.TrapCodeMemoryOutOfBounds}
					return
				}
				panic(r)
			}
		}()
		return backend.Result{Values: t.intrinsics.Invoke(id, ec, args)}
	})
}

func (t *CallTarget) buildGlobalGet(idx wasm.Index, typ ssa.Type) *backend.Executable {
	sig := &ssa.Signature{Results: []ssa.Type{typ}}
	return backend.NewNative(sig, func(execCtx backend.ExecContext, _ []uint64) backend.Result {
		g := execCtx.Global(int(idx))
		if typ == ssa.TypeV128 {
			return backend.Result{Values: []uint64{g[0], g[1]}}
		}
		return backend.Result{Values: []uint64{g[0]}}
	})
}

func (t *CallTarget) buildGlobalSet(idx wasm.Index, typ ssa.Type) *backend.Executable {
	sig := &ssa.Signature{Params: []ssa.Type{typ}}
	return backend.NewNative(sig, func(execCtx backend.ExecContext, args []uint64) backend.Result {
		g := execCtx.Global(int(idx))
		g[0] = args[0]
		if typ == ssa.TypeV128 {
			g[1] = args[1]
		}
		return backend.Result{}
	})
}
