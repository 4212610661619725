// Package backend turns a finalized SSA function (after ssa.Builder's
// RunPasses and LayoutBlocks have run) into something that can actually be
// invoked. It stands in for the pair of per-architecture machine-code
// encoders and register allocator that a native AOT compiler would carry:
// those are a different, much larger concern (instruction selection,
// register assignment, ABI-specific prologues) that this module does not
// implement. Instead, CodeEmitter hands the finalized SSA blocks themselves
// to an Executable whose Invoke interprets them in place, which keeps the Executable Packager/Loader/cache pipeline meaningful
// end-to-end in pure Go.
//
// See DESIGN.md for why this boundary was drawn here.
package backend

import (
	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

// CodeEmitter lowers one finalized SSA function into an Executable. A
// CodeEmitter implementation owns the entire translation from SSA opcodes to
// whatever it is that Executable.Invoke knows how to run; callers never
// inspect the Executable's internals.
type CodeEmitter interface {
	// Emit lowers b's current function (as built via ssa.Builder) into an
	// Executable. b must have already gone through RunPasses and
	// LayoutBlocks; Emit walks blocks in their final layout order.
	Emit(b ssa.Builder, sig *ssa.Signature) (*Executable, error)
}

// CallTarget resolves a FuncRef/SignatureID pair encountered at an
// OpcodeCall/OpcodeCallIndirect site to a callable Executable. The
// interpreter calls back through this rather than holding a direct table
// reference, so the same Executable can be relinked against a fresh module
// instance without re-emitting.
//
// FuncRef is the one numbering space every call site in a compiled module
// shares: real Wasm function indices (imports resolve to an ABI trampoline,
// §4.3), plus, above NumFunctions, the synthetic refs the Function Compiler
// assigns to intrinsic calls and ExecCtx global accessors (see
// aot.Context.internalFuncRef). CallTarget owns that numbering; the
// interpreter never interprets a FuncRef's value itself.
type CallTarget interface {
	ResolveDirect(ref ssa.FuncRef) *Executable
	ResolveIndirect(tableIndex uint32, sig ssa.SignatureID) (*Executable, aotapi.TrapCode)
}

// IntrinsicFunc is the uniform shape of one process-wide intrinsic table
// entry, duplicated here (rather than imported from package aot) to avoid an
// import cycle: package aot imports backend, not the reverse.
type IntrinsicFunc func(execCtx ExecContext, args []uint64) []uint64

// Intrinsics is the process-wide table of IntrinsicFunc, indexed by the
// small integer IDs package aot defines (aot.Intrinsic). A CallTarget
// implementation resolves intrinsic FuncRefs to a NewNative Executable that
// closes over this table and the target id.
type Intrinsics interface {
	Invoke(id uint32, execCtx ExecContext, args []uint64) []uint64
}
