package aot

import (
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// Context is the Compilation Context (spec.md §4.1): it owns the canonical
// type-lowering rules, the FuncRef numbering space every call site in the
// module shares, and the host-CPU feature flags that gate faster numeric
// lowerings. One Context is built per module compilation and borrowed by
// every FunctionCompiler for that module's lifetime (spec.md §9,
// "Ownership graph").
//
// Where spec.md describes a code-gen module holding LLVM-style types,
// attributes and a `version`/`intrinsics` global symbol, this interpreter
// backend has no native module to build: Context's job reduces to (a)
// mapping wasm.ValueType/wasm.FunctionType to ssa.Type/ssa.Signature, (b)
// assigning every call site's FuncRef (real function, intrinsic, or ExecCtx
// global accessor) a slot in one shared numbering space, and (c) resolving
// a block's type annotation. The "attributes" and "version global" spec.md
// describes are packaging-time concerns handled by packager.go instead.
type Context struct {
	module     *wasm.Module
	cfg        CompilerConfig
	intrinsics *IntrinsicTable
	features   HostFeatures

	// sigByTypeIdx caches one *ssa.Signature per module TypeSection entry,
	// deduplicated by wasm.FunctionTypeID so structurally-equal types share
	// a SignatureID (spec.md §4.3, "duplicate function types alias to a
	// single wrapper").
	sigByTypeIdx []*ssa.Signature
	sigByShape   map[wasm.FunctionTypeID]*ssa.Signature
	nextSigID    ssa.SignatureID

	// intrinsicBase/globalGetBase/globalSetBase partition the FuncRef space
	// above the module's real function indices (0..NumFunctions-1) into
	// three synthetic ranges, per the numbering scheme documented on
	// backend.CallTarget: intrinsics, then ExecCtx global-get accessors,
	// then ExecCtx global-set accessors, one FuncRef per global index.
	intrinsicBase ssa.FuncRef
	globalGetBase ssa.FuncRef
	globalSetBase ssa.FuncRef
}

// NewContext builds a Context for module, deduplicating its declared
// function types into SSA signatures and laying out the synthetic FuncRef
// ranges for intrinsics and global accessors.
func NewContext(module *wasm.Module, intrinsics *IntrinsicTable, cfg CompilerConfig) *Context {
	c := &Context{
		module:       module,
		cfg:          cfg,
		intrinsics:   intrinsics,
		features:     QueryHostFeatures(cfg.ForceGeneric),
		sigByTypeIdx: make([]*ssa.Signature, len(module.TypeSection)),
		sigByShape:   make(map[wasm.FunctionTypeID]*ssa.Signature, len(module.TypeSection)),
	}
	for idx := range module.TypeSection {
		c.sigByTypeIdx[idx] = c.lowerFuncTypeDedup(&module.TypeSection[idx])
	}

	numFunctions := ssa.FuncRef(module.NumFunctions())
	c.intrinsicBase = numFunctions
	c.globalGetBase = c.intrinsicBase + ssa.FuncRef(IntrinsicMax)
	c.globalSetBase = c.globalGetBase + ssa.FuncRef(module.NumGlobals())
	return c
}

// lowerValType maps a single Wasm value type to its SSA runtime
// representation (spec.md §3.1, §4.1 "lower(valtype)"): i32/i64/f32/f64 map
// directly, v128 maps to the vector type, and funcref/externref are carried
// as opaque TypeI64 handles (ssa.Type's own doc comment records this
// design choice, made when ssa/type.go was authored).
func (c *Context) lowerValType(vt wasm.ValueType) ssa.Type {
	switch vt {
	case wasm.ValueTypeI32:
		return ssa.TypeI32
	case wasm.ValueTypeI64:
		return ssa.TypeI64
	case wasm.ValueTypeF32:
		return ssa.TypeF32
	case wasm.ValueTypeF64:
		return ssa.TypeF64
	case wasm.ValueTypeV128:
		return ssa.TypeV128
	case wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		return ssa.TypeI64
	default:
		panic("aot: unknown wasm.ValueType")
	}
}

func (c *Context) lowerValTypes(vts []wasm.ValueType) []ssa.Type {
	if len(vts) == 0 {
		return nil
	}
	out := make([]ssa.Type, len(vts))
	for i, vt := range vts {
		out[i] = c.lowerValType(vt)
	}
	return out
}

// lowerFuncTypeDedup lowers a wasm.FunctionType into an *ssa.Signature,
// reusing a previously-built Signature for any structurally-equal type
// (spec.md §4.3's wrapper-deduplication rule applies equally to the
// Signatures calls reference, not only to wrapper symbols). Unlike
// spec.md §4.1's literal "(ret, args with ExecCtx* first)" native
// lowering, ExecCtx is not threaded as a leading SSA parameter here: the
// interpreter backend (backend.Executable.Invoke) already receives it as
// an out-of-band argument, so prepending it to every Signature would be
// pure bookkeeping with no consumer.
func (c *Context) lowerFuncTypeDedup(ft *wasm.FunctionType) *ssa.Signature {
	if sig, ok := c.sigByShape[ft.ID()]; ok {
		return sig
	}
	sig := &ssa.Signature{
		ID:      c.nextSigID,
		Name:    ft.String(),
		Params:  c.lowerValTypes(ft.Params),
		Results: c.lowerValTypes(ft.Results),
	}
	c.nextSigID++
	c.sigByShape[ft.ID()] = sig
	return sig
}

// SignatureOf returns the deduplicated Signature for the typeIdx-th entry
// of the module's TypeSection.
func (c *Context) SignatureOf(typeIdx wasm.Index) *ssa.Signature {
	return c.sigByTypeIdx[typeIdx]
}

// FunctionSignature returns the Signature of the funcIdx-th function
// (imported or local).
func (c *Context) FunctionSignature(funcIdx wasm.Index) *ssa.Signature {
	return c.lowerFuncTypeDedup(c.module.TypeOfFunction(funcIdx))
}

// blockType resolves a block's type annotation at body[pc] (spec.md §4.1
// "Block-type resolver") into lowered SSA param/result types, wrapping the
// byte-level decoding wasm.DecodeBlockType already implements.
func (c *Context) blockType(body []byte, pc int) (params, results []ssa.Type, read int) {
	bt, n := wasm.DecodeBlockType(c.module.TypeSection, body, pc)
	return c.lowerValTypes(bt.Params), c.lowerValTypes(bt.Results), n
}

// IntrinsicFuncRef returns the synthetic FuncRef a call to intrinsic id
// resolves to. Every module shares the same relative layout; the absolute
// value depends on this Context's module (specifically its NumFunctions).
func (c *Context) IntrinsicFuncRef(id Intrinsic) ssa.FuncRef {
	return c.intrinsicBase + ssa.FuncRef(id)
}

// GlobalGetFuncRef returns the synthetic FuncRef that reads global idx's
// slot out of ExecCtx.Globals.
func (c *Context) GlobalGetFuncRef(idx wasm.Index) ssa.FuncRef {
	return c.globalGetBase + ssa.FuncRef(idx)
}

// GlobalSetFuncRef returns the synthetic FuncRef that writes global idx's
// slot in ExecCtx.Globals.
func (c *Context) GlobalSetFuncRef(idx wasm.Index) ssa.FuncRef {
	return c.globalSetBase + ssa.FuncRef(idx)
}

// intrinsicSignature returns the Signature a synthetic intrinsic FuncRef
// call site should declare. Every intrinsic shares the untyped
// array-of-uint64 convention (spec.md §4.6), represented here as a
// variable-arity i64 signature; the Function Compiler only ever emits
// calls with the exact arity its own lowering constructs, so the declared
// Signature is informational for the interpreter (which does not
// type-check call sites against it).
func intrinsicSignature(numArgs, numResults int) *ssa.Signature {
	params := make([]ssa.Type, numArgs)
	for i := range params {
		params[i] = ssa.TypeI64
	}
	results := make([]ssa.Type, numResults)
	for i := range results {
		results[i] = ssa.TypeI64
	}
	return &ssa.Signature{Params: params, Results: results}
}
