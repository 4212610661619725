package aot

import (
	"fmt"
	"math"
	"time"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/backend"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// Compiler is the single entry point spec.md §4 describes end to end: given
// a decoded wasm.Module and a registry of host imports, it drives the
// Compilation Context, the Function Compiler, and the Executable Packager's
// interpreter-backend equivalent (backend.CodeEmitter) to produce a
// CompiledModule ready for backend.CallTarget-mediated execution.
type Compiler struct {
	cfg        CompilerConfig
	intrinsics *IntrinsicTable
}

// NewCompiler builds a Compiler from DefaultCompilerConfig overlaid with
// opts, installing the process-wide IntrinsicTable every compiled module
// shares (spec.md §4.6: "installed once, process-wide").
func NewCompiler(opts ...Option) *Compiler {
	cfg := DefaultCompilerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Compiler{cfg: cfg, intrinsics: newInstalledIntrinsicTable()}
}

// CompiledModule is the Compiler's output: the original module (the
// Executable Packager's input, §4.4), and the CallTarget every Executable
// it produced was linked against.
type CompiledModule struct {
	Module *wasm.Module
	Target *CallTarget
	Config CompilerConfig

	// EntryPoint is the StartFunction's Executable, if the module declares
	// one.
	EntryPoint *backend.Executable
}

// Compile lowers every function in module (locally defined and imported)
// into a linked CallTarget, following the pipeline spec.md §9's ownership
// graph describes: one Context and one ssa.Builder shared across the whole
// module, one FunctionCompiler invocation per local function, emitted
// through a single backend.CodeEmitter bound to the module's CallTarget.
func (c *Compiler) Compile(module *wasm.Module, imports HostImports) (*CompiledModule, error) {
	ctx := NewContext(module, c.intrinsics, c.cfg)
	target := NewCallTarget(ctx, c.intrinsics, module.NumFunctions())
	emitter := backend.NewEmitter(target)

	if err := c.wireImports(ctx, module, imports, target); err != nil {
		return nil, err
	}
	if err := c.compileFunctions(ctx, module, emitter, target); err != nil {
		return nil, err
	}
	if err := c.wireTable(module, target); err != nil {
		return nil, err
	}

	cm := &CompiledModule{Module: module, Target: target, Config: c.cfg}
	if module.StartFunction != nil {
		cm.EntryPoint = target.ResolveDirect(ssa.FuncRef(*module.StartFunction))
	}
	return cm, nil
}

// wireImports installs a native trampoline Executable for every imported
// function at its module-level FuncRef, ahead of compiling any local
// function body that might call one (spec.md §4.3).
func (c *Compiler) wireImports(ctx *Context, module *wasm.Module, imports HostImports, target *CallTarget) error {
	for i, imp := range module.ImportSection {
		if imp.Type != wasm.ExternTypeFunc {
			continue
		}
		funcIdx := wasm.Index(importFuncIndex(module, i))
		target.SetFunction(funcIdx, wrapHostImport(ctx, funcIdx, imp, imports))
	}
	return nil
}

// importFuncIndex recovers the module-level function index of the i-th
// ImportSection entry, which must itself be a function import.
func importFuncIndex(module *wasm.Module, importIdx int) int {
	idx := 0
	for i, imp := range module.ImportSection {
		if imp.Type != wasm.ExternTypeFunc {
			continue
		}
		if i == importIdx {
			return idx
		}
		idx++
	}
	panic("aot: importFuncIndex called with a non-function import index")
}

// compileFunctions lowers every local function body in module.CodeSection,
// reusing a single ssa.Builder across the whole loop the way Context and
// FunctionCompiler are designed to be (spec.md §9).
func (c *Compiler) compileFunctions(ctx *Context, module *wasm.Module, emitter backend.CodeEmitter, target *CallTarget) error {
	b := ssa.NewBuilder()
	fc := NewFunctionCompiler(ctx, b)

	for i := range module.CodeSection {
		code := &module.CodeSection[i]
		funcIdx := wasm.Index(module.NumImportedFunctions + i)
		sig := ctx.FunctionSignature(funcIdx)

		start := time.Now()
		b.Init(sig)
		costKeys, err := fc.CompileFunction(funcIdx, code)
		if err != nil {
			return err
		}
		b.RunPasses()
		b.LayoutBlocks()

		ex, err := emitter.Emit(b, sig)
		if err != nil {
			return fmt.Errorf("aot: emitting function %d: %w", funcIdx, err)
		}
		ex.SetCostKeys(costKeys)
		target.SetFunction(funcIdx, ex)

		instrs := 0
		for blk := b.BlockIteratorReversePostOrderBegin(); blk != nil; blk = b.BlockIteratorReversePostOrderNext() {
			for in := blk.Root(); in != nil; in = in.Next() {
				instrs++
			}
		}
		logFunctionCompiled(int(funcIdx), len(code.Body), instrs, time.Since(start).Nanoseconds())
	}
	return nil
}

// wireTable resolves table 0's element contents into the FuncRef slice
// CallTarget.ResolveIndirect reads (spec.md §4.2.5, "call_indirect"). Only
// active segments are applied here: passive segments stay dormant until a
// table.init intrinsic call copies them in at run time, and declarative
// segments only affect validation, never a table's runtime contents.
func (c *Compiler) wireTable(module *wasm.Module, target *CallTarget) error {
	if module.NumTables() == 0 {
		return nil
	}
	size := uint32(0)
	if len(module.TableSection) > 0 {
		size = module.TableSection[0].Min
	}
	elems := make([]ssa.FuncRef, size)
	for i := range elems {
		elems[i] = NullFuncRef
	}
	for _, seg := range module.ElementSection {
		if seg.Mode != wasm.ElementModeActive || seg.TableIndex != 0 {
			continue
		}
		offset, err := evalConstI32(seg.Offset)
		if err != nil {
			return fmt.Errorf("aot: element segment offset: %w", err)
		}
		for i, fnIdx := range seg.Init {
			slot := offset + int64(i)
			if slot < 0 || slot >= int64(len(elems)) {
				return fmt.Errorf("aot: element segment writes table index %d out of bounds (size %d)", slot, len(elems))
			}
			elems[slot] = ssa.FuncRef(fnIdx)
		}
	}
	target.SetTable(elems)
	return nil
}

// Instantiate builds a fresh ExecCtx for this CompiledModule: one growable
// Memory/TableInstance per declared memory/table, globals seeded from their
// constant initializers, and the module's data/element segments copied in
// for memory.init/table.init to read. This is the thin slice of "module
// instantiation" spec.md §9 calls an external collaborator's concern that
// this package still needs, in-house, to exercise its own intrinsics table
// end to end; a host embedder with its own instance-management story can
// bypass it and build an ExecCtx directly via NewExecCtx.
func (cm *CompiledModule) Instantiate(gasLimit uint64, costTable *[aotapi.CostTableSize]uint32) (*ExecCtx, error) {
	m := cm.Module
	ec := NewExecCtx(m.NumMemories(), m.NumGlobals(), gasLimit, costTable)

	for i := range ec.Memories {
		min, max, hasMax := memoryLimitsOf(m, i)
		mem := &Memory{Data: make([]byte, int(min)*wasm.MemoryPageSize)}
		if hasMax {
			mem.Max = max
		}
		ec.Memories[i] = mem
	}

	ec.Tables = make([]*TableInstance, m.NumTables())
	for i := range ec.Tables {
		min, max, hasMax := tableLimitsOf(m, i)
		tbl := &TableInstance{Elems: make([]ssa.FuncRef, min)}
		for j := range tbl.Elems {
			tbl.Elems[j] = NullFuncRef
		}
		if hasMax {
			tbl.Max = max
		}
		ec.Tables[i] = tbl
	}
	if len(ec.Tables) > 0 {
		for slot, ref := range cm.Target.table {
			ec.Tables[0].Elems[slot] = ref
		}
	}

	for i := range ec.Globals {
		ec.Globals[i] = new([2]uint64)
		if i < m.NumImportedGlobals {
			continue // imported globals are the host embedder's to seed
		}
		g := m.GlobalSection[i-m.NumImportedGlobals]
		v, err := evalConstGlobal(g.Init)
		if err != nil {
			return nil, fmt.Errorf("aot: global %d initializer: %w", i, err)
		}
		ec.Globals[i][0] = v
	}

	ec.DataSegments = make([][]byte, len(m.DataSection))
	ec.dataDropped = make([]bool, len(m.DataSection))
	for i, seg := range m.DataSection {
		ec.DataSegments[i] = seg.Init
	}
	ec.ElemSegments = make([][]ssa.FuncRef, len(m.ElementSection))
	ec.elemDropped = make([]bool, len(m.ElementSection))
	for i, seg := range m.ElementSection {
		refs := make([]ssa.FuncRef, len(seg.Init))
		for j, idx := range seg.Init {
			refs[j] = ssa.FuncRef(idx)
		}
		ec.ElemSegments[i] = refs
	}

	return ec, nil
}

// memoryLimitsOf resolves memory idx's (min, max, hasMax) across the
// imported/local split, mirroring wasm.Module.GlobalTypeOf's own pattern.
func memoryLimitsOf(m *wasm.Module, idx int) (min, max uint32, hasMax bool) {
	if idx < m.NumImportedMemories {
		seen := 0
		for _, imp := range m.ImportSection {
			if imp.Type != wasm.ExternTypeMemory {
				continue
			}
			if seen == idx {
				return imp.DescMemory.Min, imp.DescMemory.Max, imp.DescMemory.IsMaxEncoded
			}
			seen++
		}
		panic("aot: memory import index out of range")
	}
	d := m.MemorySection[idx-m.NumImportedMemories]
	return d.Min, d.Max, d.IsMaxEncoded
}

// tableLimitsOf is memoryLimitsOf's table-section counterpart.
func tableLimitsOf(m *wasm.Module, idx int) (min, max uint32, hasMax bool) {
	if idx < m.NumImportedTables {
		seen := 0
		for _, imp := range m.ImportSection {
			if imp.Type != wasm.ExternTypeTable {
				continue
			}
			if seen == idx {
				return imp.DescTable.Min, imp.DescTable.Max, imp.DescTable.IsMaxEncoded
			}
			seen++
		}
		panic("aot: table import index out of range")
	}
	d := m.TableSection[idx-m.NumImportedTables]
	return d.Min, d.Max, d.IsMaxEncoded
}

// evalConstGlobal evaluates a global's constant initializer into its raw
// 64-bit storage representation. Only the constant forms spec.md §3.1 lists
// (i32/i64/f32/f64 const, ref.null, ref.func) are supported; global.get of
// an imported global is a module-linking concern this Compiler does not
// resolve (see Instantiate's doc comment).
func evalConstGlobal(ce wasm.ConstantExpression) (uint64, error) {
	dec := &decoder{buf: ce.Data}
	switch ce.Opcode {
	case wasm.OpcodeI32Const:
		v, err := dec.i32()
		return uint64(uint32(v)), err
	case wasm.OpcodeI64Const:
		v, err := dec.i64()
		return uint64(v), err
	case wasm.OpcodeF32Const:
		v, err := dec.f32()
		return uint64(math.Float32bits(v)), err
	case wasm.OpcodeF64Const:
		v, err := dec.f64()
		return math.Float64bits(v), err
	case wasm.OpcodeRefNull:
		return uint64(NullFuncRef), nil
	case wasm.OpcodeRefFunc:
		idx, err := dec.u32()
		return uint64(idx), err
	default:
		return 0, fmt.Errorf("unsupported global constant expression opcode 0x%02x", ce.Opcode)
	}
}

// evalConstI32 evaluates the narrow subset of wasm.ConstantExpression valid
// as an element/data segment offset: a single i32.const. global.get offsets
// (a module-instantiation-time value this Compiler, which only ever sees a
// module definition and never an instance, cannot resolve) are out of scope
// here, matching spec.md §9's "instantiation is an external collaborator's
// concern" boundary.
func evalConstI32(ce wasm.ConstantExpression) (int64, error) {
	if ce.Opcode != wasm.OpcodeI32Const {
		return 0, fmt.Errorf("unsupported constant expression opcode 0x%02x (only i32.const offsets are supported ahead of instantiation)", ce.Opcode)
	}
	dec := &decoder{buf: ce.Data}
	v, err := dec.i32()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}
