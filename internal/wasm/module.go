package wasm

// MemoryPageSize is the length in bytes of a single WebAssembly memory page.
const MemoryPageSize = 65536

// MemoryPageSizeInBits is the exponent such that 1<<MemoryPageSizeInBits ==
// MemoryPageSize.
const MemoryPageSizeInBits = 16

// ExternType classifies the four kinds of module-level object that can be
// imported or exported.
type ExternType byte

const (
	ExternTypeFunc ExternType = iota
	ExternTypeTable
	ExternTypeMemory
	ExternTypeGlobal
)

func (t ExternType) String() string {
	switch t {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// GlobalType describes the value type and mutability of a global.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a module-level global variable: either a module-local definition
// with a constant initializer, or left unpopulated for an imported global
// (see Import).
type Global struct {
	Type GlobalType
	Init ConstantExpression
}

// ConstantExpression is a constant initializer expression: a single constant
// instruction (i32.const, i64.const, f32.const, f64.const, ref.null,
// ref.func) or global.get of an imported immutable global. Bodies are kept
// pre-decoded since the binary parser is not this module's concern; callers
// construct Modules directly (spec.md §1, "External collaborators").
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// Memory describes a module's linear memory limits, in pages.
type Memory struct {
	Min uint32
	Max uint32
	// IsMaxEncoded distinguishes an explicit max of 0 from "no max supplied";
	// when false, Max is ignored and the memory is allowed to grow without an
	// upper bound other than the host's configured ceiling.
	IsMaxEncoded bool
	// IsShared marks a memory usable by atomic instructions across threads.
	IsShared bool
}

// Table describes a module's table limits and element type (funcref or
// externref).
type Table struct {
	Min     uint32
	Max     uint32
	IsMaxEncoded bool
	Type    ValueType
}

// Import describes a single imported function, table, memory or global.
type Import struct {
	Module, Name string
	Type         ExternType

	// DescFunc is the TypeSection index for a function import.
	DescFunc Index
	// DescTable/DescMemory/DescGlobal are populated for the matching Type.
	DescTable  Table
	DescMemory Memory
	DescGlobal GlobalType
}

// Export describes a single named export of a function, table, memory or
// global, identified by its index within that section (imports occupy the
// low indices, per the WebAssembly index-space rule).
type Export struct {
	Name  string
	Type  ExternType
	Index Index
}

// Code is a single function's decoded body: its declared local groups and
// instruction stream, as it appears in the CodeSection.
type Code struct {
	// LocalTypes is already expanded from (count, type) runs into one entry
	// per local, in declaration order, following the function's parameters.
	LocalTypes []ValueType
	Body       []byte
}

// ElementMode distinguishes how an element segment initializes its table.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegment is a table initializer: a list of function indices (or, for
// the reference-types proposal, a list of constant expressions) applied to a
// table at instantiation time or on table.init.
type ElementSegment struct {
	Mode       ElementMode
	TableIndex Index // only meaningful when Mode == ElementModeActive
	Offset     ConstantExpression
	Init       []Index
}

// DataSegment is a linear-memory initializer, applied at instantiation time
// or on memory.init.
type DataSegment struct {
	Passive    bool
	MemoryIndex Index // only meaningful when !Passive
	Offset     ConstantExpression
	Init       []byte
}

// NameAssoc pairs an index with a debug name, as found in the custom "name"
// section's function/local/global name subsections.
type NameAssoc struct {
	Index Index
	Name  string
}

// NameSection holds the optional custom "name" section. No code in this
// module reads it, so it never affects compiled semantics.
type NameSection struct {
	ModuleName    string
	FunctionNames []NameAssoc
	LocalNames    map[Index][]NameAssoc
}

// Module is a fully decoded WebAssembly module: the Compilation Context's
// input (spec.md §4.1). A real .wasm binary parser/validator is an external
// collaborator outside this module's scope; Modules here are either
// constructed directly by a host embedder or produced by a decoder package
// that is out of scope for the AOT core itself.
type Module struct {
	TypeSection []FunctionType

	ImportSection []Import
	// NumImportedFunctions/Tables/Memories/Globals let callers translate a
	// module-level index into "imported" vs "locally defined" without
	// rescanning ImportSection; the Compilation Context needs this split
	// constantly when emitting ModuleContext offsets.
	NumImportedFunctions int
	NumImportedTables    int
	NumImportedMemories  int
	NumImportedGlobals   int

	FunctionSection []Index // per locally-defined function, its TypeSection index
	TableSection    []Table
	MemorySection   []Memory
	GlobalSection   []Global

	ExportSection []Export

	StartFunction *Index

	ElementSection []ElementSegment
	CodeSection    []Code
	DataSection    []DataSegment

	// DataCountSection, if non-nil, is the bulk-memory proposal's declared
	// data segment count, validated ahead of the CodeSection so
	// memory.init/data.drop can be compiled without a forward scan.
	DataCountSection *uint32

	NameSection *NameSection
}

// TypeOfFunction resolves a function index (imported or local) to its
// FunctionType.
func (m *Module) TypeOfFunction(funcIdx Index) *FunctionType {
	if int(funcIdx) < m.NumImportedFunctions {
		return &m.TypeSection[m.ImportSection[m.importFuncSlot(funcIdx)].DescFunc]
	}
	localIdx := int(funcIdx) - m.NumImportedFunctions
	return &m.TypeSection[m.FunctionSection[localIdx]]
}

// GlobalTypeOf resolves a global index (imported or local) to its GlobalType.
func (m *Module) GlobalTypeOf(idx Index) GlobalType {
	if int(idx) < m.NumImportedGlobals {
		return m.ImportSection[m.importGlobalSlot(idx)].DescGlobal
	}
	localIdx := int(idx) - m.NumImportedGlobals
	return m.GlobalSection[localIdx].Type
}

// importGlobalSlot returns the index into ImportSection of the idx-th
// global import, skipping non-global imports.
func (m *Module) importGlobalSlot(idx Index) int {
	var seen Index
	for i, imp := range m.ImportSection {
		if imp.Type != ExternTypeGlobal {
			continue
		}
		if seen == idx {
			return i
		}
		seen++
	}
	panic("wasm: global import index out of range")
}

// importFuncSlot returns the index into ImportSection of the funcIdx-th
// function import, skipping non-function imports.
func (m *Module) importFuncSlot(funcIdx Index) int {
	var seen Index
	for i, imp := range m.ImportSection {
		if imp.Type != ExternTypeFunc {
			continue
		}
		if seen == funcIdx {
			return i
		}
		seen++
	}
	panic("wasm: function import index out of range")
}

// NumFunctions returns the total number of functions, imported plus local.
func (m *Module) NumFunctions() int {
	return m.NumImportedFunctions + len(m.FunctionSection)
}

// NumGlobals returns the total number of globals, imported plus local.
func (m *Module) NumGlobals() int {
	return m.NumImportedGlobals + len(m.GlobalSection)
}

// NumMemories returns the total number of memories, imported plus local.
// Only 0 or 1 is valid until the multi-memory proposal is enabled.
func (m *Module) NumMemories() int {
	return m.NumImportedMemories + len(m.MemorySection)
}

// NumTables returns the total number of tables, imported plus local.
func (m *Module) NumTables() int {
	return m.NumImportedTables + len(m.TableSection)
}

// InstructionName returns a human-readable mnemonic for a plain (non-prefix)
// opcode, used in the Function Compiler's unsupported-opcode error.
func InstructionName(op Opcode) string {
	name, ok := instructionNames[op]
	if !ok {
		return "unknown"
	}
	return name
}

var instructionNames = map[Opcode]string{
	OpcodeUnreachable: "unreachable", OpcodeNop: "nop", OpcodeBlock: "block",
	OpcodeLoop: "loop", OpcodeIf: "if", OpcodeElse: "else", OpcodeEnd: "end",
	OpcodeBr: "br", OpcodeBrIf: "br_if", OpcodeBrTable: "br_table",
	OpcodeReturn: "return", OpcodeCall: "call", OpcodeCallIndirect: "call_indirect",
	OpcodeReturnCall: "return_call", OpcodeReturnCallIndirect: "return_call_indirect",
	OpcodeDrop: "drop", OpcodeSelect: "select", OpcodeTypedSelect: "select",
	OpcodeLocalGet: "local.get", OpcodeLocalSet: "local.set", OpcodeLocalTee: "local.tee",
	OpcodeGlobalGet: "global.get", OpcodeGlobalSet: "global.set",
	OpcodeTableGet: "table.get", OpcodeTableSet: "table.set",
	OpcodeI32Load: "i32.load", OpcodeI64Load: "i64.load", OpcodeF32Load: "f32.load", OpcodeF64Load: "f64.load",
	OpcodeI32Store: "i32.store", OpcodeI64Store: "i64.store", OpcodeF32Store: "f32.store", OpcodeF64Store: "f64.store",
	OpcodeMemorySize: "memory.size", OpcodeMemoryGrow: "memory.grow",
	OpcodeI32Const: "i32.const", OpcodeI64Const: "i64.const", OpcodeF32Const: "f32.const", OpcodeF64Const: "f64.const",
	OpcodeI32DivS: "i32.div_s", OpcodeI32DivU: "i32.div_u", OpcodeI64DivS: "i64.div_s", OpcodeI64DivU: "i64.div_u",
	OpcodeI32RemS: "i32.rem_s", OpcodeI32RemU: "i32.rem_u", OpcodeI64RemS: "i64.rem_s", OpcodeI64RemU: "i64.rem_u",
	OpcodeRefNull: "ref.null", OpcodeRefIsNull: "ref.is_null", OpcodeRefFunc: "ref.func",
}
