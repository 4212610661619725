package aotapi

import "github.com/wazedge/aotwasm/internal/wasm"

// Offset represents a byte offset of a field within a struct.
type Offset int32

// U32 encodes an Offset as uint32 for convenience when building SSA constants.
func (o Offset) U32() uint32 { return uint32(o) }

// I64 encodes an Offset as int64 for convenience when building SSA constants.
func (o Offset) I64() int64 { return int64(o) }

// U64 encodes an Offset as uint64 for convenience when building SSA constants.
func (o Offset) U64() uint64 { return uint64(o) }

// ExecCtxOffsets describes the byte layout of the ExecCtx struct shared by
// every compiled function invocation (spec.md §3.2). This layout is
// globally unique: it does not vary per module.
var ExecCtxOffsets = ExecCtxOffsetData{
	MemoriesOffset:   0,
	GlobalsOffset:    8,
	InstrCountOffset: 16,
	CostTableOffset:  24,
	GasOffset:        32,
	GasLimitOffset:   40,
	StopTokenOffset:  48,
}

// ExecCtxSize is the total size in bytes of the ExecCtx struct.
const ExecCtxSize = 56

// ExecCtxOffsetData names the byte offset of each ExecCtx field, in the
// order spec.md §3.2 declares them.
type ExecCtxOffsetData struct {
	// MemoriesOffset is the offset of the `memories` field: a pointer to an
	// array of base pointers of linear memories, one per memory index.
	MemoriesOffset Offset
	// GlobalsOffset is the offset of the `globals` field: a pointer to an
	// array of pointers to 128-bit-wide global slots.
	GlobalsOffset Offset
	// InstrCountOffset is the offset of the `instr_count` field: a pointer
	// to a shared 64-bit instruction counter.
	InstrCountOffset Offset
	// CostTableOffset is the offset of the `cost_table` field: a pointer to
	// a 65536-entry array of per-opcode costs.
	CostTableOffset Offset
	// GasOffset is the offset of the `gas` field: a pointer to a shared
	// 64-bit gas accumulator.
	GasOffset Offset
	// GasLimitOffset is the offset of the `gas_limit` field: the configured
	// ceiling, loaded once per flush rather than dereferenced through a
	// pointer since it never changes within a run.
	GasLimitOffset Offset
	// StopTokenOffset is the offset of the `stop_token` field: a pointer to
	// a 32-bit interrupt flag.
	StopTokenOffset Offset
}

// CostTableSize is the number of entries in the per-opcode cost table,
// indexed by the two-byte (prefix, opcode) pair packed into one uint16 for
// prefixed instructions, or the bare opcode zero-extended for plain ones.
const CostTableSize = 65536

// FunctionInstanceSize is the size in bytes of one entry in the Context's
// function table (spec.md §3.4): an executable pointer, the owning module's
// context-opaque pointer, and a type ID used to validate call_indirect.
const FunctionInstanceSize = 24

const (
	FunctionInstanceExecutableOffset              = 0
	FunctionInstanceModuleContextOpaquePtrOffset  = 8
	FunctionInstanceTypeIDOffset                  = 16
)

// ModuleContextOffsetData describes the layout of the per-module opaque
// context blob that backs ExecCtx's `memories`/`globals` arrays plus the
// imported-function table and table instances. It is computed once per
// module by NewModuleContextOffsetData and is NOT shared across modules,
// unlike ExecCtxOffsets.
type ModuleContextOffsetData struct {
	TotalSize int

	LocalMemoryBegin,
	ImportedMemoryBegin,
	ImportedFunctionsBegin,
	GlobalsBegin,
	TypeIDs1stElement,
	TablesBegin Offset
}

// ImportedFunctionOffset returns the offsets of the i-th imported function's
// FunctionInstance fields.
func (m *ModuleContextOffsetData) ImportedFunctionOffset(i wasm.Index) (executableOffset, moduleCtxOffset, typeIDOffset Offset) {
	base := m.ImportedFunctionsBegin + Offset(i)*FunctionInstanceSize
	return base, base + 8, base + 16
}

// GlobalInstanceOffset returns the offset of the i-th global's slot pointer.
func (m *ModuleContextOffsetData) GlobalInstanceOffset(i wasm.Index) Offset {
	return m.GlobalsBegin + Offset(i)*8
}

// LocalMemoryBase returns the offset of the first byte of local memory 0's
// base-pointer field, or -1 if the module defines no local memory.
func (m *ModuleContextOffsetData) LocalMemoryBase() Offset { return m.LocalMemoryBegin }

// LocalMemoryLen returns the offset of local memory 0's byte-length field.
func (m *ModuleContextOffsetData) LocalMemoryLen() Offset {
	if l := m.LocalMemoryBegin; l >= 0 {
		return l + 8
	}
	return -1
}

// TableOffset returns the offset of the tableIndex-th table instance
// pointer.
func (m *ModuleContextOffsetData) TableOffset(tableIndex int) Offset {
	return m.TablesBegin + Offset(tableIndex)*8
}

// NewModuleContextOffsetData lays out the opaque module context for m,
// assigning -1 to any section the module doesn't use so the Function
// Compiler can detect "no local memory" etc. without a nil check elsewhere.
func NewModuleContextOffsetData(m *wasm.Module) ModuleContextOffsetData {
	ret := ModuleContextOffsetData{}
	var offset Offset

	if len(m.MemorySection) > 0 {
		ret.LocalMemoryBegin = offset
		const localMemorySizeInOpaqueModuleContext = 16 // base pointer + byte length.
		offset += localMemorySizeInOpaqueModuleContext
	} else {
		ret.LocalMemoryBegin = -1
	}

	if m.NumImportedMemories > 0 {
		ret.ImportedMemoryBegin = offset
		const importedMemorySizeInOpaqueModuleContext = 16
		offset += importedMemorySizeInOpaqueModuleContext
	} else {
		ret.ImportedMemoryBegin = -1
	}

	if m.NumImportedFunctions > 0 {
		ret.ImportedFunctionsBegin = offset
		offset += Offset(m.NumImportedFunctions) * FunctionInstanceSize
	} else {
		ret.ImportedFunctionsBegin = -1
	}

	if globals := m.NumGlobals(); globals > 0 {
		ret.GlobalsBegin = offset
		offset += Offset(globals) * 8
	} else {
		ret.GlobalsBegin = -1
	}

	if tables := m.NumTables(); tables > 0 {
		ret.TypeIDs1stElement = offset
		offset += 8
		ret.TablesBegin = offset
		offset += Offset(tables) * 8
	} else {
		ret.TypeIDs1stElement = -1
		ret.TablesBegin = -1
	}

	ret.TotalSize = int(offset)
	return ret
}
