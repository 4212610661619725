package aot

// Intrinsic identifies one entry in the process-wide intrinsics table
// (spec.md §4.6): the single array of function pointers through which
// compiled code performs table operations, memory grow/copy/init, indirect
// calls into the host, trap raising and reference-function resolution.
// Compiled code never calls the host directly; every host interaction is
// indexed through this table so the table itself can be installed once,
// process-wide, ahead of any compiled function running.
type Intrinsic uint32

const (
	IntrinsicCall Intrinsic = iota
	IntrinsicCallIndirect
	IntrinsicPtrFunc
	IntrinsicTrap
	IntrinsicRefFunc
	IntrinsicMemGrow
	IntrinsicMemSize
	IntrinsicMemCopy
	IntrinsicMemFill
	IntrinsicMemInit
	IntrinsicDataDrop
	IntrinsicTableGet
	IntrinsicTableSet
	IntrinsicTableGrow
	IntrinsicTableSize
	IntrinsicTableFill
	IntrinsicTableCopy
	IntrinsicTableInit
	IntrinsicElemDrop
	IntrinsicMemoryAtomicNotify
	IntrinsicMemoryAtomicWait

	intrinsicMax
)

func (i Intrinsic) String() string {
	switch i {
	case IntrinsicCall:
		return "kCall"
	case IntrinsicCallIndirect:
		return "kCallIndirect"
	case IntrinsicPtrFunc:
		return "kPtrFunc"
	case IntrinsicTrap:
		return "kTrap"
	case IntrinsicRefFunc:
		return "kRefFunc"
	case IntrinsicMemGrow:
		return "kMemGrow"
	case IntrinsicMemSize:
		return "kMemSize"
	case IntrinsicMemCopy:
		return "kMemCopy"
	case IntrinsicMemFill:
		return "kMemFill"
	case IntrinsicMemInit:
		return "kMemInit"
	case IntrinsicDataDrop:
		return "kDataDrop"
	case IntrinsicTableGet:
		return "kTableGet"
	case IntrinsicTableSet:
		return "kTableSet"
	case IntrinsicTableGrow:
		return "kTableGrow"
	case IntrinsicTableSize:
		return "kTableSize"
	case IntrinsicTableFill:
		return "kTableFill"
	case IntrinsicTableCopy:
		return "kTableCopy"
	case IntrinsicTableInit:
		return "kTableInit"
	case IntrinsicElemDrop:
		return "kElemDrop"
	case IntrinsicMemoryAtomicNotify:
		return "kMemoryAtomicNotify"
	case IntrinsicMemoryAtomicWait:
		return "kMemoryAtomicWait"
	default:
		return "unknown"
	}
}

// IntrinsicMax is the fixed maximum table size (kIntrinsicMax); the table is
// allocated once at this length and never resized.
const IntrinsicMax = int(intrinsicMax)

// IntrinsicFunc is the Go-side shape of a single intrinsic table entry. The
// uniform untyped-args/untyped-rets convention mirrors the Wrapper ABI
// layer (§4.3) so one calling convention serves every intrinsic regardless
// of its underlying arity.
type IntrinsicFunc func(execCtx *ExecCtx, args []uint64) []uint64

// IntrinsicTable is the process-wide array installed by the runtime before
// any compiled function executes (spec.md §4.6, §9 "Global mutable state").
// It is read by compiled code through an index load; nothing in this
// package mutates it after Install.
type IntrinsicTable struct {
	entries [intrinsicMax]IntrinsicFunc
}

// NewIntrinsicTable allocates an empty table; entries are filled in by
// Install.
func NewIntrinsicTable() *IntrinsicTable {
	return &IntrinsicTable{}
}

// Install registers the implementation for id, overwriting any previous
// entry. Called exactly once per id during VM/compiler bring-up.
func (t *IntrinsicTable) Install(id Intrinsic, fn IntrinsicFunc) {
	t.entries[id] = fn
}

// Invoke calls the intrinsic registered at id. A nil entry is a bring-up
// bug (the runtime failed to install a required intrinsic before running
// compiled code) and panics rather than silently no-opping.
func (t *IntrinsicTable) Invoke(id Intrinsic, execCtx *ExecCtx, args []uint64) []uint64 {
	fn := t.entries[id]
	if fn == nil {
		panic("aot: intrinsic " + id.String() + " not installed")
	}
	return fn(execCtx, args)
}
