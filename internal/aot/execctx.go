package aot

import (
	"sync/atomic"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/backend"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

// ExecCtx is the hidden first argument to every compiled function
// (spec.md §3.2). It is read-only from the compiled function's point of
// view: updates to the shared counters (instr_count, gas) and to
// stop_token happen through atomic read-modify-write with monotonic
// ordering, never a plain store through a pointer the function already
// holds a stale copy of.
//
// The field layout here mirrors aotapi.ExecCtxOffsets byte-for-byte; the
// Function Compiler never refers to these fields by Go selector (it only
// runs on an in-memory interpretation of the SSA it builds), but the host
// embedder's Go-level intrinsics and the interpretive fallback below read
// them directly.
type ExecCtx struct {
	// Memories holds one base pointer per linear memory, imported then
	// locally defined, indexed by module-level memory index.
	Memories []*Memory
	// Globals holds one pointer per global slot (128 bits wide to
	// accommodate v128), imported then locally defined.
	Globals []*[2]uint64

	// costEnabled mirrors whether CostTable was supplied non-nil at
	// construction, so ConsumeGas can no-op cheaply when metering is off.
	costEnabled bool

	// InstrCount is the shared instruction counter, incremented with
	// atomic adds as functions flush their local accumulator.
	InstrCount *uint64
	// CostTable holds one entry per (prefix, opcode) pair, indexed by a
	// packed uint16 key; see aotapi.CostTableSize.
	CostTable *[aotapi.CostTableSize]uint32
	// Gas is the shared gas accumulator.
	Gas *uint64
	// GasLimit is the configured ceiling; read-only for the lifetime of a
	// run.
	GasLimit uint64
	// StopToken is flipped to 1 by a setter to cooperatively request that
	// the next block/loop entry trap Interrupted.
	StopToken *uint32

	// Tables holds one growable TableInstance per module-level table,
	// imported then locally defined. Only table.get/set/grow/size/fill/copy
	// and table.init's writes go through this slice; call_indirect resolves
	// against CallTarget's own snapshot instead (see TableInstance's doc
	// comment for why the two are not kept in lockstep).
	Tables []*TableInstance

	// DataSegments/dataDropped back memory.init/data.drop: DataSegments[i]
	// is the i-th segment's raw bytes, dataDropped[i] latches true once
	// data.drop has run so a later memory.init on the same index traps
	// instead of silently reading stale data.
	DataSegments []([]byte)
	dataDropped  []bool

	// ElemSegments/elemDropped back table.init/elem.drop, mirroring
	// DataSegments/dataDropped for the table side.
	ElemSegments [][]ssa.FuncRef
	elemDropped  []bool
}

// TableInstance is the runtime, growable form of one module table: the
// element slots table.get/set address directly, plus the declared maximum
// table.grow must respect. It is intentionally a separate type from the
// FuncRef slice backend.CallTarget snapshots at Compile time: CallTarget's
// ResolveIndirect (backend.CallTarget's interface) takes no ExecCtx
// parameter, so it has no way to observe a table.grow/table.fill mutation
// made through this instance after compilation. Reconciling the two would
// mean changing backend.CallTarget's signature, which the interpreter and
// emitter already depend on; until that is worth doing, a module that
// grows or refills its table and then relies on call_indirect observing
// the mutation is out of scope (see DESIGN.md).
type TableInstance struct {
	Elems []ssa.FuncRef
	Max   uint32 // 0 means no declared max.
}

// Memory is the runtime representation of one linear memory: a growable
// byte slice plus the page-count ceiling from the module's declaration.
// Aliased to backend.Memory so the interpreter in internal/aot/backend can
// address memories without importing package aot (which imports backend,
// not the reverse).
type Memory = backend.Memory

// NewExecCtx allocates an ExecCtx sized for numMemories/numGlobals, with
// fresh zeroed shared counters. costTable may be nil, in which case every
// opcode costs 0 (gas metering effectively disabled without needing a
// separate on/off flag at this layer).
func NewExecCtx(numMemories, numGlobals int, gasLimit uint64, costTable *[aotapi.CostTableSize]uint32) *ExecCtx {
	enabled := costTable != nil
	if costTable == nil {
		costTable = &[aotapi.CostTableSize]uint32{}
	}
	return &ExecCtx{
		Memories:    make([]*Memory, numMemories),
		Globals:     make([]*[2]uint64, numGlobals),
		InstrCount:  new(uint64),
		CostTable:   costTable,
		Gas:         new(uint64),
		GasLimit:    gasLimit,
		StopToken:   new(uint32),
		costEnabled: enabled,
	}
}

// Memory implements backend.ExecContext.
func (c *ExecCtx) Memory(idx int) *Memory { return c.Memories[idx] }

// Global implements backend.ExecContext.
func (c *ExecCtx) Global(idx int) *[2]uint64 { return c.Globals[idx] }

// Table returns the idx-th table instance.
func (c *ExecCtx) Table(idx int) *TableInstance { return c.Tables[idx] }

// DataDropped reports whether data.drop has already run against segment idx.
func (c *ExecCtx) DataDropped(idx int) bool { return c.dataDropped[idx] }

// SetDataDropped latches segment idx as dropped.
func (c *ExecCtx) SetDataDropped(idx int) { c.dataDropped[idx] = true }

// ElemDropped reports whether elem.drop has already run against segment idx.
func (c *ExecCtx) ElemDropped(idx int) bool { return c.elemDropped[idx] }

// SetElemDropped latches segment idx as dropped.
func (c *ExecCtx) SetElemDropped(idx int) { c.elemDropped[idx] = true }

// ConsumeGas implements backend.ExecContext: it adds cost to the shared gas
// accumulator and reports whether doing so crossed GasLimit. Metering is a
// no-op, always false, when this ExecCtx was built without a cost table.
func (c *ExecCtx) ConsumeGas(cost uint32) bool {
	if !c.costEnabled || c.GasLimit == 0 {
		return false
	}
	return c.addGas(uint64(cost)) > c.GasLimit
}

// CheckInterrupt implements backend.ExecContext.
func (c *ExecCtx) CheckInterrupt() bool { return c.checkAndClearStopToken() }

// CostOf implements backend.ExecContext.
func (c *ExecCtx) CostOf(key uint16) uint32 { return c.CostTable[key] }

// Interrupt cooperatively requests that the running function trap at its
// next block/loop entry check (spec.md §5). It is safe to call from any
// goroutine.
func (c *ExecCtx) Interrupt() {
	atomic.StoreUint32(c.StopToken, 1)
}

// checkAndClearStopToken atomically exchanges the stop token with 0 and
// returns whether it had been set, matching the "observed via an atomic
// exchange... reset to 0 atomically on the same check" rule of spec.md §5
// and §8.
func (c *ExecCtx) checkAndClearStopToken() bool {
	return atomic.SwapUint32(c.StopToken, 0) != 0
}

// addGas atomically adds delta to the shared gas counter using a
// compare-exchange retry loop (spec.md §4.2.4, weak CAS with monotonic
// ordering per §9's open question: gas is not a synchronisation channel,
// so a weak CAS that occasionally retries spuriously is acceptable). It
// reports the counter's value after the add succeeds.
func (c *ExecCtx) addGas(delta uint64) uint64 {
	for {
		old := atomic.LoadUint64(c.Gas)
		next := old + delta
		if atomic.CompareAndSwapUint64(c.Gas, old, next) {
			return next
		}
	}
}

// PackCostKey packs a (prefix, opcode) pair into the uint16 index used by
// CostTable: plain opcodes occupy the low byte with prefix 0; prefixed
// opcodes (misc/vec/atomic) use the prefix byte as the high byte so the
// three sub-opcode spaces never collide with each other or with the plain
// opcode space.
func PackCostKey(prefix, opcode byte) uint16 {
	return uint16(prefix)<<8 | uint16(opcode)
}
