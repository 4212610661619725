package aot

import (
	"fmt"
	"math"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/leb128"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// FunctionCompiler lowers one wasm.Code body into an ssa.Builder's current
// function (spec.md §4.2, "Function Compiler" — 55% of this system's
// scope). One FunctionCompiler is used per function; the embedding Context
// and Builder are reused across an entire module compilation, reset between
// functions via Builder.Init.
type FunctionCompiler struct {
	ctx    *Context
	b      ssa.Builder
	traps  *trapBlocks
	locals []ssa.Variable // parameters, then declared locals, in index order
	stack  []ssa.Value
	frames []ctrlFrame

	// costKeyOf is the per-instruction cost_table key map handed to
	// Executable.SetCostKeys (spec.md §4.2.4). CompileFunction creates it
	// empty and no lowering adds an entry, so the interpreter charges no
	// gas for compiled functions.
	costKeyOf map[*ssa.Instruction]uint16
}

// ctrlFrameKind distinguishes the three structured control constructs Wasm
// defines, plus the function body itself (spec.md §3.3).
type ctrlFrameKind byte

const (
	ctrlFrameFunc ctrlFrameKind = iota
	ctrlFrameBlock
	ctrlFrameLoop
	ctrlFrameIf
)

// ctrlFrame is one entry of the control-frame stack spec.md §3.3 describes:
// stack_depth, unreachable, jump_block (the label br targets), next_block
// (what falls through after `end`), else_block (only live for an
// unterminated `if`), and the block's param/result types.
type ctrlFrame struct {
	kind        ctrlFrameKind
	stackDepth  int
	unreachable bool

	// jumpBlock is where `br`/`br_if`/`br_table` targeting this label land:
	// the loop header for a loop, the end block for block/if.
	jumpBlock ssa.BasicBlock
	// nextBlock is resumed after this construct's `end`; for block/if/func
	// this is the same as jumpBlock, for loop it is the block allocated at
	// `end` (the loop's jumpBlock is its header, not its end).
	nextBlock ssa.BasicBlock
	elseBlock ssa.BasicBlock // non-nil only between `if` and its `else`/`end`
	// elseArgs are the values an absent `else` implicitly passes straight
	// through to `end` (valid Wasm requires an else-less `if`'s param and
	// result types to match, so these double as the fall-through results).
	elseArgs []ssa.Value

	paramTypes  []ssa.Type
	resultTypes []ssa.Type
}

// NewFunctionCompiler creates a FunctionCompiler sharing ctx and b with the
// rest of the module's functions.
func NewFunctionCompiler(ctx *Context, b ssa.Builder) *FunctionCompiler {
	return &FunctionCompiler{ctx: ctx, b: b}
}

// CompileFunction lowers the funcIdx-th local function's body into b's
// current function (after Init has already been called against its
// Signature by the caller). It returns the cost-key map for
// Executable.SetCostKeys, which is always empty (see costKeyOf).
func (fc *FunctionCompiler) CompileFunction(funcIdx wasm.Index, code *wasm.Code) (map[*ssa.Instruction]uint16, error) {
	fc.traps = newTrapBlocks(fc.b)
	fc.stack = fc.stack[:0]
	fc.frames = fc.frames[:0]
	fc.costKeyOf = make(map[*ssa.Instruction]uint16)

	sig := fc.ctx.FunctionSignature(funcIdx)

	entry := fc.b.AllocateBasicBlock()
	fc.b.SetCurrentBlock(entry)
	fc.b.Seal(entry) // the function entry has no predecessors to wait for
	fc.locals = make([]ssa.Variable, 0, len(sig.Params)+len(code.LocalTypes))
	for _, pt := range sig.Params {
		v := entry.AddParam(fc.b, pt)
		variable := fc.b.DeclareVariable(pt)
		fc.b.DefineVariableInCurrentBB(variable, v)
		fc.locals = append(fc.locals, variable)
	}
	for _, lt := range code.LocalTypes {
		t := fc.ctx.lowerValType(lt)
		variable := fc.b.DeclareVariable(t)
		fc.b.DefineVariableInCurrentBB(variable, fc.zero(t))
		fc.locals = append(fc.locals, variable)
	}

	// The function body itself is the outermost control frame: `end`
	// reaching it is an implicit `return`, and `br`/`br_if` can never
	// target it directly (Wasm has no label for the function itself), but
	// modeling it uniformly keeps the unwind logic in endBlockFor simple.
	fc.frames = append(fc.frames, ctrlFrame{
		kind:        ctrlFrameFunc,
		stackDepth:  0,
		resultTypes: sig.Results,
	})

	dec := &decoder{buf: code.Body}
	if err := fc.compileBody(dec); err != nil {
		return nil, fmt.Errorf("aot: function %d: %w", funcIdx, err)
	}
	return fc.costKeyOf, nil
}

// zero emits (if needed) and returns a zero-valued constant of t, used to
// seed a declared local's initial value (Wasm locals are zero-initialized).
func (fc *FunctionCompiler) zero(t ssa.Type) ssa.Value {
	instr := fc.b.AllocateInstruction()
	switch t {
	case ssa.TypeI32:
		instr.AsIconst32(0)
	case ssa.TypeI64:
		instr.AsIconst64(0)
	case ssa.TypeF32:
		instr.AsF32const(0)
	case ssa.TypeF64:
		instr.AsF64const(0)
	case ssa.TypeV128:
		instr.AsVconst(0, 0)
	default:
		panic("aot: zero: unknown type")
	}
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

func (fc *FunctionCompiler) push(v ssa.Value)  { fc.stack = append(fc.stack, v) }
func (fc *FunctionCompiler) pop() ssa.Value {
	v := fc.stack[len(fc.stack)-1]
	fc.stack = fc.stack[:len(fc.stack)-1]
	return v
}
func (fc *FunctionCompiler) peek() ssa.Value { return fc.stack[len(fc.stack)-1] }

func (fc *FunctionCompiler) curFrame() *ctrlFrame { return &fc.frames[len(fc.frames)-1] }

// unreachable reports whether the current position is statically
// unreachable (after an `unreachable`/`br`/`br_table`/`return` with no
// intervening structural boundary), in which case emitted opcodes are
// skipped but block/loop/if/end must still be walked to keep fc.frames
// balanced (spec.md §4.2.1).
func (fc *FunctionCompiler) unreachable() bool { return fc.curFrame().unreachable }

// decoder is a tiny cursor over one function body, decoding the LEB128
// immediates Wasm opcodes carry.
type decoder struct {
	buf []byte
	pc  int
}

func (d *decoder) done() bool { return d.pc >= len(d.buf) }

func (d *decoder) byte() (byte, error) {
	if d.pc >= len(d.buf) {
		return 0, fmt.Errorf("unexpected end of function body")
	}
	b := d.buf[d.pc]
	d.pc++
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	v, n, err := leb128.LoadUint32(d.buf[d.pc:])
	d.pc += int(n)
	return v, err
}

func (d *decoder) i32() (int32, error) {
	v, n, err := leb128.LoadInt32(d.buf[d.pc:])
	d.pc += int(n)
	return v, err
}

func (d *decoder) i64() (int64, error) {
	v, n, err := leb128.LoadInt64(d.buf[d.pc:])
	d.pc += int(n)
	return v, err
}

func (d *decoder) f32() (float32, error) {
	if d.pc+4 > len(d.buf) {
		return 0, fmt.Errorf("unexpected end of function body")
	}
	bits := uint32(d.buf[d.pc]) | uint32(d.buf[d.pc+1])<<8 | uint32(d.buf[d.pc+2])<<16 | uint32(d.buf[d.pc+3])<<24
	d.pc += 4
	return math.Float32frombits(bits), nil
}

func (d *decoder) f64() (float64, error) {
	if d.pc+8 > len(d.buf) {
		return 0, fmt.Errorf("unexpected end of function body")
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(d.buf[d.pc+i]) << (8 * i)
	}
	d.pc += 8
	return math.Float64frombits(bits), nil
}

// memarg decodes a load/store instruction's (align, offset) immediate pair;
// align is parsed but not otherwise enforced, matching backend/interp.go,
// whose loads and stores check only bounds.
func (d *decoder) memarg() (offset uint32, err error) {
	if _, err = d.u32(); err != nil { // align, unused
		return 0, err
	}
	return d.u32()
}

// compileBody drives the opcode loop for one function or nested block body,
// returning once the control-frame stack introduced by CompileFunction's
// initial ctrlFrameFunc frame unwinds below zero (i.e. the function-closing
// `end` has been processed).
func (fc *FunctionCompiler) compileBody(dec *decoder) error {
	for !dec.done() {
		op, err := dec.byte()
		if err != nil {
			return err
		}
		if err := fc.compileOp(wasm.Opcode(op), dec); err != nil {
			return err
		}
		if len(fc.frames) == 0 {
			return nil // function-closing `end` consumed
		}
	}
	return nil
}

func (fc *FunctionCompiler) compileOp(op wasm.Opcode, dec *decoder) error {
	switch op {
	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		return fc.compileStructured(op, dec)
	case wasm.OpcodeElse:
		return fc.compileElse()
	case wasm.OpcodeEnd:
		return fc.compileEnd()
	}

	if fc.unreachable() {
		return fc.skipUnreachableOp(op, dec)
	}

	switch op {
	case wasm.OpcodeUnreachable:
		fc.traps.emitTrapNow(aotapi.TrapCodeUnreachable)
		fc.curFrame().unreachable = true
		return nil
	case wasm.OpcodeNop:
		return nil
	case wasm.OpcodeBr:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		fc.emitBr(idx)
		fc.curFrame().unreachable = true
		return nil
	case wasm.OpcodeBrIf:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.emitBrIf(idx)
	case wasm.OpcodeBrTable:
		return fc.compileBrTable(dec)
	case wasm.OpcodeReturn:
		fc.emitReturn()
		fc.curFrame().unreachable = true
		return nil
	case wasm.OpcodeCall:
		return fc.compileCall(dec)
	case wasm.OpcodeCallIndirect:
		return fc.compileCallIndirect(dec)
	case wasm.OpcodeDrop:
		fc.pop()
		return nil
	case wasm.OpcodeSelect, wasm.OpcodeTypedSelect:
		return fc.compileSelect(op, dec)
	case wasm.OpcodeLocalGet:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		fc.push(fc.b.FindValue(fc.locals[idx]))
		return nil
	case wasm.OpcodeLocalSet, wasm.OpcodeLocalTee:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		var v ssa.Value
		if op == wasm.OpcodeLocalTee {
			v = fc.peek()
		} else {
			v = fc.pop()
		}
		fc.b.DefineVariableInCurrentBB(fc.locals[idx], v)
		return nil
	case wasm.OpcodeGlobalGet:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileGlobalGet(idx)
	case wasm.OpcodeGlobalSet:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileGlobalSet(idx)
	case wasm.OpcodeMemorySize:
		dec.pc++ // reserved memory-index byte, always 0
		return fc.compileIntrinsicCall(IntrinsicMemSize, nil, ssa.TypeI32)
	case wasm.OpcodeMemoryGrow:
		dec.pc++
		delta := fc.pop()
		return fc.compileIntrinsicCall(IntrinsicMemGrow, []ssa.Value{delta}, ssa.TypeI32)
	case wasm.OpcodeI32Const:
		v, err := dec.i32()
		if err != nil {
			return err
		}
		fc.push(fc.constI32(v))
		return nil
	case wasm.OpcodeI64Const:
		v, err := dec.i64()
		if err != nil {
			return err
		}
		fc.push(fc.constI64(v))
		return nil
	case wasm.OpcodeF32Const:
		v, err := dec.f32()
		if err != nil {
			return err
		}
		fc.push(fc.constF32(v))
		return nil
	case wasm.OpcodeF64Const:
		v, err := dec.f64()
		if err != nil {
			return err
		}
		fc.push(fc.constF64(v))
		return nil
	case wasm.OpcodeRefFunc:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileIntrinsicCall(IntrinsicRefFunc, []ssa.Value{fc.constI64(int64(idx))}, ssa.TypeI64)
	case wasm.OpcodeRefNull:
		dec.pc++ // reftype byte
		fc.push(fc.constI64(0))
		return nil
	case wasm.OpcodeRefIsNull:
		v := fc.pop()
		fc.push(fc.icmp(v, fc.constI64(0), ssa.IntegerCmpCondEqual, ssa.TypeI32))
		return nil
	case wasm.OpcodeTableGet, wasm.OpcodeTableSet:
		return fc.compileTableGetSet(op, dec)
	}

	if isLoadOpcode(op) || isStoreOpcode(op) {
		return fc.compileMemAccess(op, dec)
	}
	if isNumericOpcode(op) {
		return fc.compileNumeric(op)
	}
	if op == wasm.OpcodeMiscPrefix {
		return fc.compileMisc(dec)
	}
	return fmt.Errorf("unsupported opcode 0x%02x (%s)", op, wasm.InstructionName(op))
}

// skipUnreachableOp advances past a single opcode's immediates without
// emitting any SSA (spec.md §4.2.1, "unreachable code still structurally
// walks nested block/loop/if"). block/loop/if/else/end are handled by the
// caller before reaching here so the frame stack stays correct; every other
// opcode's immediate width is replayed here purely to keep the decoder
// cursor in sync.
func (fc *FunctionCompiler) skipUnreachableOp(op wasm.Opcode, dec *decoder) error {
	switch op {
	case wasm.OpcodeBrTable:
		n, err := dec.u32()
		if err != nil {
			return err
		}
		for i := uint32(0); i <= n; i++ {
			if _, err := dec.u32(); err != nil {
				return err
			}
		}
		return nil
	case wasm.OpcodeCallIndirect:
		if _, err := dec.u32(); err != nil {
			return err
		}
		_, err := dec.u32()
		return err
	case wasm.OpcodeBr, wasm.OpcodeBrIf, wasm.OpcodeCall, wasm.OpcodeLocalGet,
		wasm.OpcodeLocalSet, wasm.OpcodeLocalTee, wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet,
		wasm.OpcodeI32Const, wasm.OpcodeRefFunc, wasm.OpcodeTableGet, wasm.OpcodeTableSet:
		_, err := dec.u32()
		return err
	case wasm.OpcodeI64Const:
		_, err := dec.i64()
		return err
	case wasm.OpcodeF32Const:
		_, err := dec.f32()
		return err
	case wasm.OpcodeF64Const:
		_, err := dec.f64()
		return err
	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow, wasm.OpcodeRefNull:
		dec.pc++
		return nil
	case wasm.OpcodeTypedSelect:
		dec.pc++
		return nil
	}
	if isLoadOpcode(op) || isStoreOpcode(op) {
		_, err := dec.memarg()
		return err
	}
	return nil // plain zero-immediate opcode (arithmetic, drop, select, unreachable, nop, ...)
}
