package aot

import (
	"fmt"

	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// ---- memory access (spec.md §4.2.3) ------------------------------------
//
// Alignment hints are parsed (decoder.memarg) but never enforced: every
// load/store is emitted as an unaligned access, matching the backend
// interpreter (its readLE/writeLE never check the address's alignment, only
// its bounds). Out-of-bounds access is
// trapped by the interpreter itself (TrapCodeMemoryOutOfBounds), not by any
// SSA-level bounds check the Function Compiler emits.

type loadKind struct {
	ext      ssa.Opcode // ssa.OpcodeLoad for a natural-width load, else an extending load opcode
	dst64bit bool
	typ      ssa.Type // only meaningful when ext == ssa.OpcodeLoad
}

var loadKinds = map[wasm.Opcode]loadKind{
	wasm.OpcodeI32Load:    {ssa.OpcodeLoad, false, ssa.TypeI32},
	wasm.OpcodeI64Load:    {ssa.OpcodeLoad, true, ssa.TypeI64},
	wasm.OpcodeF32Load:    {ssa.OpcodeLoad, false, ssa.TypeF32},
	wasm.OpcodeF64Load:    {ssa.OpcodeLoad, true, ssa.TypeF64},
	wasm.OpcodeI32Load8S:  {ssa.OpcodeSload8, false, 0},
	wasm.OpcodeI32Load8U:  {ssa.OpcodeUload8, false, 0},
	wasm.OpcodeI32Load16S: {ssa.OpcodeSload16, false, 0},
	wasm.OpcodeI32Load16U: {ssa.OpcodeUload16, false, 0},
	wasm.OpcodeI64Load8S:  {ssa.OpcodeSload8, true, 0},
	wasm.OpcodeI64Load8U:  {ssa.OpcodeUload8, true, 0},
	wasm.OpcodeI64Load16S: {ssa.OpcodeSload16, true, 0},
	wasm.OpcodeI64Load16U: {ssa.OpcodeUload16, true, 0},
	wasm.OpcodeI64Load32S: {ssa.OpcodeSload32, true, 0},
	wasm.OpcodeI64Load32U: {ssa.OpcodeUload32, true, 0},
}

var storeOps = map[wasm.Opcode]ssa.Opcode{
	wasm.OpcodeI32Store:   ssa.OpcodeStore,
	wasm.OpcodeI64Store:   ssa.OpcodeStore,
	wasm.OpcodeF32Store:   ssa.OpcodeStore,
	wasm.OpcodeF64Store:   ssa.OpcodeStore,
	wasm.OpcodeI32Store8:  ssa.OpcodeIstore8,
	wasm.OpcodeI64Store8:  ssa.OpcodeIstore8,
	wasm.OpcodeI32Store16: ssa.OpcodeIstore16,
	wasm.OpcodeI64Store16: ssa.OpcodeIstore16,
	wasm.OpcodeI64Store32: ssa.OpcodeIstore32,
}

func isLoadOpcode(op wasm.Opcode) bool  { _, ok := loadKinds[op]; return ok }
func isStoreOpcode(op wasm.Opcode) bool { _, ok := storeOps[op]; return ok }

func (fc *FunctionCompiler) compileMemAccess(op wasm.Opcode, dec *decoder) error {
	offset, err := dec.memarg()
	if err != nil {
		return err
	}
	if k, ok := loadKinds[op]; ok {
		ptr := fc.pop()
		instr := fc.b.AllocateInstruction()
		if k.ext == ssa.OpcodeLoad {
			instr.AsLoad(ptr, offset, k.typ)
		} else {
			instr.AsExtLoad(k.ext, ptr, offset, k.dst64bit)
		}
		fc.b.InsertInstruction(instr)
		fc.push(instr.Return())
		return nil
	}
	storeOp := storeOps[op]
	value := fc.pop()
	ptr := fc.pop()
	instr := fc.b.AllocateInstruction()
	instr.AsStore(storeOp, value, ptr, offset)
	fc.b.InsertInstruction(instr)
	return nil
}

// ---- numeric opcodes (spec.md §4.2.2) ----------------------------------
//
// Every arithmetic trap (divide by zero, signed-divide overflow, float
// truncation out of range) and every masking rule (shift amount modulo bit
// width, 32-bit wraparound) is enforced by backend/interp.go's step()
// itself; the Function Compiler's job is solely to select the right SSA
// opcode, not to re-derive Wasm's numeric semantics.

func isNumericOpcode(op wasm.Opcode) bool {
	_, ok := binOps[op]
	if ok {
		return true
	}
	_, ok = unOps[op]
	if ok {
		return true
	}
	_, ok = cmpOps[op]
	if ok {
		return true
	}
	switch op {
	case wasm.OpcodeI32WrapI64, wasm.OpcodeI64ExtendI32S, wasm.OpcodeI64ExtendI32U,
		wasm.OpcodeI32TruncF32S, wasm.OpcodeI32TruncF32U, wasm.OpcodeI32TruncF64S, wasm.OpcodeI32TruncF64U,
		wasm.OpcodeI64TruncF32S, wasm.OpcodeI64TruncF32U, wasm.OpcodeI64TruncF64S, wasm.OpcodeI64TruncF64U,
		wasm.OpcodeF32ConvertI32S, wasm.OpcodeF32ConvertI32U, wasm.OpcodeF32ConvertI64S, wasm.OpcodeF32ConvertI64U,
		wasm.OpcodeF64ConvertI32S, wasm.OpcodeF64ConvertI32U, wasm.OpcodeF64ConvertI64S, wasm.OpcodeF64ConvertI64U,
		wasm.OpcodeF32DemoteF64, wasm.OpcodeF64PromoteF32,
		wasm.OpcodeI32ReinterpretF32, wasm.OpcodeI64ReinterpretF64,
		wasm.OpcodeF32ReinterpretI32, wasm.OpcodeF64ReinterpretI64,
		wasm.OpcodeI32Extend8S, wasm.OpcodeI32Extend16S,
		wasm.OpcodeI64Extend8S, wasm.OpcodeI64Extend16S, wasm.OpcodeI64Extend32S:
		return true
	}
	return false
}

type binOp func(b ssa.Builder, instr *ssa.Instruction, x, y ssa.Value)

var binOps = map[wasm.Opcode]binOp{
	wasm.OpcodeI32Add: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIadd(x, y) },
	wasm.OpcodeI64Add: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIadd(x, y) },
	wasm.OpcodeI32Sub: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIsub(x, y) },
	wasm.OpcodeI64Sub: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIsub(x, y) },
	wasm.OpcodeI32Mul: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsImul(x, y) },
	wasm.OpcodeI64Mul: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsImul(x, y) },
	wasm.OpcodeI32DivS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSDiv(x, y, y) },
	wasm.OpcodeI64DivS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSDiv(x, y, y) },
	wasm.OpcodeI32DivU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsUDiv(x, y, y) },
	wasm.OpcodeI64DivU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsUDiv(x, y, y) },
	wasm.OpcodeI32RemS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSRem(x, y, y) },
	wasm.OpcodeI64RemS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSRem(x, y, y) },
	wasm.OpcodeI32RemU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsURem(x, y, y) },
	wasm.OpcodeI64RemU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsURem(x, y, y) },
	wasm.OpcodeI32And:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBand(x, y) },
	wasm.OpcodeI64And:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBand(x, y) },
	wasm.OpcodeI32Or:   func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBor(x, y) },
	wasm.OpcodeI64Or:   func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBor(x, y) },
	wasm.OpcodeI32Xor:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBxor(x, y) },
	wasm.OpcodeI64Xor:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsBxor(x, y) },
	wasm.OpcodeI32Shl:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIshl(x, y) },
	wasm.OpcodeI64Shl:  func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsIshl(x, y) },
	wasm.OpcodeI32ShrS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSshr(x, y) },
	wasm.OpcodeI64ShrS: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsSshr(x, y) },
	wasm.OpcodeI32ShrU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsUshr(x, y) },
	wasm.OpcodeI64ShrU: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsUshr(x, y) },
	wasm.OpcodeI32Rotl: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsRotl(x, y) },
	wasm.OpcodeI64Rotl: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsRotl(x, y) },
	wasm.OpcodeI32Rotr: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsRotr(x, y) },
	wasm.OpcodeI64Rotr: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsRotr(x, y) },

	wasm.OpcodeF32Add:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFadd(x, y) },
	wasm.OpcodeF64Add:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFadd(x, y) },
	wasm.OpcodeF32Sub:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFsub(x, y) },
	wasm.OpcodeF64Sub:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFsub(x, y) },
	wasm.OpcodeF32Mul:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmul(x, y) },
	wasm.OpcodeF64Mul:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmul(x, y) },
	wasm.OpcodeF32Div:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFdiv(x, y) },
	wasm.OpcodeF64Div:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFdiv(x, y) },
	wasm.OpcodeF32Min:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmin(x, y) },
	wasm.OpcodeF64Min:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmin(x, y) },
	wasm.OpcodeF32Max:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmax(x, y) },
	wasm.OpcodeF64Max:      func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFmax(x, y) },
	wasm.OpcodeF32Copysign: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFcopysign(x, y) },
	wasm.OpcodeF64Copysign: func(_ ssa.Builder, i *ssa.Instruction, x, y ssa.Value) { i.AsFcopysign(x, y) },
}

type unOp func(i *ssa.Instruction, x ssa.Value)

var unOps = map[wasm.Opcode]unOp{
	wasm.OpcodeI32Clz:    func(i *ssa.Instruction, x ssa.Value) { i.AsClz(x) },
	wasm.OpcodeI64Clz:    func(i *ssa.Instruction, x ssa.Value) { i.AsClz(x) },
	wasm.OpcodeI32Ctz:    func(i *ssa.Instruction, x ssa.Value) { i.AsCtz(x) },
	wasm.OpcodeI64Ctz:    func(i *ssa.Instruction, x ssa.Value) { i.AsCtz(x) },
	wasm.OpcodeI32Popcnt: func(i *ssa.Instruction, x ssa.Value) { i.AsPopcnt(x) },
	wasm.OpcodeI64Popcnt: func(i *ssa.Instruction, x ssa.Value) { i.AsPopcnt(x) },

	wasm.OpcodeF32Abs:     func(i *ssa.Instruction, x ssa.Value) { i.AsFabs(x) },
	wasm.OpcodeF64Abs:     func(i *ssa.Instruction, x ssa.Value) { i.AsFabs(x) },
	wasm.OpcodeF32Neg:     func(i *ssa.Instruction, x ssa.Value) { i.AsFneg(x) },
	wasm.OpcodeF64Neg:     func(i *ssa.Instruction, x ssa.Value) { i.AsFneg(x) },
	wasm.OpcodeF32Sqrt:    func(i *ssa.Instruction, x ssa.Value) { i.AsSqrt(x) },
	wasm.OpcodeF64Sqrt:    func(i *ssa.Instruction, x ssa.Value) { i.AsSqrt(x) },
	wasm.OpcodeF32Ceil:    func(i *ssa.Instruction, x ssa.Value) { i.AsCeil(x) },
	wasm.OpcodeF64Ceil:    func(i *ssa.Instruction, x ssa.Value) { i.AsCeil(x) },
	wasm.OpcodeF32Floor:   func(i *ssa.Instruction, x ssa.Value) { i.AsFloor(x) },
	wasm.OpcodeF64Floor:   func(i *ssa.Instruction, x ssa.Value) { i.AsFloor(x) },
	wasm.OpcodeF32Trunc:   func(i *ssa.Instruction, x ssa.Value) { i.AsTrunc(x) },
	wasm.OpcodeF64Trunc:   func(i *ssa.Instruction, x ssa.Value) { i.AsTrunc(x) },
	wasm.OpcodeF32Nearest: func(i *ssa.Instruction, x ssa.Value) { i.AsNearest(x) },
	wasm.OpcodeF64Nearest: func(i *ssa.Instruction, x ssa.Value) { i.AsNearest(x) },
}

type cmpOp struct {
	isFloat bool
	icond   ssa.IntegerCmpCond
	fcond   ssa.FloatCmpCond
}

var cmpOps = map[wasm.Opcode]cmpOp{
	wasm.OpcodeI32Eqz: {icond: ssa.IntegerCmpCondEqual}, // special-cased: compares against zero
	wasm.OpcodeI64Eqz: {icond: ssa.IntegerCmpCondEqual},

	wasm.OpcodeI32Eq:  {icond: ssa.IntegerCmpCondEqual},
	wasm.OpcodeI64Eq:  {icond: ssa.IntegerCmpCondEqual},
	wasm.OpcodeI32Ne:  {icond: ssa.IntegerCmpCondNotEqual},
	wasm.OpcodeI64Ne:  {icond: ssa.IntegerCmpCondNotEqual},
	wasm.OpcodeI32LtS: {icond: ssa.IntegerCmpCondSignedLessThan},
	wasm.OpcodeI64LtS: {icond: ssa.IntegerCmpCondSignedLessThan},
	wasm.OpcodeI32LtU: {icond: ssa.IntegerCmpCondUnsignedLessThan},
	wasm.OpcodeI64LtU: {icond: ssa.IntegerCmpCondUnsignedLessThan},
	wasm.OpcodeI32GtS: {icond: ssa.IntegerCmpCondSignedGreaterThan},
	wasm.OpcodeI64GtS: {icond: ssa.IntegerCmpCondSignedGreaterThan},
	wasm.OpcodeI32GtU: {icond: ssa.IntegerCmpCondUnsignedGreaterThan},
	wasm.OpcodeI64GtU: {icond: ssa.IntegerCmpCondUnsignedGreaterThan},
	wasm.OpcodeI32LeS: {icond: ssa.IntegerCmpCondSignedLessThanOrEqual},
	wasm.OpcodeI64LeS: {icond: ssa.IntegerCmpCondSignedLessThanOrEqual},
	wasm.OpcodeI32LeU: {icond: ssa.IntegerCmpCondUnsignedLessThanOrEqual},
	wasm.OpcodeI64LeU: {icond: ssa.IntegerCmpCondUnsignedLessThanOrEqual},
	wasm.OpcodeI32GeS: {icond: ssa.IntegerCmpCondSignedGreaterThanOrEqual},
	wasm.OpcodeI64GeS: {icond: ssa.IntegerCmpCondSignedGreaterThanOrEqual},
	wasm.OpcodeI32GeU: {icond: ssa.IntegerCmpCondUnsignedGreaterThanOrEqual},
	wasm.OpcodeI64GeU: {icond: ssa.IntegerCmpCondUnsignedGreaterThanOrEqual},

	wasm.OpcodeF32Eq: {isFloat: true, fcond: ssa.FloatCmpCondEqual},
	wasm.OpcodeF64Eq: {isFloat: true, fcond: ssa.FloatCmpCondEqual},
	wasm.OpcodeF32Ne: {isFloat: true, fcond: ssa.FloatCmpCondNotEqual},
	wasm.OpcodeF64Ne: {isFloat: true, fcond: ssa.FloatCmpCondNotEqual},
	wasm.OpcodeF32Lt: {isFloat: true, fcond: ssa.FloatCmpCondLessThan},
	wasm.OpcodeF64Lt: {isFloat: true, fcond: ssa.FloatCmpCondLessThan},
	wasm.OpcodeF32Gt: {isFloat: true, fcond: ssa.FloatCmpCondGreaterThan},
	wasm.OpcodeF64Gt: {isFloat: true, fcond: ssa.FloatCmpCondGreaterThan},
	wasm.OpcodeF32Le: {isFloat: true, fcond: ssa.FloatCmpCondLessThanOrEqual},
	wasm.OpcodeF64Le: {isFloat: true, fcond: ssa.FloatCmpCondLessThanOrEqual},
	wasm.OpcodeF32Ge: {isFloat: true, fcond: ssa.FloatCmpCondGreaterThanOrEqual},
	wasm.OpcodeF64Ge: {isFloat: true, fcond: ssa.FloatCmpCondGreaterThanOrEqual},
}

func (fc *FunctionCompiler) compileNumeric(op wasm.Opcode) error {
	if fn, ok := binOps[op]; ok {
		y := fc.pop()
		x := fc.pop()
		instr := fc.b.AllocateInstruction()
		fn(fc.b, instr, x, y)
		fc.b.InsertInstruction(instr)
		fc.push(instr.Return())
		return nil
	}
	if fn, ok := unOps[op]; ok {
		x := fc.pop()
		instr := fc.b.AllocateInstruction()
		fn(instr, x)
		fc.b.InsertInstruction(instr)
		fc.push(instr.Return())
		return nil
	}
	if c, ok := cmpOps[op]; ok {
		return fc.compileCmp(op, c)
	}
	return fc.compileConversion(op)
}

func (fc *FunctionCompiler) compileCmp(op wasm.Opcode, c cmpOp) error {
	var x, y ssa.Value
	switch op {
	case wasm.OpcodeI32Eqz:
		x, y = fc.pop(), fc.constI32(0)
	case wasm.OpcodeI64Eqz:
		x, y = fc.pop(), fc.constI64(0)
	default:
		y = fc.pop()
		x = fc.pop()
	}
	instr := fc.b.AllocateInstruction()
	if c.isFloat {
		instr.AsFcmp(x, y, c.fcond)
	} else {
		instr.AsIcmp(x, y, c.icond)
	}
	fc.b.InsertInstruction(instr)
	fc.push(instr.Return())
	return nil
}

func (fc *FunctionCompiler) compileConversion(op wasm.Opcode) error {
	x := fc.pop()
	instr := fc.b.AllocateInstruction()
	switch op {
	case wasm.OpcodeI32WrapI64:
		instr.AsIreduce(x, ssa.TypeI32)
	case wasm.OpcodeI64ExtendI32S:
		instr.AsSExtend(x, 32, 64)
	case wasm.OpcodeI64ExtendI32U:
		instr.AsUExtend(x, 32, 64)
	case wasm.OpcodeI32Extend8S:
		instr.AsSExtend(x, 8, 32)
	case wasm.OpcodeI32Extend16S:
		instr.AsSExtend(x, 16, 32)
	case wasm.OpcodeI64Extend8S:
		instr.AsSExtend(x, 8, 64)
	case wasm.OpcodeI64Extend16S:
		instr.AsSExtend(x, 16, 64)
	case wasm.OpcodeI64Extend32S:
		instr.AsSExtend(x, 32, 64)

	case wasm.OpcodeI32TruncF32S:
		instr.AsFcvtToInt(x, x, true, false, false)
	case wasm.OpcodeI32TruncF32U:
		instr.AsFcvtToInt(x, x, false, false, false)
	case wasm.OpcodeI32TruncF64S:
		instr.AsFcvtToInt(x, x, true, false, false)
	case wasm.OpcodeI32TruncF64U:
		instr.AsFcvtToInt(x, x, false, false, false)
	case wasm.OpcodeI64TruncF32S:
		instr.AsFcvtToInt(x, x, true, true, false)
	case wasm.OpcodeI64TruncF32U:
		instr.AsFcvtToInt(x, x, false, true, false)
	case wasm.OpcodeI64TruncF64S:
		instr.AsFcvtToInt(x, x, true, true, false)
	case wasm.OpcodeI64TruncF64U:
		instr.AsFcvtToInt(x, x, false, true, false)

	case wasm.OpcodeF32ConvertI32S, wasm.OpcodeF32ConvertI64S:
		instr.AsFcvtFromInt(x, true, false)
	case wasm.OpcodeF32ConvertI32U, wasm.OpcodeF32ConvertI64U:
		instr.AsFcvtFromInt(x, false, false)
	case wasm.OpcodeF64ConvertI32S, wasm.OpcodeF64ConvertI64S:
		instr.AsFcvtFromInt(x, true, true)
	case wasm.OpcodeF64ConvertI32U, wasm.OpcodeF64ConvertI64U:
		instr.AsFcvtFromInt(x, false, true)

	case wasm.OpcodeF32DemoteF64:
		instr.AsFdemote(x)
	case wasm.OpcodeF64PromoteF32:
		instr.AsFpromote(x)

	case wasm.OpcodeI32ReinterpretF32:
		instr.AsBitcast(x, ssa.TypeI32)
	case wasm.OpcodeI64ReinterpretF64:
		instr.AsBitcast(x, ssa.TypeI64)
	case wasm.OpcodeF32ReinterpretI32:
		instr.AsBitcast(x, ssa.TypeF32)
	case wasm.OpcodeF64ReinterpretI64:
		instr.AsBitcast(x, ssa.TypeF64)
	}
	fc.b.InsertInstruction(instr)
	fc.push(instr.Return())
	return nil
}

// ---- bulk memory/table ops (spec.md §4.2.3, misc sub-opcode space) -------
//
// Every wasm.OpcodeMisc* opcode maps 1:1 onto an Intrinsic (spec.md §4.6):
// compiled code never manipulates memory/table growth or bulk copies
// directly, it calls through the process-wide intrinsics table exactly
// like a host import.

func (fc *FunctionCompiler) compileMisc(dec *decoder) error {
	sub, err := dec.u32()
	if err != nil {
		return err
	}
	switch wasm.OpcodeMisc(sub) {
	case wasm.OpcodeMiscMemoryCopy:
		dec.pc += 2 // two reserved memory-index bytes
		n, src, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicMemCopy, []ssa.Value{dst, src, n}, typeNone)
	case wasm.OpcodeMiscMemoryFill:
		dec.pc++
		n, val, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicMemFill, []ssa.Value{dst, val, n}, typeNone)
	case wasm.OpcodeMiscMemoryInit:
		dataIdx, err := dec.u32()
		if err != nil {
			return err
		}
		dec.pc++ // reserved memory-index byte
		n, src, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicMemInit, []ssa.Value{fc.constI64(int64(dataIdx)), dst, src, n}, typeNone)
	case wasm.OpcodeMiscDataDrop:
		dataIdx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileIntrinsicCall(IntrinsicDataDrop, []ssa.Value{fc.constI64(int64(dataIdx))}, typeNone)
	case wasm.OpcodeMiscTableGrow:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		n, val := fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicTableGrow, []ssa.Value{fc.constI64(int64(idx)), val, n}, ssa.TypeI32)
	case wasm.OpcodeMiscTableSize:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileIntrinsicCall(IntrinsicTableSize, []ssa.Value{fc.constI64(int64(idx))}, ssa.TypeI32)
	case wasm.OpcodeMiscTableFill:
		idx, err := dec.u32()
		if err != nil {
			return err
		}
		n, val, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicTableFill, []ssa.Value{fc.constI64(int64(idx)), dst, val, n}, typeNone)
	case wasm.OpcodeMiscTableCopy:
		dstIdx, err := dec.u32()
		if err != nil {
			return err
		}
		srcIdx, err := dec.u32()
		if err != nil {
			return err
		}
		n, src, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicTableCopy,
			[]ssa.Value{fc.constI64(int64(dstIdx)), fc.constI64(int64(srcIdx)), dst, src, n}, typeNone)
	case wasm.OpcodeMiscTableInit:
		elemIdx, err := dec.u32()
		if err != nil {
			return err
		}
		tableIdx, err := dec.u32()
		if err != nil {
			return err
		}
		n, src, dst := fc.pop(), fc.pop(), fc.pop()
		return fc.compileIntrinsicCall(IntrinsicTableInit,
			[]ssa.Value{fc.constI64(int64(tableIdx)), fc.constI64(int64(elemIdx)), dst, src, n}, typeNone)
	case wasm.OpcodeMiscElemDrop:
		elemIdx, err := dec.u32()
		if err != nil {
			return err
		}
		return fc.compileIntrinsicCall(IntrinsicElemDrop, []ssa.Value{fc.constI64(int64(elemIdx))}, typeNone)
	case wasm.OpcodeMiscI32TruncSatF32S:
		return fc.compileSatTrunc(true, false)
	case wasm.OpcodeMiscI32TruncSatF32U:
		return fc.compileSatTrunc(false, false)
	case wasm.OpcodeMiscI32TruncSatF64S:
		return fc.compileSatTrunc(true, false)
	case wasm.OpcodeMiscI32TruncSatF64U:
		return fc.compileSatTrunc(false, false)
	case wasm.OpcodeMiscI64TruncSatF32S:
		return fc.compileSatTrunc(true, true)
	case wasm.OpcodeMiscI64TruncSatF32U:
		return fc.compileSatTrunc(false, true)
	case wasm.OpcodeMiscI64TruncSatF64S:
		return fc.compileSatTrunc(true, true)
	case wasm.OpcodeMiscI64TruncSatF64U:
		return fc.compileSatTrunc(false, true)
	}
	return fmt.Errorf("unsupported misc opcode 0x%02x", sub)
}

// compileSatTrunc lowers one i32/i64.trunc_sat_f32/f64_s/u opcode. The
// source width (f32 vs f64) needs no distinct handling here: AsFcvtToInt
// reads it off x's own ssa.Type.
func (fc *FunctionCompiler) compileSatTrunc(signed, dst64bit bool) error {
	x := fc.pop()
	instr := fc.b.AllocateInstruction()
	instr.AsFcvtToInt(x, x, signed, dst64bit, true)
	fc.b.InsertInstruction(instr)
	fc.push(instr.Return())
	return nil
}

func (fc *FunctionCompiler) compileTableGetSet(op wasm.Opcode, dec *decoder) error {
	idx, err := dec.u32()
	if err != nil {
		return err
	}
	if op == wasm.OpcodeTableGet {
		elemIdx := fc.pop()
		return fc.compileIntrinsicCall(IntrinsicTableGet, []ssa.Value{fc.constI64(int64(idx)), elemIdx}, ssa.TypeI64)
	}
	val := fc.pop()
	elemIdx := fc.pop()
	return fc.compileIntrinsicCall(IntrinsicTableSet, []ssa.Value{fc.constI64(int64(idx)), elemIdx, val}, typeNone)
}
