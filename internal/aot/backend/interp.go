package backend

import (
	"math"
	"math/bits"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

// Executable is the lowered form of one compiled function. Its "machine
// code" is the finalized SSA instruction stream itself, walked directly by
// Invoke; there is no separate bytecode or native encoding step. This keeps
// every SSA opcode the Function Compiler emits reachable and testable
// without a second, parallel instruction set to keep in sync.
//
// An Executable is either SSA-backed (sig/entry/blocksByID set, the normal
// case for a compiled Wasm function) or native-backed (native set, used for
// the ABI import trampolines wrapper.go builds and the intrinsic/global
// accessor stubs Context assigns synthetic FuncRefs to). Invoke dispatches on
// which is present.
type Executable struct {
	sig        *ssa.Signature
	entry      ssa.BasicBlock
	blocksByID map[ssa.BasicBlockID]ssa.BasicBlock
	callTarget CallTarget

	native NativeFunc

	// costKeyOf tags the subset of this function's *ssa.Instruction values
	// that correspond 1:1 to a lowered Wasm opcode, so gas can be charged
	// against the real cost_table entry that opcode carries at run time
	// rather than a flat per-SSA-instruction cost (spec.md §4.2.4).
	costKeyOf map[*ssa.Instruction]uint16
}

// NativeFunc is a Go-implemented callee: the shape every intrinsic stub,
// ExecCtx global accessor and host-import trampoline uses in place of an SSA
// body.
type NativeFunc func(execCtx ExecContext, args []uint64) Result

// NewNative wraps fn as a callable Executable with no SSA body. sig is
// informational only (Signature callers may inspect it); the interpreter
// never type-checks against it at call time.
func NewNative(sig *ssa.Signature, fn NativeFunc) *Executable {
	return &Executable{sig: sig, native: fn}
}

// SetCostKeys installs the per-instruction cost-key tags a Function Compiler
// recorded while lowering. Safe to call at most once, before the Executable
// is ever Invoke'd.
func (e *Executable) SetCostKeys(m map[*ssa.Instruction]uint16) { e.costKeyOf = m }

// Signature returns the signature Invoke expects its args/results to match.
func (e *Executable) Signature() *ssa.Signature { return e.sig }

// Result is what Invoke returns: either a slice of raw result words, or a
// trap code, never both.
type Result struct {
	Values  []uint64
	Trapped bool
	Trap    aotapi.TrapCode
}

type interpEmitter struct {
	callTarget CallTarget
}

// NewEmitter returns the sole CodeEmitter implementation this package
// provides: one that interprets the SSA graph in place. callTarget resolves
// call/call_indirect sites, including the synthetic FuncRefs the Function
// Compiler uses for intrinsics and global accessors.
func NewEmitter(callTarget CallTarget) CodeEmitter {
	return &interpEmitter{callTarget: callTarget}
}

// Emit implements CodeEmitter.
func (e *interpEmitter) Emit(b ssa.Builder, sig *ssa.Signature) (*Executable, error) {
	ex := &Executable{
		sig:        sig,
		blocksByID: make(map[ssa.BasicBlockID]ssa.BasicBlock, b.Blocks()),
		callTarget: e.callTarget,
	}
	first := true
	for blk := b.BlockIteratorReversePostOrderBegin(); blk != nil; blk = b.BlockIteratorReversePostOrderNext() {
		ex.blocksByID[blk.ID()] = blk
		if first {
			ex.entry = blk
			first = false
		}
	}
	return ex, nil
}

// frame is one activation record of the interpreter: the live SSA value
// bindings for the function currently executing.
type frame struct {
	vals map[ssa.ValueID][2]uint64
}

func newFrame() *frame { return &frame{vals: make(map[ssa.ValueID][2]uint64, 32)} }

func (f *frame) set(v ssa.Value, lo, hi uint64) { f.vals[v.ID()] = [2]uint64{lo, hi} }
func (f *frame) get(v ssa.Value) (lo, hi uint64) {
	p := f.vals[v.ID()]
	return p[0], p[1]
}
func (f *frame) get1(v ssa.Value) uint64 { lo, _ := f.get(v); return lo }

// Invoke runs the function with the given argument words (one per
// ssa.Signature.Param, V128 args occupying two consecutive words) against
// execCtx. It returns either the result words (likewise V128-doubled) or a
// trap.
func (e *Executable) Invoke(args []uint64, execCtx ExecContext) Result {
	if e.native != nil {
		return e.native(execCtx, args)
	}

	fr := newFrame()
	blk := e.entry
	ai := 0
	for i := 0; i < blk.Params(); i++ {
		p := blk.Param(i)
		if p.Type() == ssa.TypeV128 {
			fr.set(p, args[ai], args[ai+1])
			ai += 2
		} else {
			fr.set(p, args[ai], 0)
			ai++
		}
	}

	var pendingArgs []ssa.Value
	var pendingTarget ssa.BasicBlock

	for {
		// Every structured control entry (function entry plus each
		// branch target, which is where Wasm block/loop bodies land
		// once lowered) is a cooperative interrupt checkpoint per
		// spec.md §5. Gas is not flushed here: it is charged per
		// tagged instruction in the loop below.
		if execCtx.CheckInterrupt() {
			return trapResult(aotapi.TrapCodeInterrupted)
		}
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			if e.costKeyOf != nil {
				if key, ok := e.costKeyOf[instr]; ok {
					if execCtx.ConsumeGas(execCtx.CostOf(key)) {
						return trapResult(aotapi.TrapCodeCostLimitExceeded)
					}
				}
			}
			switch instr.Opcode() {
			case ssa.OpcodeJump:
				vs, _, target := instr.BranchData()
				pendingArgs, pendingTarget = vs, target
				goto branch
			case ssa.OpcodeBrz, ssa.OpcodeBrnz:
				cond, vs, target := instr.BranchData()
				c := fr.get1(cond) != 0
				if (instr.Opcode() == ssa.OpcodeBrnz) == c {
					pendingArgs, pendingTarget = vs, target
					goto branch
				}
			case ssa.OpcodeBrTable:
				idx, targets := instr.BrTableData()
				n := fr.get1(idx)
				if int(n) >= len(targets) {
					n = uint64(len(targets) - 1)
				}
				pendingArgs, pendingTarget = nil, targets[n]
				goto branch
			case ssa.OpcodeReturn:
				rvs := instr.ReturnVals()
				out := make([]uint64, 0, len(rvs)*2)
				for _, rv := range rvs {
					lo, hi := fr.get(rv)
					out = append(out, lo)
					if rv.Type() == ssa.TypeV128 {
						out = append(out, hi)
					}
				}
				return Result{Values: out}
			case ssa.OpcodeExitWithCode:
				_, code := instr.ExitWithCodeData()
				return exitResult(code)
			case ssa.OpcodeExitIfTrueWithCode:
				_, c, code := instr.ExitIfTrueWithCodeData()
				if fr.get1(c) != 0 {
					return exitResult(code)
				}
			default:
				if trap, ok := e.step(instr, fr, execCtx); !ok {
					return trapResult(trap)
				}
			}
		}
		return Result{}

	branch:
		next, ok := e.blocksByID[pendingTarget.ID()]
		if !ok {
			next = pendingTarget
		}
		for i, v := range pendingArgs {
			p := next.Param(i)
			lo, hi := fr.get(v)
			fr.set(p, lo, hi)
		}
		blk = next
	}
}

func trapResult(t aotapi.TrapCode) Result { return Result{Trapped: true, Trap: t} }

func exitResult(code aotapi.ExitCode) Result {
	if code == aotapi.ExitCodeOK {
		return Result{}
	}
	if aotapi.ExitCode(code&0xff) == aotapi.ExitCodeTrap {
		return trapResult(aotapi.TrapCodeFromExitCode(code))
	}
	// ExitCodeGrowStack / ExitCodeCallGoFunction are VM re-entrancy hooks
	// outside the compiler's scope; surface them as an unreachable trap
	// rather than silently treating them as success.
	return trapResult(aotapi.TrapCodeUnreachable)
}

// step executes one non-branching, non-terminating instruction, binding its
// result(s) into fr. ok is false iff the instruction trapped.
func (e *Executable) step(instr *ssa.Instruction, fr *frame, execCtx ExecContext) (aotapi.TrapCode, bool) {
	ret := instr.Return()
	switch instr.Opcode() {
	case ssa.OpcodeIconst:
		fr.set(ret, instr.ConstantVal(), 0)
	case ssa.OpcodeF32const, ssa.OpcodeF64const:
		fr.set(ret, instr.ConstantVal(), 0)
	case ssa.OpcodeVconst:
		lo, hi := instr.VconstData()
		fr.set(ret, lo, hi)

	case ssa.OpcodeIadd:
		x, y := instr.Arg2()
		fr.set(ret, mask(fr.get1(x)+fr.get1(y), ret.Type()), 0)
	case ssa.OpcodeIsub:
		x, y := instr.Arg2()
		fr.set(ret, mask(fr.get1(x)-fr.get1(y), ret.Type()), 0)
	case ssa.OpcodeImul:
		x, y := instr.Arg2()
		fr.set(ret, mask(fr.get1(x)*fr.get1(y), ret.Type()), 0)

	case ssa.OpcodeSdiv, ssa.OpcodeUdiv, ssa.OpcodeSrem, ssa.OpcodeUrem:
		x, y, _ := instr.Arg3()
		xv, yv := fr.get1(x), fr.get1(y)
		if yv == 0 {
			return aotapi.TrapCodeDivideByZero, false
		}
		wide := ret.Type() == ssa.TypeI64
		switch instr.Opcode() {
		case ssa.OpcodeSdiv:
			sx, sy := toSigned(xv, wide), toSigned(yv, wide)
			if isOverflowingSDiv(sx, sy, wide) {
				return aotapi.TrapCodeIntegerOverflow, false
			}
			fr.set(ret, mask(uint64(sx/sy), ret.Type()), 0)
		case ssa.OpcodeUdiv:
			fr.set(ret, mask(xv/yv, ret.Type()), 0)
		case ssa.OpcodeSrem:
			sx, sy := toSigned(xv, wide), toSigned(yv, wide)
			fr.set(ret, mask(uint64(sx%sy), ret.Type()), 0)
		case ssa.OpcodeUrem:
			fr.set(ret, mask(xv%yv, ret.Type()), 0)
		}

	case ssa.OpcodeBand:
		x, y := instr.Arg2()
		fr.set(ret, fr.get1(x)&fr.get1(y), 0)
	case ssa.OpcodeBor:
		x, y := instr.Arg2()
		fr.set(ret, fr.get1(x)|fr.get1(y), 0)
	case ssa.OpcodeBxor:
		x, y := instr.Arg2()
		fr.set(ret, fr.get1(x)^fr.get1(y), 0)
	case ssa.OpcodeIshl:
		x, amt := instr.Arg2()
		fr.set(ret, mask(fr.get1(x)<<(fr.get1(amt)&shiftMask(ret.Type())), ret.Type()), 0)
	case ssa.OpcodeUshr:
		x, amt := instr.Arg2()
		fr.set(ret, mask(fr.get1(x)>>(fr.get1(amt)&shiftMask(ret.Type())), ret.Type()), 0)
	case ssa.OpcodeSshr:
		x, amt := instr.Arg2()
		wide := ret.Type() == ssa.TypeI64
		sx := toSigned(fr.get1(x), wide)
		fr.set(ret, mask(uint64(sx>>(fr.get1(amt)&shiftMask(ret.Type()))), ret.Type()), 0)
	case ssa.OpcodeRotl:
		x, amt := instr.Arg2()
		fr.set(ret, rotl(fr.get1(x), fr.get1(amt), ret.Type()), 0)
	case ssa.OpcodeRotr:
		x, amt := instr.Arg2()
		fr.set(ret, rotlSigned(fr.get1(x), -int64(fr.get1(amt)), ret.Type()), 0)

	case ssa.OpcodeClz:
		x := instr.Arg()
		if x.Type() == ssa.TypeI64 {
			fr.set(ret, uint64(bits.LeadingZeros64(fr.get1(x))), 0)
		} else {
			fr.set(ret, uint64(bits.LeadingZeros32(uint32(fr.get1(x)))), 0)
		}
	case ssa.OpcodeCtz:
		x := instr.Arg()
		if x.Type() == ssa.TypeI64 {
			fr.set(ret, uint64(bits.TrailingZeros64(fr.get1(x))), 0)
		} else {
			fr.set(ret, uint64(bits.TrailingZeros32(uint32(fr.get1(x)))), 0)
		}
	case ssa.OpcodePopcnt:
		x := instr.Arg()
		fr.set(ret, uint64(bits.OnesCount64(fr.get1(x))), 0)

	case ssa.OpcodeIcmp:
		x, y, c := instr.IcmpData()
		fr.set(ret, boolWord(evalIcmp(c, fr.get1(x), fr.get1(y), x.Type() == ssa.TypeI64)), 0)
	case ssa.OpcodeFcmp:
		x, y, c := instr.FcmpData()
		fr.set(ret, boolWord(evalFcmp(c, asF64(fr.get1(x), x.Type()), asF64(fr.get1(y), x.Type()))), 0)

	case ssa.OpcodeFadd, ssa.OpcodeFsub, ssa.OpcodeFmul, ssa.OpcodeFdiv, ssa.OpcodeFmin, ssa.OpcodeFmax, ssa.OpcodeFcopysign:
		x, y := instr.Arg2()
		a, b := asF64(fr.get1(x), x.Type()), asF64(fr.get1(y), x.Type())
		var r float64
		switch instr.Opcode() {
		case ssa.OpcodeFadd:
			r = a + b
		case ssa.OpcodeFsub:
			r = a - b
		case ssa.OpcodeFmul:
			r = a * b
		case ssa.OpcodeFdiv:
			r = a / b
		case ssa.OpcodeFmin:
			r = wasmFmin(a, b)
		case ssa.OpcodeFmax:
			r = wasmFmax(a, b)
		case ssa.OpcodeFcopysign:
			r = math.Copysign(a, b)
		}
		fr.set(ret, fromF64(r, ret.Type()), 0)
	case ssa.OpcodeCeil, ssa.OpcodeFloor, ssa.OpcodeTrunc, ssa.OpcodeNearest, ssa.OpcodeSqrt, ssa.OpcodeFneg, ssa.OpcodeFabs:
		x := instr.Arg()
		a := asF64(fr.get1(x), x.Type())
		var r float64
		switch instr.Opcode() {
		case ssa.OpcodeCeil:
			r = math.Ceil(a)
		case ssa.OpcodeFloor:
			r = math.Floor(a)
		case ssa.OpcodeTrunc:
			r = math.Trunc(a)
		case ssa.OpcodeNearest:
			r = math.RoundToEven(a)
		case ssa.OpcodeSqrt:
			r = math.Sqrt(a)
		case ssa.OpcodeFneg:
			r = -a
		case ssa.OpcodeFabs:
			r = math.Abs(a)
		}
		fr.set(ret, fromF64(r, ret.Type()), 0)

	case ssa.OpcodeBitcast:
		x, _ := instr.BitcastData()
		fr.set(ret, fr.get1(x), 0)
	case ssa.OpcodeFdemote:
		x := instr.Arg()
		fr.set(ret, fromF64(asF64(fr.get1(x), ssa.TypeF64), ssa.TypeF32), 0)
	case ssa.OpcodeFpromote:
		x := instr.Arg()
		fr.set(ret, fromF64(asF64(fr.get1(x), ssa.TypeF32), ssa.TypeF64), 0)
	case ssa.OpcodeFcvtFromSint, ssa.OpcodeFcvtFromUint:
		x := instr.Arg()
		wide := x.Type() == ssa.TypeI64
		var f float64
		if instr.Opcode() == ssa.OpcodeFcvtFromSint {
			f = float64(toSigned(fr.get1(x), wide))
		} else {
			f = float64(fr.get1(x))
		}
		fr.set(ret, fromF64(f, ret.Type()), 0)
	case ssa.OpcodeFcvtToSint, ssa.OpcodeFcvtToUint, ssa.OpcodeFcvtToSintSat, ssa.OpcodeFcvtToUintSat:
		x, _ := instr.Arg2()
		a := asF64(fr.get1(x), x.Type())
		sat := instr.Opcode() == ssa.OpcodeFcvtToSintSat || instr.Opcode() == ssa.OpcodeFcvtToUintSat
		signed := instr.Opcode() == ssa.OpcodeFcvtToSint || instr.Opcode() == ssa.OpcodeFcvtToSintSat
		v, trapped := truncToInt(a, signed, ret.Type() == ssa.TypeI64, sat)
		if trapped {
			return aotapi.TrapCodeInvalidConvToInt, false
		}
		fr.set(ret, v, 0)
	case ssa.OpcodeSExtend, ssa.OpcodeUExtend:
		x := instr.Arg()
		from, _, signed := instr.ExtendData()
		v := fr.get1(x)
		if signed {
			v = uint64(signExtend(v, from))
		} else {
			v &= (uint64(1) << from) - 1
		}
		fr.set(ret, mask(v, ret.Type()), 0)
	case ssa.OpcodeIreduce:
		x, _, _, _ := instr.Args()
		fr.set(ret, mask(fr.get1(x), ret.Type()), 0)

	case ssa.OpcodeSelect:
		c, x, y := instr.SelectData()
		if fr.get1(c) != 0 {
			lo, hi := fr.get(x)
			fr.set(ret, lo, hi)
		} else {
			lo, hi := fr.get(y)
			fr.set(ret, lo, hi)
		}

	case ssa.OpcodeLoad, ssa.OpcodeUload8, ssa.OpcodeSload8, ssa.OpcodeUload16, ssa.OpcodeSload16, ssa.OpcodeUload32, ssa.OpcodeSload32:
		ptr, offset, typ := instr.LoadData()
		mem := execCtx.Memory(0)
		addr := uint64(uint32(fr.get1(ptr))) + uint64(offset)
		sz := loadSize(instr.Opcode(), typ)
		if addr+uint64(sz) > uint64(len(mem.Data)) {
			return aotapi.TrapCodeMemoryOutOfBounds, false
		}
		v := readLE(mem.Data, addr, sz)
		if isSignedLoad(instr.Opcode()) {
			v = uint64(signExtend(v, byte(sz*8)))
		}
		fr.set(ret, mask(v, typ), 0)
	case ssa.OpcodeStore, ssa.OpcodeIstore8, ssa.OpcodeIstore16, ssa.OpcodeIstore32:
		value, ptr, offset, sizeBits := instr.StoreData()
		mem := execCtx.Memory(0)
		addr := uint64(uint32(fr.get1(ptr))) + uint64(offset)
		sz := int(sizeBits) / 8
		if addr+uint64(sz) > uint64(len(mem.Data)) {
			return aotapi.TrapCodeMemoryOutOfBounds, false
		}
		writeLE(mem.Data, addr, sz, fr.get1(value))

	case ssa.OpcodeCall:
		ref, _, argVals := instr.CallData()
		target := e.callTarget.ResolveDirect(ref)
		out := e.invokeCallee(target, argVals, fr, execCtx)
		if out.Trapped {
			return out.Trap, false
		}
		bindResults(instr, fr, out.Values)
	case ssa.OpcodeCallIndirect:
		funcPtr, sigID, argVals := instr.CallIndirectData()
		target, trap := e.callTarget.ResolveIndirect(uint32(fr.get1(funcPtr)), sigID)
		if target == nil {
			return trap, false
		}
		out := e.invokeCallee(target, argVals, fr, execCtx)
		if out.Trapped {
			return out.Trap, false
		}
		bindResults(instr, fr, out.Values)

	default:
		panic("aot/backend: unsupported opcode in interpreter: " + instr.Opcode().String())
	}
	return 0, true
}

func (e *Executable) invokeCallee(target *Executable, argVals []ssa.Value, fr *frame, execCtx ExecContext) Result {
	words := make([]uint64, 0, len(argVals)*2)
	for _, v := range argVals {
		lo, hi := fr.get(v)
		words = append(words, lo)
		if v.Type() == ssa.TypeV128 {
			words = append(words, hi)
		}
	}
	return target.Invoke(words, execCtx)
}

func bindResults(instr *ssa.Instruction, fr *frame, out []uint64) {
	first, rest := instr.Returns()
	if !first.Valid() {
		return
	}
	i := 0
	setOne := func(v ssa.Value) {
		if v.Type() == ssa.TypeV128 {
			fr.set(v, out[i], out[i+1])
			i += 2
		} else {
			fr.set(v, out[i], 0)
			i++
		}
	}
	setOne(first)
	for _, v := range rest {
		setOne(v)
	}
}
