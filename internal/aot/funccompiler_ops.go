package aot

import (
	"fmt"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func (fc *FunctionCompiler) constI32(v int32) ssa.Value {
	instr := fc.b.AllocateInstruction()
	instr.AsIconst32(uint32(v))
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

func (fc *FunctionCompiler) constI64(v int64) ssa.Value {
	instr := fc.b.AllocateInstruction()
	instr.AsIconst64(uint64(v))
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

func (fc *FunctionCompiler) constF32(v float32) ssa.Value {
	instr := fc.b.AllocateInstruction()
	instr.AsF32const(v)
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

func (fc *FunctionCompiler) constF64(v float64) ssa.Value {
	instr := fc.b.AllocateInstruction()
	instr.AsF64const(v)
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

func (fc *FunctionCompiler) icmp(x, y ssa.Value, c ssa.IntegerCmpCond, _ ssa.Type) ssa.Value {
	instr := fc.b.AllocateInstruction()
	instr.AsIcmp(x, y, c)
	fc.b.InsertInstruction(instr)
	return instr.Return()
}

// ---- structured control flow (spec.md §4.2.1) -----------------------------

// compileStructured handles block/loop/if: allocating the label's target
// block(s), pushing operand-stack args into it for a loop header, and
// pushing a new ctrlFrame. Every label br/br_if/br_table can target is a
// block this function allocated; the only other control-flow blocks are
// br_if's fall-through (emitBrIf) and a loop's end block (allocated at
// `end`).
func (fc *FunctionCompiler) compileStructured(op wasm.Opcode, dec *decoder) error {
	params, results, n := fc.ctx.blockType(dec.buf, dec.pc)
	dec.pc += n

	if fc.unreachable() {
		// Still must balance the frame stack; no SSA is emitted for the
		// header itself, and the body underneath stays unreachable until a
		// boundary (this construct's own `end`) resets it.
		fc.frames = append(fc.frames, ctrlFrame{
			kind:        kindOf(op),
			stackDepth:  len(fc.stack),
			unreachable: true,
			paramTypes:  params,
			resultTypes: results,
		})
		return nil
	}

	args := fc.popN(len(params))

	switch op {
	case wasm.OpcodeBlock:
		end := fc.b.AllocateBasicBlock()
		for _, t := range results {
			end.AddParam(fc.b, t)
		}
		fc.pushFrame(ctrlFrameBlock, end, end, nil, params, results, args)

	case wasm.OpcodeLoop:
		header := fc.b.AllocateBasicBlock()
		for _, t := range params {
			header.AddParam(fc.b, t)
		}
		fc.jump(header, args)
		fc.b.SetCurrentBlock(header)
		// The header's own params are this iteration's (and every future
		// back-edge's) live values, pushed fresh rather than reusing args.
		fc.frames = append(fc.frames, ctrlFrame{
			kind:        ctrlFrameLoop,
			stackDepth:  len(fc.stack),
			jumpBlock:   header,
			nextBlock:   nil, // allocated lazily at `end`
			paramTypes:  params,
			resultTypes: results,
		})
		for i := range params {
			fc.push(header.Param(i))
		}

	case wasm.OpcodeIf:
		cond := fc.pop()
		thenBlk := fc.b.AllocateBasicBlock()
		elseBlk := fc.b.AllocateBasicBlock()
		end := fc.b.AllocateBasicBlock()
		for _, t := range results {
			end.AddParam(fc.b, t)
		}

		brnz := fc.b.AllocateInstruction()
		brnz.AsBrnz(cond, args, thenBlk)
		fc.b.InsertInstruction(brnz)
		jmp := fc.b.AllocateInstruction()
		jmp.AsJump(args, elseBlk)
		fc.b.InsertInstruction(jmp)

		fc.b.Seal(thenBlk)
		fc.b.Seal(elseBlk)
		fc.b.SetCurrentBlock(thenBlk)

		fc.frames = append(fc.frames, ctrlFrame{
			kind:        ctrlFrameIf,
			stackDepth:  len(fc.stack),
			jumpBlock:   end,
			nextBlock:   end,
			elseBlock:   elseBlk,
			elseArgs:    args,
			paramTypes:  params,
			resultTypes: results,
		})
		fc.pushArgsAsParams(thenBlk, params, args)
	}
	return nil
}

// pushFrame is the shared tail of compileStructured's block case: push a
// frame whose body starts in a fresh current block fed directly by args
// (no phis needed — a single predecessor's values remain valid directly).
func (fc *FunctionCompiler) pushFrame(kind ctrlFrameKind, jumpBlk, nextBlk, elseBlk ssa.BasicBlock, params, results []ssa.Type, args []ssa.Value) {
	fc.frames = append(fc.frames, ctrlFrame{
		kind:        kind,
		stackDepth:  len(fc.stack),
		jumpBlock:   jumpBlk,
		nextBlock:   nextBlk,
		elseBlock:   elseBlk,
		paramTypes:  params,
		resultTypes: results,
	})
	for _, v := range args {
		fc.push(v)
	}
}

// pushArgsAsParams re-pushes args for a block whose body is entered via a
// two-branch tail (if's then-branch): the args are exactly what the block
// would have received as params had it had any, but since `if`/`else`
// bodies have only one live predecessor each (the brnz/jump pair, never
// both), no BasicBlock.AddParam is needed for thenBlk/elseBlk themselves.
func (fc *FunctionCompiler) pushArgsAsParams(_ ssa.BasicBlock, _ []ssa.Type, args []ssa.Value) {
	for _, v := range args {
		fc.push(v)
	}
}

func kindOf(op wasm.Opcode) ctrlFrameKind {
	if op == wasm.OpcodeLoop {
		return ctrlFrameLoop
	}
	return ctrlFrameBlock
}

// compileElse switches the current `if` frame over to its else-body: seals
// nothing new (elseBlk was already sealed when `if` was lowered, since it
// has exactly the one predecessor the Brnz/Jump pair gave it), jumps the
// just-finished then-body into the frame's end block if reachable, and
// resumes emission in elseBlk.
func (fc *FunctionCompiler) compileElse() error {
	f := fc.curFrame()
	if f.kind != ctrlFrameIf {
		return fmt.Errorf("else without matching if")
	}
	if !f.unreachable {
		fc.jumpToEnd(f)
	}
	fc.stack = fc.stack[:f.stackDepth]
	elseBlk := f.elseBlock
	f.elseBlock = nil
	f.unreachable = false
	fc.b.SetCurrentBlock(elseBlk)
	for _, v := range f.elseArgs {
		fc.push(v)
	}
	// elseBlk was fed the same args as thenBlk by the Brnz/Jump pair in
	// compileStructured; re-synthesize the operand stack for the else body
	// the same way the then body started (both branches carry identical
	// args, so no new Values exist to thread through — only a FuncCompiler
	// genuinely needing elseBlk's param values would need them materialized
	// via BasicBlock.Param, which AllocateBasicBlock only grants blocks
	// AddParam was called on; elseBlk never had AddParam called since its
	// single predecessor already supplies the exact same Values as thenBlk).
	return nil
}

// compileEnd closes the current frame: if it's still reachable, falls
// through into the frame's jumpBlock/end-equivalent; for `if` without a
// matching `else`, the else branch (never populated) falls straight
// through to end with the original args. The frame's end block's params
// are then pushed as this construct's results.
func (fc *FunctionCompiler) compileEnd() error {
	f := fc.frames[len(fc.frames)-1]

	if f.kind == ctrlFrameIf && f.elseBlock != nil {
		// No `else` appeared: the implicit else block passes its original
		// args straight through to end (valid Wasm requires param types to
		// equal result types in this case), not whatever the then-branch
		// left on the operand stack.
		fc.b.SetCurrentBlock(f.elseBlock)
		fc.jump(f.jumpBlock, f.elseArgs)
	} else if !f.unreachable {
		if f.kind == ctrlFrameFunc {
			fc.emitReturn() // the function-closing `end` is an implicit return
		} else {
			fc.jumpToEnd(&f)
		}
	}

	fc.frames = fc.frames[:len(fc.frames)-1]
	fc.stack = fc.stack[:f.stackDepth]

	if f.kind == ctrlFrameFunc {
		return nil // caller (compileBody) detects len(fc.frames)==0 and stops
	}

	var endBlk ssa.BasicBlock
	if f.kind == ctrlFrameLoop {
		if f.nextBlock == nil {
			f.nextBlock = fc.b.AllocateBasicBlock()
			for _, t := range f.resultTypes {
				f.nextBlock.AddParam(fc.b, t)
			}
		}
		fc.b.Seal(f.jumpBlock) // loop header: all back-edges have now been seen
		endBlk = f.nextBlock
		fc.b.Seal(endBlk) // only the body's fall-through reaches it, and that is emitted
	} else {
		endBlk = f.jumpBlock
		fc.b.Seal(endBlk)
	}

	fc.b.SetCurrentBlock(endBlk)
	for i := 0; i < endBlk.Params(); i++ {
		fc.push(endBlk.Param(i))
	}
	if len(fc.frames) > 0 {
		fc.curFrame().unreachable = false
	}
	return nil
}

// jumpToEnd emits the Jump that falls the current (reachable) block through
// to f's end-equivalent block, carrying the live operand-stack values for
// f.resultTypes as the jump's arguments.
func (fc *FunctionCompiler) jumpToEnd(f *ctrlFrame) {
	target := f.jumpBlock
	if f.kind == ctrlFrameLoop {
		if f.nextBlock == nil {
			f.nextBlock = fc.b.AllocateBasicBlock()
			for _, t := range f.resultTypes {
				f.nextBlock.AddParam(fc.b, t)
			}
		}
		target = f.nextBlock
	}
	args := fc.topN(len(f.resultTypes))
	fc.jump(target, args)
}

func (fc *FunctionCompiler) jump(target ssa.BasicBlock, args []ssa.Value) {
	instr := fc.b.AllocateInstruction()
	instr.AsJump(args, target)
	fc.b.InsertInstruction(instr)
}

func (fc *FunctionCompiler) topN(n int) []ssa.Value {
	if n == 0 {
		return nil
	}
	return append([]ssa.Value(nil), fc.stack[len(fc.stack)-n:]...)
}

func (fc *FunctionCompiler) popN(n int) []ssa.Value {
	v := fc.topN(n)
	fc.stack = fc.stack[:len(fc.stack)-n]
	return v
}

// labelFrame returns the control frame `idx` levels up from the innermost
// (relativeDepth 0 is the innermost enclosing block/loop/if).
func (fc *FunctionCompiler) labelFrame(relativeDepth uint32) *ctrlFrame {
	return &fc.frames[len(fc.frames)-1-int(relativeDepth)]
}

func (fc *FunctionCompiler) emitBr(relativeDepth uint32) {
	f := fc.labelFrame(relativeDepth)
	target := f.jumpBlock
	arity := len(f.paramTypes)
	if f.kind != ctrlFrameLoop {
		arity = len(f.resultTypes)
	}
	args := fc.topN(arity)
	fc.jump(target, args)
}

// emitBrIf lowers br_if by materializing the two-branch tail directly
// (Brnz straight to the label's block with the label's arguments, Jump to a
// fresh "not taken" continuation), matching the same Brnz-then-Jump pairing
// `if` uses.
func (fc *FunctionCompiler) emitBrIf(relativeDepth uint32) error {
	cond := fc.pop()
	f := fc.labelFrame(relativeDepth)
	target := f.jumpBlock
	arity := len(f.paramTypes)
	if f.kind != ctrlFrameLoop {
		arity = len(f.resultTypes)
	}
	args := fc.topN(arity)

	cont := fc.b.AllocateBasicBlock()

	brnz := fc.b.AllocateInstruction()
	brnz.AsBrnz(cond, args, target)
	fc.b.InsertInstruction(brnz)
	jmp := fc.b.AllocateInstruction()
	jmp.AsJump(nil, cont)
	fc.b.InsertInstruction(jmp)

	fc.b.Seal(cont)
	fc.b.SetCurrentBlock(cont)
	return nil
}

// compileBrTable lowers br_table. ssa.OpcodeBrTable's targets carry no
// per-branch argument list (BrTableData returns only the index and the
// target blocks, and backend/interp.go's dispatch always treats a br_table
// jump as zero-argument), so this lowering is only correct for switches
// whose every label is value-less — the overwhelmingly common shape (a
// `match`/`switch` compiled to Wasm dispatching on an enum with blocks that
// produce no result). A br_table whose labels carry a value is out of
// scope; see DESIGN.md.
func (fc *FunctionCompiler) compileBrTable(dec *decoder) error {
	n, err := dec.u32()
	if err != nil {
		return err
	}
	targets := make([]uint32, n+1)
	for i := range targets {
		v, err := dec.u32()
		if err != nil {
			return err
		}
		targets[i] = v
	}
	idx := fc.pop()

	blocks := make([]ssa.BasicBlock, len(targets))
	for i, depth := range targets {
		blocks[i] = fc.labelFrame(depth).jumpBlock
	}

	instr := fc.b.AllocateInstruction()
	instr.AsBrTable(idx, blocks)
	fc.b.InsertInstruction(instr)
	fc.curFrame().unreachable = true
	return nil
}

func (fc *FunctionCompiler) emitReturn() {
	sig := fc.b.Signature()
	vs := fc.topN(len(sig.Results))
	instr := fc.b.AllocateInstruction()
	instr.AsReturn(vs)
	fc.b.InsertInstruction(instr)
}

// ---- calls (spec.md §4.2.5) -------------------------------------------

func (fc *FunctionCompiler) compileCall(dec *decoder) error {
	idx, err := dec.u32()
	if err != nil {
		return err
	}
	sig := fc.ctx.FunctionSignature(idx)
	args := fc.popN(len(sig.Params))
	fc.b.DeclareSignature(sig)

	instr := fc.b.AllocateInstruction()
	instr.AsCall(ssa.FuncRef(idx), sig, args)
	fc.b.InsertInstruction(instr)
	fc.pushResults(instr, len(sig.Results))
	return nil
}

func (fc *FunctionCompiler) compileCallIndirect(dec *decoder) error {
	typeIdx, err := dec.u32()
	if err != nil {
		return err
	}
	if _, err := dec.u32(); err != nil { // table index, always 0 in MVP
		return err
	}
	sig := fc.ctx.SignatureOf(typeIdx)
	tableSlot := fc.pop()
	args := fc.popN(len(sig.Params))
	fc.b.DeclareSignature(sig)

	instr := fc.b.AllocateInstruction()
	instr.AsCallIndirect(tableSlot, sig, args)
	fc.b.InsertInstruction(instr)
	fc.pushResults(instr, len(sig.Results))
	return nil
}

func (fc *FunctionCompiler) pushResults(instr *ssa.Instruction, n int) {
	if n == 0 {
		return
	}
	first, rest := instr.Returns()
	fc.push(first)
	for _, v := range rest {
		fc.push(v)
	}
}

// compileIntrinsicCall lowers a bulk/host-boundary opcode into a call
// against the synthetic FuncRef the Context assigned to intrinsic id
// (spec.md §4.6). resultType may be ssa.Type(0xff) (typeNone sentinel) for
// an intrinsic with no result.
func (fc *FunctionCompiler) compileIntrinsicCall(id Intrinsic, args []ssa.Value, resultType ssa.Type) error {
	var results []ssa.Type
	if resultType != typeNone {
		results = []ssa.Type{resultType}
	}
	sig := intrinsicSignature(len(args), len(results))
	sig.ID = fc.intrinsicSigID(id)
	fc.b.DeclareSignature(sig)

	instr := fc.b.AllocateInstruction()
	instr.AsCall(fc.ctx.IntrinsicFuncRef(id), sig, args)
	fc.b.InsertInstruction(instr)
	fc.pushResults(instr, len(results))
	return nil
}

// typeNone is a sentinel ssa.Type value (never a real operand type) used by
// compileIntrinsicCall to mean "no result".
const typeNone = ssa.Type(0xff)

// intrinsicSigID assigns every intrinsic a stable per-function SignatureID
// (0x1000+id; compileGlobalGet/compileGlobalSet use 0x2000+idx and
// 0x3000+idx inline), since
// ssa.Builder.DeclareSignature requires the caller to assign one and
// InsertInstruction's call-site type resolution keys off it.
func (fc *FunctionCompiler) intrinsicSigID(id Intrinsic) ssa.SignatureID {
	return ssa.SignatureID(0x1000 + uint32(id))
}

// ---- globals (lowered via the synthetic accessor FuncRefs, spec.md §4.1) --

func (fc *FunctionCompiler) compileGlobalGet(idx wasm.Index) error {
	gt := fc.moduleGlobalType(idx)
	t := fc.ctx.lowerValType(gt.ValType)
	sig := &ssa.Signature{ID: ssa.SignatureID(0x2000 + idx), Results: []ssa.Type{t}}
	fc.b.DeclareSignature(sig)

	instr := fc.b.AllocateInstruction()
	instr.AsCall(fc.ctx.GlobalGetFuncRef(idx), sig, nil)
	fc.b.InsertInstruction(instr)
	fc.push(instr.Return())
	return nil
}

func (fc *FunctionCompiler) compileGlobalSet(idx wasm.Index) error {
	gt := fc.moduleGlobalType(idx)
	t := fc.ctx.lowerValType(gt.ValType)
	v := fc.pop()
	sig := &ssa.Signature{ID: ssa.SignatureID(0x3000 + idx), Params: []ssa.Type{t}}
	fc.b.DeclareSignature(sig)

	instr := fc.b.AllocateInstruction()
	instr.AsCall(fc.ctx.GlobalSetFuncRef(idx), sig, []ssa.Value{v})
	fc.b.InsertInstruction(instr)
	return nil
}

func (fc *FunctionCompiler) moduleGlobalType(idx wasm.Index) wasm.GlobalType {
	return fc.ctx.module.GlobalTypeOf(idx)
}

// ---- select (spec.md §4.2.2) -----------------------------------------

func (fc *FunctionCompiler) compileSelect(op wasm.Opcode, dec *decoder) error {
	if op == wasm.OpcodeTypedSelect {
		dec.pc++ // single result-type byte; select's operand types are already known from the stack
	}
	cond := fc.pop()
	y := fc.pop()
	x := fc.pop()
	instr := fc.b.AllocateInstruction()
	instr.AsSelect(cond, x, y)
	fc.b.InsertInstruction(instr)
	fc.push(instr.Return())
	return nil
}

// ---- trap-code helper shared by numeric + memory lowering --------------

func trapUnless(fc *FunctionCompiler, cond ssa.Value, code aotapi.TrapCode) {
	fc.traps.emitTrapIf(cond, code)
}
