package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/ssa"
	"github.com/wazedge/aotwasm/internal/wasm"
)

func newTestExecCtx(memPages int) *ExecCtx {
	ec := NewExecCtx(1, 0, 0, nil)
	ec.Memories[0] = &Memory{Data: make([]byte, memPages*wasm.MemoryPageSize)}
	ec.Tables = []*TableInstance{{Elems: []ssa.FuncRef{NullFuncRef, NullFuncRef, NullFuncRef}}}
	ec.DataSegments = [][]byte{{1, 2, 3, 4}}
	ec.dataDropped = []bool{false}
	ec.ElemSegments = [][]ssa.FuncRef{{1, 2}}
	ec.elemDropped = []bool{false}
	return ec
}

func TestIntrinsicMemCopy(t *testing.T) {
	ec := newTestExecCtx(1)
	copy(ec.Memories[0].Data[10:14], []byte{9, 9, 9, 9})

	out := intrinsicMemCopy(ec, []uint64{100, 10, 4})
	require.Nil(t, out)
	require.Equal(t, []byte{9, 9, 9, 9}, ec.Memories[0].Data[100:104])
}

func TestIntrinsicMemCopy_OutOfBoundsTraps(t *testing.T) {
	ec := newTestExecCtx(1)
	require.Panics(t, func() {
		intrinsicMemCopy(ec, []uint64{uint64(len(ec.Memories[0].Data)), 0, 1})
	})
}

func TestIntrinsicMemFill(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicMemFill(ec, []uint64{0, 0x41, 5})
	require.Equal(t, []byte{0x41, 0x41, 0x41, 0x41, 0x41}, ec.Memories[0].Data[:5])
}

func TestIntrinsicMemInit(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicMemInit(ec, []uint64{0, 20, 1, 2})
	require.Equal(t, []byte{2, 3}, ec.Memories[0].Data[20:22])
}

func TestIntrinsicMemInit_AfterDropTraps(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicDataDrop(ec, []uint64{0})
	require.True(t, ec.DataDropped(0))
	require.Panics(t, func() {
		intrinsicMemInit(ec, []uint64{0, 0, 0, 1})
	})
}

func TestIntrinsicMemGrow(t *testing.T) {
	ec := newTestExecCtx(1)
	out := intrinsicMemGrow(ec, []uint64{2})
	require.Equal(t, []uint64{1}, out) // old page count
	require.Equal(t, 3*wasm.MemoryPageSize, len(ec.Memories[0].Data))
}

func TestIntrinsicMemGrow_ExceedsMaxFails(t *testing.T) {
	ec := newTestExecCtx(1)
	ec.Memories[0].Max = 1
	out := intrinsicMemGrow(ec, []uint64{1})
	require.Equal(t, []uint64{uint64(uint32(0xffffffff))}, out)
}

func TestIntrinsicMemSize(t *testing.T) {
	ec := newTestExecCtx(3)
	out := intrinsicMemSize(ec, nil)
	require.Equal(t, []uint64{3}, out)
}

func TestIntrinsicTableGetSet(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicTableSet(ec, []uint64{0, 1, 42})
	out := intrinsicTableGet(ec, []uint64{0, 1})
	require.Equal(t, []uint64{42}, out)
}

func TestIntrinsicTableGet_OutOfBoundsTraps(t *testing.T) {
	ec := newTestExecCtx(1)
	require.Panics(t, func() {
		intrinsicTableGet(ec, []uint64{0, 99})
	})
}

func TestIntrinsicTableGrow(t *testing.T) {
	ec := newTestExecCtx(1)
	out := intrinsicTableGrow(ec, []uint64{0, uint64(NullFuncRef), 2})
	require.Equal(t, []uint64{3}, out) // old size
	require.Equal(t, 5, len(ec.Table(0).Elems))
}

func TestIntrinsicTableFillAndCopy(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicTableFill(ec, []uint64{0, 0, 7, 3})
	require.Equal(t, []ssa.FuncRef{7, 7, 7}, ec.Table(0).Elems)

	ec.Tables = append(ec.Tables, &TableInstance{Elems: make([]ssa.FuncRef, 3)})
	intrinsicTableCopy(ec, []uint64{1, 0, 0, 0, 3})
	require.Equal(t, []ssa.FuncRef{7, 7, 7}, ec.Table(1).Elems)
}

func TestIntrinsicTableInit(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicTableInit(ec, []uint64{0, 0, 1, 0, 2})
	require.Equal(t, ssa.FuncRef(1), ec.Table(0).Elems[1])
	require.Equal(t, ssa.FuncRef(2), ec.Table(0).Elems[2])
}

func TestIntrinsicTableInit_AfterElemDropTraps(t *testing.T) {
	ec := newTestExecCtx(1)
	intrinsicElemDrop(ec, []uint64{0})
	require.True(t, ec.ElemDropped(0))
	require.Panics(t, func() {
		intrinsicTableInit(ec, []uint64{0, 0, 0, 0, 1})
	})
}

func TestBuildIntrinsic_RecoversTrapPanicAsOOBResult(t *testing.T) {
	ctx := &Context{module: &wasm.Module{}}
	target := NewCallTarget(ctx, newInstalledIntrinsicTable(), 0)
	ec := newTestExecCtx(1)

	ex := target.ResolveDirect(ssa.FuncRef(IntrinsicMemCopy))
	res := ex.Invoke([]uint64{uint64(len(ec.Memories[0].Data)), 0, 1}, ec)
	require.True(t, res.Trapped)
}
