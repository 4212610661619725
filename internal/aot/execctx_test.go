package aot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/aotapi"
)

func TestExecCtx_ConsumeGas_NoLimitIsNoop(t *testing.T) {
	ec := NewExecCtx(0, 0, 0, nil)
	require.False(t, ec.ConsumeGas(1_000_000))
}

func TestExecCtx_ConsumeGas_ExceedsLimit(t *testing.T) {
	costTable := &[aotapi.CostTableSize]uint32{}
	ec := NewExecCtx(0, 0, 10, costTable)
	require.False(t, ec.ConsumeGas(5))
	require.True(t, ec.ConsumeGas(6))
}

func TestExecCtx_Interrupt_ObservedOnceThenCleared(t *testing.T) {
	ec := NewExecCtx(0, 0, 0, nil)
	require.False(t, ec.CheckInterrupt())
	ec.Interrupt()
	require.True(t, ec.CheckInterrupt())
	require.False(t, ec.CheckInterrupt())
}

func TestPackCostKey_PlainAndPrefixedDontCollide(t *testing.T) {
	plain := PackCostKey(0, 0x6a)
	prefixed := PackCostKey(0xfc, 0x6a)
	require.NotEqual(t, plain, prefixed)
}

func TestExecCtx_DataAndElemDropLatches(t *testing.T) {
	ec := NewExecCtx(0, 0, 0, nil)
	ec.dataDropped = []bool{false, false}
	ec.elemDropped = []bool{false}

	require.False(t, ec.DataDropped(0))
	ec.SetDataDropped(0)
	require.True(t, ec.DataDropped(0))
	require.False(t, ec.DataDropped(1))

	require.False(t, ec.ElemDropped(0))
	ec.SetElemDropped(0)
	require.True(t, ec.ElemDropped(0))
}
