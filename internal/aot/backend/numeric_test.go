package backend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

func TestMask_TruncatesNarrowTypes(t *testing.T) {
	require.Equal(t, uint64(0xffffffff), mask(0xffffffffffffffff, ssa.TypeI32))
	require.Equal(t, uint64(0xffffffffffffffff), mask(0xffffffffffffffff, ssa.TypeI64))
}

func TestWasmFmin_NaNPropagates(t *testing.T) {
	require.True(t, math.IsNaN(wasmFmin(math.NaN(), 1)))
	require.True(t, math.IsNaN(wasmFmin(1, math.NaN())))
}

func TestWasmFmin_SignedZeroOrdering(t *testing.T) {
	// -0.0 is "smaller" than +0.0 for min/max purposes, though they compare
	// equal under ==; wasmFmin/wasmFmax special-case the sign bit.
	negZero := math.Copysign(0, -1)
	require.Equal(t, negZero, wasmFmin(negZero, 0))
	require.Equal(t, float64(0), wasmFmax(negZero, 0))
}

func TestTruncToInt_NaNTrapsWithoutSaturation(t *testing.T) {
	_, trapped := truncToInt(math.NaN(), true, false, false)
	require.True(t, trapped)
}

func TestTruncToInt_NaNSaturatesToZero(t *testing.T) {
	v, trapped := truncToInt(math.NaN(), true, false, true)
	require.False(t, trapped)
	require.Equal(t, uint64(0), v)
}

func TestTruncToInt_OutOfRangeTrapsWithoutSaturation(t *testing.T) {
	_, trapped := truncToInt(1e20, true, false, false)
	require.True(t, trapped)
}

func TestTruncToInt_OutOfRangeSaturatesToMax(t *testing.T) {
	v, trapped := truncToInt(1e20, true, false, true)
	require.False(t, trapped)
	require.Equal(t, mask(uint64(int64(math.MaxInt32)), ssa.TypeI32), v)
}

func TestIsOverflowingSDiv(t *testing.T) {
	require.True(t, isOverflowingSDiv(math.MinInt32, -1, false))
	require.False(t, isOverflowingSDiv(math.MinInt32, 1, false))
	require.True(t, isOverflowingSDiv(math.MinInt64, -1, true))
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int64(-1), signExtend(0xff, 8))
	require.Equal(t, int64(127), signExtend(0x7f, 8))
}

func TestReadWriteLE_RoundTrips(t *testing.T) {
	buf := make([]byte, 8)
	writeLE(buf, 0, 4, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), readLE(buf, 0, 4))
}

func TestEvalFcmp(t *testing.T) {
	require.True(t, evalFcmp(ssa.FloatCmpCondLessThan, 1, 2))
	require.False(t, evalFcmp(ssa.FloatCmpCondLessThan, math.NaN(), 2))
}
