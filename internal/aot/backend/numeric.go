package backend

import (
	"math"

	"github.com/wazedge/aotwasm/internal/aot/ssa"
)

// mask truncates v to the bit width of typ, which is how the interpreter
// keeps 32-bit integer values from leaking set high bits into a 64-bit word
// between instructions (SSA values are always stored in full 64-bit frame
// slots regardless of their declared Type).
func mask(v uint64, typ ssa.Type) uint64 {
	if typ == ssa.TypeI32 || typ == ssa.TypeF32 {
		return v & 0xffffffff
	}
	return v
}

func shiftMask(typ ssa.Type) uint64 {
	if typ == ssa.TypeI32 {
		return 31
	}
	return 63
}

func toSigned(v uint64, wide bool) int64 {
	if wide {
		return int64(v)
	}
	return int64(int32(uint32(v)))
}

func isOverflowingSDiv(x, y int64, wide bool) bool {
	if wide {
		return x == math.MinInt64 && y == -1
	}
	return x == math.MinInt32 && y == -1
}

func rotl(v, amtU64 uint64, typ ssa.Type) uint64 {
	amt := int64(amtU64)
	return rotlSigned(v, amt, typ)
}

func rotlSigned(v uint64, amt int64, typ ssa.Type) uint64 {
	bitsN := int64(64)
	if typ == ssa.TypeI32 {
		bitsN = 32
	}
	amt %= bitsN
	if amt < 0 {
		amt += bitsN
	}
	if typ == ssa.TypeI32 {
		x := uint32(v)
		r := (x << uint(amt)) | (x >> uint(32-amt))
		return uint64(r)
	}
	r := (v << uint(amt)) | (v >> uint(64-amt))
	return r
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func evalIcmp(c ssa.IntegerCmpCond, x, y uint64, wide bool) bool {
	switch c {
	case ssa.IntegerCmpCondEqual:
		return x == y
	case ssa.IntegerCmpCondNotEqual:
		return x != y
	case ssa.IntegerCmpCondSignedLessThan:
		return toSigned(x, wide) < toSigned(y, wide)
	case ssa.IntegerCmpCondSignedGreaterThanOrEqual:
		return toSigned(x, wide) >= toSigned(y, wide)
	case ssa.IntegerCmpCondSignedGreaterThan:
		return toSigned(x, wide) > toSigned(y, wide)
	case ssa.IntegerCmpCondSignedLessThanOrEqual:
		return toSigned(x, wide) <= toSigned(y, wide)
	case ssa.IntegerCmpCondUnsignedLessThan:
		return x < y
	case ssa.IntegerCmpCondUnsignedGreaterThanOrEqual:
		return x >= y
	case ssa.IntegerCmpCondUnsignedGreaterThan:
		return x > y
	case ssa.IntegerCmpCondUnsignedLessThanOrEqual:
		return x <= y
	default:
		panic("unknown IntegerCmpCond")
	}
}

func evalFcmp(c ssa.FloatCmpCond, x, y float64) bool {
	switch c {
	case ssa.FloatCmpCondEqual:
		return x == y
	case ssa.FloatCmpCondNotEqual:
		return x != y
	case ssa.FloatCmpCondLessThan:
		return x < y
	case ssa.FloatCmpCondLessThanOrEqual:
		return x <= y
	case ssa.FloatCmpCondGreaterThan:
		return x > y
	case ssa.FloatCmpCondGreaterThanOrEqual:
		return x >= y
	default:
		panic("unknown FloatCmpCond")
	}
}

func asF64(bits uint64, typ ssa.Type) float64 {
	if typ == ssa.TypeF32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}

func fromF64(v float64, typ ssa.Type) uint64 {
	if typ == ssa.TypeF32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

// wasmFmin/wasmFmax implement the WebAssembly min/max semantics: if either
// operand is NaN the result is a (quiet) NaN, and -0 is considered smaller
// than +0, which differs from Go's math.Min/Max.
func wasmFmin(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	return math.Min(a, b)
}

func wasmFmax(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	return math.Max(a, b)
}

// truncToInt implements the Wasm trunc-to-int conversions: a NaN or
// out-of-range input traps unless sat is set, in which case it saturates to
// the destination range (NaN saturates to 0).
func truncToInt(f float64, signed, wide, sat bool) (result uint64, trapped bool) {
	if math.IsNaN(f) {
		if sat {
			return 0, false
		}
		return 0, true
	}
	trunc := math.Trunc(f)
	var lo, hi float64
	var bitsN int
	switch {
	case signed && wide:
		lo, hi, bitsN = -9223372036854775808, 9223372036854775808, 64
	case signed && !wide:
		lo, hi, bitsN = -2147483648, 2147483648, 32
	case !signed && wide:
		lo, hi, bitsN = 0, 18446744073709551616, 64
	default:
		lo, hi, bitsN = 0, 4294967296, 32
	}
	if trunc < lo || trunc >= hi {
		if !sat {
			return 0, true
		}
		if trunc < lo {
			trunc = lo
		} else {
			trunc = hi
		}
		if signed {
			if bitsN == 64 {
				if trunc <= lo {
					return uint64(int64(math.MinInt64)), false
				}
				return uint64(int64(math.MaxInt64)), false
			}
			if trunc <= lo {
				return mask(uint64(int64(math.MinInt32)), ssa.TypeI32), false
			}
			return mask(uint64(int64(math.MaxInt32)), ssa.TypeI32), false
		}
		if bitsN == 64 {
			if trunc <= lo {
				return 0, false
			}
			return math.MaxUint64, false
		}
		if trunc <= lo {
			return 0, false
		}
		return math.MaxUint32, false
	}
	if signed {
		if bitsN == 64 {
			return uint64(int64(trunc)), false
		}
		return mask(uint64(int64(trunc)), ssa.TypeI32), false
	}
	if bitsN == 64 {
		return uint64(trunc), false
	}
	return mask(uint64(trunc), ssa.TypeI32), false
}

func signExtend(v uint64, fromBits byte) int64 {
	shift := 64 - fromBits
	return int64(v<<shift) >> shift
}

func loadSize(op ssa.Opcode, typ ssa.Type) int {
	switch op {
	case ssa.OpcodeUload8, ssa.OpcodeSload8:
		return 1
	case ssa.OpcodeUload16, ssa.OpcodeSload16:
		return 2
	case ssa.OpcodeUload32, ssa.OpcodeSload32:
		return 4
	default:
		return int(typ.Size())
	}
}

func isSignedLoad(op ssa.Opcode) bool {
	switch op {
	case ssa.OpcodeSload8, ssa.OpcodeSload16, ssa.OpcodeSload32:
		return true
	default:
		return false
	}
}

func readLE(data []byte, addr uint64, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(data[addr+uint64(i)]) << (8 * i)
	}
	return v
}

func writeLE(data []byte, addr uint64, n int, v uint64) {
	for i := 0; i < n; i++ {
		data[addr+uint64(i)] = byte(v >> (8 * i))
	}
}
