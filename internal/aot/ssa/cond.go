package ssa

// IntegerCmpCond represents the condition of an integer comparison, the `c`
// operand of OpcodeIcmp. The set and ordering follow WebAssembly's own
// i32/i64 comparison instructions (eq, ne, lt_s, lt_u, gt_s, gt_u, le_s,
// le_u, ge_s, ge_u).
type IntegerCmpCond byte

const (
	IntegerCmpCondEqual IntegerCmpCond = iota
	IntegerCmpCondNotEqual
	IntegerCmpCondSignedLessThan
	IntegerCmpCondSignedGreaterThanOrEqual
	IntegerCmpCondSignedGreaterThan
	IntegerCmpCondSignedLessThanOrEqual
	IntegerCmpCondUnsignedLessThan
	IntegerCmpCondUnsignedGreaterThanOrEqual
	IntegerCmpCondUnsignedGreaterThan
	IntegerCmpCondUnsignedLessThanOrEqual
)

// String implements fmt.Stringer.
func (c IntegerCmpCond) String() string {
	switch c {
	case IntegerCmpCondEqual:
		return "eq"
	case IntegerCmpCondNotEqual:
		return "neq"
	case IntegerCmpCondSignedLessThan:
		return "slt"
	case IntegerCmpCondSignedGreaterThanOrEqual:
		return "sge"
	case IntegerCmpCondSignedGreaterThan:
		return "sgt"
	case IntegerCmpCondSignedLessThanOrEqual:
		return "sle"
	case IntegerCmpCondUnsignedLessThan:
		return "ult"
	case IntegerCmpCondUnsignedGreaterThanOrEqual:
		return "uge"
	case IntegerCmpCondUnsignedGreaterThan:
		return "ugt"
	case IntegerCmpCondUnsignedLessThanOrEqual:
		return "ule"
	default:
		panic("unknown IntegerCmpCond")
	}
}

// FloatCmpCond represents the condition of a floating point comparison, the
// `c` operand of OpcodeFcmp, mirroring Wasm's f32/f64 eq/ne/lt/gt/le/ge.
// Every comparison against NaN is false except FloatCmpCondNotEqual.
type FloatCmpCond byte

const (
	FloatCmpCondEqual FloatCmpCond = iota
	FloatCmpCondNotEqual
	FloatCmpCondLessThan
	FloatCmpCondLessThanOrEqual
	FloatCmpCondGreaterThan
	FloatCmpCondGreaterThanOrEqual
)

// String implements fmt.Stringer.
func (c FloatCmpCond) String() string {
	switch c {
	case FloatCmpCondEqual:
		return "eq"
	case FloatCmpCondNotEqual:
		return "neq"
	case FloatCmpCondLessThan:
		return "lt"
	case FloatCmpCondLessThanOrEqual:
		return "le"
	case FloatCmpCondGreaterThan:
		return "gt"
	case FloatCmpCondGreaterThanOrEqual:
		return "ge"
	default:
		panic("unknown FloatCmpCond")
	}
}
