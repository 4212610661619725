package ssa

// VecLane represents the lane width of a vector (SIMD) instruction's
// operands, carried in the low byte of Instruction.u1 alongside the operand
// Values themselves (see Instruction.ArgWithLane).
type VecLane byte

const (
	VecLaneInvalid VecLane = iota
	VecLaneI8x16
	VecLaneI16x8
	VecLaneI32x4
	VecLaneI64x2
	VecLaneF32x4
	VecLaneF64x2
)

// String implements fmt.Stringer.
func (l VecLane) String() string {
	switch l {
	case VecLaneI8x16:
		return "i8x16"
	case VecLaneI16x8:
		return "i16x8"
	case VecLaneI32x4:
		return "i32x4"
	case VecLaneI64x2:
		return "i64x2"
	case VecLaneF32x4:
		return "f32x4"
	case VecLaneF64x2:
		return "f64x2"
	default:
		return "invalid"
	}
}

// Lanes returns how many lanes a 128-bit vector holds at this width.
func (l VecLane) Lanes() int {
	switch l {
	case VecLaneI8x16:
		return 16
	case VecLaneI16x8:
		return 8
	case VecLaneI32x4, VecLaneF32x4:
		return 4
	case VecLaneI64x2, VecLaneF64x2:
		return 2
	default:
		panic("invalid VecLane")
	}
}
