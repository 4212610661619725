package wasm

// OpcodeVec is the sub-opcode space reached via OpcodeVecPrefix (0xfd): the
// 128-bit SIMD proposal. Lane-width variants of the same operator (i8x16,
// i16x8, i32x4, i64x2, f32x4, f64x2) are adjacent so FunctionCompiler can
// dispatch on (baseOp, VecLane) pairs rather than one switch arm per lane
// width (spec.md §4.2.2).
type OpcodeVec = byte

// VecLane identifies the lane layout a SIMD instruction operates on.
type VecLane byte

const (
	VecLaneI8x16 VecLane = iota
	VecLaneI16x8
	VecLaneI32x4
	VecLaneI64x2
	VecLaneF32x4
	VecLaneF64x2
	VecLaneInvalid
)

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

// Lanes returns the number of lanes for the given width.
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
		panic("invalid lane")
	}
}

const (
	OpcodeVecV128Load       OpcodeVec = 0x00
	OpcodeVecV128Load8x8S   OpcodeVec = 0x01
	OpcodeVecV128Load8x8U   OpcodeVec = 0x02
	OpcodeVecV128Load16x4S  OpcodeVec = 0x03
	OpcodeVecV128Load16x4U  OpcodeVec = 0x04
	OpcodeVecV128Load32x2S  OpcodeVec = 0x05
	OpcodeVecV128Load32x2U  OpcodeVec = 0x06
	OpcodeVecV128Load8Splat  OpcodeVec = 0x07
	OpcodeVecV128Load16Splat OpcodeVec = 0x08
	OpcodeVecV128Load32Splat OpcodeVec = 0x09
	OpcodeVecV128Load64Splat OpcodeVec = 0x0a
	OpcodeVecV128Store       OpcodeVec = 0x0b
	OpcodeVecV128Const       OpcodeVec = 0x0c
	OpcodeVecI8x16Shuffle    OpcodeVec = 0x0d
	OpcodeVecI8x16Swizzle    OpcodeVec = 0x0e

	OpcodeVecI8x16Splat OpcodeVec = 0x0f
	OpcodeVecI16x8Splat OpcodeVec = 0x10
	OpcodeVecI32x4Splat OpcodeVec = 0x11
	OpcodeVecI64x2Splat OpcodeVec = 0x12
	OpcodeVecF32x4Splat OpcodeVec = 0x13
	OpcodeVecF64x2Splat OpcodeVec = 0x14

	OpcodeVecI8x16ExtractLaneS OpcodeVec = 0x15
	OpcodeVecI8x16ExtractLaneU OpcodeVec = 0x16
	OpcodeVecI8x16ReplaceLane  OpcodeVec = 0x17
	OpcodeVecI16x8ExtractLaneS OpcodeVec = 0x18
	OpcodeVecI16x8ExtractLaneU OpcodeVec = 0x19
	OpcodeVecI16x8ReplaceLane  OpcodeVec = 0x1a
	OpcodeVecI32x4ExtractLane  OpcodeVec = 0x1b
	OpcodeVecI32x4ReplaceLane  OpcodeVec = 0x1c
	OpcodeVecI64x2ExtractLane  OpcodeVec = 0x1d
	OpcodeVecI64x2ReplaceLane  OpcodeVec = 0x1e
	OpcodeVecF32x4ExtractLane  OpcodeVec = 0x1f
	OpcodeVecF32x4ReplaceLane  OpcodeVec = 0x20
	OpcodeVecF64x2ExtractLane  OpcodeVec = 0x21
	OpcodeVecF64x2ReplaceLane  OpcodeVec = 0x22

	// Comparisons: Eq, Ne, LtS/LtU, GtS/GtU, LeS/LeU, GeS/GeU per integer
	// lane width, Eq/Ne/Lt/Gt/Le/Ge per float lane width.
	OpcodeVecI8x16Eq  OpcodeVec = 0x23
	OpcodeVecI8x16Ne  OpcodeVec = 0x24
	OpcodeVecI8x16LtS OpcodeVec = 0x25
	OpcodeVecI8x16LtU OpcodeVec = 0x26
	OpcodeVecI8x16GtS OpcodeVec = 0x27
	OpcodeVecI8x16GtU OpcodeVec = 0x28
	OpcodeVecI8x16LeS OpcodeVec = 0x29
	OpcodeVecI8x16LeU OpcodeVec = 0x2a
	OpcodeVecI8x16GeS OpcodeVec = 0x2b
	OpcodeVecI8x16GeU OpcodeVec = 0x2c

	OpcodeVecI16x8Eq  OpcodeVec = 0x2d
	OpcodeVecI16x8Ne  OpcodeVec = 0x2e
	OpcodeVecI16x8LtS OpcodeVec = 0x2f
	OpcodeVecI16x8LtU OpcodeVec = 0x30
	OpcodeVecI16x8GtS OpcodeVec = 0x31
	OpcodeVecI16x8GtU OpcodeVec = 0x32
	OpcodeVecI16x8LeS OpcodeVec = 0x33
	OpcodeVecI16x8LeU OpcodeVec = 0x34
	OpcodeVecI16x8GeS OpcodeVec = 0x35
	OpcodeVecI16x8GeU OpcodeVec = 0x36

	OpcodeVecI32x4Eq  OpcodeVec = 0x37
	OpcodeVecI32x4Ne  OpcodeVec = 0x38
	OpcodeVecI32x4LtS OpcodeVec = 0x39
	OpcodeVecI32x4LtU OpcodeVec = 0x3a
	OpcodeVecI32x4GtS OpcodeVec = 0x3b
	OpcodeVecI32x4GtU OpcodeVec = 0x3c
	OpcodeVecI32x4LeS OpcodeVec = 0x3d
	OpcodeVecI32x4LeU OpcodeVec = 0x3e
	OpcodeVecI32x4GeS OpcodeVec = 0x3f
	OpcodeVecI32x4GeU OpcodeVec = 0x40

	OpcodeVecI64x2Eq  OpcodeVec = 0x41
	OpcodeVecI64x2Ne  OpcodeVec = 0x42
	OpcodeVecI64x2LtS OpcodeVec = 0x43
	OpcodeVecI64x2GtS OpcodeVec = 0x44
	OpcodeVecI64x2LeS OpcodeVec = 0x45
	OpcodeVecI64x2GeS OpcodeVec = 0x46

	OpcodeVecF32x4Eq OpcodeVec = 0x47
	OpcodeVecF32x4Ne OpcodeVec = 0x48
	OpcodeVecF32x4Lt OpcodeVec = 0x49
	OpcodeVecF32x4Gt OpcodeVec = 0x4a
	OpcodeVecF32x4Le OpcodeVec = 0x4b
	OpcodeVecF32x4Ge OpcodeVec = 0x4c

	OpcodeVecF64x2Eq OpcodeVec = 0x4d
	OpcodeVecF64x2Ne OpcodeVec = 0x4e
	OpcodeVecF64x2Lt OpcodeVec = 0x4f
	OpcodeVecF64x2Gt OpcodeVec = 0x50
	OpcodeVecF64x2Le OpcodeVec = 0x51
	OpcodeVecF64x2Ge OpcodeVec = 0x52

	OpcodeVecV128Not       OpcodeVec = 0x53
	OpcodeVecV128And       OpcodeVec = 0x54
	OpcodeVecV128AndNot    OpcodeVec = 0x55
	OpcodeVecV128Or        OpcodeVec = 0x56
	OpcodeVecV128Xor       OpcodeVec = 0x57
	OpcodeVecV128Bitselect OpcodeVec = 0x58
	OpcodeVecV128AnyTrue   OpcodeVec = 0x59

	OpcodeVecI8x16Abs      OpcodeVec = 0x60
	OpcodeVecI8x16Neg      OpcodeVec = 0x61
	OpcodeVecI8x16Popcnt   OpcodeVec = 0x62
	OpcodeVecI8x16AllTrue  OpcodeVec = 0x63
	OpcodeVecI8x16Bitmask  OpcodeVec = 0x64
	OpcodeVecI8x16NarrowI16x8S OpcodeVec = 0x65
	OpcodeVecI8x16NarrowI16x8U OpcodeVec = 0x66
	OpcodeVecI8x16Shl      OpcodeVec = 0x67
	OpcodeVecI8x16ShrS     OpcodeVec = 0x68
	OpcodeVecI8x16ShrU     OpcodeVec = 0x69
	OpcodeVecI8x16Add      OpcodeVec = 0x6a
	OpcodeVecI8x16AddSatS  OpcodeVec = 0x6b
	OpcodeVecI8x16AddSatU  OpcodeVec = 0x6c
	OpcodeVecI8x16Sub      OpcodeVec = 0x6d
	OpcodeVecI8x16SubSatS  OpcodeVec = 0x6e
	OpcodeVecI8x16SubSatU  OpcodeVec = 0x6f
	OpcodeVecI8x16MinS     OpcodeVec = 0x70
	OpcodeVecI8x16MinU     OpcodeVec = 0x71
	OpcodeVecI8x16MaxS     OpcodeVec = 0x72
	OpcodeVecI8x16MaxU     OpcodeVec = 0x73
	OpcodeVecI8x16AvgrU    OpcodeVec = 0x74

	OpcodeVecI16x8ExtaddPairwiseI8x16S OpcodeVec = 0x75
	OpcodeVecI16x8ExtaddPairwiseI8x16U OpcodeVec = 0x76
	OpcodeVecI16x8Abs     OpcodeVec = 0x77
	OpcodeVecI16x8Neg     OpcodeVec = 0x78
	OpcodeVecI16x8Q15mulrSatS OpcodeVec = 0x79
	OpcodeVecI16x8AllTrue OpcodeVec = 0x7a
	OpcodeVecI16x8Bitmask OpcodeVec = 0x7b
	OpcodeVecI16x8NarrowI32x4S OpcodeVec = 0x7c
	OpcodeVecI16x8NarrowI32x4U OpcodeVec = 0x7d
	OpcodeVecI16x8ExtendLowI8x16S  OpcodeVec = 0x7e
	OpcodeVecI16x8ExtendHighI8x16S OpcodeVec = 0x7f
	OpcodeVecI16x8ExtendLowI8x16U  OpcodeVec = 0x80
	OpcodeVecI16x8ExtendHighI8x16U OpcodeVec = 0x81
	OpcodeVecI16x8Shl     OpcodeVec = 0x82
	OpcodeVecI16x8ShrS    OpcodeVec = 0x83
	OpcodeVecI16x8ShrU    OpcodeVec = 0x84
	OpcodeVecI16x8Add     OpcodeVec = 0x85
	OpcodeVecI16x8AddSatS OpcodeVec = 0x86
	OpcodeVecI16x8AddSatU OpcodeVec = 0x87
	OpcodeVecI16x8Sub     OpcodeVec = 0x88
	OpcodeVecI16x8SubSatS OpcodeVec = 0x89
	OpcodeVecI16x8SubSatU OpcodeVec = 0x8a
	OpcodeVecI16x8Mul     OpcodeVec = 0x8b
	OpcodeVecI16x8MinS    OpcodeVec = 0x8c
	OpcodeVecI16x8MinU    OpcodeVec = 0x8d
	OpcodeVecI16x8MaxS    OpcodeVec = 0x8e
	OpcodeVecI16x8MaxU    OpcodeVec = 0x8f
	OpcodeVecI16x8AvgrU   OpcodeVec = 0x90
	OpcodeVecI16x8ExtmulLowI8x16S  OpcodeVec = 0x91
	OpcodeVecI16x8ExtmulHighI8x16S OpcodeVec = 0x92
	OpcodeVecI16x8ExtmulLowI8x16U  OpcodeVec = 0x93
	OpcodeVecI16x8ExtmulHighI8x16U OpcodeVec = 0x94

	OpcodeVecI32x4ExtaddPairwiseI16x8S OpcodeVec = 0x95
	OpcodeVecI32x4ExtaddPairwiseI16x8U OpcodeVec = 0x96
	OpcodeVecI32x4Abs     OpcodeVec = 0x97
	OpcodeVecI32x4Neg     OpcodeVec = 0x98
	OpcodeVecI32x4AllTrue OpcodeVec = 0x99
	OpcodeVecI32x4Bitmask OpcodeVec = 0x9a
	OpcodeVecI32x4ExtendLowI16x8S  OpcodeVec = 0x9b
	OpcodeVecI32x4ExtendHighI16x8S OpcodeVec = 0x9c
	OpcodeVecI32x4ExtendLowI16x8U  OpcodeVec = 0x9d
	OpcodeVecI32x4ExtendHighI16x8U OpcodeVec = 0x9e
	OpcodeVecI32x4Shl  OpcodeVec = 0x9f
	OpcodeVecI32x4ShrS OpcodeVec = 0xa0
	OpcodeVecI32x4ShrU OpcodeVec = 0xa1
	OpcodeVecI32x4Add  OpcodeVec = 0xa2
	OpcodeVecI32x4Sub  OpcodeVec = 0xa3
	OpcodeVecI32x4Mul  OpcodeVec = 0xa4
	OpcodeVecI32x4MinS OpcodeVec = 0xa5
	OpcodeVecI32x4MinU OpcodeVec = 0xa6
	OpcodeVecI32x4MaxS OpcodeVec = 0xa7
	OpcodeVecI32x4MaxU OpcodeVec = 0xa8
	OpcodeVecI32x4DotI16x8S OpcodeVec = 0xa9
	OpcodeVecI32x4ExtmulLowI16x8S  OpcodeVec = 0xaa
	OpcodeVecI32x4ExtmulHighI16x8S OpcodeVec = 0xab
	OpcodeVecI32x4ExtmulLowI16x8U  OpcodeVec = 0xac
	OpcodeVecI32x4ExtmulHighI16x8U OpcodeVec = 0xad

	OpcodeVecI64x2Abs     OpcodeVec = 0xae
	OpcodeVecI64x2Neg     OpcodeVec = 0xaf
	OpcodeVecI64x2AllTrue OpcodeVec = 0xb0
	OpcodeVecI64x2Bitmask OpcodeVec = 0xb1
	OpcodeVecI64x2ExtendLowI32x4S  OpcodeVec = 0xb2
	OpcodeVecI64x2ExtendHighI32x4S OpcodeVec = 0xb3
	OpcodeVecI64x2ExtendLowI32x4U  OpcodeVec = 0xb4
	OpcodeVecI64x2ExtendHighI32x4U OpcodeVec = 0xb5
	OpcodeVecI64x2Shl  OpcodeVec = 0xb6
	OpcodeVecI64x2ShrS OpcodeVec = 0xb7
	OpcodeVecI64x2ShrU OpcodeVec = 0xb8
	OpcodeVecI64x2Add  OpcodeVec = 0xb9
	OpcodeVecI64x2Sub  OpcodeVec = 0xba
	OpcodeVecI64x2Mul  OpcodeVec = 0xbb
	OpcodeVecI64x2ExtmulLowI32x4S  OpcodeVec = 0xbc
	OpcodeVecI64x2ExtmulHighI32x4S OpcodeVec = 0xbd
	OpcodeVecI64x2ExtmulLowI32x4U  OpcodeVec = 0xbe
	OpcodeVecI64x2ExtmulHighI32x4U OpcodeVec = 0xbf

	OpcodeVecF32x4Ceil    OpcodeVec = 0xc0
	OpcodeVecF32x4Floor   OpcodeVec = 0xc1
	OpcodeVecF32x4Trunc   OpcodeVec = 0xc2
	OpcodeVecF32x4Nearest OpcodeVec = 0xc3
	OpcodeVecF32x4Abs     OpcodeVec = 0xc4
	OpcodeVecF32x4Neg     OpcodeVec = 0xc5
	OpcodeVecF32x4Sqrt    OpcodeVec = 0xc6
	OpcodeVecF32x4Add     OpcodeVec = 0xc7
	OpcodeVecF32x4Sub     OpcodeVec = 0xc8
	OpcodeVecF32x4Mul     OpcodeVec = 0xc9
	OpcodeVecF32x4Div     OpcodeVec = 0xca
	OpcodeVecF32x4Min     OpcodeVec = 0xcb
	OpcodeVecF32x4Max     OpcodeVec = 0xcc
	OpcodeVecF32x4Pmin    OpcodeVec = 0xcd
	OpcodeVecF32x4Pmax    OpcodeVec = 0xce

	OpcodeVecF64x2Ceil    OpcodeVec = 0xcf
	OpcodeVecF64x2Floor   OpcodeVec = 0xd0
	OpcodeVecF64x2Trunc   OpcodeVec = 0xd1
	OpcodeVecF64x2Nearest OpcodeVec = 0xd2
	OpcodeVecF64x2Abs     OpcodeVec = 0xd3
	OpcodeVecF64x2Neg     OpcodeVec = 0xd4
	OpcodeVecF64x2Sqrt    OpcodeVec = 0xd5
	OpcodeVecF64x2Add     OpcodeVec = 0xd6
	OpcodeVecF64x2Sub     OpcodeVec = 0xd7
	OpcodeVecF64x2Mul     OpcodeVec = 0xd8
	OpcodeVecF64x2Div     OpcodeVec = 0xd9
	OpcodeVecF64x2Min     OpcodeVec = 0xda
	OpcodeVecF64x2Max     OpcodeVec = 0xdb
	OpcodeVecF64x2Pmin    OpcodeVec = 0xdc
	OpcodeVecF64x2Pmax    OpcodeVec = 0xdd

	OpcodeVecI32x4TruncSatF32x4S OpcodeVec = 0xde
	OpcodeVecI32x4TruncSatF32x4U OpcodeVec = 0xdf
	OpcodeVecF32x4ConvertI32x4S  OpcodeVec = 0xe0
	OpcodeVecF32x4ConvertI32x4U  OpcodeVec = 0xe1
	OpcodeVecI32x4TruncSatF64x2SZero OpcodeVec = 0xe2
	OpcodeVecI32x4TruncSatF64x2UZero OpcodeVec = 0xe3
	OpcodeVecF64x2ConvertLowI32x4S    OpcodeVec = 0xe4
	OpcodeVecF64x2ConvertLowI32x4U    OpcodeVec = 0xe5
	OpcodeVecF32x4DemoteF64x2Zero     OpcodeVec = 0xe6
	OpcodeVecF64x2PromoteLowF32x4     OpcodeVec = 0xe7

	OpcodeVecV128Load32Zero OpcodeVec = 0xe8
	OpcodeVecV128Load64Zero OpcodeVec = 0xe9
)

// VectorInstructionName returns the placeholder mnemonic "vec" for every
// vector sub-opcode.
func VectorInstructionName(op OpcodeVec) string {
	// There is no per-opcode table like opcode.go's instructionNames, so no
	// exact mnemonic is returned. FunctionCompiler itself only needs the
	// numeric opcode.
	return "vec"
}
