package wasm

// OpcodeAtomic is the sub-opcode space reached via OpcodeAtomicPrefix (0xfe):
// the threads/atomics proposal (spec.md §4.2.3).
type OpcodeAtomic = byte

const (
	OpcodeAtomicMemoryNotify OpcodeAtomic = 0x00
	OpcodeAtomicMemoryWait32 OpcodeAtomic = 0x01
	OpcodeAtomicMemoryWait64 OpcodeAtomic = 0x02
	OpcodeAtomicFence        OpcodeAtomic = 0x03

	OpcodeAtomicI32Load  OpcodeAtomic = 0x10
	OpcodeAtomicI64Load  OpcodeAtomic = 0x11
	OpcodeAtomicI32Load8U  OpcodeAtomic = 0x12
	OpcodeAtomicI32Load16U OpcodeAtomic = 0x13
	OpcodeAtomicI64Load8U  OpcodeAtomic = 0x14
	OpcodeAtomicI64Load16U OpcodeAtomic = 0x15
	OpcodeAtomicI64Load32U OpcodeAtomic = 0x16
	OpcodeAtomicI32Store   OpcodeAtomic = 0x17
	OpcodeAtomicI64Store   OpcodeAtomic = 0x18
	OpcodeAtomicI32Store8  OpcodeAtomic = 0x19
	OpcodeAtomicI32Store16 OpcodeAtomic = 0x1a
	OpcodeAtomicI64Store8  OpcodeAtomic = 0x1b
	OpcodeAtomicI64Store16 OpcodeAtomic = 0x1c
	OpcodeAtomicI64Store32 OpcodeAtomic = 0x1d

	OpcodeAtomicI32RmwAdd  OpcodeAtomic = 0x1e
	OpcodeAtomicI64RmwAdd  OpcodeAtomic = 0x1f
	OpcodeAtomicI32Rmw8AddU  OpcodeAtomic = 0x20
	OpcodeAtomicI32Rmw16AddU OpcodeAtomic = 0x21
	OpcodeAtomicI64Rmw8AddU  OpcodeAtomic = 0x22
	OpcodeAtomicI64Rmw16AddU OpcodeAtomic = 0x23
	OpcodeAtomicI64Rmw32AddU OpcodeAtomic = 0x24

	OpcodeAtomicI32RmwSub  OpcodeAtomic = 0x25
	OpcodeAtomicI64RmwSub  OpcodeAtomic = 0x26
	OpcodeAtomicI32Rmw8SubU  OpcodeAtomic = 0x27
	OpcodeAtomicI32Rmw16SubU OpcodeAtomic = 0x28
	OpcodeAtomicI64Rmw8SubU  OpcodeAtomic = 0x29
	OpcodeAtomicI64Rmw16SubU OpcodeAtomic = 0x2a
	OpcodeAtomicI64Rmw32SubU OpcodeAtomic = 0x2b

	OpcodeAtomicI32RmwAnd  OpcodeAtomic = 0x2c
	OpcodeAtomicI64RmwAnd  OpcodeAtomic = 0x2d
	OpcodeAtomicI32Rmw8AndU  OpcodeAtomic = 0x2e
	OpcodeAtomicI32Rmw16AndU OpcodeAtomic = 0x2f
	OpcodeAtomicI64Rmw8AndU  OpcodeAtomic = 0x30
	OpcodeAtomicI64Rmw16AndU OpcodeAtomic = 0x31
	OpcodeAtomicI64Rmw32AndU OpcodeAtomic = 0x32

	OpcodeAtomicI32RmwOr  OpcodeAtomic = 0x33
	OpcodeAtomicI64RmwOr  OpcodeAtomic = 0x34
	OpcodeAtomicI32Rmw8OrU  OpcodeAtomic = 0x35
	OpcodeAtomicI32Rmw16OrU OpcodeAtomic = 0x36
	OpcodeAtomicI64Rmw8OrU  OpcodeAtomic = 0x37
	OpcodeAtomicI64Rmw16OrU OpcodeAtomic = 0x38
	OpcodeAtomicI64Rmw32OrU OpcodeAtomic = 0x39

	OpcodeAtomicI32RmwXor  OpcodeAtomic = 0x3a
	OpcodeAtomicI64RmwXor  OpcodeAtomic = 0x3b
	OpcodeAtomicI32Rmw8XorU  OpcodeAtomic = 0x3c
	OpcodeAtomicI32Rmw16XorU OpcodeAtomic = 0x3d
	OpcodeAtomicI64Rmw8XorU  OpcodeAtomic = 0x3e
	OpcodeAtomicI64Rmw16XorU OpcodeAtomic = 0x3f
	OpcodeAtomicI64Rmw32XorU OpcodeAtomic = 0x40

	OpcodeAtomicI32RmwXchg  OpcodeAtomic = 0x41
	OpcodeAtomicI64RmwXchg  OpcodeAtomic = 0x42
	OpcodeAtomicI32Rmw8XchgU  OpcodeAtomic = 0x43
	OpcodeAtomicI32Rmw16XchgU OpcodeAtomic = 0x44
	OpcodeAtomicI64Rmw8XchgU  OpcodeAtomic = 0x45
	OpcodeAtomicI64Rmw16XchgU OpcodeAtomic = 0x46
	OpcodeAtomicI64Rmw32XchgU OpcodeAtomic = 0x47

	OpcodeAtomicI32RmwCmpxchg  OpcodeAtomic = 0x48
	OpcodeAtomicI64RmwCmpxchg  OpcodeAtomic = 0x49
	OpcodeAtomicI32Rmw8CmpxchgU  OpcodeAtomic = 0x4a
	OpcodeAtomicI32Rmw16CmpxchgU OpcodeAtomic = 0x4b
	OpcodeAtomicI64Rmw8CmpxchgU  OpcodeAtomic = 0x4c
	OpcodeAtomicI64Rmw16CmpxchgU OpcodeAtomic = 0x4d
	OpcodeAtomicI64Rmw32CmpxchgU OpcodeAtomic = 0x4e
)

// AtomicRmwOp identifies the read-modify-write operator of an atomic.rmw.*
// instruction, independent of its access width.
type AtomicRmwOp byte

const (
	AtomicRmwAdd AtomicRmwOp = iota
	AtomicRmwSub
	AtomicRmwAnd
	AtomicRmwOr
	AtomicRmwXor
	AtomicRmwXchg
)
