package backend

// Memory is the runtime representation of one linear memory: a growable
// byte slice plus the page-count ceiling from the module's declaration. It
// lives in this package (rather than package aot, which depends on backend)
// so the interpreter can address memories without an import cycle; package
// aot aliases its own Memory name to this type.
type Memory struct {
	Data []byte
	Max  uint32 // in pages; 0 means no declared max.
}

// ExecContext is the slice of aot.ExecCtx's behaviour the interpreter needs
// at run time: memory/global access, gas accounting and the cooperative
// interrupt flag. It is expressed as an interface, rather than a concrete
// struct import, specifically to keep package aot (the Function Compiler,
// cache, loader, CLI) as the only importer of package backend, never the
// reverse.
type ExecContext interface {
	// Memory returns the idx'th linear memory, imported then local.
	Memory(idx int) *Memory
	// Global returns a pointer to the idx'th global's 128-bit slot.
	Global(idx int) *[2]uint64
	// ConsumeGas adds cost to the shared gas accumulator and reports
	// whether the configured limit was exceeded (gas metering is a no-op,
	// always returning false, when GasLimit is zero).
	ConsumeGas(cost uint32) (exceeded bool)
	// CheckInterrupt atomically observes and clears the stop token.
	CheckInterrupt() bool
	// CostOf looks up the configured gas cost for a packed (prefix, opcode)
	// key (see aot.PackCostKey). Returns 0 when metering is disabled.
	CostOf(key uint16) uint32
}
