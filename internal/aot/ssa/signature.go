package ssa

import (
	"fmt"
	"strings"
)

// SignatureID is the unique identifier of a Signature within a compilation,
// used as the map key backing Builder.DeclareSignature/ResolveSignature and
// as the compact operand embedded in OpcodeCall/OpcodeCallIndirect.
type SignatureID uint32

// FuncRef identifies the callee of a direct call (OpcodeCall) by its
// position in the compilation's function index space. It is opaque to the
// SSA builder: resolving it to an executable symbol is the Wrapper layer's
// job, not this package's.
type FuncRef uint32

// String implements fmt.Stringer.
func (f FuncRef) String() string {
	return fmt.Sprintf("f%d", uint32(f))
}

// Signature is the type of a function from the perspective of the SSA
// builder: its parameter and result Types, plus bookkeeping the builder uses
// to decide which declared signatures are actually referenced by a call and
// therefore need a corresponding wrapper emitted.
//
// Signature deliberately carries no calling-convention detail (that belongs
// to the Wrapper & ABI layer): it exists only so OpcodeCall/OpcodeCallIndirect
// can type-check their arguments and so the builder can report a function's
// result types to its callers.
type Signature struct {
	// ID is this signature's key in Builder's signature table.
	ID SignatureID
	// Name is an optional human-readable label used in debug formatting;
	// it has no semantic effect.
	Name string
	// Params and Results list parameter/return Types in order. A Signature
	// used for OpcodeCallIndirect has Params prefixed by the indirect
	// callee address's own Type (TypeI32 for a near/local indirection).
	Params, Results []Type

	// used is set to true the first time a Call/CallIndirect instruction
	// references this signature; UsedSignatures skips unused entries.
	used bool
}

// String implements fmt.Stringer.
func (s *Signature) String() string {
	var b strings.Builder
	if s.Name != "" {
		b.WriteString(s.Name)
		b.WriteByte(' ')
	}
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> (")
	for i, r := range s.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteByte(')')
	return b.String()
}
