package wasm

// ValueType is the type of a Wasm value at the source level: i32, i64, f32,
// f64, v128, funcref or externref. See spec.md §3.1.
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b
	ValueTypeFuncref ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the human-readable name of a ValueType, as used by
// FunctionType.String.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return "unknown"
	}
}

// Index is a 0-based index used throughout the module to reference types,
// functions, tables, memories, globals, locals, labels and data/elem segments.
type Index = uint32

// FunctionType is a function signature: an ordered list of parameter and
// result ValueTypes. Equal signatures must compare equal by value so they can
// key the Context's wrapper-deduplication map (spec.md §4.3).
type FunctionType struct {
	Params, Results []ValueType

	// id is a cached canonical string key, lazily computed by ID().
	id string
}

// FunctionTypeID uniquely identifies a FunctionType's shape (not identity) so
// that structurally-equal types can share a single wrapper (spec.md §4.3,
// "Duplicate function types alias to a single wrapper").
type FunctionTypeID string

// ID returns the FunctionTypeID for this signature.
func (t *FunctionType) ID() FunctionTypeID {
	if t.id == "" {
		buf := make([]byte, 0, len(t.Params)+len(t.Results)+1)
		buf = append(buf, t.Params...)
		buf = append(buf, '-')
		buf = append(buf, t.Results...)
		t.id = string(buf)
	}
	return FunctionTypeID(t.id)
}

func (t *FunctionType) String() string {
	s := "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += ValueTypeName(p)
	}
	s += ") -> ("
	for i, r := range t.Results {
		if i > 0 {
			s += ", "
		}
		s += ValueTypeName(r)
	}
	return s + ")"
}
