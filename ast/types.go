package ast

// Type is a type expression.
type Type interface{ isType() }

// Primitive is a built-in primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

// Array is [T].
type Array struct {
	Elem Type
}

// Map is {K: V}.
type Map struct {
	Key   Type
	Value Type
}

// Optional is T?.
type Optional struct {
	Elem Type
}

// Named references a declared type by name.
type Named struct {
	Name string
}

func (Primitive) isType() {}
func (Array) isType()     {}
func (Map) isType()       {}
func (Optional) isType()  {}
func (Named) isType()     {}

// PrimitiveKind enumerates the built-in primitive types.
type PrimitiveKind uint8

const (
	Bool PrimitiveKind = iota
	U8
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F32
	F64
	String
	UUID
	Timestamp
	Bytes
)

var primitiveNames = [...]string{
	Bool:      "bool",
	U8:        "u8",
	U16:       "u16",
	U32:       "u32",
	U64:       "u64",
	I8:        "i8",
	I16:       "i16",
	I32:       "i32",
	I64:       "i64",
	F32:       "f32",
	F64:       "f64",
	String:    "string",
	UUID:      "uuid",
	Timestamp: "timestamp",
	Bytes:     "bytes",
}

func (k PrimitiveKind) String() string {
	if int(k) < len(primitiveNames) {
		return primitiveNames[k]
	}
	return "unknown"
}

// PrimitiveByName resolves a primitive type name. The second result is false
// if the name is not a built-in primitive.
func PrimitiveByName(name string) (PrimitiveKind, bool) {
	for k, n := range primitiveNames {
		if n == name {
			return PrimitiveKind(k), true
		}
	}
	return 0, false
}
