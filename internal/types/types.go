package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown — тип не выводится из литерала.
	KindUnknown
	KindNil
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindHashMap
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "Unknown"
	case KindNil:
		return "Nil"
	case KindBool:
		return "Bool"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindHashMap:
		return "HashMap"
	case KindClass:
		return "Class"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsPrimitive reports whether k is one of the scalar literal kinds.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindNil, KindBool, KindInteger, KindFloat, KindString:
		return true
	default:
		return false
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind Kind
	Elem TypeID // element of Array, value of HashMap
	Key  TypeID // key of HashMap
	Name string // class name for KindClass
}

// Descriptor helpers ---------------------------------------------------------

// MakeArray describes an array of elem.
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// MakeHashMap describes a hash keyed by a primitive (or Unknown) key type.
func MakeHashMap(key, value TypeID) Type {
	return Type{Kind: KindHashMap, Key: key, Elem: value}
}

// MakeClass describes an instance of a named class.
func MakeClass(name string) Type {
	return Type{Kind: KindClass, Name: name}
}
