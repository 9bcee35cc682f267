package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unknown TypeID
	Nil     TypeID
	Bool    TypeID
	Integer TypeID
	Float   TypeID
	String  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[Type]TypeID, 16),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.seedBuiltins()
	return in
}

// NewInternerFrom rebuilds an interner from a Types() snapshot. IDs are
// preserved, so tables serialized next to the snapshot stay valid.
func NewInternerFrom(snapshot []Type) (*Interner, error) {
	if len(snapshot) == 0 || snapshot[0].Kind != KindInvalid {
		return nil, fmt.Errorf("types: snapshot must start with the invalid sentinel")
	}
	in := &Interner{
		types: make([]Type, 0, len(snapshot)),
		index: make(map[Type]TypeID, len(snapshot)),
	}
	for i, t := range snapshot {
		if i > 0 {
			if _, dup := in.index[t]; dup {
				return nil, fmt.Errorf("types: duplicate descriptor %v at %d", t, i)
			}
			if int(t.Elem) >= i || int(t.Key) >= i {
				return nil, fmt.Errorf("types: descriptor %d refers forward", i)
			}
		}
		in.internRaw(t)
	}
	in.seedBuiltins()
	return in, nil
}

func (in *Interner) seedBuiltins() {
	in.builtins.Unknown = in.Intern(Type{Kind: KindUnknown})
	in.builtins.Nil = in.Intern(Type{Kind: KindNil})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Integer = in.Intern(Type{Kind: KindInteger})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.String = in.Intern(Type{Kind: KindString})
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of descriptors including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}

// Types returns a copy of every descriptor indexed by TypeID.
func (in *Interner) Types() []Type {
	out := make([]Type, len(in.types))
	copy(out, in.types)
	return out
}

// String renders id as Integer, Array<String>, HashMap<Unknown, Unknown>, Class(Foo).
func (in *Interner) String(id TypeID) string {
	var sb strings.Builder
	in.format(&sb, id)
	return sb.String()
}

func (in *Interner) format(sb *strings.Builder, id TypeID) {
	t, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<invalid>")
		return
	}
	switch t.Kind {
	case KindArray:
		sb.WriteString("Array<")
		in.format(sb, t.Elem)
		sb.WriteByte('>')
	case KindHashMap:
		sb.WriteString("HashMap<")
		in.format(sb, t.Key)
		sb.WriteString(", ")
		in.format(sb, t.Elem)
		sb.WriteByte('>')
	case KindClass:
		sb.WriteString("Class(")
		sb.WriteString(t.Name)
		sb.WriteByte(')')
	default:
		sb.WriteString(t.Kind.String())
	}
}
