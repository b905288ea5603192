package extensions

import "github.com/roach88/sierra/internal/ir"

// Generic type ids of the core catalog.
const (
	FeltTypeID               ir.GenericTypeID = "felt"
	Uint128TypeID            ir.GenericTypeID = "uint128"
	RangeCheckTypeID         ir.GenericTypeID = "RangeCheck"
	PedersenTypeID           ir.GenericTypeID = "Pedersen"
	NonZeroTypeID            ir.GenericTypeID = "NonZero"
	BoxTypeID                ir.GenericTypeID = "Box"
	ArrayTypeID              ir.GenericTypeID = "Array"
	DictFeltToTypeID         ir.GenericTypeID = "DictFeltTo"
	SquashedDictFeltToTypeID ir.GenericTypeID = "SquashedDictFeltTo"
	UninitializedTypeID      ir.GenericTypeID = "Uninitialized"
	EnumTypeID               ir.GenericTypeID = "Enum"
	StructTypeID             ir.GenericTypeID = "Struct"
)

// TypeInfo describes how values of a concrete type may be used.
//
// A non-duplicatable value must be consumed exactly once on every path;
// a non-droppable value must be consumed and never silently discarded.
type TypeInfo struct {
	LongID       ir.ConcreteTypeID
	Storable     bool
	Droppable    bool
	Duplicatable bool
	Size         int
}

// TypeKind tags the ConcreteType variant.
type TypeKind int

const (
	TypeFelt TypeKind = iota + 1
	TypeUint128
	TypeRangeCheck
	TypePedersen
	TypeNonZero
	TypeBox
	TypeArray
	TypeDictFeltTo
	TypeSquashedDictFeltTo
	TypeUninitialized
	TypeEnum
	TypeStruct
)

// ConcreteType is one type specialization.
// Inner is the wrapped type for NonZero, Box, Array, the dict types and
// Uninitialized; nil otherwise. Members are the variants of an Enum or
// the members of a Struct.
type ConcreteType struct {
	Ref     ir.TypeRef
	Kind    TypeKind
	Info    TypeInfo
	Inner   *ConcreteType
	Members []*ConcreteType
}

// ID returns the concrete type id.
func (t *ConcreteType) ID() ir.ConcreteTypeID {
	return t.Info.LongID
}

// Size returns the number of memory cells a value of this type occupies.
func (t *ConcreteType) Size() int {
	return t.Info.Size
}

// TypeConstructor specializes one generic type family.
type TypeConstructor func(r TypeResolver, args []ir.GenericArg) (*ConcreteType, error)

// TypeResolver specializes type references.
type TypeResolver interface {
	Type(ref ir.TypeRef) (*ConcreteType, error)
}

func scalarType(kind TypeKind, droppable, duplicatable bool) TypeConstructor {
	return func(_ TypeResolver, args []ir.GenericArg) (*ConcreteType, error) {
		if len(args) != 0 {
			return nil, unsupported("expected no generic arguments, got %d", len(args))
		}
		return &ConcreteType{
			Kind: kind,
			Info: TypeInfo{Storable: true, Droppable: droppable, Duplicatable: duplicatable, Size: 1},
		}, nil
	}
}

// wrappedType builds a family with a single type argument; info derives
// the wrapper's info from the inner type's.
func wrappedType(kind TypeKind, info func(inner TypeInfo) (TypeInfo, error)) TypeConstructor {
	return func(r TypeResolver, args []ir.GenericArg) (*ConcreteType, error) {
		inner, err := singleTypeArg(r, args)
		if err != nil {
			return nil, err
		}
		ti, err := info(inner.Info)
		if err != nil {
			return nil, err
		}
		return &ConcreteType{Kind: kind, Info: ti, Inner: inner}, nil
	}
}

func nonZeroInfo(inner TypeInfo) (TypeInfo, error) {
	return inner, nil
}

func boxInfo(inner TypeInfo) (TypeInfo, error) {
	if !inner.Storable {
		return TypeInfo{}, unsupported("boxed type %s is not storable", inner.LongID)
	}
	return TypeInfo{Storable: true, Droppable: inner.Droppable, Duplicatable: inner.Duplicatable, Size: 1}, nil
}

func arrayInfo(inner TypeInfo) (TypeInfo, error) {
	if !inner.Storable {
		return TypeInfo{}, unsupported("array element type %s is not storable", inner.LongID)
	}
	return TypeInfo{Storable: true, Droppable: inner.Droppable, Size: 2}, nil
}

func dictInfo(inner TypeInfo) (TypeInfo, error) {
	if !inner.Storable {
		return TypeInfo{}, unsupported("dict value type %s is not storable", inner.LongID)
	}
	return TypeInfo{Storable: true, Size: 1}, nil
}

func squashedDictInfo(inner TypeInfo) (TypeInfo, error) {
	if !inner.Storable {
		return TypeInfo{}, unsupported("dict value type %s is not storable", inner.LongID)
	}
	return TypeInfo{Storable: true, Droppable: true, Size: 1}, nil
}

func uninitializedInfo(inner TypeInfo) (TypeInfo, error) {
	if !inner.Storable {
		return TypeInfo{}, unsupported("type %s is not storable", inner.LongID)
	}
	return TypeInfo{Droppable: true}, nil
}

// compositeType builds a family whose arguments are all types.
func compositeType(kind TypeKind, info func(members []TypeInfo) (TypeInfo, error)) TypeConstructor {
	return func(r TypeResolver, args []ir.GenericArg) (*ConcreteType, error) {
		members, err := typeArgs(r, args)
		if err != nil {
			return nil, err
		}
		infos := make([]TypeInfo, len(members))
		for i, m := range members {
			infos[i] = m.Info
		}
		ti, err := info(infos)
		if err != nil {
			return nil, err
		}
		return &ConcreteType{Kind: kind, Info: ti, Members: members}, nil
	}
}

// enumInfo lays a value out as the variant index followed by the variant
// payload, padded to the largest variant.
func enumInfo(variants []TypeInfo) (TypeInfo, error) {
	if len(variants) == 0 {
		return TypeInfo{}, unsupported("enum needs at least one variant")
	}
	info, err := allOf(variants)
	if err != nil {
		return TypeInfo{}, err
	}
	payload := 0
	for _, v := range variants {
		payload = max(payload, v.Size)
	}
	info.Size = 1 + payload
	return info, nil
}

// structInfo lays members out back to back.
func structInfo(members []TypeInfo) (TypeInfo, error) {
	info, err := allOf(members)
	if err != nil {
		return TypeInfo{}, err
	}
	for _, m := range members {
		info.Size += m.Size
	}
	return info, nil
}

// allOf is storable, droppable or duplicatable when every part is.
func allOf(parts []TypeInfo) (TypeInfo, error) {
	info := TypeInfo{Storable: true, Droppable: true, Duplicatable: true}
	for _, p := range parts {
		if !p.Storable {
			return TypeInfo{}, unsupported("type %s is not storable", p.LongID)
		}
		info.Droppable = info.Droppable && p.Droppable
		info.Duplicatable = info.Duplicatable && p.Duplicatable
	}
	return info, nil
}

func typeArgs(r TypeResolver, args []ir.GenericArg) ([]*ConcreteType, error) {
	out := make([]*ConcreteType, len(args))
	for i, a := range args {
		if a.Kind != ir.ArgType || a.Type == nil {
			return nil, unsupported("argument %d: expected a type", i)
		}
		ty, err := r.Type(*a.Type)
		if err != nil {
			return nil, err
		}
		out[i] = ty
	}
	return out, nil
}

func singleTypeArg(r TypeResolver, args []ir.GenericArg) (*ConcreteType, error) {
	if len(args) != 1 || args[0].Kind != ir.ArgType || args[0].Type == nil {
		return nil, unsupported("expected a single type argument")
	}
	return r.Type(*args[0].Type)
}
