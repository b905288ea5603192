package extensions

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/roach88/sierra/internal/ir"
)

// Catalog is the static table from generic id to constructor.
//
// A Catalog is built once (normally by NewCoreCatalog) and is read-only
// afterwards, so it may be shared by any number of registries. There is no
// package-level catalog; callers pass one explicitly.
type Catalog struct {
	types    map[ir.GenericTypeID]TypeConstructor
	libfuncs map[ir.GenericLibFuncID]LibFuncConstructor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		types:    make(map[ir.GenericTypeID]TypeConstructor),
		libfuncs: make(map[ir.GenericLibFuncID]LibFuncConstructor),
	}
}

// NewCoreCatalog returns a catalog holding every core type and libfunc family.
func NewCoreCatalog() *Catalog {
	c := NewCatalog()
	registerCoreTypes(c)
	registerFelt(c)
	registerUint128(c)
	registerPod(c)
	registerNonZero(c)
	registerMem(c)
	registerControl(c)
	registerBox(c)
	registerArray(c)
	registerDict(c)
	registerPedersen(c)
	registerEnum(c)
	registerStruct(c)
	return c
}

// RegisterType adds a type family. Panics on a duplicate id.
func (c *Catalog) RegisterType(id ir.GenericTypeID, ctor TypeConstructor) {
	if _, ok := c.types[id]; ok {
		panic(fmt.Sprintf("extensions: duplicate generic type id %q", id))
	}
	c.types[id] = ctor
}

// RegisterLibFunc adds a libfunc family. Panics on a duplicate id.
func (c *Catalog) RegisterLibFunc(id ir.GenericLibFuncID, ctor LibFuncConstructor) {
	if _, ok := c.libfuncs[id]; ok {
		panic(fmt.Sprintf("extensions: duplicate generic libfunc id %q", id))
	}
	c.libfuncs[id] = ctor
}

// TypeIDs returns the registered generic type ids, sorted.
func (c *Catalog) TypeIDs() []ir.GenericTypeID {
	ids := make([]ir.GenericTypeID, 0, len(c.types))
	for id := range c.types {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LibFuncIDs returns the registered generic libfunc ids, sorted.
func (c *Catalog) LibFuncIDs() []ir.GenericLibFuncID {
	ids := make([]ir.GenericLibFuncID, 0, len(c.libfuncs))
	for id := range c.libfuncs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SpecializeType resolves a generic type id and its arguments.
// Type arguments are specialized recursively through the catalog itself.
func (c *Catalog) SpecializeType(id ir.GenericTypeID, args []ir.GenericArg) (*ConcreteType, error) {
	return c.specializeType(c, id, args)
}

// Type implements TypeResolver without memoization.
func (c *Catalog) Type(ref ir.TypeRef) (*ConcreteType, error) {
	return c.SpecializeType(ref.Generic, ref.Args)
}

// SpecializeLibFunc resolves a generic libfunc id and its arguments.
// ctx resolves type arguments and user functions; a nil ctx means a
// context with no program, in which function_call cannot be specialized.
func (c *Catalog) SpecializeLibFunc(ctx SpecializationContext, id ir.GenericLibFuncID, args []ir.GenericArg) (ConcreteLibFunc, error) {
	if ctx == nil {
		ctx = standaloneContext{c}
	}
	ctor, ok := c.libfuncs[id]
	if !ok {
		return nil, unknownID(string(id))
	}
	lf, err := ctor(ctx, args)
	if err != nil {
		return nil, attribute(err, string(id))
	}
	lf.base().id = ir.LibFuncLongID(id, args)
	return lf, nil
}

func (c *Catalog) specializeType(r TypeResolver, id ir.GenericTypeID, args []ir.GenericArg) (*ConcreteType, error) {
	ctor, ok := c.types[id]
	if !ok {
		return nil, unknownID(string(id))
	}
	t, err := ctor(r, args)
	if err != nil {
		return nil, attribute(err, string(id))
	}
	t.Ref = ir.TypeRef{Generic: id, Args: args}
	t.Info.LongID = t.Ref.ID()
	return t, nil
}

// attribute stamps the failing generic id onto a specialization error
// that does not carry one yet.
func attribute(err error, id string) error {
	var se *SpecializationError
	if errors.As(err, &se) && se.ID == "" {
		return &SpecializationError{Code: se.Code, ID: id, Message: se.Message}
	}
	return err
}

type standaloneContext struct {
	*Catalog
}

func (standaloneContext) Function(ir.FunctionID) (*ir.Function, bool) {
	return nil, false
}

func registerCoreTypes(c *Catalog) {
	c.RegisterType(FeltTypeID, scalarType(TypeFelt, true, true))
	c.RegisterType(Uint128TypeID, scalarType(TypeUint128, true, true))
	c.RegisterType(RangeCheckTypeID, scalarType(TypeRangeCheck, false, false))
	c.RegisterType(PedersenTypeID, scalarType(TypePedersen, false, false))
	c.RegisterType(NonZeroTypeID, wrappedType(TypeNonZero, nonZeroInfo))
	c.RegisterType(BoxTypeID, wrappedType(TypeBox, boxInfo))
	c.RegisterType(ArrayTypeID, wrappedType(TypeArray, arrayInfo))
	c.RegisterType(DictFeltToTypeID, wrappedType(TypeDictFeltTo, dictInfo))
	c.RegisterType(SquashedDictFeltToTypeID, wrappedType(TypeSquashedDictFeltTo, squashedDictInfo))
	c.RegisterType(UninitializedTypeID, wrappedType(TypeUninitialized, uninitializedInfo))
	c.RegisterType(EnumTypeID, compositeType(TypeEnum, enumInfo))
	c.RegisterType(StructTypeID, compositeType(TypeStruct, structInfo))
}

// Argument helpers shared by the families.

func noArgs(args []ir.GenericArg) error {
	if len(args) != 0 {
		return unsupported("expected no generic arguments, got %d", len(args))
	}
	return nil
}

func singleValueArg(args []ir.GenericArg) (*big.Int, error) {
	if len(args) != 1 || args[0].Kind != ir.ArgValue || args[0].Value == nil {
		return nil, unsupported("expected a single value argument")
	}
	return args[0].Value, nil
}

func coreType(r TypeResolver, id ir.GenericTypeID) (*ConcreteType, error) {
	return r.Type(ir.T(id))
}

func wrapType(r TypeResolver, wrapper ir.GenericTypeID, inner *ConcreteType) (*ConcreteType, error) {
	return r.Type(ir.T(wrapper, ir.TypeArg(inner.Ref)))
}
