package extensions

import "github.com/roach88/sierra/internal/ir"

// EnumInit wraps a value as variant Index of an enum.
type EnumInit struct {
	libFuncBase
	Ty    *ConcreteType
	Index int
}

func (lf *EnumInit) Accept(v LibFuncVisitor) { v.VisitEnumInit(lf) }

// EnumMatch branches on the variant of an enum value; branch i yields
// the payload of variant i.
type EnumMatch struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *EnumMatch) Accept(v LibFuncVisitor) { v.VisitEnumMatch(lf) }

func registerEnum(c *Catalog) {
	c.RegisterLibFunc("enum_init", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		if len(args) != 2 || args[1].Kind != ir.ArgValue || args[1].Value == nil {
			return nil, unsupported("expected an enum type and a variant index")
		}
		ty, err := typeArgOfKind(ctx, args[:1], TypeEnum)
		if err != nil {
			return nil, err
		}
		idx := args[1].Value
		if idx.Sign() < 0 || !idx.IsInt64() || idx.Int64() >= int64(len(ty.Members)) {
			return nil, unsupported("variant index %s out of range for %s", idx, ty.ID())
		}
		variant := ty.Members[idx.Int64()]
		sig := nonBranch([]ParamSignature{param(variant)}, []OutputVarInfo{output(ty, DeferredGenericRef())}, KnownApChange(true))
		return &EnumInit{libFuncBase: withSignature(sig), Ty: ty, Index: int(idx.Int64())}, nil
	})
	c.RegisterLibFunc("enum_match", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := typeArgOfKind(ctx, args, TypeEnum)
		if err != nil {
			return nil, err
		}
		branches := make([]BranchSignature, len(ty.Members))
		for i, variant := range ty.Members {
			branches[i] = branch(KnownApChange(false), output(variant, DeferredGenericRef()))
		}
		sig := &LibFuncSignature{
			Params:      []ParamSignature{param(ty)},
			Branches:    branches,
			Fallthrough: fallthroughAt(0),
		}
		return &EnumMatch{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}

// typeArgOfKind resolves a single type argument and checks its family.
func typeArgOfKind(r TypeResolver, args []ir.GenericArg, kind TypeKind) (*ConcreteType, error) {
	ty, err := singleTypeArg(r, args)
	if err != nil {
		return nil, err
	}
	if ty.Kind != kind {
		return nil, unsupported("%s is not a %s", ty.ID(), kindFamily[kind])
	}
	return ty, nil
}

var kindFamily = map[TypeKind]ir.GenericTypeID{
	TypeEnum:   EnumTypeID,
	TypeStruct: StructTypeID,
}
