package extensions

import "github.com/roach88/sierra/internal/ir"

// StructConstruct packs its inputs into a struct value.
type StructConstruct struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *StructConstruct) Accept(v LibFuncVisitor) { v.VisitStructConstruct(lf) }

// StructDeconstruct splits a struct value into its members.
type StructDeconstruct struct {
	libFuncBase
	Ty *ConcreteType
}

func (lf *StructDeconstruct) Accept(v LibFuncVisitor) { v.VisitStructDeconstruct(lf) }

func registerStruct(c *Catalog) {
	c.RegisterLibFunc("struct_construct", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := typeArgOfKind(ctx, args, TypeStruct)
		if err != nil {
			return nil, err
		}
		params := make([]ParamSignature, len(ty.Members))
		for i, m := range ty.Members {
			params[i] = param(m)
		}
		sig := nonBranch(params, []OutputVarInfo{output(ty, DeferredGenericRef())}, KnownApChange(true))
		return &StructConstruct{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
	c.RegisterLibFunc("struct_deconstruct", func(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
		ty, err := typeArgOfKind(ctx, args, TypeStruct)
		if err != nil {
			return nil, err
		}
		outputs := make([]OutputVarInfo, len(ty.Members))
		for i, m := range ty.Members {
			outputs[i] = output(m, DeferredGenericRef())
		}
		sig := nonBranch([]ParamSignature{param(ty)}, outputs, KnownApChange(true))
		return &StructDeconstruct{libFuncBase: withSignature(sig), Ty: ty}, nil
	})
}
