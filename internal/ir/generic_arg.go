package ir

import (
	"math/big"
	"strings"
)

// GenericArgKind tags the GenericArg variant.
type GenericArgKind int

const (
	// ArgValue is an arbitrary-precision integer argument.
	ArgValue GenericArgKind = iota + 1
	// ArgType is a reference to a specialized type.
	ArgType
	// ArgUserFunc is a reference to a user function in the program.
	ArgUserFunc
)

func (k GenericArgKind) String() string {
	switch k {
	case ArgValue:
		return "value"
	case ArgType:
		return "type"
	case ArgUserFunc:
		return "user_func"
	default:
		return "invalid"
	}
}

// GenericArg is one specialization argument.
// Exactly one of Value, Type, Func is meaningful, selected by Kind.
type GenericArg struct {
	Kind  GenericArgKind
	Value *big.Int
	Type  *TypeRef
	Func  FunctionID
}

// ValueArg creates a value argument.
func ValueArg(v *big.Int) GenericArg {
	return GenericArg{Kind: ArgValue, Value: new(big.Int).Set(v)}
}

// IntArg creates a value argument from an int64.
func IntArg(v int64) GenericArg {
	return GenericArg{Kind: ArgValue, Value: big.NewInt(v)}
}

// TypeArg creates a type argument.
func TypeArg(t TypeRef) GenericArg {
	return GenericArg{Kind: ArgType, Type: &t}
}

// UserFuncArg creates a user function argument.
func UserFuncArg(id FunctionID) GenericArg {
	return GenericArg{Kind: ArgUserFunc, Func: id}
}

// String renders the argument the way it appears inside a long id.
func (a GenericArg) String() string {
	switch a.Kind {
	case ArgValue:
		if a.Value == nil {
			return "0"
		}
		return a.Value.String()
	case ArgType:
		if a.Type == nil {
			return "<nil>"
		}
		return string(a.Type.ID())
	case ArgUserFunc:
		return "user@" + string(a.Func)
	default:
		return "<invalid>"
	}
}

// Equal reports whether two arguments denote the same specialization input.
func (a GenericArg) Equal(b GenericArg) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ArgValue:
		return a.Value != nil && b.Value != nil && a.Value.Cmp(b.Value) == 0
	case ArgType:
		return a.Type != nil && b.Type != nil && a.Type.ID() == b.Type.ID()
	case ArgUserFunc:
		return a.Func == b.Func
	}
	return false
}

// canonical returns the argument as a canonical-JSON-ready value.
func (a GenericArg) canonical() map[string]any {
	switch a.Kind {
	case ArgValue:
		return map[string]any{"value": a.String()}
	case ArgType:
		if a.Type == nil {
			return map[string]any{"type": nil}
		}
		return map[string]any{"type": a.Type.canonical()}
	default:
		return map[string]any{"user_func": string(a.Func)}
	}
}

// TypeRef names a type specialization by generic id and arguments.
type TypeRef struct {
	Generic GenericTypeID
	Args    []GenericArg
}

// T is shorthand for building a TypeRef.
// Example: T("NonZero", TypeArg(T("felt")))
func T(generic GenericTypeID, args ...GenericArg) TypeRef {
	return TypeRef{Generic: generic, Args: args}
}

// ID returns the derived concrete type id.
func (t TypeRef) ID() ConcreteTypeID {
	return ConcreteTypeID(longID(string(t.Generic), t.Args))
}

func (t TypeRef) String() string {
	return string(t.ID())
}

func (t TypeRef) canonical() map[string]any {
	return map[string]any{
		"generic": string(t.Generic),
		"args":    canonicalArgs(t.Args),
	}
}

// LibFuncLongID returns the derived concrete libfunc id for a specialization.
func LibFuncLongID(generic GenericLibFuncID, args []GenericArg) ConcreteLibFuncID {
	return ConcreteLibFuncID(longID(string(generic), args))
}

func longID(generic string, args []GenericArg) string {
	if len(args) == 0 {
		return generic
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return generic + "<" + strings.Join(parts, ", ") + ">"
}

func canonicalArgs(args []GenericArg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a.canonical()
	}
	return out
}
