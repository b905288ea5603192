// Package apchange computes, for every libfunc invocation of a program,
// how each of its branches moves the allocation pointer (ap).
//
// The code generator tracks the position of temporaries relative to ap.
// That is only possible while the change to ap along every path is known
// statically; where it is not, the generator must revoke ap tracking.
//
// Changes are computed in two steps. CoreLibFuncApChange maps a concrete
// libfunc to one ApChange per branch using local knowledge only.
// Calculate then resolves function calls by summarizing each function's
// net ap change over the call graph.
package apchange

import (
	"fmt"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// Kind tags the ApChange variant.
type Kind int

const (
	// KindKnown is a fixed change of Value cells.
	KindKnown Kind = iota + 1
	// KindKnownByTypeSize changes ap by the size of Type.
	KindKnownByTypeSize
	// KindFunctionCall changes ap by the net change of Function.
	KindFunctionCall
	// KindFinalizeLocals marks the point where the frame's locals are
	// allocated; it does not move ap relative to the tracked temporaries.
	KindFinalizeLocals
	// KindUnknown cannot be determined statically.
	KindUnknown
)

// ApChange is the change to ap caused by one branch of a libfunc.
type ApChange struct {
	Kind     Kind
	Value    int
	Type     *extensions.ConcreteType
	Function ir.FunctionID
}

// Known returns a fixed change of n cells.
func Known(n int) ApChange {
	return ApChange{Kind: KindKnown, Value: n}
}

// KnownByTypeSize returns a change of ty.Size() cells.
func KnownByTypeSize(ty *extensions.ConcreteType) ApChange {
	return ApChange{Kind: KindKnownByTypeSize, Type: ty}
}

// FunctionCall returns the change of calling fn.
func FunctionCall(fn ir.FunctionID) ApChange {
	return ApChange{Kind: KindFunctionCall, Function: fn}
}

// FinalizeLocals returns the finalize_locals marker.
func FinalizeLocals() ApChange {
	return ApChange{Kind: KindFinalizeLocals}
}

// Unknown returns the unknown change.
func Unknown() ApChange {
	return ApChange{Kind: KindUnknown}
}

func (a ApChange) String() string {
	switch a.Kind {
	case KindKnown:
		return fmt.Sprintf("Known(%d)", a.Value)
	case KindKnownByTypeSize:
		return fmt.Sprintf("KnownByTypeSize(%s)", a.Type.ID())
	case KindFunctionCall:
		return fmt.Sprintf("FunctionCall(%s)", a.Function)
	case KindFinalizeLocals:
		return "FinalizeLocals"
	case KindUnknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// MarshalText renders the change like String, for JSON reports.
func (a ApChange) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
