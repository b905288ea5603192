package ir

import "fmt"

// GenericTypeID names a type family, e.g. "felt", "uint128", "NonZero".
type GenericTypeID string

// GenericLibFuncID names a libfunc family, e.g. "felt_add", "store_temp".
type GenericLibFuncID string

// ConcreteTypeID is the derived identity of one type specialization.
// Format: generic id followed by the rendered args, e.g. "NonZero<felt>".
type ConcreteTypeID string

// ConcreteLibFuncID is the derived identity of one libfunc specialization.
// Format: generic id followed by the rendered args, e.g. "felt_add<5>".
type ConcreteLibFuncID string

// FunctionID names a user function in the program function table.
type FunctionID string

// VarID names a single-assignment binding inside one function body.
type VarID string

// LabelID names a pre-lowering Label statement.
type LabelID string

// StatementIdx is a 0-based index into Program.Statements.
type StatementIdx int

// Next returns the index of the following statement.
func (s StatementIdx) Next() StatementIdx {
	return s + 1
}

func (s StatementIdx) String() string {
	return fmt.Sprintf("#%d", int(s))
}
