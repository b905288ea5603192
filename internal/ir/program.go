package ir

// Program is a function table plus a flat statement list.
type Program struct {
	Funcs      []Function
	Statements []Statement
}

// Function is an entry in the program function table.
type Function struct {
	ID       FunctionID
	Params   []Param
	RetTypes []TypeRef
	Entry    StatementIdx
}

// Param is a typed function parameter bound to a variable.
type Param struct {
	ID VarID
	Ty TypeRef
}

// StatementKind tags the Statement variant.
type StatementKind int

const (
	// StmtInvocation invokes a libfunc.
	StmtInvocation StatementKind = iota + 1
	// StmtReturn returns from the current function.
	StmtReturn
	// StmtLabel is a no-op naming a branch target (pre-lowering only).
	StmtLabel
)

func (k StatementKind) String() string {
	switch k {
	case StmtInvocation:
		return "invocation"
	case StmtReturn:
		return "return"
	case StmtLabel:
		return "label"
	default:
		return "invalid"
	}
}

// Statement is one program statement.
// Invocation is set for StmtInvocation, Vars for StmtReturn, Label for StmtLabel.
type Statement struct {
	Kind       StatementKind
	Invocation *Invocation
	Vars       []VarID
	Label      LabelID
}

// Invocation calls a libfunc with input variables and branches on its result.
type Invocation struct {
	LibFunc  GenericLibFuncID
	Args     []GenericArg
	Inputs   []VarID
	Branches []BranchInfo
}

// ConcreteID returns the derived id of the invoked libfunc.
func (inv *Invocation) ConcreteID() ConcreteLibFuncID {
	return LibFuncLongID(inv.LibFunc, inv.Args)
}

// BranchInfo is one successor path of an invocation.
type BranchInfo struct {
	Target  BranchTarget
	Results []VarID
}

// TargetKind tags the BranchTarget variant.
type TargetKind int

const (
	// TargetFallthrough continues at the next statement.
	TargetFallthrough TargetKind = iota
	// TargetLabel jumps to a named Label statement.
	TargetLabel
	// TargetStatement jumps to a resolved statement index.
	TargetStatement
)

// BranchTarget is where control continues after a branch is taken.
type BranchTarget struct {
	Kind      TargetKind
	Label     LabelID
	Statement StatementIdx
}

// Fallthrough targets the next statement.
func Fallthrough() BranchTarget {
	return BranchTarget{Kind: TargetFallthrough}
}

// ToLabel targets a Label statement.
func ToLabel(l LabelID) BranchTarget {
	return BranchTarget{Kind: TargetLabel, Label: l}
}

// ToStatement targets a resolved statement index.
func ToStatement(idx StatementIdx) BranchTarget {
	return BranchTarget{Kind: TargetStatement, Statement: idx}
}

// Invoke builds an invocation statement.
func Invoke(libfunc GenericLibFuncID, args []GenericArg, inputs []VarID, branches ...BranchInfo) Statement {
	return Statement{
		Kind: StmtInvocation,
		Invocation: &Invocation{
			LibFunc:  libfunc,
			Args:     args,
			Inputs:   inputs,
			Branches: branches,
		},
	}
}

// Return builds a return statement.
func Return(vars ...VarID) Statement {
	return Statement{Kind: StmtReturn, Vars: vars}
}

// Label builds a label statement.
func Label(id LabelID) Statement {
	return Statement{Kind: StmtLabel, Label: id}
}

// Branch builds a branch with the given target and results.
func Branch(target BranchTarget, results ...VarID) BranchInfo {
	return BranchInfo{Target: target, Results: results}
}

// Vars is shorthand for a VarID list.
func Vars(ids ...string) []VarID {
	out := make([]VarID, len(ids))
	for i, id := range ids {
		out[i] = VarID(id)
	}
	return out
}

// Statement returns the statement at idx, or false when out of bounds.
func (p *Program) Statement(idx StatementIdx) (*Statement, bool) {
	if idx < 0 || int(idx) >= len(p.Statements) {
		return nil, false
	}
	return &p.Statements[idx], true
}

// Function looks up a function by id.
func (p *Program) Function(id FunctionID) (*Function, bool) {
	for i := range p.Funcs {
		if p.Funcs[i].ID == id {
			return &p.Funcs[i], true
		}
	}
	return nil, false
}
