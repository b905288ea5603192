package ir

import (
	"fmt"
	"strings"
)

// String renders a statement in Sierra text form:
//
//	felt_add(a, b) -> (c);
//	felt_jump_nz(n) { fallthrough() LOOP(n_nz) };
//	return(a);
//	LOOP:
func (s Statement) String() string {
	switch s.Kind {
	case StmtReturn:
		return fmt.Sprintf("return(%s);", joinVars(s.Vars))
	case StmtLabel:
		return string(s.Label) + ":"
	case StmtInvocation:
		return s.Invocation.String()
	default:
		return "<invalid>"
	}
}

func (inv *Invocation) String() string {
	head := fmt.Sprintf("%s(%s)", inv.ConcreteID(), joinVars(inv.Inputs))
	if len(inv.Branches) == 1 && inv.Branches[0].Target.Kind == TargetFallthrough {
		return fmt.Sprintf("%s -> (%s);", head, joinVars(inv.Branches[0].Results))
	}
	parts := make([]string, len(inv.Branches))
	for i, b := range inv.Branches {
		parts[i] = fmt.Sprintf("%s(%s)", b.Target, joinVars(b.Results))
	}
	return fmt.Sprintf("%s { %s };", head, strings.Join(parts, " "))
}

func (t BranchTarget) String() string {
	switch t.Kind {
	case TargetFallthrough:
		return "fallthrough"
	case TargetLabel:
		return string(t.Label)
	default:
		return fmt.Sprintf("%d", int(t.Statement))
	}
}

// String renders the whole program: statements, then the function table.
func (p *Program) String() string {
	var b strings.Builder
	for _, s := range p.Statements {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	if len(p.Statements) > 0 && len(p.Funcs) > 0 {
		b.WriteByte('\n')
	}
	for _, f := range p.Funcs {
		params := make([]string, len(f.Params))
		for i, prm := range f.Params {
			params[i] = fmt.Sprintf("%s: %s", prm.ID, prm.Ty)
		}
		rets := make([]string, len(f.RetTypes))
		for i, r := range f.RetTypes {
			rets[i] = r.String()
		}
		fmt.Fprintf(&b, "%s@%d(%s) -> (%s);\n", f.ID, int(f.Entry), strings.Join(params, ", "), strings.Join(rets, ", "))
	}
	return b.String()
}

func joinVars(ids []VarID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
