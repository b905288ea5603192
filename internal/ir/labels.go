package ir

import "fmt"

// LabelMap resolves branch targets to statement indices.
// Built once by scanning a statement list for Label statements.
type LabelMap struct {
	labels map[LabelID]StatementIdx
}

// NewLabelMap records the position of every Label statement.
// A label's position is the index of the statement to execute next when
// jumping to it (the label itself, which executes as a no-op).
func NewLabelMap(stmts []Statement) *LabelMap {
	m := &LabelMap{labels: make(map[LabelID]StatementIdx)}
	for i, s := range stmts {
		if s.Kind == StmtLabel {
			m.labels[s.Label] = StatementIdx(i)
		}
	}
	return m
}

// Lookup returns the index of a label.
func (m *LabelMap) Lookup(l LabelID) (StatementIdx, bool) {
	idx, ok := m.labels[l]
	return idx, ok
}

// Next resolves the statement executed after taking target from idx.
//
// Panics on an unregistered label: that can only come from a malformed
// program produced by a trusted upstream stage.
func (m *LabelMap) Next(idx StatementIdx, target BranchTarget) StatementIdx {
	switch target.Kind {
	case TargetFallthrough:
		return idx.Next()
	case TargetStatement:
		return target.Statement
	case TargetLabel:
		next, ok := m.labels[target.Label]
		if !ok {
			panic(fmt.Sprintf("ir: branch at %s targets unregistered label %q", idx, target.Label))
		}
		return next
	default:
		panic(fmt.Sprintf("ir: branch at %s has invalid target kind %d", idx, target.Kind))
	}
}

// Lower returns a copy of the program without Label statements, with every
// branch target resolved to a plain statement index and every function
// entry remapped accordingly.
//
// Returns an error if a branch names an unknown label; Lower is the
// boundary where untrusted programs (e.g. loaded from files) are checked.
func Lower(p *Program) (*Program, error) {
	labels := NewLabelMap(p.Statements)

	// newIdx[i] is the lowered index of the first non-label statement at or after i.
	newIdx := make([]StatementIdx, len(p.Statements)+1)
	next := StatementIdx(0)
	for i, s := range p.Statements {
		newIdx[i] = next
		if s.Kind != StmtLabel {
			next++
		}
	}
	newIdx[len(p.Statements)] = next

	out := &Program{
		Funcs:      make([]Function, len(p.Funcs)),
		Statements: make([]Statement, 0, int(next)),
	}
	for i, f := range p.Funcs {
		if f.Entry < 0 || int(f.Entry) > len(p.Statements) {
			return nil, fmt.Errorf("lower: function %q entry %s out of bounds", f.ID, f.Entry)
		}
		f.Entry = newIdx[f.Entry]
		out.Funcs[i] = f
	}

	for i, s := range p.Statements {
		switch s.Kind {
		case StmtLabel:
			continue
		case StmtReturn:
			out.Statements = append(out.Statements, Return(s.Vars...))
		case StmtInvocation:
			inv := *s.Invocation
			inv.Branches = make([]BranchInfo, len(s.Invocation.Branches))
			for j, b := range s.Invocation.Branches {
				var target StatementIdx
				switch b.Target.Kind {
				case TargetFallthrough:
					target = StatementIdx(i + 1)
				case TargetLabel:
					idx, ok := labels.Lookup(b.Target.Label)
					if !ok {
						return nil, fmt.Errorf("lower: statement %s branch %d targets unknown label %q", StatementIdx(i), j, b.Target.Label)
					}
					target = idx
				case TargetStatement:
					target = b.Target.Statement
					if target < 0 || int(target) > len(p.Statements) {
						return nil, fmt.Errorf("lower: statement %s branch %d targets %s out of bounds", StatementIdx(i), j, target)
					}
				}
				inv.Branches[j] = BranchInfo{
					Target:  ToStatement(newIdx[target]),
					Results: b.Results,
				}
			}
			out.Statements = append(out.Statements, Statement{Kind: StmtInvocation, Invocation: &inv})
		default:
			return nil, fmt.Errorf("lower: statement %s has invalid kind %d", StatementIdx(i), s.Kind)
		}
	}
	return out, nil
}
