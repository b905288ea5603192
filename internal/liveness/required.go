// Package liveness computes, for each statement, the variables that must be
// bound on entry because a later statement reads them.
//
// The result feeds the pass that inserts explicit dup and drop
// invocations: a variable that is required by more than one successor
// must be duplicated, and one that is bound but not required must be
// dropped.
package liveness

import (
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// RequiredVars returns the required variables of every statement, indexed
// by statement.
//
//	Invocation: union over branches of (required(target) - results), then
//	            the invocation's own inputs.
//	Return:     exactly the returned variables.
//	Label:      required(i+1).
//
// Branches may jump backwards, so the sets are computed with a worklist
// iterated to a fixed point. On acyclic control flow every statement is
// evaluated once its successors are final.
func RequiredVars(stmts []ir.Statement) ([]*VarSet, error) {
	succ, err := successors(stmts)
	if err != nil {
		return nil, err
	}

	preds := make([][]int, len(stmts))
	for i, next := range succ {
		for _, j := range next {
			preds[j] = append(preds[j], i)
		}
	}

	required := make([]*VarSet, len(stmts))
	for i := range required {
		required[i] = NewVarSet()
	}

	// Backward problem: seed in reverse so straight-line code settles in
	// one pass.
	queued := make([]bool, len(stmts))
	work := make([]int, 0, len(stmts))
	for i := len(stmts) - 1; i >= 0; i-- {
		work = append(work, i)
		queued[i] = true
	}

	for len(work) > 0 {
		i := work[0]
		work = work[1:]
		queued[i] = false

		next := transfer(stmts[i], succ[i], required)
		if next.Equal(required[i]) {
			continue
		}
		required[i] = next
		for _, p := range preds[i] {
			if !queued[p] {
				queued[p] = true
				work = append(work, p)
			}
		}
	}
	return required, nil
}

func transfer(s ir.Statement, succ []int, required []*VarSet) *VarSet {
	switch s.Kind {
	case ir.StmtReturn:
		return NewVarSet(s.Vars...)
	case ir.StmtLabel:
		return NewVarSet(required[succ[0]].order...)
	default:
		out := NewVarSet()
		for j, b := range s.Invocation.Branches {
			results := NewVarSet(b.Results...)
			for _, id := range required[succ[j]].order {
				if !results.Contains(id) {
					out.Add(id)
				}
			}
		}
		for _, id := range s.Invocation.Inputs {
			out.Add(id)
		}
		return out
	}
}

// successors resolves, per statement, the index of each successor: one per
// branch for invocations, the next statement for labels, none for returns.
func successors(stmts []ir.Statement) ([][]int, error) {
	labels := ir.NewLabelMap(stmts)
	succ := make([][]int, len(stmts))

	inBounds := func(i int, next ir.StatementIdx) (int, error) {
		if next < 0 || int(next) >= len(stmts) {
			return 0, &Error{Code: ErrCodeStatementOutOfBounds, Statement: ir.StatementIdx(i),
				Message: fmt.Sprintf("successor %s outside %d statements", next, len(stmts))}
		}
		return int(next), nil
	}

	for i, s := range stmts {
		idx := ir.StatementIdx(i)
		switch s.Kind {
		case ir.StmtReturn:
		case ir.StmtLabel:
			j, err := inBounds(i, idx.Next())
			if err != nil {
				return nil, err
			}
			succ[i] = []int{j}
		case ir.StmtInvocation:
			succ[i] = make([]int, len(s.Invocation.Branches))
			for b, br := range s.Invocation.Branches {
				if br.Target.Kind == ir.TargetLabel {
					if _, ok := labels.Lookup(br.Target.Label); !ok {
						return nil, &Error{Code: ErrCodeUnknownLabel, Statement: idx,
							Message: fmt.Sprintf("branch %d targets unknown label %q", b, br.Target.Label)}
					}
				}
				j, err := inBounds(i, labels.Next(idx, br.Target))
				if err != nil {
					return nil, err
				}
				succ[i][b] = j
			}
		default:
			return nil, &Error{Code: ErrCodeInvalidStatement, Statement: idx,
				Message: fmt.Sprintf("invalid statement kind %d", s.Kind)}
		}
	}
	return succ, nil
}
