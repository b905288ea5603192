package apchange

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// ProgramInfo holds the ap changes of every invocation of a program and
// the net ap change of every function.
type ProgramInfo struct {
	statements [][]ApChange
	functions  map[ir.FunctionID]ApChange
	components [][]ir.FunctionID
}

// Statement returns the per-branch changes of the invocation at idx, or
// nil for Return and Label statements.
func (p *ProgramInfo) Statement(idx ir.StatementIdx) []ApChange {
	if idx < 0 || int(idx) >= len(p.statements) {
		return nil
	}
	return p.statements[idx]
}

// Function returns the net change of fn from entry to return: Known(n) or
// Unknown.
func (p *ProgramInfo) Function(fn ir.FunctionID) (ApChange, bool) {
	a, ok := p.functions[fn]
	return a, ok
}

// Components returns the strongly connected components of the call graph,
// callees before callers.
func (p *ProgramInfo) Components() [][]ir.FunctionID {
	return p.components
}

// Resolved returns the numeric change of one branch of the invocation at
// idx. It reports false when the change is Unknown, directly or through a
// callee.
func (p *ProgramInfo) Resolved(idx ir.StatementIdx, branch int) (int, bool) {
	changes := p.Statement(idx)
	if branch < 0 || branch >= len(changes) {
		return 0, false
	}
	return p.resolve(changes[branch])
}

func (p *ProgramInfo) resolve(a ApChange) (int, bool) {
	switch a.Kind {
	case KindKnown:
		return a.Value, true
	case KindKnownByTypeSize:
		return a.Type.Size(), true
	case KindFinalizeLocals:
		return 0, true
	case KindFunctionCall:
		s, ok := p.functions[a.Function]
		if !ok || s.Kind != KindKnown {
			return 0, false
		}
		return s.Value, true
	default:
		return 0, false
	}
}

// Option configures Calculate.
type Option func(*analyzer)

// WithLogger sets the logger used for per-function debug output.
// Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(a *analyzer) {
		a.logger = logger
	}
}

// Calculate computes the ap changes of the registry's program.
//
// Every invocation is specialized and mapped through CoreLibFuncApChange.
// Function summaries are then computed over the call graph one strongly
// connected component at a time, callees first. Inside a component the
// summaries are refined until they stop changing, which handles direct and
// mutual recursion. A function whose return paths disagree on the net
// change, or that cannot return at all, is Unknown.
func Calculate(registry *extensions.ProgramRegistry, opts ...Option) (*ProgramInfo, error) {
	a := &analyzer{
		registry: registry,
		program:  registry.Program(),
		labels:   ir.NewLabelMap(registry.Program().Statements),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		info: &ProgramInfo{
			statements: make([][]ApChange, len(registry.Program().Statements)),
			functions:  make(map[ir.FunctionID]ApChange, len(registry.Program().Funcs)),
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.statementChanges(); err != nil {
		return nil, err
	}
	graph, err := a.callGraph()
	if err != nil {
		return nil, err
	}

	a.info.components = ir.StronglyConnected(a.program.Funcs, graph)
	summaries := make(map[ir.FunctionID]offset, len(a.program.Funcs))
	for _, scc := range a.info.components {
		a.solveComponent(scc, summaries)
	}
	return a.info, nil
}

type analyzer struct {
	registry *extensions.ProgramRegistry
	program  *ir.Program
	labels   *ir.LabelMap
	logger   *slog.Logger
	info     *ProgramInfo
}

func (a *analyzer) statementChanges() error {
	for i, s := range a.program.Statements {
		if s.Kind != ir.StmtInvocation {
			continue
		}
		idx := ir.StatementIdx(i)
		lf, err := a.registry.Invocation(s.Invocation)
		if err != nil {
			return &AnalysisError{Code: ErrCodeSpecialization, Statement: idx, Err: err}
		}
		changes := CoreLibFuncApChange(lf)
		if len(changes) != len(s.Invocation.Branches) {
			return &AnalysisError{
				Code:      ErrCodeBranchCountMismatch,
				Statement: idx,
				Err:       fmt.Errorf("%s has %d branches, invocation lists %d", lf.ID(), len(changes), len(s.Invocation.Branches)),
			}
		}
		a.info.statements[i] = changes
	}
	return nil
}

// successor resolves a branch target without panicking on unknown labels.
func (a *analyzer) successor(fn ir.FunctionID, idx ir.StatementIdx, target ir.BranchTarget) (ir.StatementIdx, error) {
	if target.Kind == ir.TargetLabel {
		if _, ok := a.labels.Lookup(target.Label); !ok {
			return 0, &AnalysisError{
				Code:      ErrCodeUnknownLabel,
				Function:  fn,
				Statement: idx,
				Err:       fmt.Errorf("unknown label %q", target.Label),
			}
		}
	}
	return a.labels.Next(idx, target), nil
}

// reachable lists the statements reachable from f's entry, failing on
// targets outside the program.
func (a *analyzer) reachable(f *ir.Function) ([]ir.StatementIdx, error) {
	seen := make(map[ir.StatementIdx]bool)
	var order []ir.StatementIdx
	work := []ir.StatementIdx{f.Entry}
	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		if seen[idx] {
			continue
		}
		stmt, ok := a.program.Statement(idx)
		if !ok {
			return nil, &AnalysisError{
				Code:      ErrCodeStatementOutOfBounds,
				Function:  f.ID,
				Statement: idx,
				Err:       fmt.Errorf("program has %d statements", len(a.program.Statements)),
			}
		}
		seen[idx] = true
		order = append(order, idx)

		switch stmt.Kind {
		case ir.StmtLabel:
			work = append(work, idx.Next())
		case ir.StmtInvocation:
			for _, b := range stmt.Invocation.Branches {
				next, err := a.successor(f.ID, idx, b.Target)
				if err != nil {
					return nil, err
				}
				work = append(work, next)
			}
		}
	}
	return order, nil
}

// callGraph maps each function to the functions called from its reachable
// statements, in statement order.
func (a *analyzer) callGraph() (map[ir.FunctionID][]ir.FunctionID, error) {
	graph := make(map[ir.FunctionID][]ir.FunctionID, len(a.program.Funcs))
	for i := range a.program.Funcs {
		f := &a.program.Funcs[i]
		stmts, err := a.reachable(f)
		if err != nil {
			return nil, err
		}
		callees := []ir.FunctionID{}
		for _, idx := range stmts {
			for _, c := range a.info.statements[idx] {
				if c.Kind == KindFunctionCall {
					callees = append(callees, c.Function)
				}
			}
		}
		graph[f.ID] = callees
	}
	return graph, nil
}

func (a *analyzer) solveComponent(scc []ir.FunctionID, summaries map[ir.FunctionID]offset) {
	rounds := 0
	for changed := true; changed; rounds++ {
		changed = false
		for _, id := range scc {
			f, _ := a.program.Function(id)
			s := a.summarize(f, summaries)
			if s != summaries[id] {
				summaries[id] = s
				changed = true
			}
		}
	}

	for _, id := range scc {
		s := summaries[id]
		if s.state == unreached {
			// Never returns.
			s = offset{state: unknown}
			summaries[id] = s
		}
		a.info.functions[id] = s.apChange()
		a.logger.Debug("function summary", "function", id, "ap_change", a.info.functions[id], "rounds", rounds)
	}
}

// summarize propagates the ap offset from f's entry to its returns.
// Statements already validated by reachable are assumed in bounds.
func (a *analyzer) summarize(f *ir.Function, summaries map[ir.FunctionID]offset) offset {
	at := map[ir.StatementIdx]offset{f.Entry: {state: known}}
	work := []ir.StatementIdx{f.Entry}
	result := offset{}

	flow := func(next ir.StatementIdx, v offset) {
		merged := at[next].join(v)
		if merged != at[next] {
			at[next] = merged
			work = append(work, next)
		}
	}

	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		cur := at[idx]
		stmt, _ := a.program.Statement(idx)

		switch stmt.Kind {
		case ir.StmtLabel:
			flow(idx.Next(), cur)
		case ir.StmtReturn:
			result = result.join(cur)
		case ir.StmtInvocation:
			changes := a.info.statements[idx]
			for j, b := range stmt.Invocation.Branches {
				flow(a.labels.Next(idx, b.Target), cur.add(a.delta(changes[j], summaries)))
			}
		}
	}
	return result
}

func (a *analyzer) delta(c ApChange, summaries map[ir.FunctionID]offset) offset {
	switch c.Kind {
	case KindKnown:
		return offset{state: known, n: c.Value}
	case KindKnownByTypeSize:
		return offset{state: known, n: c.Type.Size()}
	case KindFinalizeLocals:
		return offset{state: known}
	case KindFunctionCall:
		return summaries[c.Function]
	default:
		return offset{state: unknown}
	}
}

// offset is the lattice unreached < known(n) < unknown.
type offset struct {
	state offsetState
	n     int
}

type offsetState int

const (
	unreached offsetState = iota
	known
	unknown
)

func (o offset) join(p offset) offset {
	switch {
	case o.state == unreached:
		return p
	case p.state == unreached:
		return o
	case o.state == known && p.state == known && o.n == p.n:
		return o
	default:
		return offset{state: unknown}
	}
}

func (o offset) add(p offset) offset {
	switch {
	case o.state == unreached || p.state == unreached:
		return offset{}
	case o.state == unknown || p.state == unknown:
		return offset{state: unknown}
	default:
		return offset{state: known, n: o.n + p.n}
	}
}

func (o offset) apChange() ApChange {
	if o.state == known {
		return Known(o.n)
	}
	return Unknown()
}
