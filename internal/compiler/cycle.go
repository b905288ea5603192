package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/sierra/internal/ir"
)

// RecursionWarning reports a group of functions that call each other.
//
// Recursion is legal; it is reported because the ap change of every
// function in the group is usually Unknown, which forbids
// ap-based addressing after calls into it.
type RecursionWarning struct {
	Path    []string `json:"path"`    // ["even", "odd", "even"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeRecursion finds recursive function groups.
//
// The algorithm:
//  1. Build the call graph from user function arguments of the invocations
//     reachable from each function entry
//  2. Find strongly connected components
//  3. Report each component with more than one member, or a self-loop
//
// Unlike the ap-change analyzer, no specialization happens here, so the
// check also runs on programs that do not validate yet.
func AnalyzeRecursion(p *ir.Program) []RecursionWarning {
	graph := CallGraph(p)

	warnings := []RecursionWarning{}
	for _, scc := range ir.StronglyConnected(p.Funcs, graph) {
		if len(scc) > 1 || ir.HasSelfLoop(scc[0], graph) {
			warnings = append(warnings, recursionWarning(scc, graph))
		}
	}
	return warnings
}

// CallGraph maps each function to the functions referenced by invocations
// reachable from its entry, in statement order. Targets that do not
// resolve are skipped.
func CallGraph(p *ir.Program) map[ir.FunctionID][]ir.FunctionID {
	labels := ir.NewLabelMap(p.Statements)
	graph := make(map[ir.FunctionID][]ir.FunctionID, len(p.Funcs))

	for _, f := range p.Funcs {
		callees := []ir.FunctionID{}
		seen := map[ir.StatementIdx]bool{}
		work := []ir.StatementIdx{f.Entry}
		for len(work) > 0 {
			idx := work[len(work)-1]
			work = work[:len(work)-1]
			stmt, ok := p.Statement(idx)
			if !ok || seen[idx] {
				continue
			}
			seen[idx] = true

			switch stmt.Kind {
			case ir.StmtLabel:
				work = append(work, idx.Next())
			case ir.StmtInvocation:
				if stmt.Invocation == nil {
					continue
				}
				for _, a := range stmt.Invocation.Args {
					if a.Kind == ir.ArgUserFunc {
						callees = append(callees, a.Func)
					}
				}
				for _, b := range stmt.Invocation.Branches {
					if b.Target.Kind == ir.TargetLabel {
						if _, ok := labels.Lookup(b.Target.Label); !ok {
							continue
						}
					}
					work = append(work, labels.Next(idx, b.Target))
				}
			}
		}
		graph[f.ID] = callees
	}
	return graph
}

func recursionWarning(scc []ir.FunctionID, graph map[ir.FunctionID][]ir.FunctionID) RecursionWarning {
	if len(scc) == 1 {
		fn := string(scc[0])
		return RecursionWarning{
			Path:    []string{fn, fn},
			Message: fmt.Sprintf("Recursive function: %s → %s", fn, fn),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return RecursionWarning{
		Path:    path,
		Message: fmt.Sprintf("Mutually recursive functions: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []ir.FunctionID, graph map[ir.FunctionID][]ir.FunctionID) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[ir.FunctionID]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{string(current)}
	visited := make(map[ir.FunctionID]bool)

	for {
		visited[current] = true

		var next ir.FunctionID
		found := false
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				found = true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, string(next))
		if next == start {
			break
		}
		current = next
	}

	return path
}
