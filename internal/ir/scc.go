package ir

// StronglyConnected finds the strongly connected components of a call
// graph using Tarjan's algorithm.
//
// Components are emitted in reverse topological order: every component
// reachable from another is emitted first. Nodes are visited in function
// table order so the result is deterministic.
func StronglyConnected(funcs []Function, graph map[FunctionID][]FunctionID) [][]FunctionID {
	var (
		index   = 0
		stack   []FunctionID
		indices = make(map[FunctionID]int)
		lowlink = make(map[FunctionID]int)
		onStack = make(map[FunctionID]bool)
		sccs    [][]FunctionID
	)

	var strongConnect func(FunctionID)
	strongConnect = func(v FunctionID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component.
		if lowlink[v] == indices[v] {
			var scc []FunctionID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, f := range funcs {
		if _, visited := indices[f.ID]; !visited {
			strongConnect(f.ID)
		}
	}
	return sccs
}

// HasSelfLoop reports whether f calls itself directly.
func HasSelfLoop(f FunctionID, graph map[FunctionID][]FunctionID) bool {
	for _, w := range graph[f] {
		if w == f {
			return true
		}
	}
	return false
}
