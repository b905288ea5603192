// Package harness runs conformance scenarios against the interpreter and
// the static analyzers.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: felt_fib
//	description: "fib(1, 1, 7) is 21"
//	program: ../programs/fib.cue   # relative to the scenario file
//	max_steps: 1000                 # optional, 0 is unlimited
//	flow:
//	  - invoke: fib
//	    inputs: [1, 1, 7]           # a scalar is a single-cell value
//	    expect:
//	      outputs: [21]
//	  - invoke: fib
//	    inputs: [1, 1, 100000]
//	    expect:
//	      error: STEPS_EXCEEDED
//	assertions:
//	  - type: trace_count
//	    libfunc: felt_add
//	    count: 7
//	  - type: ap_change
//	    function: fib
//	    expect: Known(0)
//
// Multi-cell values are written as sequences: inputs: [[1, 2], 3].
//
// # Assertion Types
//
//   - trace_contains: a libfunc was invoked (optionally in a given function)
//   - trace_order: libfuncs were first invoked in this order
//   - trace_count: a libfunc was invoked exactly N times
//   - ap_change: the analyzed ap change of a function
//   - required_vars: the variables required before a statement
//   - recorded_runs: the number of runs of a function in the run log
//
// # Deterministic Testing
//
// Every run is recorded in an in-memory run log with sequential run ids,
// so identical scenarios produce identical results and golden snapshots.
package harness
