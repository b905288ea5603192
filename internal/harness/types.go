package harness

// TraceEvent is one executed invocation, tagged with the flow step (run)
// that produced it.
type TraceEvent struct {
	Run       int    `json:"run"`
	Depth     int    `json:"depth"`
	Function  string `json:"function"`
	Statement int    `json:"statement"`
	LibFunc   string `json:"libfunc"`
	Branch    int    `json:"branch"`
}

// RunResult is the outcome of one flow step.
type RunResult struct {
	RunID     string     `json:"run_id"`
	Function  string     `json:"function"`
	Inputs    [][]string `json:"inputs"`
	Outputs   [][]string `json:"outputs,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
	Statement int        `json:"statement,omitempty"`
	Steps     int        `json:"steps"`
}

// Failed reports whether the run ended in a simulation error.
func (r *RunResult) Failed() bool {
	return r.ErrorCode != ""
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Runs holds one entry per flow step, in order.
	Runs []RunResult `json:"runs"`

	// Trace contains the invocations of all runs in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunResult{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
