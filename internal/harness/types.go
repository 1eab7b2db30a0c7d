package harness

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// TraceEvent is one invocation or completion in the scenario trace.
type TraceEvent struct {
	Type       string      `json:"type"` // "invocation" or "completion"
	ActionURI  string      `json:"action_uri,omitempty"`
	Args       interface{} `json:"args,omitempty"`
	OutputCase string      `json:"output_case,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Seq        int64       `json:"seq"`
}

// Snapshot is the final state of one subject: summary fields plus rows
// that final_state assertions can select with a where clause.
type Snapshot struct {
	Summary map[string]interface{}   `json:"summary"`
	Rows    []map[string]interface{} `json:"rows,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds the final snapshot of every subject, keyed by subject name.
	State map[string]Snapshot `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]Snapshot),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(actionURI string, args interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventInvocation,
		ActionURI: actionURI,
		Args:      args,
		Seq:       seq,
	})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(outputCase string, result interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       EventCompletion,
		OutputCase: outputCase,
		Result:     result,
		Seq:        seq,
	})
}
