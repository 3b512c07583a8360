package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/htn/internal/engine"
)

// TraceEvent is a planner trace event in text form.
type TraceEvent struct {
	Kind  string   `json:"kind"`
	Depth int      `json:"depth"`
	Task  string   `json:"task"`
	Case  int      `json:"case"`
	Args  []string `json:"args"`
}

// String formats the event as "<depth> <kind> task(args)[ case N]".
func (e TraceEvent) String() string {
	s := fmt.Sprintf("%d %s %s(%s)", e.Depth, e.Kind, e.Task, strings.Join(e.Args, ", "))
	if e.Case >= 0 {
		s += fmt.Sprintf(" case %d", e.Case)
	}
	return s
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID is the ID the attempt was recorded under.
	RunID string `json:"run_id"`

	// Found reports whether the root task has a plan.
	Found bool `json:"found"`

	// Plan holds the formatted plan steps.
	Plan []string `json:"plan"`

	// PlanHash is the plan fingerprint, empty without a plan.
	PlanHash string `json:"plan_hash,omitempty"`

	Stats engine.Stats `json:"stats"`

	// Trace holds every planner transition in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Plan:   []string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records a planner event.
func (r *Result) AddTrace(ev engine.TraceEvent) {
	args := make([]string, len(ev.Args))
	for i, a := range ev.Args {
		args[i] = a.String()
	}
	r.Trace = append(r.Trace, TraceEvent{
		Kind:  ev.Kind.String(),
		Depth: ev.Depth,
		Task:  ev.Task,
		Case:  ev.Case,
		Args:  args,
	})
}

// TraceStrings formats every trace event.
func (r *Result) TraceStrings() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = ev.String()
	}
	return out
}
