package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// PlanStep is one primitive task application in a plan.
type PlanStep struct {
	Task int        `json:"task"`
	Name string     `json:"name"`
	Args []ir.Value `json:"-"`
}

// String formats the step as name(arg, ...).
func (s PlanStep) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Stats summarizes the search that produced a plan.
type Stats struct {
	Steps      int `json:"steps"`
	Expansions int `json:"expansions"`
	Backtracks int `json:"backtracks"`
	Fallbacks  int `json:"fallbacks"`
	MaxDepth   int `json:"max_depth"`
}

// Plan is the ordered sequence of primitive tasks found for a root task.
type Plan struct {
	Root  string     `json:"root"`
	Args  []ir.Value `json:"-"`
	Steps []PlanStep `json:"-"`
	Stats Stats      `json:"stats"`
}

// Len returns the number of primitive steps.
func (p *Plan) Len() int {
	return len(p.Steps)
}

// Strings returns each step formatted with PlanStep.String.
func (p *Plan) Strings() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.String()
	}
	return out
}

// Doc returns the plan as a tree of canonical-JSON-safe values.
func (p *Plan) Doc() map[string]any {
	steps := make([]any, len(p.Steps))
	for i, s := range p.Steps {
		args := make([]any, len(s.Args))
		for j, a := range s.Args {
			args[j] = a.String()
		}
		steps[i] = map[string]any{"task": s.Name, "args": args}
	}
	args := make([]any, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}
	return map[string]any{"root": p.Root, "args": args, "steps": steps}
}

// Fingerprint returns a content hash of the plan's root and steps.
func (p *Plan) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.PlanFingerprint, p.Doc())
}

// ParseArgs converts textual arguments into values of task's parameter
// types.
func ParseArgs(dom *compiler.Domain, task string, args []string) ([]ir.Value, error) {
	ti, ok := dom.TaskIndex(task)
	if !ok {
		return nil, &PlanError{Task: task, Message: "unknown task"}
	}
	params := dom.Tasks[ti].Params
	if len(args) != len(params) {
		return nil, &PlanError{
			Task:    task,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(params), len(args)),
		}
	}
	out := make([]ir.Value, len(args))
	for i, s := range args {
		v, err := ir.ParseValue(params[i].Type, s)
		if err != nil {
			return nil, &PlanError{Task: task, Message: fmt.Sprintf("argument %s: %v", params[i].Name, err)}
		}
		out[i] = v
	}
	return out, nil
}
