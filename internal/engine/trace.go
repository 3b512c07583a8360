package engine

import (
	"fmt"

	"github.com/roach88/htn/internal/ir"
)

// TraceKind identifies a planner event.
type TraceKind uint8

const (
	// TraceExpand is recorded when a composite task occurrence is pushed.
	TraceExpand TraceKind = iota
	// TraceBinding is recorded when a case precondition yields a binding.
	TraceBinding
	// TraceEmit is recorded when a primitive is appended to the plan.
	TraceEmit
	// TraceFallback is recorded when a task moves on to its next case.
	TraceFallback
	// TraceDone is recorded when a task occurrence is fully expanded.
	TraceDone
	// TraceFail is recorded when every case of a task occurrence failed.
	TraceFail
)

var traceKindNames = [...]string{"expand", "binding", "emit", "fallback", "done", "fail"}

func (k TraceKind) String() string {
	if int(k) < len(traceKindNames) {
		return traceKindNames[k]
	}
	return fmt.Sprintf("TraceKind(%d)", uint8(k))
}

// TraceEvent describes one planner transition. Args are copies and may be
// retained.
type TraceEvent struct {
	Kind  TraceKind
	Depth int
	Task  string
	Case  int // case index within the task, -1 when not applicable
	Args  []ir.Value
	// Bindings holds the precondition outputs of a TraceBinding event.
	Bindings map[string]ir.Value
}

func (e TraceEvent) String() string {
	s := fmt.Sprintf("%*s%s %s%v", e.Depth*2, "", e.Kind, e.Task, e.Args)
	if e.Case >= 0 {
		s += fmt.Sprintf(" case %d", e.Case)
	}
	return s
}
