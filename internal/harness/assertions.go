package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the plan to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Plan     []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Plan) > 0 {
		fmt.Fprintf(&buf, "\nPlan:\n")
		for i, step := range e.Plan {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, step)
		}
	}

	return buf.String()
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertPlanEquals:
		return assertPlanEquals(r, a)
	case AssertPlanContains:
		return assertPlanContains(r, a)
	case AssertPlanOrder:
		return assertPlanOrder(r, a)
	case AssertPlanLength:
		return assertPlanLength(r, a)
	case AssertNoPlan:
		return assertNoPlan(r)
	case AssertTraceCount:
		return assertTraceCount(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func requirePlan(r *Result, typ string) error {
	if r.Found {
		return nil
	}
	return &AssertionError{Type: typ, Expected: "a plan", Actual: "no plan found"}
}

func assertPlanEquals(r *Result, a Assertion) error {
	if err := requirePlan(r, a.Type); err != nil {
		return err
	}
	if slices.Equal(r.Plan, a.Steps) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%q", a.Steps),
		Actual:   fmt.Sprintf("%q", r.Plan),
		Plan:     r.Plan,
	}
}

func assertPlanContains(r *Result, a Assertion) error {
	if err := requirePlan(r, a.Type); err != nil {
		return err
	}
	if slices.Contains(r.Plan, a.Step) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.Step,
		Actual:   "not found in plan",
		Plan:     r.Plan,
	}
}

// assertPlanOrder checks that the steps appear in order.
// Steps don't need to be consecutive.
func assertPlanOrder(r *Result, a Assertion) error {
	if err := requirePlan(r, a.Type); err != nil {
		return err
	}
	next := 0
	for _, step := range r.Plan {
		if next < len(a.Steps) && step == a.Steps[next] {
			next++
		}
	}
	if next == len(a.Steps) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("steps in order %q", a.Steps),
		Actual:   fmt.Sprintf("%q not found after %q", a.Steps[next], a.Steps[:next]),
		Plan:     r.Plan,
	}
}

func assertPlanLength(r *Result, a Assertion) error {
	if err := requirePlan(r, a.Type); err != nil {
		return err
	}
	if len(r.Plan) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d steps", a.Count),
		Actual:   fmt.Sprintf("%d steps", len(r.Plan)),
		Plan:     r.Plan,
	}
}

func assertNoPlan(r *Result) error {
	if !r.Found {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoPlan,
		Expected: "no plan",
		Actual:   fmt.Sprintf("plan with %d steps", len(r.Plan)),
		Plan:     r.Plan,
	}
}

func assertTraceCount(r *Result, a Assertion) error {
	n := 0
	for _, ev := range r.Trace {
		if ev.Kind == a.Kind && (a.Task == "" || ev.Task == a.Task) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	what := a.Kind
	if a.Task != "" {
		what += " " + a.Task
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s events", a.Count, what),
		Actual:   fmt.Sprintf("%d", n),
		Plan:     r.Plan,
	}
}
