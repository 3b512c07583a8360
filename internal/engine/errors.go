package engine

import (
	"errors"
	"fmt"
)

// ErrNoPlan is returned when every alternative of the root task has been
// exhausted.
var ErrNoPlan = errors.New("no plan found")

// PlanError reports a root task request the planner cannot start.
type PlanError struct {
	Task    string
	Message string
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	return fmt.Sprintf("plan %s: %s", e.Task, e.Message)
}

// DepthExceededError is returned when the expansion stack grows past the
// configured depth budget.
type DepthExceededError struct {
	Task  string // task whose expansion would exceed the budget
	Depth int
	Limit int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("expanding %s exceeded max depth: %d > %d limit", e.Task, e.Depth, e.Limit)
}

// ExprError is returned when a task-list argument expression cannot be
// evaluated for the current binding. The attempt is then over.
type ExprError struct {
	Task string // composite task whose case holds the expression
	Case int
	Expr string
	Err  error
}

// Error implements the error interface.
func (e *ExprError) Error() string {
	return fmt.Sprintf("%s case %d: argument %q: %v", e.Task, e.Case, e.Expr, e.Err)
}

// Unwrap returns the evaluation error.
func (e *ExprError) Unwrap() error {
	return e.Err
}

// IsNoPlan reports whether err means the root task has no plan.
func IsNoPlan(err error) bool {
	return errors.Is(err, ErrNoPlan)
}

// IsDepthExceededError returns true if the error is a DepthExceededError.
// Uses errors.As to handle wrapped errors.
func IsDepthExceededError(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}

// IsBudgetError reports whether err is one of the planner's budget errors.
func IsBudgetError(err error) bool {
	return IsStepsExceededError(err) || IsDepthExceededError(err)
}
