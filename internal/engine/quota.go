package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default step budget of one planning attempt.
const DefaultMaxSteps = 100000

// DefaultMaxDepth is the default limit on the expansion stack depth.
const DefaultMaxDepth = 1000

// QuotaEnforcer counts planner steps and enforces a maximum.
//
// One step is one resumption of the deepest frame. The budget is the host's
// guard against domains whose search does not terminate on a given fact
// database, for example through unbounded recursion. A limit of 0 or less
// disables the check.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates it against the limit.
// task names the root task in the returned error.
func (q *QuotaEnforcer) Check(task string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Task:  task,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset sets the step counter back to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the step limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when planning exceeds the step budget.
// The attempt is abandoned; no partial plan is returned.
type StepsExceededError struct {
	Task  string // root task of the attempt
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("planning %s exceeded max steps quota: %d steps > %d limit",
		e.Task, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
