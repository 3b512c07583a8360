package compiler

import (
	"fmt"

	"github.com/roach88/htn/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrEmptyDomain      = "E200" // no composite tasks
	ErrDuplicateName    = "E201" // duplicate fact, task or parameter name
	ErrReservedName     = "E202" // name reserved by the domain format
	ErrInvalidFieldType = "E203" // unknown field type
	ErrUndeclaredFact   = "E204" // literal references an undeclared fact
	ErrUndeclaredTask   = "E205" // task list references an undeclared task
	ErrArityMismatch    = "E206" // wrong number of arguments
	ErrTypeMismatch     = "E207" // variable used at conflicting field types
	ErrConstantRange    = "E208" // constant not representable in the field type
	ErrUnboundVariable  = "E209" // task-list variable not bound on every path
	ErrNoCases          = "E210" // composite task without cases
	ErrInvalidGuard     = "E211" // guard expression does not compile
	ErrWildcardArgument = "E212" // "_" used where a value is required
	ErrInvalidExpr      = "E213" // argument expression does not compile
)

// Wildcard is the variable name that matches any field value without
// binding it.
const Wildcard = "_"

// ValidationError represents a domain validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a parsed domain.
// Returns all errors found (does not fail-fast).
func Validate(d *ir.Domain) []ValidationError {
	var errs []ValidationError

	if len(d.Tasks) == 0 {
		errs = append(errs, ValidationError{
			Field:   "tasks",
			Message: "at least one composite task is required",
			Code:    ErrEmptyDomain,
		})
	}

	factNames := make(map[string]bool)
	for i, f := range d.Facts {
		field := fmt.Sprintf("facts[%d]", i)
		if factNames[f.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate fact name: %q", f.Name),
				Code:    ErrDuplicateName,
			})
		}
		factNames[f.Name] = true
		if f.Name == notKey {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%q is reserved for negated literals", notKey),
				Code:    ErrReservedName,
			})
		}
		errs = append(errs, validateParams(field, f.Params)...)
	}

	taskNames := make(map[string]bool)
	checkTaskName := func(field, name string) {
		if taskNames[name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate task name: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		taskNames[name] = true
	}

	for i, p := range d.Primitives {
		field := fmt.Sprintf("primitives[%d]", i)
		checkTaskName(field, p.Name)
		errs = append(errs, validateParams(field, p.Params)...)
	}

	idx := newDeclIndex(d)
	for i, t := range d.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		checkTaskName(field, t.Name)
		errs = append(errs, validateParams(field, t.Params)...)

		if len(t.Cases) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".cases",
				Message: fmt.Sprintf("task %q has no cases", t.Name),
				Code:    ErrNoCases,
			})
		}
		for j := range t.Cases {
			_, caseErrs := analyzeCase(idx, t.Params, &t.Cases[j], fmt.Sprintf("%s.cases[%d]", field, j))
			errs = append(errs, caseErrs...)
		}
	}

	return errs
}

func validateParams(field string, params []ir.Param) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, p := range params {
		pf := fmt.Sprintf("%s.params[%d]", field, i)
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("duplicate parameter name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[p.Name] = true
		if p.Name == Wildcard {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("%q cannot name a parameter", Wildcard),
				Code:    ErrReservedName,
			})
		}
		if !p.Type.Valid() {
			errs = append(errs, ValidationError{
				Field:   pf + ".type",
				Message: fmt.Sprintf("invalid type %s for parameter %q", p.Type, p.Name),
				Code:    ErrInvalidFieldType,
			})
		}
	}
	return errs
}
